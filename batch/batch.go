// Package batch renders a CSV of narratives into one PNG per record.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/remeh/sizedwaitgroup"
)

// Record 是 CSV 中的一行：日期、时刻与叙述文本。
type Record struct {
	Date      string
	Hour      string
	Narrative string
}

// Filename 返回输出文件名，例如 2024-01-01-06-00.png。
func (r Record) Filename() string {
	return r.Date + "-" + strings.ReplaceAll(r.Hour, ":", "-") + ".png"
}

// Validate 拒绝会让文件名逃出输出目录的日期或时刻。
func (r Record) Validate() error {
	for _, v := range []string{r.Date, r.Hour} {
		if strings.ContainsAny(v, `/\`) {
			return fmt.Errorf("记录 %q %q 含有路径分隔符", r.Date, r.Hour)
		}
	}
	return nil
}

// RenderFunc 把一段叙述渲染为图像字节。
type RenderFunc func(narrative string) ([]byte, error)

// Job 描述一次批量渲染。
type Job struct {
	CSVPath string
	OutDir  string
	Max     int // 最多处理的记录数，<=0 表示全部
	Workers int // 并发数，<=0 时取 CPU 数
	Render  RenderFunc
}

// Summary 汇总一次批量渲染的结果。
type Summary struct {
	Total    int
	Rendered int
	Skipped  int
	Failed   int
	Bytes    int64
	Errors   []error
}

// ReadRecords 读取带表头的 CSV，需要 date、hour、narrative_text 三列，列顺序不限。
func ReadRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("读取 CSV 表头失败: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range []string{"date", "hour", "narrative_text"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("CSV 缺少 %s 列", name)
		}
	}
	field := func(row []string, name string) string {
		if i := cols[name]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var out []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取 CSV 失败: %w", err)
		}
		rec := Record{Date: field(row, "date"), Hour: field(row, "hour"), Narrative: field(row, "narrative_text")}
		if rec.Date == "" || rec.Hour == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func loadRecords(path string, max int) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 CSV 文件 %s: %w", path, err)
	}
	defer f.Close()
	records, err := ReadRecords(f)
	if err != nil {
		return nil, err
	}
	if max > 0 && len(records) > max {
		records = records[:max]
	}
	return records, nil
}

// Run 逐条渲染记录并写入 OutDir。已存在的文件会被跳过；单条失败不会中断整批。
// ctx 取消后不再派发新的记录，返回已完成部分的汇总以及 ctx.Err()。
func Run(ctx context.Context, job Job) (Summary, error) {
	if job.Render == nil {
		return Summary{}, fmt.Errorf("batch: 缺少渲染函数")
	}
	records, err := loadRecords(job.CSVPath, job.Max)
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(job.OutDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("创建输出目录失败: %w", err)
	}
	workers := job.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log.Printf("batch: %d 条记录，%d 个并发", len(records), workers)

	var mu sync.Mutex
	sum := Summary{Total: len(records)}
	wg := sizedwaitgroup.New(workers)
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			mu.Lock()
			sum.Failed++
			sum.Errors = append(sum.Errors, err)
			mu.Unlock()
			log.Printf("batch: %v", err)
			continue
		}
		path := filepath.Join(job.OutDir, rec.Filename())
		if seen[path] {
			mu.Lock()
			sum.Skipped++
			mu.Unlock()
			log.Printf("batch: 重复记录 %s，跳过", rec.Filename())
			continue
		}
		seen[path] = true
		if _, err := os.Stat(path); err == nil {
			mu.Lock()
			sum.Skipped++
			mu.Unlock()
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if err := wg.AddWithContext(ctx); err != nil {
			break
		}
		go func(rec Record, path string) {
			defer wg.Done()
			n, err := renderOne(job.Render, rec, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Failed++
				sum.Errors = append(sum.Errors, err)
				log.Printf("batch: %v", err)
				return
			}
			sum.Rendered++
			sum.Bytes += int64(n)
		}(rec, path)
	}
	wg.Wait()
	return sum, ctx.Err()
}

func renderOne(render RenderFunc, rec Record, path string) (int, error) {
	data, err := render(rec.Narrative)
	if err != nil {
		return 0, fmt.Errorf("渲染 %s 失败: %w", rec.Filename(), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return len(data), nil
}

// Verify 检查每条记录的图像是否存在，返回缺失的文件名。
func Verify(csvPath, outDir string) (present int, missing []string, err error) {
	records, err := loadRecords(csvPath, 0)
	if err != nil {
		return 0, nil, err
	}
	for _, rec := range records {
		if rec.Validate() != nil {
			missing = append(missing, rec.Filename())
			continue
		}
		if _, err := os.Stat(filepath.Join(outDir, rec.Filename())); err == nil {
			present++
		} else {
			missing = append(missing, rec.Filename())
		}
	}
	return present, missing, nil
}
