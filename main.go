package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ByLCY/inkpaper/batch"
	"github.com/ByLCY/inkpaper/config"
	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/narrative"
	"github.com/ByLCY/inkpaper/panel"
	"github.com/ByLCY/inkpaper/renderer"
)

func main() {
	log.SetFlags(0)
	if err := rootCmd().Execute(); err != nil {
		log.Fatalf("inkpaper: %v", err)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "inkpaper",
		Short:         "墨水屏天气叙述排版工具",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "面板配置文件（.toml / .yaml），为空时使用内置 400x300 配置")

	load := func() (*panel.Panel, error) { return loadPanel(configPath) }
	root.AddCommand(renderCmd(load), capacityCmd(load), measureCmd(load), batchCmd(load), previewCmd(load))
	return root
}

func loadPanel(path string) (*panel.Panel, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	return panel.New(cfg)
}

func renderCmd(load func() (*panel.Panel, error)) *cobra.Command {
	var (
		input, output, region, debugPath, data, header string
		crop, fit                                      bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "排版叙述文本并输出 PNG 或 PDF",
		Example: `  inkpaper render --in narrative.txt --out panel.png
  echo "<b>Now:</b> Cloudy" | inkpaper render --in - --out - --crop > region.png
  inkpaper render --in tpl.txt --data '{"temp":12}' --header 'MON 15 DEC|AQ: <red>POOR</red>|SAG' --out panel.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load()
			if err != nil {
				return err
			}
			text, err := readInput(input)
			if err != nil {
				return err
			}
			if text, err = prepare(p, region, text, data, fit); err != nil {
				return err
			}
			res, err := p.Layout(region, text)
			if err != nil {
				return fmt.Errorf("布局计算失败: %w", err)
			}
			if debugPath != "" {
				if err := writeDebug(res, debugPath); err != nil {
					return err
				}
			}
			if res.Truncated {
				log.Printf("警告: 区域 %s 放不下全部文本，丢弃了 %d 行", region, res.Overflow)
			}

			var frame renderer.Frame
			if crop {
				frame = renderer.Single(res)
				frame.Background = p.Config().Background()
			} else {
				if frame, err = p.Frame(map[string]string{region: text}, parseHeader(header)); err != nil {
					return err
				}
			}

			var r renderer.Renderer
			if strings.EqualFold(filepath.Ext(output), ".pdf") {
				r = p.PDF(filepath.Base(input))
			} else if r, err = p.Raster(); err != nil {
				return err
			}
			out, err := r.RenderFrame(frame)
			if err != nil {
				return fmt.Errorf("渲染失败: %w", err)
			}
			return writeOutput(output, out)
		},
	}
	cmd.Flags().StringVar(&input, "in", "-", "叙述文本文件，- 表示标准输入")
	cmd.Flags().StringVar(&output, "out", "output/panel.png", "输出路径（.png / .pdf），- 表示标准输出")
	cmd.Flags().StringVar(&region, "region", config.RegionDescription, "排版区域名")
	cmd.Flags().StringVar(&debugPath, "debug", "", "布局调试 JSON 输出路径")
	cmd.Flags().StringVar(&data, "data", "", "填充 ${...} 占位符的 JSON 数据")
	cmd.Flags().StringVar(&header, "header", "", "页眉字段，用 | 分隔左、中、右")
	cmd.Flags().BoolVar(&crop, "crop", false, "只输出区域本身而不是整块面板")
	cmd.Flags().BoolVar(&fit, "fit", false, "按区域容量预先截断文本")
	return cmd
}

func capacityCmd(load func() (*panel.Panel, error)) *cobra.Command {
	var (
		region        string
		width, height int
	)
	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "估算区域可容纳的字符数",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load()
			if err != nil {
				return err
			}
			opts, err := p.Options(region)
			if err != nil {
				return err
			}
			if width > 0 {
				opts.Width = width
			}
			if height > 0 {
				opts.Height = height
			}
			return printJSON(cmd.OutOrStdout(), opts.Capacity())
		},
	}
	cmd.Flags().StringVar(&region, "region", config.RegionDescription, "区域名")
	cmd.Flags().IntVar(&width, "width", 0, "覆盖区域宽度（px）")
	cmd.Flags().IntVar(&height, "height", 0, "覆盖区域高度（px）")
	return cmd
}

func measureCmd(load func() (*panel.Panel, error)) *cobra.Command {
	var input, region string
	cmd := &cobra.Command{
		Use:   "measure",
		Short: "输出叙述文本在区域内的排版度量",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load()
			if err != nil {
				return err
			}
			text, err := readInput(input)
			if err != nil {
				return err
			}
			m, err := p.Measure(region, text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	}
	cmd.Flags().StringVar(&input, "in", "-", "叙述文本文件，- 表示标准输入")
	cmd.Flags().StringVar(&region, "region", config.RegionDescription, "区域名")
	return cmd
}

func batchCmd(load func() (*panel.Panel, error)) *cobra.Command {
	var (
		outDir         string
		limit, workers int
		verify         bool
	)
	cmd := &cobra.Command{
		Use:   "batch <narratives.csv>",
		Short: "按 CSV（date,hour,narrative_text）批量生成 PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verify {
				present, missing, err := batch.Verify(args[0], outDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "已存在 %d 张，缺失 %d 张\n", present, len(missing))
				for _, name := range missing {
					fmt.Fprintf(cmd.OutOrStdout(), "  缺失: %s\n", name)
				}
				return nil
			}

			p, err := load()
			if err != nil {
				return err
			}
			r, err := p.Raster()
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = p.Config().Batch.Workers
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			start := time.Now()
			sum, err := batch.Run(ctx, batch.Job{
				CSVPath: args[0],
				OutDir:  outDir,
				Max:     limit,
				Workers: workers,
				Render:  p.NarrativeRenderer(r),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "共 %d 条：生成 %d，跳过 %d，失败 %d，写入 %s，耗时 %s\n",
				sum.Total, sum.Rendered, sum.Skipped, sum.Failed,
				humanize.Bytes(uint64(sum.Bytes)),
				durafmt.Parse(time.Since(start)).LimitFirstN(2).String())
			if err != nil {
				return err
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d 条记录渲染失败", sum.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "images", "PNG 输出目录")
	cmd.Flags().IntVar(&limit, "max", 0, "最多处理的记录数，0 表示全部")
	cmd.Flags().IntVar(&workers, "workers", 0, "并发数，0 时使用配置中的 batch.workers")
	cmd.Flags().BoolVar(&verify, "verify", false, "只检查图像是否齐全，不渲染")
	return cmd
}

// prepare 填充模板占位符，并在需要时按区域容量截断。
func prepare(p *panel.Panel, region, text, data string, fit bool) (string, error) {
	if data != "" {
		var v any
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return "", fmt.Errorf("解析 data JSON 失败: %w", err)
		}
		text = narrative.Interpolate(text, v)
	}
	if fit {
		c, err := p.Capacity(region)
		if err != nil {
			return "", err
		}
		text = narrative.Fit(text, c)
	}
	return text, nil
}

// parseHeader 把 "左|中|右" 拆成页眉字段，空字段被跳过。
func parseHeader(v string) []layout.Field {
	if v == "" {
		return nil
	}
	aligns := []layout.Align{layout.AlignStart, layout.AlignCenter, layout.AlignEnd}
	var fields []layout.Field
	for i, part := range strings.SplitN(v, "|", 3) {
		if part = strings.TrimSpace(part); part != "" {
			fields = append(fields, layout.Field{Markup: part, Align: aligns[i]})
		}
	}
	return fields
}

func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("读取输入失败: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("拒绝向终端输出二进制数据，请重定向标准输出或使用 --out 指定文件")
		}
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	log.Printf("已生成：%s（%s）", path, humanize.Bytes(uint64(len(data))))
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := layout.DebugJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
