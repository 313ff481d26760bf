package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/ByLCY/inkpaper/config"
	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/markup"
	"github.com/ByLCY/inkpaper/panel"
)

func previewCmd(load func() (*panel.Panel, error)) *cobra.Command {
	var (
		input, region  string
		watch, noColor bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "在终端中预览排版结果",
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
			p, err := load()
			if err != nil {
				return err
			}
			show := func() error {
				text, err := readInput(input)
				if err != nil {
					return err
				}
				out, err := previewText(p, region, text)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			if err := show(); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			if input == "-" {
				return fmt.Errorf("--watch 需要通过 --in 指定文件")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watchFile(ctx, input, func() {
				if err := show(); err != nil {
					log.Printf("预览失败: %v", err)
				}
			})
		},
	}
	cmd.Flags().StringVar(&input, "in", "-", "叙述文本文件，- 表示标准输入")
	cmd.Flags().StringVar(&region, "region", config.RegionDescription, "区域名")
	cmd.Flags().BoolVar(&watch, "watch", false, "文件变化时重新预览")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "不输出终端颜色与样式")
	return cmd
}

// previewText 按排版结果逐行输出：每行即面板上的一行，样式与颜色用终端属性近似。
func previewText(p *panel.Panel, region, text string) (string, error) {
	res, err := p.Layout(region, text)
	if err != nil {
		return "", err
	}
	c, err := p.Capacity(region)
	if err != nil {
		return "", err
	}
	accent := lipgloss.Color(p.Config().Colors.Accent)

	var body strings.Builder
	for i, ln := range res.Lines {
		if i > 0 {
			body.WriteByte('\n')
		}
		writeLine(&body, ln, accent)
	}
	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dim := lipgloss.NewStyle().Faint(true)

	status := fmt.Sprintf("%s: %d 行 / %dpx，容量约 %d 字（%d x %d）",
		region, len(res.Lines), res.Height, c.TotalCapacity, c.CharsPerLine, c.LinesAvailable)
	if res.Truncated {
		status += lipgloss.NewStyle().Foreground(accent).Render(fmt.Sprintf("，截断 %d 行", res.Overflow))
	}
	return box.Render(body.String()) + "\n" + dim.Render(status), nil
}

func writeLine(w io.StringWriter, ln layout.Line, accent lipgloss.Color) {
	for _, seg := range ln.Segments {
		st := lipgloss.NewStyle()
		switch seg.Style {
		case markup.Bold, markup.HeaderBold:
			st = st.Bold(true)
		case markup.Italic:
			st = st.Italic(true)
		case markup.BoldItalic:
			st = st.Bold(true).Italic(true)
		case markup.Header:
			st = st.Underline(true)
		}
		if seg.Ink == markup.InkRed {
			st = st.Foreground(accent)
		}
		w.WriteString(st.Render(seg.Text))
	}
}

// watchFile 监听 path 所在目录，path 被写入或替换时调用 onChange，直到 ctx 结束。
// 许多编辑器保存时会先写临时文件再改名，因此监听目录而不是文件本身。
func watchFile(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听失败: %w", err)
	}
	defer w.Close()
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("监听 %s 失败: %w", path, err)
	}
	log.Printf("正在监听 %s，Ctrl+C 退出", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("文件监听错误: %v", err)
		}
	}
}
