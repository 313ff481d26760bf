package renderer

import (
	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/markup"
)

// Renderer 将布局结果输出为最终文件，例如 PNG 或 PDF。
// Render 绘制单个区域；RenderFrame 把多个区域合成到整块面板上。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
	RenderFrame(frame Frame) ([]byte, error)
}

// Frame 描述一整块面板：尺寸、背景色以及各区域的排版结果。
type Frame struct {
	Width      int
	Height     int
	Background markup.Color
	Blocks     []Block
}

// Block 是放置在面板 (X, Y) 处的一个区域。
type Block struct {
	X, Y   int
	Result *layout.Result
}

// Single 返回只包含 result 的白底面板，尺寸取结果的宽高。
func Single(result *layout.Result) Frame {
	f := Frame{Background: markup.White}
	if result == nil {
		return f
	}
	f.Width, f.Height = result.Width, result.Height
	f.Blocks = []Block{{Result: result}}
	return f
}

// Add 在 (x, y) 处追加一个区域，nil 结果被忽略。
func (f *Frame) Add(x, y int, result *layout.Result) {
	if result == nil {
		return
	}
	f.Blocks = append(f.Blocks, Block{X: x, Y: y, Result: result})
}
