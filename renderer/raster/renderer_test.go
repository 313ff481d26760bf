package raster

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/ByLCY/inkpaper/fonts"
	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/markup"
	"github.com/ByLCY/inkpaper/renderer"
)

func build(t *testing.T, set *fonts.Set, text string, width, height int) *layout.Result {
	t.Helper()
	res, err := layout.Build(text, layout.Options{Metrics: set, Width: width, Height: height})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

// countInk 统计矩形内各调色板下标出现的次数。
func countInk(img *image.Paletted, rect image.Rectangle) map[uint8]int {
	counts := map[uint8]int{}
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			counts[img.ColorIndexAt(x, y)]++
		}
	}
	return counts
}

func TestImagePaintsSegmentColours(t *testing.T) {
	set := fonts.Basic(1)
	r, err := NewRenderer(set, Options{})
	if err != nil {
		t.Fatalf("NewRenderer error: %v", err)
	}
	res := build(t, set, "<red>Hi</red> there", 140, 13)
	frame := renderer.Frame{Width: 140, Height: 13, Background: markup.White}
	frame.Add(0, 0, res)
	img, err := r.Image(frame)
	if err != nil {
		t.Fatalf("Image error: %v", err)
	}

	red := countInk(img, image.Rect(0, 0, 14, 13))
	if red[2] == 0 || red[1] != 0 {
		t.Fatalf("red segment should be painted red only: %v", red)
	}
	black := countInk(img, image.Rect(14, 0, 14+6*7, 13))
	if black[1] == 0 || black[2] != 0 {
		t.Fatalf("plain segment should be painted black only: %v", black)
	}
	rest := countInk(img, image.Rect(14+6*7, 0, 140, 13))
	if rest[1] != 0 || rest[2] != 0 {
		t.Fatalf("nothing should be painted past the last segment: %v", rest)
	}
}

func TestPaintHonoursOrigin(t *testing.T) {
	set := fonts.Basic(1)
	r, _ := NewRenderer(set, Options{})
	res := build(t, set, "X", 20, 13)
	frame := renderer.Frame{Width: 60, Height: 40, Background: markup.White}
	frame.Add(30, 20, res)
	img, err := r.Image(frame)
	if err != nil {
		t.Fatalf("Image error: %v", err)
	}
	if c := countInk(img, image.Rect(0, 0, 60, 20)); c[1] != 0 {
		t.Fatalf("ink above the block origin: %v", c)
	}
	if c := countInk(img, image.Rect(30, 20, 37, 33)); c[1] == 0 {
		t.Fatalf("glyph not drawn at the block origin")
	}
}

func TestRenderEncodesPNG(t *testing.T) {
	set := fonts.Basic(1)
	res := build(t, set, "Cloudy", 100, 30)
	for _, tc := range []struct {
		opts Options
		w, h int
	}{
		{Options{}, 42, 13},
		{Options{Rotate: 90}, 13, 42},
		{Options{Rotate: 180, Scale: 2}, 84, 26},
	} {
		r, err := NewRenderer(set, tc.opts)
		if err != nil {
			t.Fatalf("NewRenderer error: %v", err)
		}
		data, err := r.Render(res)
		if err != nil {
			t.Fatalf("Render error: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode PNG: %v", err)
		}
		if b := img.Bounds(); b.Dx() != tc.w || b.Dy() != tc.h {
			t.Fatalf("%+v: size %dx%d, want %dx%d", tc.opts, b.Dx(), b.Dy(), tc.w, tc.h)
		}
	}
}

func TestRendererRejectsBadInput(t *testing.T) {
	set := fonts.Basic(1)
	if _, err := NewRenderer(set, Options{Rotate: 45}); err == nil {
		t.Fatalf("expected error for 45 degree rotation")
	}
	if _, err := NewRenderer(nil, Options{}); err == nil {
		t.Fatalf("expected error without fonts")
	}
	r, _ := NewRenderer(set, Options{})
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
	if _, err := r.RenderFrame(renderer.Frame{}); err == nil {
		t.Fatalf("expected error for empty frame")
	}
}
