package panel

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/ByLCY/inkpaper/config"
	"github.com/ByLCY/inkpaper/fonts"
	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/markup"
	"github.com/ByLCY/inkpaper/renderer"
)

func basicPanel() *Panel {
	return WithFonts(config.Default(), fonts.Basic(1))
}

func TestFrameComposesRegions(t *testing.T) {
	p := basicPanel()
	frame, err := p.Frame(
		map[string]string{config.RegionDescription: "<b>Now:</b> Cloudy with <red>rain</red>.", "unknown": "ignored"},
		[]layout.Field{{Markup: "MON 15 DEC"}, {Markup: "AQ: <red>POOR</red>", Align: layout.AlignCenter}},
	)
	if err != nil {
		t.Fatalf("Frame error: %v", err)
	}
	if frame.Width != 400 || frame.Height != 300 || len(frame.Blocks) != 2 {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	header, desc := frame.Blocks[0], frame.Blocks[1]
	if header.X != 15 || header.Y != 10 || len(header.Result.Lines) != 1 {
		t.Fatalf("header block: %+v", header)
	}
	if desc.Y != 100 || desc.Result.Lines[0].Text() != "Now: Cloudy with rain." {
		t.Fatalf("description block: %+v", desc)
	}
}

func TestCapacityAndMeasure(t *testing.T) {
	p := basicPanel()
	c, err := p.Capacity(config.RegionDescription)
	if err != nil {
		t.Fatalf("Capacity error: %v", err)
	}
	// 370/7 = 52 字/行，200/13 = 15 行
	if c.CharsPerLine != 52 || c.LinesAvailable != 15 || c.TotalCapacity != 780 {
		t.Fatalf("capacity = %+v", c)
	}
	m, err := p.Measure(config.RegionDescription, "Sunny")
	if err != nil || m.LineCount != 1 || m.MaxLineWidth != 35 || !m.Fits {
		t.Fatalf("measure = %+v, %v", m, err)
	}
	if _, err := p.Capacity("nope"); err == nil {
		t.Fatalf("expected error for unknown region")
	}
}

func TestNarrativeRendererOutputsPanelPNG(t *testing.T) {
	p := basicPanel()
	r, err := p.Raster()
	if err != nil {
		t.Fatalf("Raster error: %v", err)
	}
	data, err := p.NarrativeRenderer(r)("Cloudy.")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("panel size %v", b)
	}
	pdf, err := p.PDF("test").RenderFrame(mustFrame(t, p))
	if err != nil || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("PDF render failed: %v", err)
	}
}

func mustFrame(t *testing.T, p *Panel) renderer.Frame {
	t.Helper()
	f, err := p.Frame(map[string]string{config.RegionDescription: "Cloudy."}, nil)
	if err != nil {
		t.Fatalf("Frame error: %v", err)
	}
	return f
}

func TestNewLoadsDefaultFonts(t *testing.T) {
	p, err := New(nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if p.Fonts().LineHeight(markup.Plain) <= 0 {
		t.Fatalf("default fonts not loaded")
	}
}
