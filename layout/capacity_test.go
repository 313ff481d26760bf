package layout

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEstimateCapacity(t *testing.T) {
	c := EstimateCapacity(stubMetrics{}, 200, 40)
	if c.CharsPerLine != 25 || c.LinesAvailable != 2 || c.TotalCapacity != 50 {
		t.Fatalf("unexpected capacity: %+v", c)
	}
	if c.AverageAdvance != 8 || c.LineHeight != 20 {
		t.Fatalf("unexpected metrics in capacity: %+v", c)
	}
}

func TestEstimateCapacityDegenerate(t *testing.T) {
	for _, wh := range [][2]int{{0, 40}, {200, 0}, {-10, 40}, {200, -1}, {7, 40}, {200, 19}} {
		c := EstimateCapacity(stubMetrics{}, wh[0], wh[1])
		if c.TotalCapacity != 0 {
			t.Fatalf("%v: expected zero capacity, got %+v", wh, c)
		}
	}
}

func TestEstimateCapacityMonotonic(t *testing.T) {
	m := stubMetrics{}
	for h := 0; h <= 120; h += 7 {
		prev := -1
		for w := 0; w <= 420; w += 3 {
			c := EstimateCapacity(m, w, h).TotalCapacity
			if c < prev {
				t.Fatalf("capacity shrank when widening: w=%d h=%d %d < %d", w, h, c, prev)
			}
			prev = c
		}
	}
	for w := 0; w <= 420; w += 11 {
		prev := -1
		for h := 0; h <= 120; h++ {
			c := EstimateCapacity(m, w, h).TotalCapacity
			if c < prev {
				t.Fatalf("capacity shrank when growing taller: w=%d h=%d", w, h)
			}
			prev = c
		}
	}
}

// TestCapacityIsPlaceable 验证估算值不超过排版实际能放下的普通字符数。
func TestCapacityIsPlaceable(t *testing.T) {
	opts := Options{Metrics: stubMetrics{}, Width: 200, Height: 40}
	c := opts.Capacity()

	// 每行恰好 CharsPerLine 个字符：两个 12 字符的单词中间一个空格
	line := strings.Repeat("a", 12) + " " + strings.Repeat("b", 12)
	if utf8.RuneCountInString(line) != c.CharsPerLine {
		t.Fatalf("fixture mismatch: %d vs %d", utf8.RuneCountInString(line), c.CharsPerLine)
	}
	text := strings.TrimSpace(strings.Repeat(line+" ", c.LinesAvailable))
	res, err := Build(text, opts)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if res.Truncated {
		t.Fatalf("text of exactly the estimated capacity was truncated: %+v", res)
	}
	placed := 0
	for _, ln := range res.Lines {
		placed += utf8.RuneCountInString(ln.Text())
	}
	if placed < c.TotalCapacity {
		t.Fatalf("placed %d chars, estimate promised %d", placed, c.TotalCapacity)
	}
}
