package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit-safe lengths. Layout works in whole pixels; config files
// may give font sizes in pt/mm/in and the PDF preview needs millimetres.

// Unit represents the original unit of a length value.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, read as pixels
	UnitPX
	UnitPT
	UnitMM
	UnitIN
)

// Conversion constants.
const (
	PtToMm    = 0.352777
	MmToPt    = 1.0 / PtToMm
	MmPerInch = 25.4
	PtPerInch = 72.0
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	case UnitIN:
		return "in"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// Pixels converts the length to device pixels at the given resolution.
func (l Length) Pixels(dpi float64) float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value * dpi / PtPerInch
	case UnitMM:
		return l.Value * dpi / MmPerInch
	case UnitIN:
		return l.Value * dpi
	default:
		return l.Value
	}
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + UnitToString(l.Unit)
}

// ParseLength parses strings such as "20px", "15pt", "3.5mm" or "20".
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"mm", UnitMM}, {"in", UnitIN}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	if f < 0 {
		return Length{}, fmt.Errorf("长度不能为负: %q", value)
	}
	return Length{Value: f, Unit: unit}, nil
}

// PxToMm converts device pixels to millimetres at the given resolution.
func PxToMm(px, dpi float64) float64 {
	if dpi <= 0 {
		return px
	}
	return px * MmPerInch / dpi
}
