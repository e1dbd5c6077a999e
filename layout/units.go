package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for length and line-height.

// ErrUnknownUnit is returned for any unit token outside the recognized set.
var ErrUnknownUnit = errors.New("未知的长度单位")

// Unit represents the original unit of a length value as specified in a job file.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
	UnitPX               // device pixels (CSS reference pixel, 96 per inch)
)

// Conversion constants between pt and mm.
const (
	PtToMm = 25.4 / 72
	MmToPt = 1.0 / PtToMm
	PxToMm = 25.4 / 96
)

// mmPer is the fixed ratio table against the reference unit (millimeter).
var mmPer = map[Unit]float64{
	UnitMM: 1,
	UnitCM: 10,
	UnitIN: 25.4,
	UnitPT: PtToMm,
	UnitPX: PxToMm,
}

// Units lists every recognized unit in a stable order.
func Units() []Unit { return []Unit{UnitIN, UnitCM, UnitMM, UnitPT, UnitPX} }

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	case UnitPX:
		return "px"
	default:
		return ""
	}
}

func (u Unit) String() string { return UnitToString(u) }

// ParseUnit maps a unit token (in, cm, mm, pt, px) to a Unit.
func ParseUnit(token string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "mm", "millimeter", "millimeters":
		return UnitMM, nil
	case "cm", "centimeter", "centimeters":
		return UnitCM, nil
	case "in", "inch", "inches":
		return UnitIN, nil
	case "pt", "point", "points":
		return UnitPT, nil
	case "px", "pixel", "pixels":
		return UnitPX, nil
	}
	return UnitNone, fmt.Errorf("%w: %q", ErrUnknownUnit, token)
}

// ToReference converts amount expressed in unit into millimeters.
func ToReference(amount float64, unit Unit) (float64, error) {
	ratio, ok := mmPer[unit]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownUnit, int(unit))
	}
	return amount * ratio, nil
}

// FromReference converts a millimeter amount into unit.
func FromReference(amount float64, unit Unit) (float64, error) {
	ratio, ok := mmPer[unit]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownUnit, int(unit))
	}
	return amount / ratio, nil
}

// Convert converts amount between two recognized units.
func Convert(amount float64, from, to Unit) (float64, error) {
	if from == to {
		if _, ok := mmPer[from]; !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownUnit, int(from))
		}
		return amount, nil
	}
	mm, err := ToReference(amount, from)
	if err != nil {
		return 0, err
	}
	return FromReference(mm, to)
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// To converts this length to target unit. UnitNone on either side keeps the numeric value
// (mm is assumed for a unit-less target).
func (l Length) To(target Unit) float64 {
	if l.Unit == UnitNone {
		return l.Value
	}
	if target == UnitNone {
		target = UnitMM
	}
	v, err := Convert(l.Value, l.Unit, target)
	if err != nil {
		return l.Value
	}
	return v
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseRawLengthStr parses a length string such as "3mm" or "0.125in" preserving its unit.
func ParseRawLengthStr(value string) Length {
	v := strings.TrimSpace(value)
	if v == "" {
		return Length{Value: 0, Unit: UnitNone}
	}
	lower := strings.ToLower(v)
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"px", UnitPX}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{Value: 0, Unit: UnitNone}
	}
	return Length{Value: f, Unit: unit}
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// DefaultLeadingFactor is used when neither the job nor the metrics supply a leading.
const DefaultLeadingFactor = 1.25

// LineHeightSpec preserves original author intent: either a factor (e.g., 1.2x) or an absolute length (e.g., 18pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight accepts "1.2x" (factor) or an absolute length.
func ParseLineHeight(value string) (LineHeightSpec, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return LineHeightSpec{}, false
	}
	if strings.HasSuffix(v, "x") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
		if err != nil || f <= 0 {
			return LineHeightSpec{}, false
		}
		return LineHeightSpec{Kind: LineHeightFactor, Factor: f}, true
	}
	l := ParseRawLengthStr(v)
	if l.Unit == UnitNone || l.Value <= 0 {
		return LineHeightSpec{}, false
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, true
}

// Resolve computes the absolute line height in target unit using the given fontSize (which carries its unit).
func (s LineHeightSpec) Resolve(fontSize Length, target Unit) float64 {
	switch s.Kind {
	case LineHeightFactor:
		if s.Factor <= 0 {
			return fontSize.To(target) * DefaultLeadingFactor
		}
		return fontSize.To(target) * s.Factor
	case LineHeightAbsolute:
		return s.Len.To(target)
	default:
		return fontSize.To(target) * DefaultLeadingFactor
	}
}
