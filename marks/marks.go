// Package marks computes trim and bleed registration marks for a page.
//
// Coordinates are relative to the top-left corner of the trim box, in the caller's unit;
// marks sit outside the page content, so most of them carry negative coordinates or
// coordinates beyond the trim size.
package marks

import (
	"github.com/ByLCY/quire/layout"
)

// Mark geometry constants, in millimeters.
const (
	GapMM       = 1.0
	ArmLengthMM = 4.0
	// StrokeMM is the hairline width used to draw marks (0.25pt).
	StrokeMM = 0.25 * layout.PtToMm
	// DashMM is the dash/gap length of bleed marks.
	DashMM = 0.5
)

// Kind tags a mark as a trim (cut) mark or a bleed mark.
type Kind int

const (
	Trim Kind = iota
	Bleed
)

func (k Kind) String() string {
	if k == Bleed {
		return "bleed"
	}
	return "trim"
}

// Dashed reports whether marks of this kind are drawn dashed.
func (k Kind) Dashed() bool { return k == Bleed }

// Point is a position in the caller's unit.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Mark is one line segment of a corner mark.
type Mark struct {
	Kind Kind  `json:"kind"`
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Horizontal reports whether the segment runs along the x axis.
func (m Mark) Horizontal() bool { return m.From.Y == m.To.Y }

// Margin is the room marks need outside the bleed box: gap plus arm, in unit.
func Margin(unit layout.Unit) (float64, error) {
	return layout.FromReference(GapMM+ArmLengthMM, unit)
}

// corner describes one trim corner and the outward direction on each axis.
type corner struct {
	x, y   float64
	sx, sy float64
}

// Compute returns the trim marks, and the bleed marks when bleed > 0, for a trim box of
// trimW×trimH with the given bleed, all expressed in unit. Every arm starts gap beyond the
// bleed box edge and runs arm length further out, so no segment enters the bleed or trim
// area whatever the bleed.
func Compute(trimW, trimH, bleed float64, unit layout.Unit) ([]Mark, error) {
	gap, err := layout.FromReference(GapMM, unit)
	if err != nil {
		return nil, err
	}
	arm, err := layout.FromReference(ArmLengthMM, unit)
	if err != nil {
		return nil, err
	}
	if bleed < 0 {
		bleed = 0
	}
	corners := []corner{
		{x: 0, y: 0, sx: -1, sy: -1},
		{x: trimW, y: 0, sx: 1, sy: -1},
		{x: 0, y: trimH, sx: -1, sy: 1},
		{x: trimW, y: trimH, sx: 1, sy: 1},
	}
	near := bleed + gap
	far := bleed + gap + arm

	out := make([]Mark, 0, 16)
	for _, c := range corners {
		out = append(out, cornerMarks(Trim, c, c.x, c.y, near, far)...)
	}
	if bleed > 0 {
		for _, c := range corners {
			out = append(out, cornerMarks(Bleed, c, c.x+c.sx*bleed, c.y+c.sy*bleed, near, far)...)
		}
	}
	return out, nil
}

// cornerMarks builds the horizontal arm on line y=lineY and the vertical arm on x=lineX.
func cornerMarks(kind Kind, c corner, lineX, lineY, near, far float64) []Mark {
	return []Mark{
		{
			Kind: kind,
			From: Point{X: c.x + c.sx*near, Y: lineY},
			To:   Point{X: c.x + c.sx*far, Y: lineY},
		},
		{
			Kind: kind,
			From: Point{X: lineX, Y: c.y + c.sy*near},
			To:   Point{X: lineX, Y: c.y + c.sy*far},
		},
	}
}

// Lines converts marks into writer line segments in millimeters, shifted by (dx, dy)
// millimeters. unit is the unit the marks were computed in.
func Lines(ms []Mark, unit layout.Unit, dx, dy float64) ([]layout.Line, error) {
	scale, err := layout.ToReference(1, unit)
	if err != nil {
		return nil, err
	}
	lines := make([]layout.Line, 0, len(ms))
	for _, m := range ms {
		ln := layout.Line{
			X1:    m.From.X*scale + dx,
			Y1:    m.From.Y*scale + dy,
			X2:    m.To.X*scale + dx,
			Y2:    m.To.Y*scale + dy,
			Width: StrokeMM,
			Blend: layout.BlendDifference,
		}
		if m.Kind.Dashed() {
			ln.Dash = []float64{DashMM, DashMM}
		}
		lines = append(lines, ln)
	}
	return lines, nil
}
