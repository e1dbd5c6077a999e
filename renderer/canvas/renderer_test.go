package canvasrenderer

import (
	"bytes"
	"image"
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/quire/layout"
)

var bodyFont = layout.FontResource{
	Name: "Body",
	Src:  "embed:lmroman10-regular",
}

func TestMetricsDriveTextFlow(t *testing.T) {
	r := NewRenderer(".")
	// 这里的宽度/字号均为 mm
	m, err := r.Metrics(bodyFont, 12*layout.PtToMm, layout.UnitMM)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.Ascent() <= 0 {
		t.Fatalf("ascent should be positive, got %g", m.Ascent())
	}
	if _, ok := m.Leading(); !ok {
		t.Fatalf("font should report a line height")
	}

	flow := layout.NewFlow()
	flow.SetTextSize(12 * layout.PtToMm)
	lines, overflow := flow.Layout("hello world again", layout.Box{W: 15, H: 100}, m)
	if len(lines) < 2 || overflow != "" {
		t.Fatalf("expected wrapping into multiple lines, got %d (overflow %q)", len(lines), overflow)
	}
	for i, l := range lines {
		if w := m.MeasureWidth(l.Text); w > 15 && len(strings.Fields(l.Text)) > 1 {
			t.Fatalf("line %d %q is %gmm wide", i, l.Text, w)
		}
	}
}

func TestMetricsFollowUnit(t *testing.T) {
	r := NewRenderer(".")
	mm, err := r.Metrics(bodyFont, 4, layout.UnitMM)
	if err != nil {
		t.Fatalf("Metrics mm: %v", err)
	}
	in, err := r.Metrics(bodyFont, 4/25.4, layout.UnitIN)
	if err != nil {
		t.Fatalf("Metrics in: %v", err)
	}
	a, b := mm.MeasureWidth("Registration"), in.MeasureWidth("Registration")*25.4
	if math.Abs(a-b) > 1e-6 {
		t.Fatalf("width mismatch across units: %g mm vs %g mm", a, b)
	}
	if _, err := r.Metrics(bodyFont, 4, layout.UnitNone); err == nil {
		t.Fatalf("unknown unit should fail")
	}
	if _, err := r.Metrics(bodyFont, 0, layout.UnitMM); err == nil {
		t.Fatalf("zero size should fail")
	}
}

func TestMissingFontFallsBack(t *testing.T) {
	r := NewRenderer(".")
	m, err := r.Metrics(layout.FontResource{Name: "Ghost", Src: "embed:no-such-font"}, 4, layout.UnitMM)
	if err != nil {
		t.Fatalf("fallback font expected, got %v", err)
	}
	if m.MeasureWidth("abc") <= 0 {
		t.Fatalf("fallback font should measure text")
	}
}

func TestRenderWritesPDF(t *testing.T) {
	r := NewRenderer(".")
	raster := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for i := range raster.Pix {
		raster.Pix[i] = 0xcc
	}
	res := &layout.Result{
		Resources: layout.ResourceSet{Fonts: map[string]layout.FontResource{"Body": bodyFont}},
		Meta:      layout.DocumentMeta{Title: "proof"},
		Pages: []layout.Page{
			{
				Width:  30,
				Height: 40,
				Images: []layout.ImageBox{{Raster: raster, PixelW: 40, PixelH: 60, X: 5, Y: 5, Width: 20, Height: 30}},
				Lines: []layout.Line{
					{X1: 0, Y1: 5, X2: 4, Y2: 5, Width: 0.1, Blend: layout.BlendDifference},
					{X1: 5, Y1: 0, X2: 5, Y2: 4, Width: 0.1, Dash: []float64{0.5, 0.5}},
				},
				Texts: []layout.TextBox{{
					Font:     "Body",
					FontSize: 3,
					Color:    layout.Color{R: 20, G: 20, B: 20},
					Lines:    []layout.PlacedLine{{Text: "proof", X: 6, Y: 10}},
				}},
			},
			{Width: 50, Height: 40},
		},
	}
	out, err := r.Render(res)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 8)])
	}
}

func TestRenderRejectsEmpty(t *testing.T) {
	r := NewRenderer(".")
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("nil result should fail")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("result without pages should fail")
	}
	bad := &layout.Result{Pages: []layout.Page{{Width: 10, Height: 10, Images: []layout.ImageBox{{Raster: image.NewRGBA(image.Rect(0, 0, 1, 1))}}}}}
	if _, err := r.Render(bad); err == nil {
		t.Fatalf("image without physical width should fail")
	}
}

func TestLineColorFallsBackToBlack(t *testing.T) {
	c := lineColor(layout.Line{Color: layout.Color{R: 255}, Blend: layout.BlendDifference})
	if r, g, b, a := c.RGBA(); r != 0 || g != 0 || b != 0 || a != 0xffff {
		t.Fatalf("difference marks should fall back to black, got %v", c)
	}
	solid := lineColor(layout.Line{Color: layout.Color{R: 255}})
	if r, _, _, _ := solid.RGBA(); r != 0xffff {
		t.Fatalf("normal lines keep their color, got %v", solid)
	}
}
