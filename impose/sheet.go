package impose

import (
	"fmt"
	"image"
	"image/draw"
	"math"
)

// Geometry is the physical page size every captured raster covers. Trim and bleed share
// one unit.
type Geometry struct {
	TrimWidth  float64
	TrimHeight float64
	Bleed      float64
}

// SoloSize is the physical size of a one-page sheet.
func (g Geometry) SoloSize() (w, h float64) {
	return g.TrimWidth + 2*g.Bleed, g.TrimHeight + 2*g.Bleed
}

// SpreadSize is the physical size of a two-page sheet: the inner bleed strips are gone.
func (g Geometry) SpreadSize() (w, h float64) {
	return 2*g.TrimWidth + 2*g.Bleed, g.TrimHeight + 2*g.Bleed
}

// BleedPx is the bleed width in pixels for a page raster rasterW pixels wide.
func (g Geometry) BleedPx(rasterW int) int {
	full := g.TrimWidth + 2*g.Bleed
	if g.Bleed <= 0 || full <= 0 {
		return 0
	}
	return int(math.Round(float64(rasterW) * g.Bleed / full))
}

// Sheet is one imposed output page.
type Sheet struct {
	Spread Spread
	Raster *image.RGBA
	Width  float64
	Height float64
}

// CompositeSpread places left and right edge to edge. Each page loses the bleed strip
// facing the other page, so only outer edges keep their bleed.
func CompositeSpread(left, right image.Image, bleedPx int) (*image.RGBA, error) {
	if left == nil || right == nil {
		return nil, fmt.Errorf("spread needs two rasters")
	}
	lb, rb := left.Bounds(), right.Bounds()
	if lb.Dy() != rb.Dy() {
		return nil, fmt.Errorf("spread pages differ in height: %d vs %d", lb.Dy(), rb.Dy())
	}
	if bleedPx < 0 || bleedPx >= lb.Dx() || bleedPx >= rb.Dx() {
		return nil, fmt.Errorf("bleed of %dpx does not fit pages %dpx and %dpx wide", bleedPx, lb.Dx(), rb.Dx())
	}
	lw := lb.Dx() - bleedPx
	rw := rb.Dx() - bleedPx
	out := image.NewRGBA(image.Rect(0, 0, lw+rw, lb.Dy()))
	draw.Draw(out, image.Rect(0, 0, lw, lb.Dy()), left, lb.Min, draw.Src)
	draw.Draw(out, image.Rect(lw, 0, lw+rw, rb.Dy()), right, image.Pt(rb.Min.X+bleedPx, rb.Min.Y), draw.Src)
	return out, nil
}

// Build imposes pages under scheme. Page-count and raster checks all run before any
// compositing; on error no sheet is returned.
func Build(pages []image.Image, g Geometry, scheme Scheme) ([]Sheet, error) {
	spreads, err := Plan(len(pages), scheme)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}
	size := pages[0].Bounds().Size()
	for i, p := range pages {
		if p == nil {
			return nil, fmt.Errorf("page %d has no raster", i)
		}
		if p.Bounds().Size() != size {
			return nil, fmt.Errorf("page %d raster is %v, expected %v like page 0", i, p.Bounds().Size(), size)
		}
	}
	bleedPx := g.BleedPx(size.X)

	sheets := make([]Sheet, 0, len(spreads))
	for _, sp := range spreads {
		if sp.Solo() {
			w, h := g.SoloSize()
			sheets = append(sheets, Sheet{Spread: sp, Raster: toRGBA(pages[sp.Left]), Width: w, Height: h})
			continue
		}
		img, err := CompositeSpread(pages[sp.Left], pages[sp.Right], bleedPx)
		if err != nil {
			return nil, fmt.Errorf("sheet %v: %w", sp, err)
		}
		w, h := g.SpreadSize()
		sheets = append(sheets, Sheet{Spread: sp, Raster: img, Width: w, Height: h})
	}
	return sheets, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
