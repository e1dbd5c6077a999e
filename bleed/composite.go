package bleed

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ErrSizeMismatch is returned when the bleed raster and the trim raster differ in size.
var ErrSizeMismatch = errors.New("bleed raster size does not match trim raster")

// Offset converts a physical bleed into pixels for a raster whose span covers trimUnits.
// The offset follows the ratio of bleed to trim size, so it is independent of the
// capture resolution.
func Offset(rasterPx int, trimUnits, bleedUnits float64) int {
	if rasterPx <= 0 || trimUnits <= 0 || bleedUnits <= 0 {
		return 0
	}
	return int(math.Round(float64(rasterPx) * bleedUnits / trimUnits))
}

// Composite builds the bleed-inclusive page raster. trim is the trim-area capture;
// bleedImg, when non-nil, is scaled to cover the whole output before trim is drawn on top
// at the bleed offset. When bleedImg is nil the bleed zone keeps the zero value of
// image.RGBA (fully transparent), which the writer leaves as unprinted paper.
func Composite(trim, bleedImg image.Image, trimW, trimH, bleedUnits float64) (*image.RGBA, error) {
	if trim == nil {
		return nil, errors.New("trim raster is nil")
	}
	if trimW <= 0 || trimH <= 0 {
		return nil, fmt.Errorf("invalid trim size %gx%g", trimW, trimH)
	}
	tb := trim.Bounds()
	if bleedImg != nil && bleedImg.Bounds().Size() != tb.Size() {
		return nil, fmt.Errorf("%w: bleed %v, trim %v", ErrSizeMismatch, bleedImg.Bounds().Size(), tb.Size())
	}
	bx := Offset(tb.Dx(), trimW, bleedUnits)
	by := Offset(tb.Dy(), trimH, bleedUnits)

	out := image.NewRGBA(image.Rect(0, 0, tb.Dx()+2*bx, tb.Dy()+2*by))
	if bleedImg != nil {
		xdraw.CatmullRom.Scale(out, out.Bounds(), bleedImg, bleedImg.Bounds(), xdraw.Src, nil)
	}
	dst := image.Rect(bx, by, bx+tb.Dx(), by+tb.Dy())
	draw.Draw(out, dst, trim, tb.Min, draw.Over)
	return out, nil
}
