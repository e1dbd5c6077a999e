// Package bleed holds the optional bleed-zone raster and composites it with the trim
// raster into a single bleed-inclusive page image.
package bleed

import (
	"image"
	"image/color"
	"image/draw"
)

// Buffer is the raster application code draws bleed artwork into between captures.
// A nil *Buffer stands for "bleed not configured": every method is a silent no-op and
// Image always reports nothing to composite.
type Buffer struct {
	img   *image.RGBA
	drawn bool
}

var _ draw.Image = (*Buffer)(nil)

// NewBuffer allocates a transparent buffer of w×h pixels.
func NewBuffer(w, h int) *Buffer {
	if w <= 0 || h <= 0 {
		return nil
	}
	return &Buffer{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Active reports whether the buffer exists.
func (b *Buffer) Active() bool { return b != nil && b.img != nil }

// Drawn reports whether anything was drawn since the last Clear.
func (b *Buffer) Drawn() bool { return b.Active() && b.drawn }

func (b *Buffer) ColorModel() color.Model { return color.RGBAModel }

func (b *Buffer) Bounds() image.Rectangle {
	if !b.Active() {
		return image.Rectangle{}
	}
	return b.img.Bounds()
}

func (b *Buffer) At(x, y int) color.Color {
	if !b.Active() {
		return color.RGBA{}
	}
	return b.img.At(x, y)
}

func (b *Buffer) Set(x, y int, c color.Color) {
	if !b.Active() {
		return
	}
	if !(image.Point{X: x, Y: y}.In(b.img.Rect)) {
		return
	}
	b.img.Set(x, y, c)
	b.drawn = true
}

// Draw composites src over the buffer with its top-left corner at at.
func (b *Buffer) Draw(src image.Image, at image.Point) {
	if !b.Active() || src == nil {
		return
	}
	r := src.Bounds().Sub(src.Bounds().Min).Add(at)
	if r.Intersect(b.img.Rect).Empty() {
		return
	}
	draw.Draw(b.img, r, src, src.Bounds().Min, draw.Over)
	b.drawn = true
}

// Fill paints the whole buffer with c.
func (b *Buffer) Fill(c color.Color) {
	if !b.Active() {
		return
	}
	draw.Draw(b.img, b.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	b.drawn = true
}

// Clear resets every pixel to transparent.
func (b *Buffer) Clear() {
	if !b.Active() {
		return
	}
	clear(b.img.Pix)
	b.drawn = false
}

// Image returns the buffer contents, or nil when the buffer is absent or untouched.
func (b *Buffer) Image() image.Image {
	if !b.Drawn() {
		return nil
	}
	return b.img
}
