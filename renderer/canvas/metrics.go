package canvasrenderer

import (
	"fmt"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/quire/layout"
)

// faceMetrics 用 canvas 字体面实现 layout.TextMetrics。
// canvas 的字体度量以 mm 返回，这里统一换算为 unit。
type faceMetrics struct {
	face  *canvas.FontFace
	scale float64 // mm → unit
}

var _ layout.TextMetrics = faceMetrics{}

// Metrics 返回给定字体与字号的文本度量。size 以 unit 表示，返回的宽度、上升与行距也以 unit 表示。
func (r *Renderer) Metrics(font layout.FontResource, size float64, unit layout.Unit) (layout.TextMetrics, error) {
	if size <= 0 {
		return nil, fmt.Errorf("字号必须为正数，得到 %g", size)
	}
	sizePt, err := layout.Convert(size, unit, layout.UnitPT)
	if err != nil {
		return nil, err
	}
	scale, err := layout.FromReference(1, unit)
	if err != nil {
		return nil, err
	}
	face, err := r.fonts.face(font, sizePt, layout.Color{})
	if err != nil {
		return nil, err
	}
	return faceMetrics{face: face, scale: scale}, nil
}

func (m faceMetrics) MeasureWidth(s string) float64 {
	return m.face.TextWidth(s) * m.scale
}

func (m faceMetrics) Ascent() float64 {
	return m.face.Metrics().Ascent * m.scale
}

func (m faceMetrics) Leading() (float64, bool) {
	lh := m.face.Metrics().LineHeight
	if lh <= 0 {
		return 0, false
	}
	return lh * m.scale, true
}
