package layout

// TextMetrics 是文本测量的协作者接口，由渲染器（字体后端）实现。
// 所有返回值与 Flow 的排版框使用同一单位（通常为 mm）。
type TextMetrics interface {
	// MeasureWidth 返回字符串的水平宽度。
	MeasureWidth(s string) float64
	// Ascent 返回基线以上的高度，用于确定首行基线。
	Ascent() float64
	// Leading 返回行距；第二个返回值为 false 时表示字体未提供，由调用方回退为 1.25 倍字号。
	Leading() (float64, bool)
}

// MetricsFunc 将一个宽度测量函数包装为 TextMetrics，上升高度与行距由调用方给定。
// leading <= 0 表示未提供行距。
type MetricsFunc struct {
	Measure      func(string) float64
	AscentValue  float64
	LeadingValue float64
}

var _ TextMetrics = MetricsFunc{}

func (m MetricsFunc) MeasureWidth(s string) float64 {
	if m.Measure == nil {
		return 0
	}
	return m.Measure(s)
}

func (m MetricsFunc) Ascent() float64 { return m.AscentValue }

func (m MetricsFunc) Leading() (float64, bool) {
	if m.LeadingValue <= 0 {
		return 0, false
	}
	return m.LeadingValue, true
}
