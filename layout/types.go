package layout

import "image"

// 该文件定义交给文档写出器（renderer）的页面描述，也用于调试 JSON。
// 除特别说明外，所有坐标与尺寸单位均为 mm，原点为页面左上角。

// Result 保存待写出的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// ResourceSet 记录文本绘制所需的字体定义。
type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
}

// FontResource 描述字体资源，src 可以是文件路径或 embed:* 形式的内置字体。
type FontResource struct {
	Name   string `json:"name"`
	Src    string `json:"src"`
	Style  string `json:"style"`
	Family string `json:"family"` // 渲染器使用的 Family 名称
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Page 记录一张输出页（或拼版后的一张印张）的尺寸与可直接写出的元素。
type Page struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Label  string     `json:"label,omitempty"` // 例如 "7|0"，表示拼版后的页序
	Images []ImageBox `json:"images"`
	Lines  []Line     `json:"lines,omitempty"`
	Texts  []TextBox  `json:"texts,omitempty"`
}

// ImageBox 把一张栅格图放到页面上的指定矩形。
type ImageBox struct {
	Raster image.Image `json:"-"`
	PixelW int         `json:"pixelW"`
	PixelH int         `json:"pixelH"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
}

// BlendMode 是线条请求的混合模式；写出器不支持时应回退为普通绘制。
type BlendMode string

const (
	BlendNormal     BlendMode = ""
	BlendDifference BlendMode = "difference"
)

// Line 表示一条线段。
type Line struct {
	X1    float64   `json:"x1"`
	Y1    float64   `json:"y1"`
	X2    float64   `json:"x2"`
	Y2    float64   `json:"y2"`
	Color Color     `json:"color"`
	Width float64   `json:"width"`          // 线宽（mm），<=0 时由渲染器给默认值
	Dash  []float64 `json:"dash,omitempty"` // 虚线段长（mm），为空表示实线
	Blend BlendMode `json:"blend,omitempty"`
}

// TextBox 表示一组已经排好基线坐标的文本行。
type TextBox struct {
	Font     string       `json:"font"`
	FontSize float64      `json:"fontSize"` // mm
	Color    Color        `json:"color"`
	Lines    []PlacedLine `json:"lines"`
}

// Translate 返回整体平移后的文本框副本。
func (tb TextBox) Translate(dx, dy float64) TextBox {
	out := tb
	out.Lines = make([]PlacedLine, len(tb.Lines))
	for i, l := range tb.Lines {
		l.X += dx
		l.Y += dy
		out.Lines[i] = l
	}
	return out
}

// Scale 将文本框的坐标与字号统一乘以 k，用于单位换算。
func (tb TextBox) Scale(k float64) TextBox {
	out := tb
	out.FontSize *= k
	out.Lines = make([]PlacedLine, len(tb.Lines))
	for i, l := range tb.Lines {
		l.X *= k
		l.Y *= k
		out.Lines[i] = l
	}
	return out
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
