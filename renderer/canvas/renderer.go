package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

// defaultLineWidth 是线宽未指定时使用的宽度（mm）。
const defaultLineWidth = 0.2

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	fonts *fontCache
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	// BaseDir resolves relative font paths.
	BaseDir string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer from opts.
func NewRendererWithOptions(opts Options) *Renderer {
	return &Renderer{fonts: newFontCache(opts.BaseDir)}
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page, result.Resources); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 按 图片 → 文本 → 标记线 的顺序绘制，保证裁切标记始终在最上层。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources layout.ResourceSet) error {
	if err := r.drawImages(ctx, page.Images); err != nil {
		return err
	}
	for _, textBox := range page.Texts {
		fontRes := resolveFontResource(textBox.Font, resources.Fonts)
		if err := r.drawTextBox(ctx, textBox, fontRes); err != nil {
			return err
		}
	}
	return r.drawLines(ctx, page.Lines)
}

// drawTextBox 绘制已排好基线的文本行；坐标与字号均为 mm。
func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	if len(tb.Lines) == 0 {
		return nil
	}
	face, err := r.fonts.face(fontRes, toPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}
	for _, line := range tb.Lines {
		if line.Text == "" {
			continue
		}
		ctx.DrawText(line.X, line.Y, canvas.NewTextLine(face, line.Text, canvas.Left))
	}
	return nil
}

// drawImages 以 ImageBox 的物理宽度推算分辨率，使栅格恰好铺满目标矩形。
func (r *Renderer) drawImages(ctx *canvas.Context, images []layout.ImageBox) error {
	for _, img := range images {
		if img.Raster == nil {
			continue
		}
		px := img.Raster.Bounds().Dx()
		if px <= 0 || img.Width <= 0 {
			return fmt.Errorf("图片尺寸无效: %dpx / %gmm", px, img.Width)
		}
		dpmm := float64(px) / img.Width
		ctx.DrawImage(img.X, img.Y, img.Raster, canvas.DPMM(dpmm))
	}
	return nil
}

// drawLines 绘制直线列表（毫米单位）。
// PDF 写出器不支持混合模式，请求 difference 的线条退化为纯色（默认黑色）绘制。
func (r *Renderer) drawLines(ctx *canvas.Context, lines []layout.Line) error {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultLineWidth
		}
		ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
		ctx.SetStrokeColor(lineColor(ln))
		ctx.SetStrokeWidth(w)
		if len(ln.Dash) > 0 {
			ctx.SetDashes(0, ln.Dash...)
		} else {
			ctx.SetDashes(0)
		}
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		ctx.DrawPath(ln.X1, ln.Y1, p)
	}
	ctx.SetDashes(0)
	return nil
}

func lineColor(ln layout.Line) color.Color {
	if ln.Blend == layout.BlendDifference {
		return canvas.Black
	}
	return colorFromLayout(ln.Color)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
