// Package document 维护打印文档的采集状态：逐页接收渲染好的帧，按需合成出血、计算裁切标记，
// 在页数达到目标时发出完成信号。
//
// Document 不是并发安全的，应由单个驱动循环独占使用。
package document

import (
	"errors"
	"fmt"
	"image"

	"github.com/ByLCY/quire/bleed"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/marks"
)

var (
	// ErrInvalidPhase 表示在已采集页面后修改固定配置（出血、总页数）。
	ErrInvalidPhase = errors.New("configuration is fixed once capture has begun")
	// ErrAlreadyComplete 表示文档完成后继续采集。
	ErrAlreadyComplete = errors.New("document is already complete")
	// ErrNoPages 表示在没有任何页面时结束文档。
	ErrNoPages = errors.New("document has no pages")
	// ErrFrameSize 表示帧尺寸与配置的栅格尺寸不一致。
	ErrFrameSize = errors.New("frame size does not match capture raster")
)

// State 是文档的生命周期状态。
type State int

const (
	Collecting State = iota
	Complete
)

func (s State) String() string {
	if s == Complete {
		return "complete"
	}
	return "collecting"
}

// Config 描述文档的固定参数。TrimWidth/TrimHeight 以 Unit 表示；
// TotalPages 为 0 时表示页数不定，需要显式调用 Finish。
type Config struct {
	TrimWidth    float64
	TrimHeight   float64
	Unit         layout.Unit
	TotalPages   int
	Filename     string
	RasterWidth  int
	RasterHeight int
	// Fonts 会原样写入 Result 的资源表，供写出器绘制文本。
	Fonts map[string]layout.FontResource
}

// Page 是一张已采集的页面：合成后的栅格、计算出的标记以及排好的文本。
// 标记与文本坐标以文档单位表示，原点为裁切框左上角。
type Page struct {
	Raster image.Image
	PixelW int
	PixelH int
	Marks  []marks.Mark
	Texts  []layout.TextBox
}

// Document 是逐页采集的打印文档。
type Document struct {
	cfg          Config
	bleed        float64
	marksEnabled bool
	buffer       *bleed.Buffer
	pages        []Page
	state        State
	fired        bool
	listeners    []func(*Document)
}

// New 校验配置并创建处于 Collecting 状态的文档。
func New(cfg Config) (*Document, error) {
	if cfg.TrimWidth <= 0 || cfg.TrimHeight <= 0 {
		return nil, fmt.Errorf("trim size must be positive, got %gx%g", cfg.TrimWidth, cfg.TrimHeight)
	}
	if _, err := layout.ToReference(1, cfg.Unit); err != nil {
		return nil, fmt.Errorf("document unit: %w", err)
	}
	if cfg.RasterWidth <= 0 || cfg.RasterHeight <= 0 {
		return nil, fmt.Errorf("capture raster must be positive, got %dx%d", cfg.RasterWidth, cfg.RasterHeight)
	}
	if cfg.TotalPages < 0 {
		return nil, fmt.Errorf("total pages must not be negative, got %d", cfg.TotalPages)
	}
	return &Document{cfg: cfg}, nil
}

// Filename 返回文档文件名。
func (d *Document) Filename() string { return d.cfg.Filename }

// Unit 返回文档单位。
func (d *Document) Unit() layout.Unit { return d.cfg.Unit }

// TrimSize 返回裁切尺寸（文档单位）。
func (d *Document) TrimSize() (w, h float64) { return d.cfg.TrimWidth, d.cfg.TrimHeight }

// RasterSize 返回采集栅格的像素尺寸，每一帧都必须与之一致。
func (d *Document) RasterSize() (w, h int) { return d.cfg.RasterWidth, d.cfg.RasterHeight }

// Bleed 返回出血量（文档单位），未配置时为 0。
func (d *Document) Bleed() float64 { return d.bleed }

// ConfigureBleed 设置出血量，amount 以 unit 表示并换算到文档单位。
// 同时开启裁切标记，并按采集栅格尺寸重新分配出血缓冲。首页采集后调用返回 ErrInvalidPhase。
func (d *Document) ConfigureBleed(amount float64, unit layout.Unit) error {
	if len(d.pages) > 0 {
		return fmt.Errorf("configure bleed: %w", ErrInvalidPhase)
	}
	if amount < 0 {
		return fmt.Errorf("bleed must not be negative, got %g", amount)
	}
	converted, err := layout.Convert(amount, unit, d.cfg.Unit)
	if err != nil {
		return fmt.Errorf("configure bleed: %w", err)
	}
	if d.buffer.Drawn() {
		Logger().Warn("discarding bleed buffer contents on reconfigure")
	}
	d.bleed = converted
	d.marksEnabled = true
	d.buffer = bleed.NewBuffer(d.cfg.RasterWidth, d.cfg.RasterHeight)
	Logger().Debug("bleed configured", "amount", converted, "unit", d.cfg.Unit.String())
	return nil
}

// BleedBuffer 返回当前出血缓冲；未配置出血时为 nil，对其绘制不会产生任何效果。
// 每次 CaptureFrame 之后缓冲会被清空，调用方不要跨采集保留其中的内容。
func (d *Document) BleedBuffer() *bleed.Buffer { return d.buffer }

// SetTotalPages 设置目标页数，0 表示不定。首页采集后调用返回 ErrInvalidPhase。
func (d *Document) SetTotalPages(n int) error {
	if len(d.pages) > 0 {
		return fmt.Errorf("set total pages: %w", ErrInvalidPhase)
	}
	if n < 0 {
		return fmt.Errorf("total pages must not be negative, got %d", n)
	}
	d.cfg.TotalPages = n
	return nil
}

// TotalPages 返回目标页数，0 表示不定。
func (d *Document) TotalPages() int { return d.cfg.TotalPages }

// SetPrintMarksEnabled 开关裁切标记，任何时候都可以调用，只影响之后采集的页面。
func (d *Document) SetPrintMarksEnabled(on bool) { d.marksEnabled = on }

// PrintMarksEnabled 报告是否绘制裁切标记。
func (d *Document) PrintMarksEnabled() bool { return d.marksEnabled }

// PageWidth 返回含出血的页面宽度（文档单位）。
func (d *Document) PageWidth() float64 { return d.cfg.TrimWidth + 2*d.bleed }

// PageHeight 返回含出血的页面高度（文档单位）。
func (d *Document) PageHeight() float64 { return d.cfg.TrimHeight + 2*d.bleed }

// Index 返回当前页的 0 起始序号，即已采集的页数。
func (d *Document) Index() int { return len(d.pages) }

// Number 返回当前页的 1 起始页码。
func (d *Document) Number() int { return len(d.pages) + 1 }

// Progress 返回 0..1 的进度：总页数大于 1 时为 index/(total-1)，否则为 1。
func (d *Document) Progress() float64 {
	total := d.cfg.TotalPages
	if total <= 1 {
		return 1
	}
	p := float64(d.Index()) / float64(total-1)
	if p > 1 {
		p = 1
	}
	return p
}

// IsLastPage 报告当前页是否为最后一页；页数不定时总是 false。
func (d *Document) IsLastPage() bool {
	return d.cfg.TotalPages > 0 && d.Index() == d.cfg.TotalPages-1
}

// State 返回文档状态。
func (d *Document) State() State { return d.state }

// OnComplete 注册完成回调。完成信号只触发一次，在已完成后注册的回调不会被调用。
func (d *Document) OnComplete(fn func(*Document)) {
	if fn != nil {
		d.listeners = append(d.listeners, fn)
	}
}

// CaptureFrame 采集一帧作为下一页。frame 是裁切区域的栅格，texts 为这一页排好的文本
// （文档单位，原点为裁切框左上角）。配置了出血时会与出血缓冲合成，合成后缓冲被清空；
// 页数达到目标时转为 Complete 并发出完成信号。
func (d *Document) CaptureFrame(frame image.Image, texts ...layout.TextBox) error {
	if d.state == Complete {
		return ErrAlreadyComplete
	}
	if frame == nil {
		return errors.New("capture frame: frame is nil")
	}
	size := frame.Bounds().Size()
	if size.X != d.cfg.RasterWidth || size.Y != d.cfg.RasterHeight {
		return fmt.Errorf("capture frame %d: %w: got %v, want %dx%d", d.Index(), ErrFrameSize, size, d.cfg.RasterWidth, d.cfg.RasterHeight)
	}

	var raster image.Image = frame
	if d.buffer.Active() {
		composited, err := bleed.Composite(frame, d.buffer.Image(), d.cfg.TrimWidth, d.cfg.TrimHeight, d.bleed)
		if err != nil {
			return fmt.Errorf("capture frame %d: %w", d.Index(), err)
		}
		raster = composited
	}

	var ms []marks.Mark
	if d.marksEnabled {
		computed, err := marks.Compute(d.cfg.TrimWidth, d.cfg.TrimHeight, d.bleed, d.cfg.Unit)
		if err != nil {
			return fmt.Errorf("capture frame %d: %w", d.Index(), err)
		}
		ms = computed
	}

	b := raster.Bounds()
	d.pages = append(d.pages, Page{
		Raster: raster,
		PixelW: b.Dx(),
		PixelH: b.Dy(),
		Marks:  ms,
		Texts:  texts,
	})
	d.buffer.Clear()
	Logger().Debug("page captured", "page", len(d.pages), "px", b.Size().String(), "marks", len(ms), "texts", len(texts))

	if d.cfg.TotalPages > 0 && len(d.pages) == d.cfg.TotalPages {
		d.complete()
	}
	return nil
}

// Finish 显式结束文档：若完成信号尚未触发则触发之。页数不定时必须调用；
// 没有任何页面时返回 ErrNoPages。
func (d *Document) Finish() error {
	if len(d.pages) == 0 {
		return ErrNoPages
	}
	d.complete()
	return nil
}

func (d *Document) complete() {
	d.state = Complete
	if d.fired {
		return
	}
	d.fired = true
	Logger().Info("document complete", "file", d.cfg.Filename, "pages", len(d.pages))
	for _, fn := range d.listeners {
		fn(d)
	}
}

// Pages 返回按采集顺序排列的页面，调用方不应修改。
func (d *Document) Pages() []Page { return d.pages }

// Rasters 返回所有页面的栅格，供拼版使用。
func (d *Document) Rasters() []image.Image {
	out := make([]image.Image, len(d.pages))
	for i, p := range d.pages {
		out[i] = p.Raster
	}
	return out
}
