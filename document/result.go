package document

import (
	"fmt"
	"strconv"

	"github.com/ByLCY/quire/impose"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/marks"
)

// Result 把已采集的页面转换为写出器使用的 layout.Result（单位 mm）。
// 启用标记的页面会在出血框四周额外留出标记所需的边距（slug）。
func (d *Document) Result(meta layout.DocumentMeta) (*layout.Result, error) {
	if len(d.pages) == 0 {
		return nil, ErrNoPages
	}
	k, err := layout.ToReference(1, d.cfg.Unit)
	if err != nil {
		return nil, err
	}
	slug, err := marks.Margin(layout.UnitMM)
	if err != nil {
		return nil, err
	}
	bleedMM := d.bleed * k
	boxW, boxH := d.PageWidth()*k, d.PageHeight()*k

	res := d.newResult(meta)
	for i, p := range d.pages {
		margin := 0.0
		if len(p.Marks) > 0 {
			margin = slug
		}
		page := layout.Page{
			Width:  boxW + 2*margin,
			Height: boxH + 2*margin,
			Label:  strconv.Itoa(i + 1),
			Images: []layout.ImageBox{{
				Raster: p.Raster,
				PixelW: p.PixelW,
				PixelH: p.PixelH,
				X:      margin,
				Y:      margin,
				Width:  boxW,
				Height: boxH,
			}},
		}
		if len(p.Marks) > 0 {
			lines, err := marks.Lines(p.Marks, d.cfg.Unit, margin+bleedMM, margin+bleedMM)
			if err != nil {
				return nil, fmt.Errorf("page %d marks: %w", i+1, err)
			}
			page.Lines = lines
		}
		for _, tb := range p.Texts {
			page.Texts = append(page.Texts, tb.Scale(k).Translate(margin+bleedMM, margin+bleedMM))
		}
		res.Pages = append(res.Pages, page)
	}
	return res, nil
}

// Impose 按 scheme 拼版已采集的页面并生成 layout.Result。页数不满足要求时整体失败，
// 不返回任何部分结果。跨页印张的标记按两页合并后的裁切框计算。
func (d *Document) Impose(scheme impose.Scheme, meta layout.DocumentMeta) (*layout.Result, error) {
	g := impose.Geometry{TrimWidth: d.cfg.TrimWidth, TrimHeight: d.cfg.TrimHeight, Bleed: d.bleed}
	sheets, err := impose.Build(d.Rasters(), g, scheme)
	if err != nil {
		return nil, fmt.Errorf("impose %s: %w", scheme, err)
	}
	if len(sheets) == 0 {
		return nil, ErrNoPages
	}
	k, err := layout.ToReference(1, d.cfg.Unit)
	if err != nil {
		return nil, err
	}
	margin := 0.0
	if d.marksEnabled {
		if margin, err = marks.Margin(layout.UnitMM); err != nil {
			return nil, err
		}
	}
	bleedMM := d.bleed * k
	trimWMM := d.cfg.TrimWidth * k

	res := d.newResult(meta)
	for _, sh := range sheets {
		w, h := sh.Width*k, sh.Height*k
		page := layout.Page{
			Width:  w + 2*margin,
			Height: h + 2*margin,
			Label:  sheetLabel(sh.Spread),
			Images: []layout.ImageBox{{
				Raster: sh.Raster,
				PixelW: sh.Raster.Bounds().Dx(),
				PixelH: sh.Raster.Bounds().Dy(),
				X:      margin,
				Y:      margin,
				Width:  w,
				Height: h,
			}},
		}
		if d.marksEnabled {
			trimW := d.cfg.TrimWidth
			if !sh.Spread.Solo() {
				trimW *= 2
			}
			ms, err := marks.Compute(trimW, d.cfg.TrimHeight, d.bleed, d.cfg.Unit)
			if err != nil {
				return nil, err
			}
			if page.Lines, err = marks.Lines(ms, d.cfg.Unit, margin+bleedMM, margin+bleedMM); err != nil {
				return nil, err
			}
		}
		origin := margin + bleedMM
		for _, tb := range d.pages[sh.Spread.Left].Texts {
			page.Texts = append(page.Texts, tb.Scale(k).Translate(origin, origin))
		}
		if !sh.Spread.Solo() {
			for _, tb := range d.pages[sh.Spread.Right].Texts {
				page.Texts = append(page.Texts, tb.Scale(k).Translate(origin+trimWMM, origin))
			}
		}
		res.Pages = append(res.Pages, page)
	}
	Logger().Debug("imposed", "scheme", scheme.String(), "sheets", len(sheets))
	return res, nil
}

func (d *Document) newResult(meta layout.DocumentMeta) *layout.Result {
	fonts := make(map[string]layout.FontResource, len(d.cfg.Fonts))
	for name, f := range d.cfg.Fonts {
		fonts[name] = f
	}
	if meta.Title == "" {
		meta.Title = d.cfg.Filename
	}
	return &layout.Result{
		Resources: layout.ResourceSet{Fonts: fonts},
		Meta:      meta,
	}
}

// sheetLabel 使用 1 起始页码标注印张，例如 "8|1"。
func sheetLabel(sp impose.Spread) string {
	if sp.Solo() {
		return strconv.Itoa(sp.Left + 1)
	}
	return strconv.Itoa(sp.Left+1) + "|" + strconv.Itoa(sp.Right+1)
}
