package cmd

import (
	"fmt"

	"github.com/ByLCY/quire/binding"
	"github.com/ByLCY/quire/job"
	"github.com/ByLCY/quire/layout"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
)

// storyFlow 把作业正文逐页排入同一个排版框，未排下的部分留给下一页。
type storyFlow struct {
	flow    *layout.Flow
	box     layout.Box
	metrics layout.TextMetrics
	font    string
	size    float64
	color   layout.Color
	rest    string
	vars    map[string]any
}

func newStoryFlow(j *job.Job, r *canvasrenderer.Renderer, vars map[string]any) (*storyFlow, error) {
	s := j.Story
	metrics, err := r.Metrics(j.Fonts[s.Font], s.Size, j.Unit)
	if err != nil {
		return nil, fmt.Errorf("story 字体 %s: %w", s.Font, err)
	}
	if s.Leading > 0 {
		metrics = layout.MetricsFunc{
			Measure:      metrics.MeasureWidth,
			AscentValue:  metrics.Ascent(),
			LeadingValue: s.Leading,
		}
	}

	flow := layout.NewFlow()
	flow.SetColumns(s.Columns)
	flow.SetGutter(s.Gutter)
	flow.SetTextSize(s.Size)

	// 文档级变量在折行前替换，页码类占位符保留到逐页处理。
	text := binding.Interpolate(s.Text, vars)

	return &storyFlow{
		flow:    flow,
		box:     s.Box,
		metrics: metrics,
		font:    s.Font,
		size:    s.Size,
		color:   s.Color,
		rest:    text,
		vars:    vars,
	}, nil
}

// remaining 返回尚未排入任何页面的正文。
func (sf *storyFlow) remaining() string {
	if sf == nil {
		return ""
	}
	return sf.rest
}

// next 为第 number 页排版，没有剩余正文时返回 false。
func (sf *storyFlow) next(number, total int) (layout.TextBox, bool) {
	if sf == nil || sf.rest == "" {
		return layout.TextBox{}, false
	}
	lines, rest := sf.flow.Layout(sf.rest, sf.box, sf.metrics)
	sf.rest = rest

	pageVars := binding.PageVars(sf.vars, number, total)
	for i := range lines {
		lines[i].Text = binding.Interpolate(lines[i].Text, pageVars)
	}
	return layout.TextBox{Font: sf.font, FontSize: sf.size, Color: sf.color, Lines: lines}, true
}
