// Package job 将解析后的作业文件（dsl.Job）解释为类型化的打印作业：纸张与出血、
// 页面来源（帧图片）、正文故事以及拼版导出。
package job

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/impose"
	"github.com/ByLCY/quire/layout"
)

// ErrNoDocument 表示作业文件缺少 document 段。
var ErrNoDocument = errors.New("job has no document section")

// Job 是一个完整的打印作业。尺寸均以 Unit 表示。
type Job struct {
	Name    string
	Version string
	Meta    layout.DocumentMeta
	Fonts   map[string]layout.FontResource

	Unit       layout.Unit
	Paper      string
	TrimWidth  float64
	TrimHeight float64
	Bleed      float64
	Marks      bool
	NoMarks    bool // 显式关闭裁切标记（出血默认会开启标记）
	// Pages 为 0 表示页数由页面来源决定（不定页数，需显式结束）。
	Pages        int
	RasterWidth  int
	RasterHeight int

	Sources []Source
	Story   *Story

	Output  string
	Exports []Export
}

// Source 是一个页面来源：单张帧图片，或按 glob 展开的一组图片。
type Source struct {
	Path  string
	Bleed string // 出血区图片，可为空
	Glob  bool
}

// Frame 是展开后的单页来源。
type Frame struct {
	Path  string
	Bleed string
}

// Story 是需要跨页排版的正文。
type Story struct {
	Font    string
	Size    float64
	Columns int
	Gutter  float64
	Leading float64 // <= 0 表示使用字体度量
	Color   layout.Color
	Box     layout.Box
	Text    string
}

// Export 描述一个拼版导出文件。
type Export struct {
	Scheme impose.Scheme
	Name   string
}

// Load 解释作业 AST。
func Load(ast *dsl.Job) (*Job, error) {
	if ast == nil {
		return nil, errors.New("job is nil")
	}
	j := &Job{
		Name:    ast.Name,
		Version: ast.Version,
		Meta:    collectMeta(ast),
		Fonts:   collectFonts(ast),
		Unit:    layout.UnitMM,
	}

	var doc *dsl.DocumentSection
	for _, section := range ast.Sections {
		switch {
		case section.Document != nil:
			if doc != nil {
				return nil, fmt.Errorf("作业 %s 只能包含一个 document 段", ast.Name)
			}
			doc = section.Document
		case section.Export != nil:
			if err := j.parseExports(section.Export.Block); err != nil {
				return nil, err
			}
		}
	}
	if doc == nil {
		return nil, ErrNoDocument
	}
	if err := j.parseSpec(doc.Spec); err != nil {
		return nil, err
	}
	if err := j.parseBody(doc.Block); err != nil {
		return nil, err
	}
	if j.Output == "" {
		j.Output = j.Name + ".pdf"
	}
	return j, nil
}

// paperPresets 以 mm 表示的纵向纸张尺寸。
var paperPresets = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"A6":     {105, 148},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// parseSpec 解析 document 段头部：纸张、方向、trim/bleed/marks/pages/unit/raster。
func (j *Job) parseSpec(spec dsl.DocumentSpec) error {
	params := spec.Params
	// unit 会影响其余无单位数值的解释，先行处理。
	for i := 0; i < len(params); i++ {
		if params[i].Value == "unit" {
			if i+1 >= len(params) {
				return fmt.Errorf("unit 缺少取值")
			}
			u, err := layout.ParseUnit(params[i+1].Value)
			if err != nil {
				return err
			}
			j.Unit = u
		}
	}

	j.Paper = spec.Size
	landscape := false
	if !strings.EqualFold(spec.Size, "custom") {
		base, ok := paperPresets[strings.ToUpper(spec.Size)]
		if !ok {
			return fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
		}
		w, err := layout.FromReference(base[0], j.Unit)
		if err != nil {
			return err
		}
		h, err := layout.FromReference(base[1], j.Unit)
		if err != nil {
			return err
		}
		j.TrimWidth, j.TrimHeight = w, h
	}

	for i := 0; i < len(params); i++ {
		tok := params[i].Value
		switch tok {
		case "landscape":
			landscape = true
		case "portrait":
			landscape = false
		case "marks":
			j.Marks, j.NoMarks = true, false
		case "nomarks":
			j.Marks, j.NoMarks = false, true
		case "unit":
			i++
		case "trim":
			vals, err := j.lengths(params, i+1, 2)
			if err != nil {
				return fmt.Errorf("trim: %w", err)
			}
			j.TrimWidth, j.TrimHeight = vals[0], vals[1]
			i += 2
		case "bleed":
			vals, err := j.lengths(params, i+1, 1)
			if err != nil {
				return fmt.Errorf("bleed: %w", err)
			}
			if vals[0] < 0 {
				return fmt.Errorf("bleed 不能为负数：%g", vals[0])
			}
			j.Bleed = vals[0]
			i++
		case "pages":
			n, err := intAt(params, i+1)
			if err != nil {
				return fmt.Errorf("pages: %w", err)
			}
			if n < 0 {
				return fmt.Errorf("pages 不能为负数：%d", n)
			}
			j.Pages = n
			i++
		case "raster":
			w, err := intAt(params, i+1)
			if err != nil {
				return fmt.Errorf("raster: %w", err)
			}
			h, err := intAt(params, i+2)
			if err != nil {
				return fmt.Errorf("raster: %w", err)
			}
			j.RasterWidth, j.RasterHeight = w, h
			i += 2
		default:
			return fmt.Errorf("无法识别的 document 参数：%s", tok)
		}
	}

	if landscape {
		j.TrimWidth, j.TrimHeight = j.TrimHeight, j.TrimWidth
	}
	if j.TrimWidth <= 0 || j.TrimHeight <= 0 {
		return fmt.Errorf("纸张 %s 需要通过 trim 指定正的尺寸", spec.Size)
	}
	return nil
}

// lengths 读取从 start 开始的 n 个长度，换算到作业单位；无单位的数值按作业单位处理。
func (j *Job) lengths(params []*dsl.Lexeme, start, n int) ([]float64, error) {
	if start+n > len(params) {
		return nil, fmt.Errorf("需要 %d 个长度值", n)
	}
	out := make([]float64, 0, n)
	for _, p := range params[start : start+n] {
		v, err := j.length(p.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (j *Job) length(raw string) (float64, error) {
	l := layout.ParseRawLengthStr(raw)
	if l.Unit == layout.UnitNone {
		if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
			return 0, fmt.Errorf("长度值 %q 无法解析", raw)
		}
		return l.Value, nil
	}
	return layout.Convert(l.Value, l.Unit, j.Unit)
}

func intAt(params []*dsl.Lexeme, i int) (int, error) {
	if i >= len(params) {
		return 0, fmt.Errorf("缺少整数取值")
	}
	raw := strings.TrimSuffix(params[i].Value, "px")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("整数值 %q 无法解析", params[i].Value)
	}
	return n, nil
}

// parseBody 解析 frame/frames/story 语句。
func (j *Job) parseBody(block *dsl.Block) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		cmd := stmt.Command
		if cmd == nil {
			continue
		}
		switch cmd.Name {
		case "frame", "frames":
			if len(cmd.Args) == 0 || !cmd.Args[0].IsString() {
				return fmt.Errorf("%s 需要一个字符串路径", cmd.Name)
			}
			src := Source{Path: cmd.Args[0].Value, Glob: cmd.Name == "frames"}
			if cmd.Block != nil {
				for _, s := range cmd.Block.Statements {
					if s.Assignment != nil && s.Assignment.Key == "bleed" {
						src.Bleed = valueToString(s.Assignment.Value)
					}
				}
			}
			j.Sources = append(j.Sources, src)
		case "story":
			if j.Story != nil {
				return fmt.Errorf("document 只能包含一个 story")
			}
			story, err := j.parseStory(cmd)
			if err != nil {
				return err
			}
			j.Story = story
		default:
			return fmt.Errorf("无法识别的 document 指令：%s", cmd.Name)
		}
	}
	return nil
}

// defaultStoryMarginMM 是 story 未给出排版框时距裁切边的默认边距。
const defaultStoryMarginMM = 15

var storyAttrs = map[string]bool{
	"size": true, "columns": true, "gutter": true, "margin": true, "leading": true,
	"color": true, "x": true, "y": true, "width": true, "height": true,
}

func (j *Job) parseStory(cmd *dsl.Command) (*Story, error) {
	font, attrs, err := parseArgs(cmd.Args, storyAttrs)
	if err != nil {
		return nil, fmt.Errorf("story: %w", err)
	}
	if font == "" {
		font = "Body"
	}
	if _, ok := j.Fonts[font]; !ok {
		return nil, fmt.Errorf("story 使用了未声明的字体 %s", font)
	}
	margin, err := layout.FromReference(defaultStoryMarginMM, j.Unit)
	if err != nil {
		return nil, err
	}
	size, err := layout.Convert(12, layout.UnitPT, j.Unit)
	if err != nil {
		return nil, err
	}
	s := &Story{
		Font:    font,
		Size:    size,
		Columns: 1,
		Color:   layout.Color{R: 30, G: 30, B: 30},
		Text:    extractText(cmd.Block),
	}

	lengthAttr := func(key string, dst *float64) error {
		raw, ok := attrs[key]
		if !ok {
			return nil
		}
		v, err := j.length(raw)
		if err != nil {
			return fmt.Errorf("story %s: %w", key, err)
		}
		*dst = v
		return nil
	}
	if err := lengthAttr("size", &s.Size); err != nil {
		return nil, err
	}
	if err := lengthAttr("gutter", &s.Gutter); err != nil {
		return nil, err
	}
	if err := lengthAttr("margin", &margin); err != nil {
		return nil, err
	}
	if raw, ok := attrs["columns"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("story columns: %q 不是整数", raw)
		}
		s.Columns = max(n, 1)
	}
	if raw, ok := attrs["leading"]; ok {
		spec, ok := layout.ParseLineHeight(raw)
		if !ok {
			return nil, fmt.Errorf("story leading: %q 无法解析", raw)
		}
		s.Leading = spec.Resolve(layout.Length{Value: s.Size, Unit: j.Unit}, j.Unit)
	}
	if raw, ok := attrs["color"]; ok {
		c, err := parseColor(raw)
		if err != nil {
			return nil, err
		}
		s.Color = c
	}

	s.Box = layout.Box{X: margin, Y: margin, W: j.TrimWidth - 2*margin, H: j.TrimHeight - 2*margin}
	for key, dst := range map[string]*float64{"x": &s.Box.X, "y": &s.Box.Y, "width": &s.Box.W, "height": &s.Box.H} {
		if err := lengthAttr(key, dst); err != nil {
			return nil, err
		}
	}
	if s.Box.W <= 0 || s.Box.H <= 0 || s.Size <= 0 {
		return nil, fmt.Errorf("story 排版框或字号无效：%+v size=%g", s.Box, s.Size)
	}
	return s, nil
}

// parseExports 解析 export 段：output 为主文档文件名，reader/saddle 为拼版导出。
func (j *Job) parseExports(block *dsl.Block) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		key := strings.ToLower(stmt.Assignment.Key)
		name := valueToString(stmt.Assignment.Value)
		if key == "output" {
			j.Output = name
			continue
		}
		scheme, err := impose.ParseScheme(key)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if name == "" {
			return fmt.Errorf("export %s 缺少文件名", key)
		}
		j.Exports = append(j.Exports, Export{Scheme: scheme, Name: name})
	}
	return nil
}

// Frames 展开页面来源；glob 的匹配结果按文件名排序，相对路径基于 baseDir。
func (j *Job) Frames(baseDir string) ([]Frame, error) {
	var out []Frame
	for _, src := range j.Sources {
		if !src.Glob {
			out = append(out, Frame{Path: resolve(baseDir, src.Path), Bleed: resolveOptional(baseDir, src.Bleed)})
			continue
		}
		matches, err := filepath.Glob(resolve(baseDir, src.Path))
		if err != nil {
			return nil, fmt.Errorf("frames %s: %w", src.Path, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("frames %s 没有匹配到任何文件", src.Path)
		}
		sort.Strings(matches)
		for _, m := range matches {
			out = append(out, Frame{Path: m, Bleed: resolveOptional(baseDir, src.Bleed)})
		}
	}
	return out, nil
}

func resolve(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func resolveOptional(baseDir, path string) string {
	if path == "" {
		return ""
	}
	return resolve(baseDir, path)
}

func collectFonts(ast *dsl.Job) map[string]layout.FontResource {
	out := map[string]layout.FontResource{}
	for _, section := range ast.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil || stmt.Command.Name != "font" {
				continue
			}
			font := parseFontResource(stmt.Command)
			if font.Name != "" {
				out[font.Name] = font
			}
		}
	}
	if _, ok := out["Body"]; !ok {
		out["Body"] = layout.FontResource{Name: "Body", Family: "Body", Src: "embed:" + fonts.Default}
	}
	return out
}

func collectMeta(ast *dsl.Job) layout.DocumentMeta {
	meta := layout.DocumentMeta{
		Creator: "quire",
	}
	for _, section := range ast.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = valueToString(stmt.Assignment.Value)
			case "author":
				meta.Author = valueToString(stmt.Assignment.Value)
			case "subject":
				meta.Subject = valueToString(stmt.Assignment.Value)
			case "creator":
				meta.Creator = valueToString(stmt.Assignment.Value)
			case "keywords":
				meta.Keywords = valueToStringSlice(stmt.Assignment.Value)
			}
		}
	}
	return meta
}
