package layout

import (
	"math"
	"strings"
)

// Box is a layout rectangle; X/Y is the top-left corner.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// PlacedLine is one wrapped line positioned inside a Box. Y is the baseline.
type PlacedLine struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Column int     `json:"column"`
}

// Flow lays prose out into multi-column boxes. Column count, gutter and text size are
// standing settings: set once, they apply to every later Layout call.
type Flow struct {
	columns  int
	gutter   float64
	textSize float64
}

// NewFlow returns a single-column flow with no gutter and a 12 unit text size.
func NewFlow() *Flow {
	return &Flow{columns: 1, textSize: 12}
}

func (f *Flow) Columns() int { return f.columns }

// SetColumns sets the column count; values below 1 are clamped to 1.
func (f *Flow) SetColumns(n int) {
	if n < 1 {
		n = 1
	}
	f.columns = n
}

func (f *Flow) Gutter() float64 { return f.gutter }

func (f *Flow) SetGutter(g float64) {
	if g < 0 || math.IsNaN(g) {
		g = 0
	}
	f.gutter = g
}

func (f *Flow) TextSize() float64 { return f.textSize }

func (f *Flow) SetTextSize(size float64) {
	if size > 0 {
		f.textSize = size
	}
}

// ColumnWidth returns the width of one column of box under the current settings.
func (f *Flow) ColumnWidth(box Box) float64 {
	cols := f.columnCount()
	return (box.W - f.gutter*float64(cols-1)) / float64(cols)
}

func (f *Flow) columnCount() int {
	if f.columns < 1 {
		return 1
	}
	return f.columns
}

// Layout wraps text to the column width, fills columns top to bottom and left to right,
// and returns the placed lines plus the unplaced remainder joined by "\n".
// Empty text returns immediately without touching metrics.
func (f *Flow) Layout(text string, box Box, metrics TextMetrics) ([]PlacedLine, string) {
	if text == "" {
		return nil, ""
	}
	cols := f.columnCount()
	colWidth := f.ColumnWidth(box)
	lines := WrapLines(text, colWidth, metrics.MeasureWidth)

	ascent := metrics.Ascent()
	leading, ok := metrics.Leading()
	if !ok || leading <= 0 {
		leading = DefaultLeadingFactor * f.textSize
	}
	perColumn := 1
	if leading > 0 {
		perColumn = int(math.Floor((box.H-ascent)/leading)) + 1
	}
	if perColumn < 1 {
		perColumn = 1
	}

	placed := make([]PlacedLine, 0, min(len(lines), perColumn*cols))
	idx := 0
	for col := 0; col < cols && idx < len(lines); col++ {
		x := box.X + float64(col)*(colWidth+f.gutter)
		for row := 0; row < perColumn && idx < len(lines); row++ {
			placed = append(placed, PlacedLine{
				Text:   lines[idx],
				X:      x,
				Y:      box.Y + ascent + float64(row)*leading,
				Column: col,
			})
			idx++
		}
	}
	if idx >= len(lines) {
		return placed, ""
	}
	rest := lines[idx:]
	if len(rest) == 1 && rest[0] == "" {
		// 仅剩一个空行时 Join 结果为 ""，会被当作无溢出；用空白段落承载它。
		return placed, blankOverflow
	}
	return placed, strings.Join(rest, "\n")
}

// blankOverflow 经 WrapLines 还原为恰好一个空行。
const blankOverflow = " "

// FlowAll lays text into boxes in order, carrying overflow from one box into the next.
// It returns the lines placed in each box and whatever did not fit into any of them.
func (f *Flow) FlowAll(text string, boxes []Box, metrics TextMetrics) ([][]PlacedLine, string) {
	out := make([][]PlacedLine, len(boxes))
	rest := text
	for i, box := range boxes {
		if rest == "" {
			break
		}
		out[i], rest = f.Layout(rest, box, metrics)
	}
	return out, rest
}

// WrapLines greedily packs the words of each hard-broken paragraph into lines no wider
// than width. A word wider than width is kept whole on its own line. Empty paragraphs
// produce blank lines.
func WrapLines(text string, width float64, measure func(string) float64) []string {
	if text == "" {
		return nil
	}
	paragraphs := strings.Split(text, "\n")
	lines := make([]string, 0, len(paragraphs))
	for _, para := range paragraphs {
		para = strings.TrimSuffix(para, "\r")
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if line != "" && measure(candidate) > width {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}
