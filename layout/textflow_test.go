package layout

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

// stubMetrics 以“每个字符宽 1”测量文本，并记录调用次数。
type stubMetrics struct {
	ascent  float64
	leading float64
	calls   int
}

func (s *stubMetrics) MeasureWidth(str string) float64 {
	s.calls++
	return float64(utf8.RuneCountInString(str))
}

func (s *stubMetrics) Ascent() float64 { return s.ascent }

func (s *stubMetrics) Leading() (float64, bool) {
	if s.leading <= 0 {
		return 0, false
	}
	return s.leading, true
}

func lineTexts(lines []PlacedLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}

func TestWrapTwoWordsPerLine(t *testing.T) {
	f := NewFlow()
	m := &stubMetrics{ascent: 1, leading: 2}
	lines, overflow := f.Layout("aa bb cc", Box{W: 5, H: 100}, m)
	if got, want := lineTexts(lines), []string{"aa bb", "cc"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	if overflow != "" {
		t.Fatalf("overflow = %q, want empty", overflow)
	}
}

func TestEmptyTextSkipsMetrics(t *testing.T) {
	f := NewFlow()
	m := &stubMetrics{ascent: 1, leading: 2}
	lines, overflow := f.Layout("", Box{W: 10, H: 10}, m)
	if lines != nil || overflow != "" {
		t.Fatalf("expected no lines and no overflow, got %v %q", lines, overflow)
	}
	if m.calls != 0 {
		t.Fatalf("metrics should not be consulted for empty text, got %d calls", m.calls)
	}
}

func TestWrapKeepsBlankLinesAndLongWords(t *testing.T) {
	got := WrapLines("foo\n\nsupercalifragilistic bar\r\nend", 6, func(s string) float64 { return float64(len(s)) })
	want := []string{"foo", "", "supercalifragilistic", "bar", "end"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("WrapLines = %q, want %q", got, want)
	}
}

func TestColumnsAndOverflow(t *testing.T) {
	f := NewFlow()
	f.SetColumns(2)
	f.SetGutter(2)
	m := &stubMetrics{ascent: 1, leading: 2}
	// 每列宽 (10-2)/2 = 4；每列行数 floor((5-1)/2)+1 = 3。
	box := Box{X: 10, Y: 20, W: 10, H: 5}
	text := "a1 b2 c3 d4 e5 f6 g7 h8"
	lines, overflow := f.Layout(text, box, m)
	if len(lines) != 6 {
		t.Fatalf("expected 6 placed lines, got %d: %q", len(lines), lineTexts(lines))
	}
	if overflow != "g7\nh8" {
		t.Fatalf("overflow = %q", overflow)
	}
	first, fourth := lines[0], lines[3]
	if first.X != 10 || first.Y != 21 || first.Column != 0 {
		t.Fatalf("unexpected first line placement: %+v", first)
	}
	if fourth.Column != 1 || math.Abs(fourth.X-16) > 1e-9 || fourth.Y != 21 {
		t.Fatalf("second column should start at x=16, y=21: %+v", fourth)
	}
	if lines[2].Y != 25 {
		t.Fatalf("third baseline should be 25, got %g", lines[2].Y)
	}
}

func TestColumnsClampedAndSticky(t *testing.T) {
	f := NewFlow()
	f.SetColumns(0)
	if f.Columns() != 1 {
		t.Fatalf("columns should clamp to 1, got %d", f.Columns())
	}
	f.SetColumns(3)
	f.SetGutter(-4)
	if f.Columns() != 3 || f.Gutter() != 0 {
		t.Fatalf("settings not kept: columns=%d gutter=%g", f.Columns(), f.Gutter())
	}
	m := &stubMetrics{ascent: 1, leading: 1}
	f.Layout("x", Box{W: 9, H: 3}, m)
	if f.Columns() != 3 {
		t.Fatalf("layout must not reset sticky columns")
	}
}

func TestLeadingFallsBackToTextSize(t *testing.T) {
	f := NewFlow()
	f.SetTextSize(4)
	m := &stubMetrics{ascent: 2}
	lines, _ := f.Layout("a\nb", Box{W: 10, H: 100}, m)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if diff := lines[1].Y - lines[0].Y; math.Abs(diff-5) > 1e-9 {
		t.Fatalf("fallback leading should be 1.25×4=5, got %g", diff)
	}
}

func TestTinyBoxStillPlacesOneLinePerColumn(t *testing.T) {
	f := NewFlow()
	m := &stubMetrics{ascent: 10, leading: 3}
	lines, overflow := f.Layout("a b c", Box{W: 1, H: 2}, m)
	if len(lines) != 1 || overflow != "b\nc" {
		t.Fatalf("expected one line and overflow b/c, got %q %q", lineTexts(lines), overflow)
	}
}

// TestOverflowContinuationMatchesSingleLayout 验证：把溢出反复送入下一次排版，
// 最终溢出为空，且总行序列与一次无限高排版一致。
func TestOverflowContinuationMatchesSingleLayout(t *testing.T) {
	cases := map[string]struct {
		text    string
		columns int
		gutter  float64
		box     Box
	}{
		"prose": {
			text:    strings.Repeat("lorem ipsum dolor sit amet consectetur ", 12) + "\n\nfin de texte",
			columns: 2,
			gutter:  1,
			box:     Box{W: 41, H: 6},
		},
		"trailing blank line": {
			text:    "aa\nbb\n",
			columns: 1,
			box:     Box{W: 10, H: 1},
		},
		"blank lines only": {
			text:    "\n\n",
			columns: 1,
			box:     Box{W: 10, H: 1},
		},
	}
	for name, tc := range cases {
		m := &stubMetrics{ascent: 1, leading: 1.5}
		f := NewFlow()
		f.SetColumns(tc.columns)
		f.SetGutter(tc.gutter)

		var chained []string
		rest := tc.text
		for i := 0; rest != ""; i++ {
			if i > 100 {
				t.Fatalf("%s: continuation did not terminate", name)
			}
			var lines []PlacedLine
			lines, rest = f.Layout(rest, tc.box, m)
			chained = append(chained, lineTexts(lines)...)
		}

		single, overflow := f.Layout(tc.text, Box{W: tc.box.W, H: 1e6}, m)
		if overflow != "" {
			t.Fatalf("%s: unbounded layout should not overflow", name)
		}
		if !reflect.DeepEqual(chained, lineTexts(single)) {
			t.Fatalf("%s: chained lines differ:\n%q\n%q", name, chained, lineTexts(single))
		}
	}
}

func TestOverflowKeepsLoneBlankLine(t *testing.T) {
	f := NewFlow()
	m := &stubMetrics{ascent: 1, leading: 1}
	lines, rest := f.Layout("aa\n", Box{W: 10, H: 1}, m)
	if got := lineTexts(lines); !reflect.DeepEqual(got, []string{"aa"}) {
		t.Fatalf("lines = %q", got)
	}
	if rest == "" {
		t.Fatalf("the trailing blank line must be reported as overflow")
	}
	lines, rest = f.Layout(rest, Box{W: 10, H: 1}, m)
	if got := lineTexts(lines); !reflect.DeepEqual(got, []string{""}) || rest != "" {
		t.Fatalf("continuation = %q, rest %q", got, rest)
	}
}

func TestFlowAll(t *testing.T) {
	f := NewFlow()
	m := &stubMetrics{ascent: 1, leading: 1}
	boxes := []Box{{W: 2, H: 1}, {W: 2, H: 2}, {W: 2, H: 5}}
	placed, rest := f.FlowAll("a b c d", boxes, m)
	if rest != "" {
		t.Fatalf("unexpected overflow %q", rest)
	}
	if len(placed[0]) != 1 || len(placed[1]) != 2 || len(placed[2]) != 1 {
		t.Fatalf("unexpected distribution: %d/%d/%d", len(placed[0]), len(placed[1]), len(placed[2]))
	}
}
