package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/quire/impose"
	"github.com/ByLCY/quire/layout"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPlanSaddleYAML(t *testing.T) {
	out, err := execute(t, "plan", "8", "--scheme", "saddle")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var plan planOutput
	if err := yaml.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("plan output is not YAML: %v\n%s", err, out)
	}
	if plan.Scheme != "saddle" || plan.Pages != 8 || len(plan.Sheets) != 4 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	first := plan.Sheets[0]
	if first.Left != 8 || first.Right == nil || *first.Right != 1 {
		t.Fatalf("first saddle sheet should pair 8 and 1, got %+v", first)
	}
	second := plan.Sheets[1]
	if second.Left != 2 || *second.Right != 7 {
		t.Fatalf("second saddle sheet should pair 2 and 7, got %+v", second)
	}
}

func TestPlanReaderOmitsEmptySlot(t *testing.T) {
	out, err := execute(t, "plan", "6", "-s", "reader")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var plan planOutput
	if err := yaml.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("plan output is not YAML: %v", err)
	}
	if len(plan.Sheets) != 4 {
		t.Fatalf("6 pages make 4 reader sheets, got %d", len(plan.Sheets))
	}
	if plan.Sheets[0].Right != nil || plan.Sheets[3].Right != nil {
		t.Fatalf("covers are solo sheets: %+v", plan.Sheets)
	}
	if strings.Count(out, "right:") != 2 {
		t.Fatalf("solo sheets must not print a right page:\n%s", out)
	}
}

func TestPlanRejectsPageCount(t *testing.T) {
	_, err := execute(t, "plan", "6", "--scheme", "saddle")
	if !errors.Is(err, impose.ErrInvalidPageCount) {
		t.Fatalf("expected ErrInvalidPageCount, got %v", err)
	}
	if _, err := execute(t, "plan", "8", "--scheme", "perfect"); err == nil {
		t.Fatalf("unknown scheme should fail")
	}
}

func TestConvert(t *testing.T) {
	out, err := execute(t, "convert", "0.125", "in", "mm")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if out != "3.1750 mm\n" {
		t.Fatalf("convert output = %q", out)
	}
	out, err = execute(t, "convert", "72", "pt", "in", "--precision", "1")
	if err != nil || out != "1.0 in\n" {
		t.Fatalf("convert pt→in = %q, %v", out, err)
	}
	if _, err := execute(t, "convert", "1", "furlong", "mm"); !errors.Is(err, layout.ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit, got %v", err)
	}
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func readDebug(t *testing.T, path string) layout.Result {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read debug: %v", err)
	}
	var res layout.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("debug JSON: %v", err)
	}
	return res
}

const zineJob = `job Zine v1 {
  meta {
    title: "Pocket Zine"
  }
  document custom trim 100 150 bleed 5mm marks pages 4 {
    frame "p1.png" {
      bleed: "cover-bleed.png"
    }
    frames "p[2-3].png"
    story size 10pt margin 5mm {
      "${doc.title} ${page.number}/${page.total}"
    }
  }
  export {
    output: "${doc.name}.pdf"
    saddle: "${doc.name}-saddle.pdf"
    reader: "${doc.name}-reader.pdf"
  }
}
`

func TestRenderWritesDocumentAndExports(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 3; i++ {
		writePNG(t, filepath.Join(dir, fmt.Sprintf("p%d.png", i)), 40, 60, color.RGBA{R: uint8(60 * i), A: 0xff})
	}
	// 与帧尺寸不同的出血图会被缩放到采集栅格。
	writePNG(t, filepath.Join(dir, "cover-bleed.png"), 20, 30, color.RGBA{B: 0xff, A: 0xff})
	jobPath := filepath.Join(dir, "zine.quire")
	if err := os.WriteFile(jobPath, []byte(zineJob), 0o644); err != nil {
		t.Fatalf("write job: %v", err)
	}
	outDir := filepath.Join(dir, "out")
	debugPath := filepath.Join(outDir, "layout.json")

	stdout, err := execute(t, "render", jobPath, "--out", outDir, "--debug", debugPath, "--plan")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, name := range []string{"Zine.pdf", "Zine-saddle.pdf", "Zine-reader.pdf"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF")) {
			t.Fatalf("%s is not a PDF", name)
		}
	}
	if !strings.Contains(stdout, "scheme: saddle") || !strings.Contains(stdout, "scheme: reader") {
		t.Fatalf("--plan should print both schemes:\n%s", stdout)
	}

	res := readDebug(t, debugPath)
	if len(res.Pages) != 4 {
		t.Fatalf("pages 4 with 3 frames should pad to 4 pages, got %d", len(res.Pages))
	}
	if res.Meta.Title != "Pocket Zine" {
		t.Fatalf("meta title = %q", res.Meta.Title)
	}
	first := res.Pages[0]
	// 100mm 裁切 + 2×5mm 出血 + 2×5mm 标记边。
	if math.Abs(first.Width-120) > 1e-9 || math.Abs(first.Height-170) > 1e-9 {
		t.Fatalf("page size with slug = %gx%g", first.Width, first.Height)
	}
	if len(first.Lines) == 0 {
		t.Fatalf("marks requested but none drawn")
	}
	if len(first.Texts) != 1 || len(first.Texts[0].Lines) != 1 {
		t.Fatalf("story should land on the first page: %+v", first.Texts)
	}
	if got := first.Texts[0].Lines[0].Text; got != "Pocket Zine 1/4" {
		t.Fatalf("story line = %q", got)
	}
	if len(res.Pages[1].Texts) != 0 {
		t.Fatalf("a consumed story must not repeat on later pages")
	}
}

func TestRenderOpenEndedStoryAddsPages(t *testing.T) {
	dir := t.TempDir()
	var body strings.Builder
	for i := 1; i <= 80; i++ {
		fmt.Fprintf(&body, "      \"line %d\"\n", i)
	}
	src := fmt.Sprintf(`job Notes v1 {
  document custom trim 100 150 raster 50 75 nomarks {
    story Body size 10pt margin 10mm {
%s    }
  }
}
`, body.String())
	jobPath := filepath.Join(dir, "notes.quire")
	if err := os.WriteFile(jobPath, []byte(src), 0o644); err != nil {
		t.Fatalf("write job: %v", err)
	}
	outDir := filepath.Join(dir, "out")
	debugPath := filepath.Join(outDir, "layout.json")
	written, err := runRender(t.Context(), renderOptions{
		JobPath:  jobPath,
		OutDir:   outDir,
		AssetDir: dir,
		Debug:    debugPath,
	}, io.Discard)
	if err != nil {
		t.Fatalf("runRender: %v", err)
	}
	if len(written) != 1 || filepath.Base(written[0]) != "Notes.pdf" {
		t.Fatalf("written = %v", written)
	}

	res := readDebug(t, debugPath)
	if len(res.Pages) < 2 {
		t.Fatalf("80 lines should overflow onto extra pages, got %d page(s)", len(res.Pages))
	}
	var placed []string
	for _, p := range res.Pages {
		if len(p.Lines) != 0 {
			t.Fatalf("nomarks pages must not carry marks")
		}
		for _, tb := range p.Texts {
			for _, ln := range tb.Lines {
				placed = append(placed, ln.Text)
			}
		}
	}
	if len(placed) != 80 || placed[0] != "line 1" || placed[79] != "line 80" {
		t.Fatalf("story lines lost or reordered: %d placed, first %q", len(placed), placed[0])
	}
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"no sources": `job A v1 { document A5 { } }`,
		"no raster":  `job A v1 { document A5 { story { "x" } } }`,
		"too many":   "job A v1 { document A5 pages 1 {\n frame \"a.png\"\n frame \"b.png\"\n } }",
		"bad data":   `job A v1 { document A5 { frame "a.png" } }`,
	}
	writePNG(t, filepath.Join(dir, "a.png"), 10, 10, color.White)
	writePNG(t, filepath.Join(dir, "b.png"), 10, 10, color.White)
	for name, src := range cases {
		path := filepath.Join(dir, strings.ReplaceAll(name, " ", "-")+".quire")
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatalf("write job: %v", err)
		}
		opts := renderOptions{JobPath: path, OutDir: filepath.Join(dir, "out"), AssetDir: dir}
		if name == "bad data" {
			opts.DataJSON = "{"
		}
		if _, err := runRender(t.Context(), opts, io.Discard); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}
