package impose

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"reflect"
	"testing"
)

func TestReaderSpreadsSixPages(t *testing.T) {
	got, err := ReaderSpreads(6)
	if err != nil {
		t.Fatalf("ReaderSpreads(6): %v", err)
	}
	want := []Spread{{0, None}, {1, 2}, {3, 4}, {5, None}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReaderSpreads(6) = %v, want %v", got, want)
	}
}

func TestReaderSpreadsPreconditions(t *testing.T) {
	if got, err := ReaderSpreads(2); err != nil || len(got) != 2 || !got[0].Solo() || !got[1].Solo() {
		t.Fatalf("two pages should give two solo sheets, got %v %v", got, err)
	}
	for _, n := range []int{-1, 0, 1, 3, 5, 7} {
		_, err := ReaderSpreads(n)
		if !errors.Is(err, ErrInvalidPageCount) {
			t.Fatalf("ReaderSpreads(%d) should fail with ErrInvalidPageCount, got %v", n, err)
		}
	}
}

func TestSaddleStitchEightPages(t *testing.T) {
	got, err := SaddleStitch(8)
	if err != nil {
		t.Fatalf("SaddleStitch(8): %v", err)
	}
	want := []Spread{{7, 0}, {1, 6}, {5, 2}, {3, 4}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SaddleStitch(8) = %v, want %v", got, want)
	}
}

func TestSaddleStitchUsesEveryPageOnce(t *testing.T) {
	for _, n := range []int{4, 12, 16, 32} {
		spreads, err := SaddleStitch(n)
		if err != nil {
			t.Fatalf("SaddleStitch(%d): %v", n, err)
		}
		seen := make(map[int]bool, n)
		for _, s := range spreads {
			if s.Solo() {
				t.Fatalf("saddle-stitch never has solo sheets: %v", s)
			}
			if s.Left+s.Right != n-1 {
				t.Fatalf("pair %v does not sum to %d", s, n-1)
			}
			seen[s.Left], seen[s.Right] = true, true
		}
		if len(seen) != n {
			t.Fatalf("n=%d: %d distinct pages placed", n, len(seen))
		}
	}
}

func TestSaddleStitchRejectsNonMultipleOfFour(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 5, 6, 7, 9, 10} {
		_, err := SaddleStitch(n)
		if !errors.Is(err, ErrInvalidPageCount) {
			t.Fatalf("SaddleStitch(%d) should fail, got %v", n, err)
		}
	}
	_, err := SaddleStitch(10)
	var pce *PageCountError
	if !errors.As(err, &pce) || pce.Want != 12 {
		t.Fatalf("expected rounding hint 12, got %v", err)
	}
}

func TestParseScheme(t *testing.T) {
	if s, err := ParseScheme("Saddle-Stitch"); err != nil || s != Saddle {
		t.Fatalf("ParseScheme saddle: %v %v", s, err)
	}
	if s, err := ParseScheme("spreads"); err != nil || s != Reader {
		t.Fatalf("ParseScheme spreads: %v %v", s, err)
	}
	if _, err := ParseScheme("perfect"); err == nil {
		t.Fatalf("unknown scheme should fail")
	}
}

// page 生成一张带出血的纯色页：左右出血条为 edge 色，其余为 body 色。
func page(w, h, bleed int, body, edge color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(body), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, bleed, h), image.NewUniform(edge), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(w-bleed, 0, w, h), image.NewUniform(edge), image.Point{}, draw.Src)
	return img
}

func TestCompositeSpreadDropsInnerBleed(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	edge := color.RGBA{G: 255, A: 255}
	left := page(60, 40, 5, red, edge)
	right := page(60, 40, 5, blue, edge)
	out, err := CompositeSpread(left, right, 5)
	if err != nil {
		t.Fatalf("CompositeSpread: %v", err)
	}
	if out.Bounds().Dx() != 110 {
		t.Fatalf("spread width = %d, want 110", out.Bounds().Dx())
	}
	if c := out.RGBAAt(2, 10); c != edge {
		t.Fatalf("outer left bleed kept, got %v", c)
	}
	if c := out.RGBAAt(54, 10); c != red {
		t.Fatalf("left page inner edge should be trim content, got %v", c)
	}
	if c := out.RGBAAt(55, 10); c != blue {
		t.Fatalf("right page should start right after the left trim, got %v", c)
	}
	if c := out.RGBAAt(108, 10); c != edge {
		t.Fatalf("outer right bleed kept, got %v", c)
	}
}

func TestBuildSheetsSizes(t *testing.T) {
	g := Geometry{TrimWidth: 100, TrimHeight: 150, Bleed: 5}
	pages := make([]image.Image, 4)
	for i := range pages {
		pages[i] = page(110, 160, 5, color.White, color.Black)
	}
	sheets, err := Build(pages, g, Reader)
	if err != nil {
		t.Fatalf("Build reader: %v", err)
	}
	if len(sheets) != 3 {
		t.Fatalf("expected 3 sheets, got %d", len(sheets))
	}
	if sheets[0].Width != 110 || sheets[0].Height != 160 || sheets[0].Raster.Bounds().Dx() != 110 {
		t.Fatalf("solo sheet size wrong: %+v", sheets[0])
	}
	if sheets[1].Width != 210 || sheets[1].Raster.Bounds().Dx() != 210 {
		t.Fatalf("spread sheet size wrong: %gmm / %dpx", sheets[1].Width, sheets[1].Raster.Bounds().Dx())
	}

	saddle, err := Build(pages, g, Saddle)
	if err != nil {
		t.Fatalf("Build saddle: %v", err)
	}
	if len(saddle) != 2 || saddle[0].Spread != (Spread{3, 0}) {
		t.Fatalf("unexpected saddle sheets: %v", saddle)
	}
}

func TestBuildFailsWholeOnBadInput(t *testing.T) {
	g := Geometry{TrimWidth: 100, TrimHeight: 150}
	pages := []image.Image{page(10, 10, 0, color.White, color.White), page(10, 10, 0, color.White, color.White), page(10, 10, 0, color.White, color.White)}
	if sheets, err := Build(pages, g, Saddle); err == nil || sheets != nil {
		t.Fatalf("three pages cannot be saddle-stitched: %v %v", sheets, err)
	}
	pages = append(pages, page(12, 10, 0, color.White, color.White))
	if sheets, err := Build(pages, g, Saddle); err == nil || sheets != nil {
		t.Fatalf("mixed raster sizes must fail the whole build: %v %v", sheets, err)
	}
}
