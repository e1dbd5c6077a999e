// Package impose reorders captured pages into reader spreads or saddle-stitch signatures
// and composites each pairing into one sheet raster.
//
// Mis-imposed output cannot be fixed after printing, so every precondition is checked up
// front and a failing build returns no sheets at all.
package impose

import (
	"errors"
	"fmt"
	"strings"
)

// None marks the empty right-hand slot of a solo sheet.
const None = -1

// ErrInvalidPageCount is the sentinel behind every PageCountError.
var ErrInvalidPageCount = errors.New("invalid page count for imposition")

// PageCountError explains which page count a scheme needed.
type PageCountError struct {
	Scheme Scheme
	Pages  int
	// Want is the nearest valid page count at or above Pages.
	Want int
}

func (e *PageCountError) Error() string {
	switch e.Scheme {
	case Saddle:
		return fmt.Sprintf("saddle-stitch needs a multiple of 4 pages: have %d, round up to %d", e.Pages, e.Want)
	default:
		return fmt.Sprintf("reader spreads need at least 2 pages with an even interior: have %d, want %d", e.Pages, e.Want)
	}
}

func (e *PageCountError) Unwrap() error { return ErrInvalidPageCount }

// Scheme selects an imposition order.
type Scheme int

const (
	Reader Scheme = iota + 1
	Saddle
)

func (s Scheme) String() string {
	switch s {
	case Reader:
		return "reader"
	case Saddle:
		return "saddle"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// ParseScheme accepts "reader"/"spreads" and "saddle"/"saddle-stitch".
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reader", "spreads", "reader-spreads":
		return Reader, nil
	case "saddle", "saddle-stitch", "saddlestitch":
		return Saddle, nil
	}
	return 0, fmt.Errorf("unknown imposition scheme %q", s)
}

// Spread pairs two page indices on one sheet; Right is None for a solo page.
type Spread struct {
	Left  int `json:"left" yaml:"left"`
	Right int `json:"right" yaml:"right"`
}

// Solo reports whether the sheet carries a single page.
func (s Spread) Solo() bool { return s.Right == None }

func (s Spread) String() string {
	if s.Solo() {
		return fmt.Sprintf("(%d,none)", s.Left)
	}
	return fmt.Sprintf("(%d,%d)", s.Left, s.Right)
}

// ReaderSpreads returns the cover solo, interior pages paired in reading order, and the
// back cover solo. n must be at least 2 and n-2 must be even.
func ReaderSpreads(n int) ([]Spread, error) {
	if n < 2 || (n-2)%2 != 0 {
		want := n + 1
		if n < 2 {
			want = 2
		}
		return nil, &PageCountError{Scheme: Reader, Pages: n, Want: want}
	}
	out := make([]Spread, 0, n/2+1)
	out = append(out, Spread{Left: 0, Right: None})
	for i := 1; i+1 <= n-2; i += 2 {
		out = append(out, Spread{Left: i, Right: i + 1})
	}
	out = append(out, Spread{Left: n - 1, Right: None})
	return out, nil
}

// SaddleStitch returns the printer's pairing for a saddle-stitched signature. Sheet sides
// alternate so that, once folded and cut, the pages read in order. n must be a positive
// multiple of 4.
func SaddleStitch(n int) ([]Spread, error) {
	if n <= 0 || n%4 != 0 {
		want := (n + 3) / 4 * 4
		if want <= 0 {
			want = 4
		}
		return nil, &PageCountError{Scheme: Saddle, Pages: n, Want: want}
	}
	out := make([]Spread, 0, n/2)
	for k := 0; k < n/2; k++ {
		if k%2 == 0 {
			out = append(out, Spread{Left: n - 1 - k, Right: k})
		} else {
			out = append(out, Spread{Left: k, Right: n - 1 - k})
		}
	}
	return out, nil
}

// Plan returns the spread order of scheme for n pages.
func Plan(n int, scheme Scheme) ([]Spread, error) {
	switch scheme {
	case Reader:
		return ReaderSpreads(n)
	case Saddle:
		return SaddleStitch(n)
	default:
		return nil, fmt.Errorf("unknown imposition scheme %v", scheme)
	}
}
