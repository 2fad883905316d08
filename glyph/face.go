package glyph

import (
	"fmt"
	"image"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// FromFace renders the printable characters of face and reduces each of them to a 5x8 bitmap.
//
// Every character is drawn on the face's baseline into a cell as wide as its advance and as tall
// as ascent plus descent. The cell is then split in a 5x8 grid; a bit is set when any pixel in
// its part of the grid is at least half covered. Characters the face lacks stay blank.
func FromFace(face font.Face) *Table {
	var (
		t       Table
		metrics = face.Metrics()
		ascent  = metrics.Ascent.Ceil()
		height  = (metrics.Ascent + metrics.Descent).Ceil()
	)
	if height <= 0 {
		return &t
	}
	for ch := First; ch <= Last; ch++ {
		advance, ok := face.GlyphAdvance(rune(ch))
		if !ok || advance.Ceil() <= 0 {
			continue
		}
		dst := image.NewAlpha(image.Rect(0, 0, advance.Ceil(), height))
		d := font.Drawer{
			Dst:  dst,
			Src:  image.Opaque,
			Face: face,
			Dot:  fixed.P(0, ascent),
		}
		d.DrawString(string(rune(ch)))
		t[ch-First] = reduce(dst)
	}
	return &t
}

// ParseTTF parses a TrueType font and converts it at the given size in points (72 DPI).
func ParseTTF(ttf []byte, size float64) (*Table, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("glyph: invalid TrueType font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()
	return FromFace(face), nil
}

func reduce(src *image.Alpha) (b Bitmap) {
	var (
		w = src.Rect.Dx()
		h = src.Rect.Dy()
	)
	for col := 0; col < Width; col++ {
		x0, x1 := span(col, Width, w)
		for row := 0; row < Height; row++ {
			y0, y1 := span(row, Height, h)
			if covered(src, x0, y0, x1, y1) {
				b[col] |= 1 << uint(row)
			}
		}
	}
	return
}

// span maps cell i of n onto [0, size), never returning an empty range.
func span(i, n, size int) (lo, hi int) {
	lo, hi = i*size/n, (i+1)*size/n
	if hi == lo {
		hi = lo + 1
	}
	return
}

func covered(src *image.Alpha, x0, y0, x1, y1 int) bool {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if src.AlphaAt(x, y).A >= 0x80 {
				return true
			}
		}
	}
	return false
}
