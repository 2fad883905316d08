// Package glyph provides the fixed 5x8 bitmap font drawn by the rasterizer.
//
// A glyph is stored column-major: one byte per column, bit 0 being the top row. Only the
// printable ASCII range [First, Last] has glyphs; every other character code is skipped by the
// rasterizer.
package glyph

// Glyph cell geometry and the printable range.
const (
	Width  = 5
	Height = 8
	First  = 32  // ' '
	Last   = 126 // '~'
)

// Bitmap is one column-major glyph.
type Bitmap [Width]byte

// On reports whether the pixel at (col, row) is part of the glyph.
func (b Bitmap) On(col, row int) bool {
	return b[col]>>uint(row)&1 != 0
}

// Empty reports whether no pixel is set.
func (b Bitmap) Empty() bool {
	return b == Bitmap{}
}

// Set looks up glyphs by character code.
type Set interface {
	// Glyph returns the bitmap for ch, or false if ch has no glyph.
	Glyph(ch byte) (Bitmap, bool)
}

// Printable reports whether ch is inside the printable range.
func Printable(ch byte) bool {
	return ch >= First && ch <= Last
}

// Table holds one glyph for each printable character.
type Table [Last - First + 1]Bitmap

// Glyph implements Set.
func (t *Table) Glyph(ch byte) (Bitmap, bool) {
	if !Printable(ch) {
		return Bitmap{}, false
	}
	return t[ch-First], true
}

// Default is the built-in 5x8 font.
var Default Set = (*Table)(&classic)
