package glyph

import (
	"math/bits"
	"testing"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

func TestDefault(t *testing.T) {
	tests := []struct {
		name string
		ch   byte
		want Bitmap
		ok   bool
	}{
		{"space", ' ', Bitmap{}, true},
		{"A", 'A', Bitmap{0x7E, 0x11, 0x11, 0x11, 0x7E}, true},
		{"zero", '0', Bitmap{0x3E, 0x51, 0x49, 0x45, 0x3E}, true},
		{"tilde", '~', Bitmap{0x10, 0x08, 0x08, 0x10, 0x08}, true},
		{"control", '\n', Bitmap{}, false},
		{"delete", 127, Bitmap{}, false},
		{"high", 0xE9, Bitmap{}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := Default.Glyph(test.ch)
			if ok != test.ok {
				t.Fatalf("expected ok to be %t, got %t", test.ok, ok)
			}
			if got != test.want {
				t.Errorf("expected %#02x, got %#02x", test.want, got)
			}
		})
	}
}

func TestDefaultPrintableNotBlank(t *testing.T) {
	for ch := byte(First + 1); ch <= Last; ch++ {
		if b, _ := Default.Glyph(ch); b.Empty() {
			t.Errorf("glyph %q is blank", ch)
		}
	}
}

func TestBitmapOn(t *testing.T) {
	// '!' is a single vertical bar in the middle column with a gap above the dot.
	b, _ := Default.Glyph('!')
	for row := 0; row < Height; row++ {
		want := row != 5 && row != 7
		if got := b.On(2, row); got != want {
			t.Errorf("On(2, %d): expected %t, got %t", row, want, got)
		}
		if b.On(0, row) || b.On(4, row) {
			t.Errorf("row %d: outer columns should be empty", row)
		}
	}
}

func TestFromFace(t *testing.T) {
	table := FromFace(basicfont.Face7x13)

	if b, _ := table.Glyph(' '); !b.Empty() {
		t.Errorf("expected space to be blank, got %#02x", b)
	}
	for ch := byte('A'); ch <= 'Z'; ch++ {
		if b, _ := table.Glyph(ch); b.Empty() {
			t.Errorf("glyph %q is blank", ch)
		}
	}
	b, _ := table.Glyph('I')
	if n := bits.OnesCount8(b[2]); n < 4 {
		t.Errorf("expected the stem of 'I' to cover at least 4 rows, got %d (%#02x)", n, b)
	}
	if _, ok := table.Glyph(0x7f); ok {
		t.Error("expected no glyph outside the printable range")
	}
}

func TestParseTTF(t *testing.T) {
	table, err := ParseTTF(goregular.TTF, 12)
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := table.Glyph(' '); !b.Empty() {
		t.Errorf("expected space to be blank, got %#02x", b)
	}
	if b, _ := table.Glyph('H'); b.Empty() {
		t.Error("expected 'H' to have pixels")
	}

	if _, err = ParseTTF([]byte("not a font"), 12); err == nil {
		t.Error("expected an error for invalid font data")
	}
}
