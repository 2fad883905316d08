package pixel

import (
	"image"
	"image/color"
	"math/rand"
	"testing"
)

func TestCRGB16Image(t *testing.T) {
	testCases := []image.Rectangle{
		{},
		image.Rect(0, 0, 1, 1),
		image.Rect(0, 0, 2, 2),
		image.Rect(0, 0, 240, 32),
		image.Rect(10, 20, 42, 36),
	}
	for _, test := range testCases {
		t.Run(test.String(), func(it *testing.T) {
			i := NewCRGB16Image(test)

			if v := i.Bounds(); !v.Eq(test) {
				it.Errorf("expected image bounds %s, got %s", test, v)
			}
			if v := i.ColorModel(); v != CRGB16Model {
				it.Errorf("expected color model %T, got %T", CRGB16Model, v)
			}

			it.Run("in-bounds", func(itt *testing.T) {
				for y := test.Min.Y; y < test.Max.Y; y++ {
					for x := test.Min.X; x < test.Max.X; x++ {
						c := testRandomColor()
						i.Set(x, y, c)
						if v := CRGB16Model.Convert(c); i.At(x, y) != v {
							itt.Fatalf("pixel (%d,%d) is %#+v, expected %#+v (%v)", x, y, i.At(x, y), v, c)
						}
					}
				}
			})

			it.Run("out-bounds", func(itt *testing.T) {
				for _, p := range []image.Point{test.Min.Sub(image.Pt(1, 1)), test.Max, {test.Max.X, test.Min.Y}} {
					i.Set(p.X, p.Y, White)
					if v := i.At(p.X, p.Y); v != color.Transparent {
						itt.Fatalf("pixel %s is %#+v, expected transparent", p, v)
					}
				}
			})

			it.Run("fill", func(itt *testing.T) {
				i.Fill(Red)
				for _, v := range i.Pix {
					if v != Red.V {
						itt.Fatalf("expected %#04x, got %#04x", Red.V, v)
					}
				}
				i.Clear()
				for _, v := range i.Pix {
					if v != Black.V {
						itt.Fatalf("expected black after clear, got %#04x", v)
					}
				}
			})
		})
	}
}

func TestCRGB16ImageOrder(t *testing.T) {
	i := NewCRGB16Image(image.Rect(5, 5, 8, 7))
	i.Set(6, 5, Green)
	i.Set(5, 6, Blue)
	want := []uint16{0, Green.V, 0, Blue.V, 0, 0}
	for n, v := range i.Pix {
		if v != want[n] {
			t.Fatalf("expected row-major words %#04x, got %#04x", want, i.Pix)
		}
	}
}

func testRandomColor() color.Color {
	return color.RGBA{
		R: uint8(rand.Intn(256)),
		G: uint8(rand.Intn(256)),
		B: uint8(rand.Intn(256)),
		A: 0xff,
	}
}
