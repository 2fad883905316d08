package st7789

import (
	"fmt"
	"image"

	"github.com/BeatGlow/st7789/pixel"
)

// Fill paints the whole display with one color.
func (d *Device) Fill(c pixel.CRGB16) error {
	if err := d.SetCursor(0, 0); err != nil {
		return err
	}
	return d.repeat(c, d.width*d.height)
}

// FillRect paints the part of r that is on the display.
func (d *Device) FillRect(r image.Rectangle, c pixel.CRGB16) error {
	r = r.Intersect(d.Bounds())
	if r.Empty() {
		return nil
	}
	if err := d.SetAddressWindow(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1); err != nil {
		return err
	}
	return d.repeat(c, r.Dx()*r.Dy())
}

// Clear paints the whole display black.
func (d *Device) Clear() error {
	if err := d.Fill(pixel.Black); err != nil {
		return fmt.Errorf("st7789: clear: %w", err)
	}
	return nil
}

// repeat writes n pixels of color c.
func (d *Device) repeat(c pixel.CRGB16, n int) error {
	words := make([]uint16, min(n, d.t.batchSize/2))
	for i := range words {
		words[i] = c.V
	}
	for n > 0 {
		k := min(n, len(words))
		if err := d.t.writePixels(words[:k]); err != nil {
			return err
		}
		n -= k
	}
	return nil
}
