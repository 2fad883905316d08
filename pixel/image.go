package pixel

import (
	"image"
	"image/color"
	"image/draw"
)

// Image is an in-memory image that can be cleared and filled.
type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// CRGB16Image is an image of 16-bit 5-6-5 RGB pixels, stored as words in display order.
type CRGB16Image struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the pixel values, row by row.
	Pix []uint16

	// Stride is the Pix stride (in words) between vertically adjacent pixels.
	Stride int
}

// NewCRGB16Image returns a black image with the given bounds.
func NewCRGB16Image(r image.Rectangle) *CRGB16Image {
	return &CRGB16Image{
		Rect:   r,
		Pix:    make([]uint16, r.Dx()*r.Dy()),
		Stride: r.Dx(),
	}
}

func (p *CRGB16Image) Bounds() image.Rectangle {
	return p.Rect
}

func (p *CRGB16Image) ColorModel() color.Model {
	return CRGB16Model
}

// PixOffset returns the index of the pixel at (x, y) in Pix.
func (p *CRGB16Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x - p.Rect.Min.X)
}

func (p *CRGB16Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	return CRGB16{p.Pix[p.PixOffset(x, y)]}
}

func (p *CRGB16Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = Convert(c).V
}

func (p *CRGB16Image) Clear() {
	clear(p.Pix)
}

func (p *CRGB16Image) Fill(c color.Color) {
	v := Convert(c).V
	for i := range p.Pix {
		p.Pix[i] = v
	}
}

var _ Image = (*CRGB16Image)(nil)
