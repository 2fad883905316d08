package st7789

import (
	"image"
	"image/color"
	"image/draw"

	"tinygo.org/x/drivers"

	"github.com/BeatGlow/st7789/glyph"
	"github.com/BeatGlow/st7789/pixel"
)

// Character cell advance, in unscaled pixels.
const (
	advanceX = glyph.Width + 1
	advanceY = glyph.Height
)

// Rasterizer draws pixels, glyphs and text directly to the display memory.
//
// Every call results in bus transactions: nothing is buffered, and what was drawn before can not
// be read back.
type Rasterizer struct {
	// Font used by DrawChar and DrawText (default glyph.Default).
	Font glyph.Set

	d   *Device
	err error
}

var (
	_ draw.Image        = (*Rasterizer)(nil)
	_ drivers.Displayer = (*Rasterizer)(nil)
)

// NewRasterizer returns a rasterizer drawing with the built-in font.
func NewRasterizer(d *Device) *Rasterizer {
	return &Rasterizer{
		Font: glyph.Default,
		d:    d,
	}
}

// Device returns the display drawn to.
func (r *Rasterizer) Device() *Device {
	return r.d
}

// Clear paints the display black.
func (r *Rasterizer) Clear() error {
	return r.d.Clear()
}

// DrawPixel sets the pixel at (x, y).
func (r *Rasterizer) DrawPixel(x, y int, c color.Color) error {
	if err := r.d.SetCursor(x, y); err != nil {
		return err
	}
	return r.d.WritePixel(pixel.Convert(c))
}

// DrawChar draws a glyph cell with its top left corner at (x, y), each glyph pixel enlarged to a
// scale by scale block. Set glyph pixels are painted fg, the others bg.
//
// Characters without a glyph, a scale below 1 and cells entirely off the display draw nothing.
// Cells partially off the display are clipped.
func (r *Rasterizer) DrawChar(x, y int, ch byte, fg, bg color.Color, scale int) error {
	if scale < 1 || !glyph.Printable(ch) {
		return nil
	}
	bitmap, ok := r.font().Glyph(ch)
	if !ok {
		return nil
	}

	cell := image.Rect(x, y, x+glyph.Width*scale, y+glyph.Height*scale)
	clip := cell.Intersect(r.d.Bounds())
	if clip.Empty() {
		return nil
	}
	if err := r.d.SetAddressWindow(clip.Min.X, clip.Min.Y, clip.Max.X-1, clip.Max.Y-1); err != nil {
		return err
	}

	var (
		on    = pixel.Convert(fg).V
		off   = pixel.Convert(bg).V
		words = make([]uint16, 0, clip.Dx()*clip.Dy())
	)
	for py := clip.Min.Y; py < clip.Max.Y; py++ {
		row := (py - y) / scale
		for px := clip.Min.X; px < clip.Max.X; px++ {
			if bitmap.On((px-x)/scale, row) {
				words = append(words, on)
			} else {
				words = append(words, off)
			}
		}
	}
	return r.d.t.writePixels(words)
}

// DrawText draws text starting at (x, y), one byte per character cell. A newline returns to
// column x on the next line; any other byte advances one cell, also when it has no glyph. Text is
// not wrapped.
func (r *Rasterizer) DrawText(x, y int, text string, fg, bg color.Color, scale int) error {
	if scale < 1 {
		return nil
	}
	cx, cy := x, y
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '\n' {
			cx = x
			cy += advanceY * scale
			continue
		}
		if err := r.DrawChar(cx, cy, ch, fg, bg, scale); err != nil {
			return err
		}
		cx += advanceX * scale
	}
	return nil
}

// DrawImage copies the rectangle rect of the display from src, aligning rect.Min with sp. Pixels
// outside the display are clipped.
func (r *Rasterizer) DrawImage(rect image.Rectangle, src image.Image, sp image.Point) error {
	clip := rect.Intersect(r.d.Bounds())
	if clip.Empty() {
		return nil
	}
	sp = sp.Add(clip.Min.Sub(rect.Min))
	if err := r.d.SetAddressWindow(clip.Min.X, clip.Min.Y, clip.Max.X-1, clip.Max.Y-1); err != nil {
		return err
	}

	buf := pixel.NewCRGB16Image(clip)
	draw.Draw(buf, clip, src, sp, draw.Src)
	return r.d.t.writePixels(buf.Pix)
}

func (r *Rasterizer) font() glyph.Set {
	if r.Font == nil {
		return glyph.Default
	}
	return r.Font
}

// Err returns the first error of Set or SetPixel.
func (r *Rasterizer) Err() error {
	return r.err
}

func (r *Rasterizer) keep(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

// At returns black: the display memory is not read back.
func (r *Rasterizer) At(_, _ int) color.Color {
	return pixel.Black
}

func (r *Rasterizer) Bounds() image.Rectangle {
	return r.d.Bounds()
}

func (r *Rasterizer) ColorModel() color.Model {
	return pixel.CRGB16Model
}

// Set the pixel at (x, y); pixels outside the display are ignored.
func (r *Rasterizer) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(r.d.Bounds()) {
		return
	}
	r.keep(r.DrawPixel(x, y, c))
}

// Size of the display.
func (r *Rasterizer) Size() (x, y int16) {
	return int16(r.d.width), int16(r.d.height)
}

// SetPixel sets the pixel at (x, y), ignoring the alpha channel.
func (r *Rasterizer) SetPixel(x, y int16, c color.RGBA) {
	c.A = 0xff
	r.Set(int(x), int(y), c)
}

// Display returns the first error of Set or SetPixel since the previous call. Pixels are already
// on the display.
func (r *Rasterizer) Display() error {
	err := r.err
	r.err = nil
	return err
}
