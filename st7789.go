package st7789

import (
	"fmt"
	"image"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/st7789/pixel"
)

// Registers (from st7789.pdf).
const (
	st7789SWRESET  = 0x01 // Software Reset
	st7789SLPOUT   = 0x11 // Sleep Out
	st7789NORON    = 0x13 // Normal Display Mode On
	st7789INVOFF   = 0x20 // Display Inversion Off
	st7789INVON    = 0x21 // Display Inversion On
	st7789DISPOFF  = 0x28 // Display Off
	st7789DISPON   = 0x29 // Display On
	st7789CASET    = 0x2A // Column Address Set
	st7789RASET    = 0x2B // Row Address Set
	st7789RAMWR    = 0x2C // Memory Write
	st7789VSCRDEF  = 0x33 // Vertical Scrolling Definition
	st7789MADCTL   = 0x36 // Memory Data Access Control
	st7789VSCRSADD = 0x37 // Vertical Scroll Start Address of RAM
	st7789COLMOD   = 0x3A // Interface Pixel Format
)

// Interface Pixel Format (COLMOD) bit fields.
const (
	st7789RGB65K  = 0x50 // D6-D4: 65K of RGB interface
	st7789Color16 = 0x05 // D2-D0: 16 bit/pixel
)

// Reset timing.
const (
	resetPulse  = 100 * time.Millisecond
	resetSettle = 100 * time.Millisecond
)

// Device is an ST7789 display controller.
//
// A Device is not safe for concurrent use.
type Device struct {
	t         *transport
	closer    io.Closer
	clock     clockwork.Clock
	reset     gpio.PinOut
	cs        gpio.PinOut
	backlight gpio.PinOut
	width     int
	height    int
}

func newDevice(link Link, closer io.Closer, config *Config) (*Device, error) {
	d := &Device{
		t:      newTransport(link, config),
		closer: closer,
		clock:  config.Clock,
		reset:  config.Reset,
		width:  config.Width,
		height: config.Height,
	}
	if valid(config.CS) {
		d.cs = config.CS
	}
	if valid(config.Backlight) {
		d.backlight = config.Backlight
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) init() (err error) {
	// idle levels
	if d.cs != nil {
		if err = d.cs.Out(gpio.High); err != nil {
			return
		}
	}
	if err = d.t.dc.Out(gpio.High); err != nil {
		return
	}
	if err = d.reset.Out(gpio.High); err != nil {
		return
	}
	if err = d.SetBacklight(false); err != nil {
		return
	}

	// reset the device.
	if err = d.reset.Out(gpio.Low); err != nil {
		return
	}
	d.clock.Sleep(resetPulse)
	if err = d.reset.Out(gpio.High); err != nil {
		return
	}
	d.clock.Sleep(resetSettle)

	// init display
	for _, step := range []struct {
		command []byte
		delay   time.Duration
	}{
		{[]byte{st7789SWRESET}, 150 * time.Millisecond},
		{[]byte{st7789SLPOUT}, 50 * time.Millisecond},
		{[]byte{st7789COLMOD, st7789RGB65K | st7789Color16}, 10 * time.Millisecond},
		{[]byte{st7789MADCTL, 0x00}, 0}, // top to bottom, left to right, RGB order
		{append([]byte{st7789CASET}, span(0, d.width-1)...), 0},
		{append([]byte{st7789RASET}, span(0, d.height-1)...), 0},
		{[]byte{st7789INVON}, 10 * time.Millisecond},
		{[]byte{st7789NORON}, 10 * time.Millisecond},
		{[]byte{st7789DISPON}, 10 * time.Millisecond},
	} {
		if err = d.t.command(step.command[0], step.command[1:]...); err != nil {
			return
		}
		if step.delay > 0 {
			d.clock.Sleep(step.delay)
		}
	}

	return d.SetBacklight(true)
}

// span encodes an inclusive address range as CASET and RASET parameters. The end is the last
// column or row written, so a full screen ends at width-1 and height-1, not width and height.
func span(start, end int) []byte {
	return []byte{byte(start >> 8), byte(start), byte(end >> 8), byte(end)}
}

func (d *Device) String() string {
	return fmt.Sprintf("ST7789 %dx%d on %s", d.width, d.height, d.t.link)
}

// Bounds of the display.
func (d *Device) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

// Close turns the display and backlight off and closes the link, if it was opened by the driver.
func (d *Device) Close() error {
	err := d.Show(false)
	if berr := d.SetBacklight(false); err == nil {
		err = berr
	}
	if d.closer != nil {
		if cerr := d.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// SetAddressWindow restricts the following pixel writes to the rectangle with the inclusive
// corners (x0, y0) and (x1, y1). Pixels are then written left to right, top to bottom.
func (d *Device) SetAddressWindow(x0, y0, x1, y1 int) error {
	if x0 < 0 || y0 < 0 || x0 > x1 || y0 > y1 || x1 >= d.width || y1 >= d.height {
		return fmt.Errorf("%w: window (%d,%d)-(%d,%d) on %dx%d", ErrBounds, x0, y0, x1, y1, d.width, d.height)
	}
	if err := d.t.command(st7789CASET, span(x0, x1)...); err != nil {
		return err
	}
	return d.t.command(st7789RASET, span(y0, y1)...)
}

// SetCursor sets the window from (x, y) to the bottom right corner of the display.
func (d *Device) SetCursor(x, y int) error {
	return d.SetAddressWindow(x, y, d.width-1, d.height-1)
}

// WritePixel writes one pixel at the current position in the window.
func (d *Device) WritePixel(c pixel.CRGB16) error {
	return d.t.writePixels([]uint16{c.V})
}

// WritePixels writes the pixels in order from the current position in the window.
func (d *Device) WritePixels(cs ...pixel.CRGB16) error {
	words := make([]uint16, len(cs))
	for i, c := range cs {
		words[i] = c.V
	}
	return d.t.writePixels(words)
}

// VerticalScroll sets the frame memory line shown at the top of the scroll area.
func (d *Device) VerticalScroll(row uint16) error {
	return d.t.command(st7789VSCRSADD, byte(row>>8), byte(row))
}

// SetScrollArea defines the fixed top and bottom areas; the lines in between scroll.
func (d *Device) SetScrollArea(top, bottom int) error {
	if top < 0 || bottom < 0 || top+bottom > maxHeight {
		return fmt.Errorf("%w: scroll area top %d bottom %d", ErrBounds, top, bottom)
	}
	scroll := maxHeight - top - bottom
	return d.t.command(st7789VSCRDEF,
		byte(top>>8), byte(top),
		byte(scroll>>8), byte(scroll),
		byte(bottom>>8), byte(bottom))
}

// Show turns the display on or off; the frame memory is kept.
func (d *Device) Show(show bool) error {
	var command = byte(st7789DISPOFF)
	if show {
		command = byte(st7789DISPON)
	}
	return d.t.command(command)
}

// Invert toggles display inversion. The panel is initialized inverted, which renders colors
// true on the common IPS modules.
func (d *Device) Invert(invert bool) error {
	var command = byte(st7789INVOFF)
	if invert {
		command = byte(st7789INVON)
	}
	return d.t.command(command)
}

// SetBacklight switches the backlight, if the display has a backlight pin.
func (d *Device) SetBacklight(on bool) error {
	if d.backlight == nil {
		return nil
	}
	return d.backlight.Out(gpio.Level(on))
}
