// Package st7789 drives an ST7789 RGB565 display controller over SPI.
//
// The driver keeps no frame buffer: every drawing operation becomes bus transactions. A Device
// owns the link and the controller state (dimensions and the command/pixel-stream mode of the
// link); a Rasterizer draws pixels, glyphs and text on top of it.
//
//	d, err := st7789.Open(port, &st7789.Config{DC: dc, Reset: rst})
//	...
//	r := st7789.NewRasterizer(d)
//	err = r.DrawText(0, 0, "hello", pixel.White, pixel.Black, 2)
package st7789

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

var debug bool

func init() {
	debug = os.Getenv("ST7789_DEBUG") != ""
}

// Errors
var (
	ErrBounds     = errors.New("st7789: coordinate out of display bounds")
	ErrSize       = errors.New("st7789: invalid display size")
	ErrResetPin   = errors.New("st7789: reset GPIO pin is invalid")
	ErrDCPin      = errors.New("st7789: data/command (DC) GPIO pin is invalid")
	ErrBusTimeout = errors.New("st7789: bus transaction timed out")
)

// BusError is returned when a transaction on the link fails. It is not fatal: the operation may
// be retried. After ErrBusTimeout every call fails fast until the abandoned transaction has
// finished.
type BusError struct {
	// Op is the phase that failed, such as "command 0x2a" or "pixel data".
	Op  string
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("st7789: %s: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// Defaults.
const (
	DefaultWidth     = 240
	DefaultHeight    = 320
	DefaultSpeed     = 40 * physic.MegaHertz
	DefaultBatchSize = 4096

	maxWidth  = 240
	maxHeight = 320
)

// Config is the display configuration.
type Config struct {
	// Width of the display in pixels (default 240).
	Width int

	// Height of the display in pixels (default 320).
	Height int

	// Speed of the SPI clock (default 40MHz), used by Open and OpenSPIDev.
	Speed physic.Frequency

	// Reset pin.
	Reset gpio.PinOut

	// DC is the data/command select pin.
	DC gpio.PinOut

	// CS is the chip select pin; nil or gpio.INVALID if the display has none, in which case the
	// link runs in SPI mode 3 instead of mode 0.
	CS gpio.PinOut

	// Backlight pin, optional.
	Backlight gpio.PinOut

	// BatchSize is the maximum number of bytes per bus write (default 4096).
	BatchSize int

	// Timeout bounds every bus write; zero waits forever.
	Timeout time.Duration

	// Clock provides delays and deadlines (default: the wall clock).
	Clock clockwork.Clock
}

func (config *Config) setDefaults() error {
	if config.Width == 0 {
		config.Width = DefaultWidth
	}
	if config.Height == 0 {
		config.Height = DefaultHeight
	}
	if config.Width < 0 || config.Height < 0 || config.Width > maxWidth || config.Height > maxHeight {
		return fmt.Errorf("%w %dx%d, maximum size is %dx%d", ErrSize, config.Width, config.Height, maxWidth, maxHeight)
	}
	if config.Speed == 0 {
		config.Speed = DefaultSpeed
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.BatchSize < 2 {
		config.BatchSize = 2
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if !valid(config.Reset) {
		return ErrResetPin
	}
	if !valid(config.DC) {
		return ErrDCPin
	}
	return nil
}

func valid(pin gpio.PinOut) bool {
	return pin != nil && pin != gpio.INVALID
}
