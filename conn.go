package st7789

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/BeatGlow/st7789/conn"
)

// Link is the serial connection to the controller. It is implemented by periph's spi.Conn and by
// the spidev connection in the conn package.
type Link interface {
	String() string

	// Tx shifts out w, most significant bit first. r is always nil: the controller is write-only.
	Tx(w, r []byte) error
}

// WordSizer is implemented by links that can change the number of bits shifted per word.
//
// When available, pixel data is sent as native 16-bit words; otherwise each word is sent as two
// bytes, high byte first, which is the same bit sequence on the wire.
type WordSizer interface {
	SetBitsPerWord(bits uint8) error
}

// Open connects to the display on a periph SPI port and initializes it.
//
// The port is connected in SPI mode 0, or in mode 3 if the display has no chip select line: the
// controller then relies on the clock polarity to find the start of a byte.
func Open(port spi.Port, config *Config) (*Device, error) {
	if config == nil {
		config = new(Config)
	}
	if err := config.setDefaults(); err != nil {
		return nil, err
	}

	mode := spi.Mode0
	if !valid(config.CS) {
		mode = spi.Mode3
	}
	c, err := port.Connect(config.Speed, mode, 8)
	if err != nil {
		return nil, fmt.Errorf("st7789: connect %s: %w", port, err)
	}

	var closer io.Closer
	if pc, ok := port.(spi.PortCloser); ok {
		closer = pc
	}
	return newDevice(c, closer, config)
}

// OpenSPIDev opens a Linux spidev device and initializes the display on it.
//
// Pixel data is shifted as 16-bit words on this link.
func OpenSPIDev(bus, device int, config *Config) (*Device, error) {
	if config == nil {
		config = new(Config)
	}
	if err := config.setDefaults(); err != nil {
		return nil, err
	}

	c, err := conn.OpenSPI(bus, device)
	if err != nil {
		return nil, err
	}

	mode := conn.SPIMode0
	if !valid(config.CS) {
		mode = conn.SPIMode3
	}
	if err = c.SetMode(mode); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err = c.SetBitsPerWord(8); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err = c.SetMaxSpeed(int(config.Speed / physic.Hertz)); err != nil {
		_ = c.Close()
		return nil, err
	}

	return newDevice(c, c, config)
}

// New initializes the display on an already connected link.
func New(link Link, config *Config) (*Device, error) {
	if config == nil {
		config = new(Config)
	}
	if err := config.setDefaults(); err != nil {
		return nil, err
	}
	var closer io.Closer
	if c, ok := link.(io.Closer); ok {
		closer = c
	}
	return newDevice(link, closer, config)
}
