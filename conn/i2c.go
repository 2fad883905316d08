package conn

import (
	"fmt"
	"strconv"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
)

// I2C is an opened I²C bus. It is addressed per transaction, so one bus can be shared by
// several devices (it satisfies tinygo's drivers.I2C).
type I2C struct {
	bus i2c.BusCloser
}

// OpenI2C opens the numbered I²C bus, use -1 to use the first available bus.
func OpenI2C(device int) (*I2C, error) {
	var (
		bus i2c.BusCloser
		err error
	)
	if device < 0 {
		bus, err = i2creg.Open("")
	} else {
		bus, err = i2creg.Open(strconv.FormatInt(int64(device), 10))
	}
	if err != nil {
		return nil, err
	}

	return &I2C{bus: bus}, nil
}

func (c *I2C) String() string {
	return fmt.Sprintf("I²C bus %s", c.bus)
}

func (c *I2C) Close() error {
	return c.bus.Close()
}

// SetSpeed changes the bus clock.
func (c *I2C) SetSpeed(f physic.Frequency) error {
	return c.bus.SetSpeed(f)
}

// Tx writes w to and then reads r from the device at addr.
func (c *I2C) Tx(addr uint16, w, r []byte) error {
	return c.bus.Tx(addr, w, r)
}
