// Package aht10 provides a driver for the AHT10 temperature/humidity sensor.
//
// A measurement takes two phases:
//
//	d.Trigger()                     // start a conversion
//	time.Sleep(aht10.MeasurementDelay)
//	r, err := d.Read()              // fetch the result
//
// Measure does both. The device also implements drivers.Sensor from tinygo.org/x/drivers.
package aht10

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"tinygo.org/x/drivers"
)

// Address is the I2C address of the sensor.
const Address = 0x38

// MeasurementDelay is the conversion time after a trigger.
const MeasurementDelay = 80 * time.Millisecond

// Commands and status bits.
const (
	cmdInitialize = 0xBE
	cmdTrigger    = 0xAC
	cmdSoftReset  = 0xBA

	statusBusy = 0x80

	initDelay  = 10 * time.Millisecond
	resetDelay = 20 * time.Millisecond

	frameSize = 6
	fullScale = 1 << 20
)

// Errors returned by the driver. ErrNotReady is also an ErrReadFailure.
var (
	ErrReadFailure = errors.New("aht10: read failure")
	ErrNotReady    = fmt.Errorf("%w: sensor busy", ErrReadFailure)
)

// Reading is one measurement.
type Reading struct {
	// Temperature in degrees Celsius.
	Temperature float64

	// Humidity in percent relative humidity.
	Humidity float64
}

func (r Reading) String() string {
	return fmt.Sprintf("%.2f°C %.2f%%RH", r.Temperature, r.Humidity)
}

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x38.
	Address uint16

	// Clock for the delays of Init, Reset and Measure (default: the wall clock).
	Clock clockwork.Clock
}

// Device is an AHT10 on an I2C bus.
type Device struct {
	bus   drivers.I2C
	addr  uint16
	clock clockwork.Clock
	buf   [frameSize]byte
	last  Reading
}

var _ drivers.Sensor = (*Device)(nil)

// New returns a device on the bus. It does not touch the sensor; call Init first.
func New(bus drivers.I2C, config *Config) *Device {
	d := &Device{
		bus:   bus,
		addr:  Address,
		clock: clockwork.NewRealClock(),
	}
	if config != nil {
		if config.Address != 0 {
			d.addr = config.Address
		}
		if config.Clock != nil {
			d.clock = config.Clock
		}
	}
	return d
}

func (d *Device) String() string {
	return fmt.Sprintf("AHT10 at %#02x", d.addr)
}

// Init calibrates the sensor.
func (d *Device) Init() error {
	if err := d.bus.Tx(d.addr, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return fmt.Errorf("aht10: initialize: %w", err)
	}
	d.clock.Sleep(initDelay)
	return nil
}

// Reset issues a soft reset; Init has to be called again afterwards.
func (d *Device) Reset() error {
	if err := d.bus.Tx(d.addr, []byte{cmdSoftReset}, nil); err != nil {
		return fmt.Errorf("aht10: reset: %w", err)
	}
	d.clock.Sleep(resetDelay)
	return nil
}

// Trigger starts a conversion. The result is available after MeasurementDelay.
func (d *Device) Trigger() error {
	if err := d.bus.Tx(d.addr, []byte{cmdTrigger, 0x33, 0x00}, nil); err != nil {
		return fmt.Errorf("aht10: trigger: %w", err)
	}
	return nil
}

// Read fetches the result of the last conversion.
func (d *Device) Read() (Reading, error) {
	data := d.buf[:]
	if err := d.bus.Tx(d.addr, nil, data); err != nil {
		return Reading{}, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}
	if data[0]&statusBusy != 0 {
		return Reading{}, ErrNotReady
	}
	r, err := Decode(data)
	if err != nil {
		return Reading{}, err
	}
	d.last = r
	return r, nil
}

// Measure triggers a conversion, waits for it and reads the result.
func (d *Device) Measure() (Reading, error) {
	if err := d.Trigger(); err != nil {
		return Reading{}, err
	}
	d.clock.Sleep(MeasurementDelay)
	return d.Read()
}

// Decode converts a 6 byte frame: a status byte, 20 bits of humidity and 20 bits of temperature.
func Decode(b []byte) (Reading, error) {
	if len(b) != frameSize {
		return Reading{}, fmt.Errorf("%w: got %d bytes, expected %d", ErrReadFailure, len(b), frameSize)
	}
	hraw := uint32(b[1])<<12 | uint32(b[2])<<4 | uint32(b[3])>>4
	traw := uint32(b[3]&0x0F)<<16 | uint32(b[4])<<8 | uint32(b[5])
	return Reading{
		Humidity:    float64(hraw) / fullScale * 100,
		Temperature: float64(traw)/fullScale*200 - 50,
	}, nil
}

// Update implements drivers.Sensor; temperature and humidity are always measured together.
func (d *Device) Update(which drivers.Measurement) error {
	if which&(drivers.Temperature|drivers.Humidity) == 0 {
		return nil
	}
	_, err := d.Measure()
	return err
}

// Last returns the last successful reading.
func (d *Device) Last() Reading {
	return d.last
}

// Temperature of the last reading in milli degrees Celsius.
func (d *Device) Temperature() int32 {
	return int32(d.last.Temperature * 1000)
}

// Humidity of the last reading in hundredths of a percent.
func (d *Device) Humidity() int32 {
	return int32(d.last.Humidity * 100)
}
