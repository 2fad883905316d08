// Package monitor samples the climate sensor and shows the readings with threshold alerts.
package monitor

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/BeatGlow/st7789/aht10"
	"github.com/BeatGlow/st7789/pixel"
)

// Screen is where readings are drawn. It is implemented by the st7789 Rasterizer.
type Screen interface {
	Clear() error
	DrawText(x, y int, text string, fg, bg color.Color, scale int) error
}

// Sensor is the climate sensor. It is implemented by the aht10 Device.
type Sensor interface {
	Trigger() error
	Read() (aht10.Reading, error)
}

// Thresholds at or above which an alert is shown.
type Thresholds struct {
	Temperature float64 // degrees Celsius
	Humidity    float64 // percent relative humidity
}

// DefaultThresholds are the alert limits used when none are configured.
var DefaultThresholds = Thresholds{Temperature: 30, Humidity: 44}

// Defaults.
const (
	DefaultInterval   = time.Second
	DefaultMaxBackoff = 30 * time.Second
)

// Layout of the screen, at text scale 2.
const (
	textScale = 2

	temperatureAlertX, temperatureAlertY = 20, 205
	humidityAlertX, humidityAlertY       = 40, 180
	temperatureX, temperatureY           = 0, 120
	humidityX, humidityY                 = 0, 145
)

// Render clears the screen, draws the alerts for the exceeded thresholds and the readings.
func Render(screen Screen, r aht10.Reading, limits Thresholds) error {
	if err := screen.Clear(); err != nil {
		return err
	}

	var (
		hot   = r.Temperature >= limits.Temperature
		humid = r.Humidity >= limits.Humidity
		lines []line
	)
	switch {
	case hot && humid:
		lines = append(lines,
			line{temperatureAlertX, temperatureAlertY, "TEMPERATURA ALTA", pixel.Red},
			line{humidityAlertX, humidityAlertY, "UMIDADE BAIXA", pixel.Red})
	case hot:
		lines = append(lines, line{temperatureAlertX, temperatureAlertY, "TEMPERATURA ALTA", pixel.Red})
	case humid:
		lines = append(lines, line{humidityAlertX, humidityAlertY, "UMIDADE ALTA", pixel.Red})
	}
	lines = append(lines,
		line{temperatureX, temperatureY, fmt.Sprintf("TEMPERATURA: %.2f C", r.Temperature), pixel.Green},
		line{humidityX, humidityY, fmt.Sprintf("UMIDADE: %.2f%%", r.Humidity), pixel.Green})

	for _, l := range lines {
		if err := screen.DrawText(l.x, l.y, l.text, l.color, pixel.Black, textScale); err != nil {
			return err
		}
	}
	return nil
}

type line struct {
	x, y  int
	text  string
	color pixel.CRGB16
}

// Config of the poll loop. All fields are optional.
type Config struct {
	// Limits for the alerts (default DefaultThresholds).
	Limits *Thresholds

	// Interval between polls (default 1s).
	Interval time.Duration

	// MeasureDelay is the wait between trigger and read (default aht10.MeasurementDelay).
	MeasureDelay time.Duration

	// MaxBackoff caps the interval after consecutive sensor failures (default 30s).
	MaxBackoff time.Duration

	// Clock (default: the wall clock).
	Clock clockwork.Clock

	// Logger (default: log.Default()).
	Logger *log.Logger
}

// Monitor polls the sensor and renders every reading.
type Monitor struct {
	screen   Screen
	sensor   Sensor
	limits   Thresholds
	interval time.Duration
	delay    time.Duration
	backoff  time.Duration
	clock    clockwork.Clock
	log      *log.Logger
	failures int
}

// New monitor.
func New(screen Screen, sensor Sensor, config *Config) *Monitor {
	if config == nil {
		config = new(Config)
	}
	m := &Monitor{
		screen:   screen,
		sensor:   sensor,
		limits:   DefaultThresholds,
		interval: config.Interval,
		delay:    config.MeasureDelay,
		backoff:  config.MaxBackoff,
		clock:    config.Clock,
		log:      config.Logger,
	}
	if config.Limits != nil {
		m.limits = *config.Limits
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.delay <= 0 {
		m.delay = aht10.MeasurementDelay
	}
	if m.backoff <= 0 {
		m.backoff = DefaultMaxBackoff
	}
	if m.backoff < m.interval {
		m.backoff = m.interval
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.log == nil {
		m.log = log.Default()
	}
	return m
}

// Poll takes one measurement and renders it. A sensor failure is returned and leaves the screen
// untouched; a display failure is only logged, the next poll redraws everything.
func (m *Monitor) Poll() error {
	r, err := m.measure()
	if err != nil {
		m.failures++
		m.log.Printf("monitor: sensor: %v (%d consecutive failures)", err, m.failures)
		return err
	}
	m.failures = 0
	m.log.Printf("monitor: %s", r)

	if err = Render(m.screen, r, m.limits); err != nil {
		m.log.Printf("monitor: display: %v", err)
	}
	return nil
}

func (m *Monitor) measure() (aht10.Reading, error) {
	if err := m.sensor.Trigger(); err != nil {
		return aht10.Reading{}, err
	}
	m.clock.Sleep(m.delay)
	return m.sensor.Read()
}

// wait returns the time until the next poll: the interval, doubled for every consecutive sensor
// failure, up to the maximum backoff.
func (m *Monitor) wait() time.Duration {
	d := m.interval
	for i := 0; i < m.failures && d < m.backoff; i++ {
		d *= 2
	}
	return min(d, m.backoff)
}

// Run polls until the context is done.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = m.Poll()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.clock.After(m.wait()):
		}
	}
}
