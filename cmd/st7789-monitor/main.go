// Command st7789-monitor shows the AHT10 temperature and humidity on an ST7789 display.
//
// Flags default to environment variables, which are also read from .env.local and .env in the
// working directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/st7789"
	"github.com/BeatGlow/st7789/aht10"
	"github.com/BeatGlow/st7789/conn"
	"github.com/BeatGlow/st7789/glyph"
	"github.com/BeatGlow/st7789/internal/monitor"
)

func main() {
	// .env.local takes precedence: godotenv never overrides a variable that is already set.
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			fatal(fmt.Errorf("%s: %w", name, err))
		}
	}

	var (
		speed    = st7789.DefaultSpeed
		i2cSpeed = 400 * physic.KiloHertz
	)
	spiFlag := flag.String("spi", env("ST7789_SPI", ""), "SPI port (default: use first available)")
	flag.Var(&speed, "speed", "SPI clock")
	widthFlag := flag.Int("width", envInt("ST7789_WIDTH", st7789.DefaultWidth), "Display width")
	heightFlag := flag.Int("height", envInt("ST7789_HEIGHT", st7789.DefaultHeight), "Display height")
	resetPinFlag := flag.String("reset", env("ST7789_RESET", "GPIO25"), "Reset GPIO pin")
	dcPinFlag := flag.String("dc", env("ST7789_DC", "GPIO24"), "Data/Command GPIO pin (DC)")
	csPinFlag := flag.String("cs", env("ST7789_CS", ""), "Chip select GPIO pin (default: none)")
	blPinFlag := flag.String("bl", env("ST7789_BL", "GPIO19"), "Backlight GPIO pin")
	timeoutFlag := flag.Duration("timeout", envDuration("ST7789_TIMEOUT", time.Second), "SPI transaction timeout")
	fontFlag := flag.String("font", env("ST7789_FONT", ""), "TrueType font (default: built-in 5x8 font)")
	fontSizeFlag := flag.Float64("font-size", envFloat("ST7789_FONT_SIZE", 8), "TrueType font size in points")
	i2cDeviceFlag := flag.Int("i2c-dev", envInt("AHT10_I2C", -1), "I²C bus number (default: use first available)")
	i2cAddrFlag := flag.Uint("i2c-addr", uint(envInt("AHT10_ADDR", aht10.Address)), "AHT10 I²C address")
	flag.Var(&i2cSpeed, "i2c-speed", "I²C clock")
	intervalFlag := flag.Duration("interval", envDuration("MONITOR_INTERVAL", monitor.DefaultInterval), "Poll interval")
	backoffFlag := flag.Duration("max-backoff", envDuration("MONITOR_MAX_BACKOFF", monitor.DefaultMaxBackoff), "Maximum poll interval after sensor failures")
	tempFlag := flag.Float64("temp-limit", envFloat("MONITOR_TEMP_LIMIT", monitor.DefaultThresholds.Temperature), "Temperature alert limit (°C)")
	humFlag := flag.Float64("hum-limit", envFloat("MONITOR_HUM_LIMIT", monitor.DefaultThresholds.Humidity), "Humidity alert limit (%RH)")
	if s := os.Getenv("ST7789_SPEED"); s != "" {
		if err := speed.Set(s); err != nil {
			fatal(fmt.Errorf("ST7789_SPEED: %w", err))
		}
	}
	flag.Parse()

	if _, err := host.Init(); err != nil {
		fatal(err)
	}

	config := &st7789.Config{
		Width:     *widthFlag,
		Height:    *heightFlag,
		Speed:     speed,
		Reset:     pin("reset", *resetPinFlag),
		DC:        pin("dc", *dcPinFlag),
		CS:        pin("cs", *csPinFlag),
		Backlight: pin("bl", *blPinFlag),
		Timeout:   *timeoutFlag,
	}

	port, err := spireg.Open(*spiFlag)
	if err != nil {
		fatal(err)
	}
	display, err := st7789.Open(port, config)
	if err != nil {
		_ = port.Close()
		fatal(err)
	}
	defer func() {
		if err := display.Close(); err != nil {
			log.Printf("close %s: %v", display, err)
		}
	}()
	log.Printf("using display: %s", display)

	screen := st7789.NewRasterizer(display)
	if *fontFlag != "" {
		data, err := os.ReadFile(*fontFlag)
		if err != nil {
			fatal(err)
		}
		if screen.Font, err = glyph.ParseTTF(data, *fontSizeFlag); err != nil {
			fatal(err)
		}
		log.Printf("using font: %s at %gpt", *fontFlag, *fontSizeFlag)
	}
	if err = screen.Clear(); err != nil {
		fatal(err)
	}

	bus, err := conn.OpenI2C(*i2cDeviceFlag)
	if err != nil {
		fatal(err)
	}
	defer bus.Close()
	if err = bus.SetSpeed(i2cSpeed); err != nil {
		fatal(err)
	}
	sensor := aht10.New(bus, &aht10.Config{Address: uint16(*i2cAddrFlag)})
	if err = sensor.Init(); err != nil {
		fatal(err)
	}
	log.Printf("using sensor: %s on %s", sensor, bus)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := monitor.New(screen, sensor, &monitor.Config{
		Limits:     &monitor.Thresholds{Temperature: *tempFlag, Humidity: *humFlag},
		Interval:   *intervalFlag,
		MaxBackoff: *backoffFlag,
	})
	if err = m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Println(err)
	}
}

// pin looks up a GPIO pin by name; an empty name is no pin.
func pin(flagName, name string) gpio.PinOut {
	if name == "" {
		return nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		fatal(fmt.Errorf("-%s: no GPIO pin named %q", flagName, name))
	}
	return p
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	i, err := strconv.ParseInt(v, 0, 0)
	if err != nil {
		fatal(fmt.Errorf("%s: %w", key, err))
	}
	return int(i)
}

func envFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		fatal(fmt.Errorf("%s: %w", key, err))
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		fatal(fmt.Errorf("%s: %w", key, err))
	}
	return d
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
