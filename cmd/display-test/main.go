// Command display-test draws a test pattern on an ST7789 display connected to a spidev device.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"time"

	"golang.org/x/image/font/basicfont"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/st7789"
	"github.com/BeatGlow/st7789/draw"
	"github.com/BeatGlow/st7789/glyph"
	"github.com/BeatGlow/st7789/pixel"
)

func main() {
	widthFlag := flag.Int("width", 0, "Display width")
	heightFlag := flag.Int("height", 0, "Display height")
	spiBusFlag := flag.Int("spi-bus", 0, "SPI bus")
	spiDeviceFlag := flag.Int("spi-dev", 0, "SPI device")
	resetPinFlag := flag.String("reset", "GPIO25", "Reset GPIO pin")
	dcPinFlag := flag.String("dc", "GPIO24", "Data/Command GPIO pin (DC)")
	csPinFlag := flag.String("cs", "", "Chip select GPIO pin, if not driven by the SPI controller")
	blPinFlag := flag.String("bl", "GPIO19", "Backlight GPIO pin")
	faceFlag := flag.Bool("face", false, "Draw text with the 7x13 face reduced to 5x8 instead of the built-in font")
	flag.Parse()

	if _, err := host.Init(); err != nil {
		fatal(err)
	}

	config := &st7789.Config{
		Width:     *widthFlag,
		Height:    *heightFlag,
		Reset:     gpioreg.ByName(*resetPinFlag),
		DC:        gpioreg.ByName(*dcPinFlag),
		Backlight: gpioreg.ByName(*blPinFlag),
		Timeout:   time.Second,
	}
	if *csPinFlag != "" {
		config.CS = gpioreg.ByName(*csPinFlag)
	} else {
		// The SPI controller drives the chip select line of the device.
		config.CS = gpio.INVALID
	}

	output, err := st7789.OpenSPIDev(*spiBusFlag, *spiDeviceFlag, config)
	if err != nil {
		fatal(err)
	}
	defer output.Close()
	fmt.Printf("using driver: %s\n", output)

	r := st7789.NewRasterizer(output)
	if *faceFlag {
		r.Font = glyph.FromFace(basicfont.Face7x13)
	}

	// Primary colors
	for _, c := range []pixel.CRGB16{pixel.Red, pixel.Green, pixel.Blue, pixel.White} {
		if err = output.Fill(c); err != nil {
			fatal(err)
		}
		time.Sleep(500 * time.Millisecond)
	}

	// Gradient inside a box around the edge
	size := output.Bounds()
	if err = r.DrawImage(size.Inset(1), gradient(size), image.Point{}); err != nil {
		fatal(err)
	}
	draw.Rectangle(r, size, pixel.White)
	draw.RoundedBox(r, image.Rect(10, 10, size.Dx()-10, 40), 5, pixel.Black)
	draw.RoundedRectangle(r, image.Rect(8, 8, size.Dx()-8, 42), 7, pixel.Red)
	if err = r.Display(); err != nil {
		fatal(err)
	}

	// Every printable character
	var (
		text    []byte
		perLine = (size.Dx() - 4) / 12
	)
	for ch := byte(glyph.First); ch <= glyph.Last; ch++ {
		if n := int(ch - glyph.First); n > 0 && n%perLine == 0 {
			text = append(text, '\n')
		}
		text = append(text, ch)
	}
	if err = r.DrawText(14, 18, "ST7789 test", pixel.White, pixel.Black, 2); err != nil {
		fatal(err)
	}
	if err = r.DrawText(4, 60, string(text), pixel.Green, pixel.Black, 2); err != nil {
		fatal(err)
	}

	// Scroll everything below the title
	const top = 50
	if err = output.SetScrollArea(top, 0); err != nil {
		fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("hit control-c to stop...")
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for line := top; ; line++ {
		if line == size.Dy() {
			line = top
		}
		if err = output.VerticalScroll(uint16(line)); err != nil {
			fatal(err)
		}
		select {
		case <-ctx.Done():
			_ = output.VerticalScroll(0)
			return
		case <-ticker.C:
		}
	}
}

func gradient(size image.Rectangle) image.Image {
	img := image.NewRGBA(size)
	for y := size.Min.Y; y < size.Max.Y; y++ {
		for x := size.Min.X; x < size.Max.X; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x + y),
				G: uint8(x - y),
				B: uint8(y - x),
				A: 0xff,
			})
		}
	}
	return img
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
