// Package pixel implements the RGB565 color used by the ST7789 controller.
//
// The color is compatible with Go's native [color.Color] interface, so any color can be converted
// with [CRGB16Model] before it is shifted out to the display.
package pixel
