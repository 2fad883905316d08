package draw

import (
	"image"
	"image/color"
)

// Line draws a line between two points, both included.
func Line(dst Image, a, b image.Point, c color.Color) {
	line(dst, a.X, a.Y, b.X, b.Y, c)
}

// HorizontalLine draws w pixels to the right, starting at (x,y).
func HorizontalLine(dst Image, x, y, w int, c color.Color) {
	if w < 1 {
		return
	}
	line(dst, x, y, x+w-1, y, c)
}

// VerticalLine draws h pixels down, starting at (x,y).
func VerticalLine(dst Image, x, y, h int, c color.Color) {
	if h < 1 {
		return
	}
	line(dst, x, y, x, y+h-1, c)
}

// Rectangle draws the outline of rect.
func Rectangle(dst Image, rect image.Rectangle, c color.Color) {
	RoundedRectangle(dst, rect, 0, c)
}

// RoundedRectangle draws the outline of rect with corners rounded to radius pixels. The radius is
// limited to half the shortest side.
func RoundedRectangle(dst Image, rect image.Rectangle, radius int, c color.Color) {
	if rect.Empty() {
		return
	}
	var (
		r      = clampRadius(rect, radius)
		x0, y0 = rect.Min.X, rect.Min.Y
		x1, y1 = rect.Max.X-1, rect.Max.Y-1
		w, h   = rect.Dx() - 2*r, rect.Dy() - 2*r
	)
	HorizontalLine(dst, x0+r, y0, w, c)
	HorizontalLine(dst, x0+r, y1, w, c)
	VerticalLine(dst, x0, y0+r, h, c)
	VerticalLine(dst, x1, y0+r, h, c)

	// Corner centers.
	l, t, rt, b := x0+r, y0+r, x1-r, y1-r
	arc(r, func(x, y int) {
		dst.Set(l-x, t-y, c)
		dst.Set(l-y, t-x, c)
		dst.Set(rt+x, t-y, c)
		dst.Set(rt+y, t-x, c)
		dst.Set(rt+x, b+y, c)
		dst.Set(rt+y, b+x, c)
		dst.Set(l-x, b+y, c)
		dst.Set(l-y, b+x, c)
	})
}

// Box draws a filled rectangle.
func Box(dst Image, rect image.Rectangle, c color.Color) {
	if rect.Empty() {
		return
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		HorizontalLine(dst, rect.Min.X, y, rect.Dx(), c)
	}
}

// RoundedBox draws a filled rectangle with corners rounded to radius pixels. The radius is
// limited to half the shortest side.
func RoundedBox(dst Image, rect image.Rectangle, radius int, c color.Color) {
	if rect.Empty() {
		return
	}
	var (
		r = clampRadius(rect, radius)
		t = rect.Min.Y + r
		b = rect.Max.Y - 1 - r
		l = rect.Min.X + r
		w = rect.Dx() - 2*r
	)
	// Rows between the corners span the full width.
	Box(dst, image.Rect(rect.Min.X, t, rect.Max.X, b+1), c)

	// Rows above and below get narrower towards the edge.
	arc(r, func(x, y int) {
		HorizontalLine(dst, l-x, t-y, w+2*x, c)
		HorizontalLine(dst, l-x, b+y, w+2*x, c)
		HorizontalLine(dst, l-y, t-x, w+2*y, c)
		HorizontalLine(dst, l-y, b+x, w+2*y, c)
	})
}

func clampRadius(rect image.Rectangle, radius int) int {
	return max(0, min(radius, (rect.Dx()-1)/2, (rect.Dy()-1)/2))
}

// arc calls fn with the offsets (x, y) of one octant of a circle, from (0, radius) until x
// reaches y (midpoint circle algorithm). Mirroring x and y gives the other octants.
func arc(radius int, fn func(x, y int)) {
	var (
		f    = 1 - radius
		ddFx = 1
		ddFy = -2 * radius
		x    = 0
		y    = radius
	)
	fn(x, y)
	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}
		x++
		ddFx += 2
		f += ddFx
		fn(x, y)
	}
}

// line is Bresenham's algorithm with integer error, for all octants.
func line(dst Image, x0, y0, x1, y1 int, c color.Color) {
	var (
		dx, dy = abs(x1 - x0), -abs(y1 - y0)
		sx, sy = 1, 1
		e      = dx + dy
	)
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	for {
		dst.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
