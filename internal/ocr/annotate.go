package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

var boxColor = color.RGBA{G: 255, A: 255}

// Annotate draws every line's box on a copy of img and returns it as PNG.
func Annotate(img image.Image, lines []TextLine) ([]byte, error) {
	b := img.Bounds()
	canvas := image.NewRGBA(b)
	draw.Draw(canvas, b, img, b.Min, draw.Src)

	for _, l := range lines {
		for i := 0; i < 4; i++ {
			p, q := l.Box[i], l.Box[(i+1)%4]
			drawLine(canvas, b.Min.X+p.X, b.Min.Y+p.Y, b.Min.X+q.X, b.Min.Y+q.Y)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode annotation: %w", err)
	}
	return buf.Bytes(), nil
}

// drawLine is Bresenham with a 2px pen.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		img.SetRGBA(x0, y0, boxColor)
		img.SetRGBA(x0+1, y0, boxColor)
		img.SetRGBA(x0, y0+1, boxColor)
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
