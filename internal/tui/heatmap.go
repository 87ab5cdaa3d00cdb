package tui

import (
	"math"
	"strings"

	"github.com/san-kum/vortsim/internal/dynamo"
)

const ramp = " .:-=+*#%@"

// Heatmap renders f as width×height characters, darkest where |f| is
// largest. Positive values are red and negative values blue. The top line is
// the largest y.
func Heatmap(f *dynamo.Field, width, height int) string {
	if f == nil || f.Nx == 0 || f.Ny == 0 || width <= 0 || height <= 0 {
		return ""
	}
	if width > f.Nx {
		width = f.Nx
	}
	if height > f.Ny {
		height = f.Ny
	}

	scale := 0.0
	for _, v := range f.Data {
		if a := math.Abs(v); a > scale && !math.IsInf(a, 0) {
			scale = a
		}
	}

	var b strings.Builder
	for row := 0; row < height; row++ {
		j := f.Ny - 1 - row*f.Ny/height
		for col := 0; col < width; col++ {
			i := col * f.Nx / width
			b.WriteString(cell(f.At(j, i), scale))
		}
		if row < height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func cell(v, scale float64) string {
	if math.IsNaN(v) {
		return magenta.Render("?")
	}
	idx := 0
	if scale > 0 {
		idx = int(math.Abs(v) / scale * float64(len(ramp)-1))
	}
	if idx >= len(ramp) {
		idx = len(ramp) - 1
	}
	c := string(ramp[idx])
	switch {
	case idx == 0:
		return c
	case v > 0:
		return red.Render(c)
	default:
		return blue.Render(c)
	}
}
