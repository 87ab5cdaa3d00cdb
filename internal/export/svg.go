package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/vortsim/internal/dynamo"
)

// FieldSVG draws a field as a grid of cells with a diverging palette: red
// for positive values, blue for negative, intensity scaled by max |f|. The
// top row of the image is the largest y. Non-finite cells are grey.
func FieldSVG(f *dynamo.Field, cell float64) string {
	if f == nil || len(f.Data) == 0 {
		return ""
	}
	ny, nx := f.Dims()
	width := float64(nx) * cell
	height := float64(ny) * cell
	scale := finiteMax(f.Data)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" shape-rendering="crispEdges">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, width, height, width, height))

	for j := 0; j < ny; j++ {
		y := float64(ny-1-j) * cell
		for i := 0; i < nx; i++ {
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, float64(i)*cell, y, cell, cell, diverging(f.At(j, i), scale)))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func finiteMax(xs []float64) float64 {
	m := 0.0
	for _, v := range xs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			m = math.Max(m, math.Abs(v))
		}
	}
	return m
}

func diverging(v, scale float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "#808080"
	}
	if scale == 0 {
		return "#ffffff"
	}
	t := math.Min(math.Abs(v)/scale, 1)
	fade := uint8(math.Round(255 * (1 - t)))
	if v >= 0 {
		return fmt.Sprintf("#ff%02x%02x", fade, fade)
	}
	return fmt.Sprintf("#%02x%02xff", fade, fade)
}

// SeriesSVG plots ys against xs as a polyline. Points with a non-finite
// coordinate are skipped.
func SeriesSVG(xs, ys []float64, width, height int, strokeColor string) string {
	type point struct{ X, Y float64 }
	var points []point
	for i := range xs {
		if i >= len(ys) || !dynamo.State([]float64{xs[i], ys[i]}).IsValid() {
			continue
		}
		points = append(points, point{xs[i], ys[i]})
	}
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	// 10% padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// RunSVG renders the last stored snapshot of rec, or its max |ω| history
// when the run kept no snapshots.
func RunSVG(rec *dynamo.RunRecord) (string, error) {
	if n := len(rec.Snapshots); n > 0 {
		return FieldSVG(rec.Snapshots[n-1].Omega, 8), nil
	}
	xs := make([]float64, len(rec.Series))
	ys := make([]float64, len(rec.Series))
	for i, d := range rec.Series {
		xs[i], ys[i] = d.Time, d.MaxVorticity
	}
	svg := SeriesSVG(xs, ys, 800, 400, "#00d7ff")
	if svg == "" {
		return "", dynamo.Invalidf("export.svg", "run %s has nothing to draw", rec.RunID)
	}
	return svg, nil
}
