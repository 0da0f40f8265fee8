package export

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/integrators"
	"github.com/san-kum/softbody/internal/viz"
)

const (
	background = "#0a0a0a"
	floorColor = "#444466"
)

// CanvasToSVG converts a braille canvas to SVG, one circle per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.DotWidth()) * scale
	height := float64(canvas.DotHeight()) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#00ff00">
`, width, height, width, height, background)

	dotRadius := scale * 0.4
	for y := 0; y < canvas.DotHeight(); y++ {
		for x := 0; x < canvas.DotWidth(); x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, float64(x)*scale+scale/2, float64(y)*scale+scale/2, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// FrameToSVG draws particle positions through cam onto a width×height
// image, nearer particles drawn larger, over the floor line.
func FrameToSVG(positions []mgl32.Vec3, cam *viz.Camera, width, height int, fill string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	floor := viz.FloorGrid(cam.Target, 1.5, 7)
	sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-width="1">`, floorColor) + "\n")
	for _, e := range floor.Edges {
		x1, y1, d1, _ := cam.Project(e.Start, width, height)
		x2, y2, d2, _ := cam.Project(e.End, width, height)
		if d1 <= 0 || d2 <= 0 {
			continue
		}
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d"/>`+"\n", x1, y1, x2, y2)
	}
	sb.WriteString("</g>\n")

	fmt.Fprintf(&sb, `<g fill="%s">`+"\n", fill)
	for _, p := range positions {
		x, y, depth, ok := cam.Project(p, width, height)
		if !ok {
			continue
		}
		r := 3 * cam.Distance / depth
		fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="%.1f"/>`+"\n", x, y, r)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Point is a sample of a 2D curve.
type Point struct{ X, Y float64 }

// TraceToPoints maps a center-of-mass trace to (time, height) samples.
func TraceToPoints(times []float64, centers []mgl32.Vec3) []Point {
	n := min(len(times), len(centers))
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = Point{X: times[i], Y: float64(centers[i][1])}
	}
	return pts
}

// TrajectoryToSVG plots points as a polyline scaled to fit with 10%
// padding. The floor height is drawn as a dashed line when it falls in
// range.
func TrajectoryToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

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

	toScreen := func(p Point) (float64, float64) {
		return (p.X - minX) / rangeX * float64(width), float64(height) - (p.Y-minY)/rangeY*float64(height)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	if floor := float64(integrators.FloorHeight); floor >= minY && floor <= maxY {
		_, fy := toScreen(Point{Y: floor})
		fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="4 4"/>`+"\n", fy, width, fy, floorColor)
	}

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)
	for i, p := range points {
		x, y := toScreen(p)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
