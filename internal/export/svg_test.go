package export

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/viz"
	"github.com/stretchr/testify/assert"
)

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(5, 6)

	svg := CanvasToSVG(c, 2)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, `width="16" height="16"`)
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, `cx="1.0" cy="1.0"`)
	assert.Contains(t, svg, `cx="11.0" cy="13.0"`)

	assert.Empty(t, CanvasToSVG(nil, 1))
}

func TestFrameToSVG(t *testing.T) {
	pts := []mgl32.Vec3{{0, 1, 0}, {0.5, 1, 0}, {0, 1.5, 0}, {0, 1, 40}}
	cam := viz.NewCamera()
	cam.Fit(pts[:3])

	svg := FrameToSVG(pts, cam, 400, 300, "#ff5fd7")
	assert.Contains(t, svg, `fill="#ff5fd7"`)
	// the far-off particle is behind the camera
	assert.Equal(t, 3, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, "<line")
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
}

func TestTraceToPoints(t *testing.T) {
	pts := TraceToPoints([]float64{0, 0.1, 0.2}, []mgl32.Vec3{{0, 2, 0}, {1, 1.5, 0}})
	assert.Equal(t, []Point{{0, 2}, {0.1, 1.5}}, pts)
}

func TestTrajectoryToSVG(t *testing.T) {
	assert.Empty(t, TrajectoryToSVG([]Point{{0, 1}}, 100, 100, "#fff"))

	svg := TrajectoryToSVG([]Point{{0, 2}, {1, 1}, {2, 0.01}}, 200, 100, "#00ff00")
	assert.Contains(t, svg, `stroke="#00ff00"`)
	assert.Contains(t, svg, "d=\"M")
	assert.Equal(t, 2, strings.Count(svg, " L"))
	assert.Contains(t, svg, "stroke-dasharray")
}
