package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/integrators"
)

const (
	defaultDistance = 8
	defaultPitch    = 0.35
	nearPlane       = 0.1
)

// Camera orbits Target at Distance, looking down -z after applying Yaw
// about y and then Pitch about x.
type Camera struct {
	Target     mgl32.Vec3
	Yaw, Pitch float32
	Distance   float32
	Zoom       float32
}

func NewCamera() *Camera {
	return &Camera{Pitch: defaultPitch, Distance: defaultDistance, Zoom: 1}
}

func (c *Camera) RotateYaw(a float32)   { c.Yaw += a }
func (c *Camera) RotatePitch(a float32) { c.Pitch = mgl32.Clamp(c.Pitch+a, -math.Pi/2, math.Pi/2) }
func (c *Camera) ZoomIn()               { c.Zoom = min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()              { c.Zoom = max(0.1, c.Zoom/1.2) }

// Fit centers the camera on the bounding box of pts and sets the zoom so
// the box fills about a third of the view.
func (c *Camera) Fit(pts []mgl32.Vec3) {
	if len(pts) == 0 {
		return
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	c.Target = lo.Add(hi).Mul(0.5)
	if extent := hi.Sub(lo).Len(); extent > 0 {
		c.Zoom = mgl32.Clamp(1.5/extent, 0.1, 10)
	}
}

func (c *Camera) view() mgl32.Mat3 {
	return mgl32.Rotate3DX(c.Pitch).Mul3(mgl32.Rotate3DY(c.Yaw))
}

// Project maps a world point onto a sw×sh screen and returns its screen
// position, depth along the view axis, and whether it lands on screen.
func (c *Camera) Project(p mgl32.Vec3, sw, sh int) (int, int, float32, bool) {
	rot := c.view().Mul3x1(p.Sub(c.Target)).Mul(c.Zoom)
	depth := c.Distance - rot[2]
	if depth <= nearPlane {
		return 0, 0, 0, false
	}
	scale := c.Distance / depth
	pScale := float32(min(sw, sh)) / 3
	sx := int(rot[0]*scale*pScale) + sw/2
	sy := int(-rot[1]*scale*pScale) + sh/2
	return sx, sy, depth, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End mgl32.Vec3
	// Radius is the dot size for points, 0 for a single dot.
	Radius int
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe                    { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e mgl32.Vec3)      { w.Edges = append(w.Edges, Edge{Start: s, End: e}) }
func (w *Wireframe) AddPoint(p mgl32.Vec3, r int) { w.Edges = append(w.Edges, Edge{Start: p, End: p, Radius: r}) }
func (w *Wireframe) Clear()                       { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float32
	radius         int
}

// Render3D draws the wireframe far to near.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.DotWidth(), c.DotHeight()
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, d2, v2 := cam.Project(e.End, cw, ch)
		if (v1 || v2) && d1 > 0 && d2 > 0 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2, e.Radius})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Dot(e.x1, e.y1, e.radius)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// FloorGrid is a square grid on the floor plane centered under center.
func FloorGrid(center mgl32.Vec3, half float32, lines int) *Wireframe {
	w := NewWireframe()
	if lines < 2 {
		lines = 2
	}
	y := integrators.FloorHeight
	step := 2 * half / float32(lines-1)
	for i := 0; i < lines; i++ {
		o := -half + float32(i)*step
		w.AddEdge(mgl32.Vec3{center[0] - half, y, center[2] + o}, mgl32.Vec3{center[0] + half, y, center[2] + o})
		w.AddEdge(mgl32.Vec3{center[0] + o, y, center[2] - half}, mgl32.Vec3{center[0] + o, y, center[2] + half})
	}
	return w
}

// BodyWireframe draws each particle as a dot over a floor grid. When goals
// is non-nil each particle is joined to its goal position.
func BodyWireframe(positions, goals []mgl32.Vec3) *Wireframe {
	var center mgl32.Vec3
	for _, p := range positions {
		center = center.Add(p)
	}
	if len(positions) > 0 {
		center = center.Mul(1 / float32(len(positions)))
	}

	w := FloorGrid(center, 1.5, 7)
	for i, p := range positions {
		if goals != nil && i < len(goals) {
			w.AddEdge(p, goals[i])
		}
		w.AddPoint(p, 1)
	}
	return w
}
