package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/compute"
	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/integrators"
	"github.com/san-kum/softbody/internal/particles"
	"github.com/san-kum/softbody/internal/shapematch"
	"github.com/san-kum/softbody/internal/sim"
)

func TestCanvas_SetUnset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1 in first cell, got %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != 0x2880 {
		t.Errorf("expected dot 8 in second cell, got %U", c.Grid[0][1])
	}
	if !c.IsSet(3, 3) || c.IsSet(1, 0) {
		t.Error("IsSet disagrees with Set")
	}

	c.Unset(0, 0)
	if c.Grid[0][0] != brailleBlank {
		t.Errorf("expected blank cell after unset, got %U", c.Grid[0][0])
	}

	c.Set(-1, 0)
	c.Set(100, 100)
	if got := strings.Count(c.String(), "\n"); got != 1 {
		t.Errorf("expected one row, got %d", got)
	}
}

func TestCanvas_DrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 19)
	for i := 0; i < 20; i++ {
		if !c.IsSet(i, i) {
			t.Fatalf("diagonal dot %d not set", i)
		}
	}
}

func TestCamera_ProjectTargetAtCenter(t *testing.T) {
	cam := NewCamera()
	cam.Target = mgl32.Vec3{1, 2, 3}
	cam.Yaw = 0.7

	x, y, depth, ok := cam.Project(cam.Target, 160, 96)
	if !ok {
		t.Fatal("target should be visible")
	}
	if x != 80 || y != 48 {
		t.Errorf("expected target at screen center, got (%d, %d)", x, y)
	}
	if depth != cam.Distance {
		t.Errorf("expected depth %f, got %f", cam.Distance, depth)
	}
}

func TestCamera_BehindIsHidden(t *testing.T) {
	cam := NewCamera()
	cam.Pitch = 0
	_, _, _, ok := cam.Project(mgl32.Vec3{0, 0, 20}, 160, 96)
	if ok {
		t.Error("point behind the camera should not be visible")
	}
}

func TestCamera_UpIsUp(t *testing.T) {
	cam := NewCamera()
	cam.Pitch = 0
	_, yLow, _, _ := cam.Project(mgl32.Vec3{0, -0.5, 0}, 160, 96)
	_, yHigh, _, _ := cam.Project(mgl32.Vec3{0, 0.5, 0}, 160, 96)
	if yHigh >= yLow {
		t.Errorf("higher world point should be higher on screen: %d vs %d", yHigh, yLow)
	}
}

func TestRender3D_DrawsBody(t *testing.T) {
	pts := []mgl32.Vec3{{0, 1, 0}, {0.5, 1, 0}, {0, 1.5, 0.5}}
	cam := NewCamera()
	cam.Fit(pts)

	c := NewCanvas(40, 20)
	Render3D(c, BodyWireframe(pts, nil), cam)
	if !strings.ContainsFunc(c.String(), func(r rune) bool { return r > brailleBlank }) {
		t.Error("expected some dots on the canvas")
	}
}

func TestProgressBar(t *testing.T) {
	if got := ProgressBar(0.5, 10); got != "[=====-----]" {
		t.Errorf("unexpected bar %q", got)
	}
	if got := ProgressBar(2, 4); got != "[====]" {
		t.Errorf("expected clamped bar, got %q", got)
	}
	if got := ProgressBar(-1, 4); got != "[----]" {
		t.Errorf("expected empty bar, got %q", got)
	}
}

func TestNextTheme(t *testing.T) {
	th := Themes[0]
	for range Themes {
		th = NextTheme(th)
	}
	if th.Name != Themes[0].Name {
		t.Errorf("expected to cycle back to %s, got %s", Themes[0].Name, th.Name)
	}
}

func build(cfg *config.Config) (*sim.Simulator, error) {
	pts, err := cfg.BuildPositions()
	if err != nil {
		return nil, err
	}
	store, err := particles.New(pts, cfg.InitialVelocity())
	if err != nil {
		return nil, err
	}
	return sim.New(store, integrators.NewEuler(), shapematch.New(compute.NewGonum())), nil
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.GetPreset("jelly")
	s, err := build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(s, cfg.Scene, cfg.Params(), float32(cfg.Dt), cfg.Substeps)
}

func press(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next
}

func TestModel_Keys(t *testing.T) {
	m := newTestModel(t)
	stiffness := m.Params().Stiffness
	deformation := m.Params().Deformation

	var tm tea.Model = m
	tm = press(tm, "+")
	tm = press(tm, "]")
	tm = press(tm, " ")
	got := tm.(Model)

	if got.Params().Stiffness <= stiffness {
		t.Errorf("expected stiffness to rise from %f, got %f", stiffness, got.Params().Stiffness)
	}
	if got.Params().Deformation <= deformation {
		t.Errorf("expected deformation to rise from %f, got %f", deformation, got.Params().Deformation)
	}
	if got.Running() {
		t.Error("space should pause")
	}

	yaw := got.camera.Yaw
	tm = press(tm, "left")
	if tm.(Model).camera.Yaw >= yaw {
		t.Error("left should rotate the camera")
	}
}

func TestModel_StiffnessClamped(t *testing.T) {
	var tm tea.Model = newTestModel(t)
	for i := 0; i < 40; i++ {
		tm = press(tm, "+")
	}
	if s := tm.(Model).Params().Stiffness; s != 1 {
		t.Errorf("expected stiffness clamped to 1, got %f", s)
	}
	for i := 0; i < 40; i++ {
		tm = press(tm, "-")
	}
	if s := tm.(Model).Params().Stiffness; s != 0 {
		t.Errorf("expected stiffness clamped to 0, got %f", s)
	}
}

func TestModel_TickStepsAndReset(t *testing.T) {
	var tm tea.Model = newTestModel(t)
	for i := 0; i < 5; i++ {
		tm, _ = tm.Update(TickMsg{})
	}
	m := tm.(Model)
	if m.sim.FrameCount() != 5 {
		t.Fatalf("expected 5 frames, got %d", m.sim.FrameCount())
	}
	if m.Err() != nil {
		t.Fatalf("unexpected error: %v", m.Err())
	}
	if !strings.Contains(m.View(), "JELLY") {
		t.Error("view should name the scene")
	}

	tm = press(tm, "+")
	tm = press(tm, "r")
	m = tm.(Model)
	if m.sim.FrameCount() != 0 {
		t.Errorf("reset should rewind frames, got %d", m.sim.FrameCount())
	}
	if m.Params() != m.initialParams {
		t.Error("reset should restore parameters")
	}
}

func TestModel_FailureStops(t *testing.T) {
	store, err := particles.New([]mgl32.Vec3{{0, 1, 0}, {1, 1, 0}, {2, 1, 0}}, mgl32.Vec3{})
	if err != nil {
		t.Fatal(err)
	}
	s := sim.New(store, integrators.NewEuler(), shapematch.New(compute.NewGonum()))
	var tm tea.Model = NewModel(s, "line", dynamo.DefaultParams(), 0.01, 1)

	tm, _ = tm.Update(TickMsg{})
	m := tm.(Model)
	if m.Err() == nil || m.Running() {
		t.Error("degenerate body should stop the viewer with an error")
	}
	if !strings.Contains(m.View(), "FAILED") {
		t.Error("view should show the failure")
	}
}

func TestLauncher_StartsPreset(t *testing.T) {
	var tm tea.Model = NewLauncher(build)
	tm = press(tm, "j")
	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyEnter})

	l := tm.(Launcher)
	if l.live == nil {
		t.Fatalf("expected a live model, err=%v", l.err)
	}
	if l.live.scene != config.ListPresets()[1] {
		t.Errorf("expected scene %s, got %s", config.ListPresets()[1], l.live.scene)
	}

	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if tm.(Launcher).live != nil {
		t.Error("esc should return to the menu")
	}
}
