package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/particles"
)

func newStore(t *testing.T, positions []mgl32.Vec3, v0 mgl32.Vec3) *particles.Store {
	t.Helper()
	s, err := particles.New(positions, v0)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestTotalEnergy(t *testing.T) {
	params := dynamo.DefaultParams()
	params.Mass = 2
	s := newStore(t, []mgl32.Vec3{{0, 1, 0}, {0, 3, 0}}, mgl32.Vec3{1, 0, 0})

	// ke = 2 * 0.5*2*1, pe = 2*9.8*(1+3)
	expected := 2.0 + 2*9.8*4
	got := TotalEnergy(s, params)
	if math.Abs(got-expected) > 1e-3 {
		t.Errorf("expected energy %f, got %f", expected, got)
	}
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergy()
	s := newStore(t, []mgl32.Vec3{{0, 1, 0}}, mgl32.Vec3{})

	m.Observe(s, dynamo.DefaultParams(), 0)
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyLoss(t *testing.T) {
	m := NewEnergyLoss()
	params := dynamo.DefaultParams()
	s := newStore(t, []mgl32.Vec3{{0, 2, 0}}, mgl32.Vec3{})

	m.Observe(s, params, 0)
	if m.Value() != 0 {
		t.Errorf("expected no loss after one sample, got %f", m.Value())
	}

	snap := s.Snapshot()
	snap[0].Position = mgl32.Vec3{0, 1, 0}
	if err := s.Commit(snap); err != nil {
		t.Fatal(err)
	}
	m.Observe(s, params, 0.1)
	if math.Abs(m.Value()-0.5) > 1e-5 {
		t.Errorf("expected half the energy lost, got %f", m.Value())
	}
}

func TestGoalDeviation(t *testing.T) {
	m := NewGoalDeviation()
	s := newStore(t, []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}}, mgl32.Vec3{})

	snap := s.Snapshot()
	snap[0].Goal = mgl32.Vec3{0, 3, 0}
	snap[1].Goal = mgl32.Vec3{1, 0, 4}
	if err := s.Commit(snap); err != nil {
		t.Fatal(err)
	}

	m.Observe(s, dynamo.DefaultParams(), 0)
	expected := math.Sqrt((9.0 + 16.0) / 2)
	if math.Abs(m.Value()-expected) > 1e-5 {
		t.Errorf("expected deviation %f, got %f", expected, m.Value())
	}
}

func TestFloorContact(t *testing.T) {
	m := NewFloorContact()
	params := dynamo.DefaultParams()

	air := newStore(t, []mgl32.Vec3{{0, 1, 0}}, mgl32.Vec3{})
	ground := newStore(t, []mgl32.Vec3{{0, 0.01, 0}, {0, 1, 0}}, mgl32.Vec3{})

	m.Observe(air, params, 0)
	m.Observe(ground, params, 0)
	m.Observe(ground, params, 0)
	m.Observe(air, params, 0)

	if m.Value() != 0.5 {
		t.Errorf("expected contact fraction 0.5, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	m := NewStability(10)
	params := dynamo.DefaultParams()

	s := newStore(t, []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}}, mgl32.Vec3{})
	m.Observe(s, params, 0)

	snap := s.Snapshot()
	snap[1].Position = mgl32.Vec3{float32(math.NaN()), 0, 0}
	if err := s.Commit(snap); err != nil {
		t.Fatal(err)
	}
	m.Observe(s, params, 0.1)

	if m.Value() != 0.5 {
		t.Errorf("expected stability 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 1.0 {
		t.Errorf("expected stability 1 after reset, got %f", m.Value())
	}
}
