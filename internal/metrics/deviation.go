package metrics

import (
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/particles"
)

// GoalDeviation is the RMS distance between particles and their goal
// positions, averaged over frames. Goals are those of the most recent
// shape match.
type GoalDeviation struct {
	name    string
	sum     float64
	samples int
}

func NewGoalDeviation() *GoalDeviation {
	return &GoalDeviation{name: "goal_deviation"}
}

func (g *GoalDeviation) Name() string { return g.name }

func (g *GoalDeviation) Observe(store *particles.Store, params dynamo.Params, t float64) {
	snap := store.Snapshot()
	if len(snap) == 0 {
		return
	}
	var sq float64
	for _, p := range snap {
		d := p.Goal.Sub(p.Position)
		sq += float64(d.Dot(d))
	}
	g.sum += math.Sqrt(sq / float64(len(snap)))
	g.samples++
}

func (g *GoalDeviation) Value() float64 {
	if g.samples == 0 {
		return 0
	}
	return g.sum / float64(g.samples)
}

func (g *GoalDeviation) Reset() {
	g.sum = 0
	g.samples = 0
}
