package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Frames:   2,
		Times:    []float64{0, 0.01, 0.02},
		Centers:  []mgl32.Vec3{{0, 2, 0}, {0, 1.999, 0}, {0.5, 1.997, -0.25}},
		Recorded: []int{0, 2},
		Positions: [][]mgl32.Vec3{
			{{0, 1.5, 0}, {0, 2.5, 0}},
			{{0.25, 1.497, -0.125}, {0.75, 2.497, -0.375}},
		},
		Metrics: map[string]float64{"goal_deviation": 0.01},
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	cfg := config.GetPreset("jelly")
	runID, err := s.Save(cfg, sampleResult())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "jelly_"))
	assert.Len(t, runID, len("jelly_")+8)

	meta, err := s.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, "jelly", meta.Scene)
	assert.Equal(t, 2, meta.Particles)
	assert.Equal(t, 2, meta.Frames)
	assert.Equal(t, cfg, meta.Config)
	assert.InDelta(t, 0.01, meta.Metrics["goal_deviation"], 1e-12)
}

func TestLoadTrace(t *testing.T) {
	s := New(t.TempDir())
	runID, err := s.Save(config.DefaultConfig(), sampleResult())
	require.NoError(t, err)

	tr, err := s.LoadTrace(runID)
	require.NoError(t, err)
	require.Len(t, tr.Times, 3)
	assert.InDelta(t, 0.02, tr.Times[2], 1e-9)
	assert.Equal(t, mgl32.Vec3{0.5, 1.997, -0.25}, tr.Centers[2])
}

func TestLoadFrame(t *testing.T) {
	s := New(t.TempDir())
	res := sampleResult()
	runID, err := s.Save(config.DefaultConfig(), res)
	require.NoError(t, err)

	pos, tm, err := s.LoadFrame(runID, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, tm, 1e-9)
	assert.Equal(t, res.Positions[1], pos)

	_, _, err = s.LoadFrame(runID, 1)
	assert.True(t, errors.Is(err, ErrFrameNotRecorded))

	frames, err := s.RecordedFrames(runID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, frames)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = s.Save(config.GetPreset("rigid"), sampleResult())
	require.NoError(t, err)
	_, err = s.Save(config.GetPreset("drop"), sampleResult())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stray"), 0755))

	runs, err = s.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestList_MissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLoadTrace_Malformed(t *testing.T) {
	dir := t.TempDir()
	run := filepath.Join(dir, "bad")
	require.NoError(t, os.MkdirAll(run, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(run, traceFile), []byte("frame,time,cx,cy,cz\n0,zero,1,2,3\n"), 0644))

	_, err := New(dir).LoadTrace("bad")
	assert.Error(t, err)
}
