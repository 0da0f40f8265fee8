package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	positionsFile = "positions.csv"
	traceFile     = "trace.csv"
)

var ErrFrameNotRecorded = errors.New("frame not recorded")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Particles int                `json:"particles"`
	Frames    int                `json:"frames"`
	Config    *config.Config     `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run under <scene>_<id prefix> and returns the run id.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", cfg.Scene, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	particles := 0
	if len(result.Positions) > 0 {
		particles = len(result.Positions[0])
	}
	meta := RunMetadata{
		ID:        runID,
		Scene:     cfg.Scene,
		Timestamp: time.Now(),
		Particles: particles,
		Frames:    result.Frames,
		Config:    cfg,
		Metrics:   result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrace(filepath.Join(runDir, traceFile), result); err != nil {
		return "", err
	}
	if err := writePositions(filepath.Join(runDir, positionsFile), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrace(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"frame", "time", "cx", "cy", "cz"}); err != nil {
		return err
	}
	for i := range result.Centers {
		c := result.Centers[i]
		row := []string{strconv.Itoa(i), formatFloat(result.Times[i]), format32(c[0]), format32(c[1]), format32(c[2])}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writePositions(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"frame", "time", "particle", "x", "y", "z"}); err != nil {
		return err
	}
	for k, frame := range result.Recorded {
		t := formatFloat(result.Times[frame])
		for i, p := range result.Positions[k] {
			row := []string{strconv.Itoa(frame), t, strconv.Itoa(i), format32(p[0]), format32(p[1]), format32(p[2])}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
func format32(v float32) string    { return strconv.FormatFloat(float64(v), 'g', -1, 32) }

// List returns stored runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Trace is the center of mass of a run, one sample per frame.
type Trace struct {
	Times   []float64
	Centers []mgl32.Vec3
}

func (s *Store) LoadTrace(runID string) (*Trace, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}

	tr := &Trace{
		Times:   make([]float64, 0, len(records)),
		Centers: make([]mgl32.Vec3, 0, len(records)),
	}
	for line, record := range records {
		if len(record) != 5 {
			return nil, fmt.Errorf("%s line %d: expected 5 fields, got %d", traceFile, line+2, len(record))
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", traceFile, line+2, err)
		}
		c, err := parseVec(record[2:5])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", traceFile, line+2, err)
		}
		tr.Times = append(tr.Times, t)
		tr.Centers = append(tr.Centers, c)
	}
	return tr, nil
}

// LoadFrame returns the particle positions recorded for frame and the
// frame's time.
func (s *Store) LoadFrame(runID string, frame int) ([]mgl32.Vec3, float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, 0, err
	}

	key := strconv.Itoa(frame)
	var (
		positions []mgl32.Vec3
		t         float64
	)
	for line, record := range records {
		if len(record) != 6 {
			return nil, 0, fmt.Errorf("%s line %d: expected 6 fields, got %d", positionsFile, line+2, len(record))
		}
		if record[0] != key {
			continue
		}
		if t, err = strconv.ParseFloat(record[1], 64); err != nil {
			return nil, 0, fmt.Errorf("%s line %d: %w", positionsFile, line+2, err)
		}
		p, err := parseVec(record[3:6])
		if err != nil {
			return nil, 0, fmt.Errorf("%s line %d: %w", positionsFile, line+2, err)
		}
		positions = append(positions, p)
	}

	if len(positions) == 0 {
		return nil, 0, fmt.Errorf("%w: run %s frame %d", ErrFrameNotRecorded, runID, frame)
	}
	return positions, t, nil
}

// RecordedFrames lists the frame numbers present in positions.csv.
func (s *Store) RecordedFrames(runID string) ([]int, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, err
	}

	frames := make([]int, 0)
	last := ""
	for _, record := range records {
		if len(record) == 0 || record[0] == last {
			continue
		}
		last = record[0]
		f, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// readCSV returns the records after the header line.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func parseVec(fields []string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(x)
	}
	return v, nil
}
