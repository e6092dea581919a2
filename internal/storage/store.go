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

	"github.com/google/uuid"

	"github.com/san-kum/physbox/internal/sim"
)

var ErrRunNotFound = errors.New("run not found")

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
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Frames     int                `json:"frames"`
	Duration   float64            `json:"duration"`
	Broadphase string             `json:"broadphase"`
	Objects    int                `json:"objects"`
	Sleeping   int                `json:"sleeping"`
	Metrics    map[string]float64 `json:"metrics"`
}

// NewRunMetadata fills the run fields from a headless summary.
func NewRunMetadata(preset, broadphase string, dt float64, sum *sim.Summary) RunMetadata {
	return RunMetadata{
		Preset:     preset,
		Seed:       sum.Seed,
		Dt:         dt,
		Frames:     sum.Frames,
		Duration:   sum.Time,
		Broadphase: broadphase,
		Objects:    sum.Objects,
		Sleeping:   sum.Sleeping,
		Metrics:    sum.Metrics,
	}
}

var header = []string{
	"frame", "time", "id", "shape",
	"x", "y", "z", "qw", "qx", "qy", "qz",
	"vx", "vy", "vz", "sleeping",
}

// Save writes metadata.json and frames.csv into a new run directory and
// returns the run id. ID and Timestamp are assigned here.
func (s *Store) Save(meta RunMetadata, rows []Row) (string, error) {
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("%s_%d_%s", meta.Preset, meta.Timestamp.Unix(), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns saved runs, newest first. Directories without readable
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames reads back the rows of frames.csv. Malformed rows are skipped.
func (s *Store) LoadFrames(runID string) ([]Row, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "frames.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
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
		return []Row{}, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row, err := parseRow(rec)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Row is one object's state in one recorded frame.
type Row struct {
	Frame    uint64
	Time     float64
	State    sim.ObjectState
	Sleeping bool
}

func (r Row) record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	p, q, v := r.State.Position, r.State.Quaternion, r.State.Velocity
	return []string{
		strconv.FormatUint(r.Frame, 10), f(r.Time),
		r.State.ID.String(), string(r.State.Shape),
		f(p[0]), f(p[1]), f(p[2]),
		f(q.W), f(q.V[0]), f(q.V[1]), f(q.V[2]),
		f(v[0]), f(v[1]), f(v[2]),
		strconv.FormatBool(r.State.Sleeping),
	}
}

func parseRow(rec []string) (Row, error) {
	if len(rec) != len(header) {
		return Row{}, fmt.Errorf("expected %d fields, got %d", len(header), len(rec))
	}
	frame, err := strconv.ParseUint(rec[0], 10, 64)
	if err != nil {
		return Row{}, err
	}
	id, err := uuid.Parse(rec[2])
	if err != nil {
		return Row{}, err
	}
	nums := make([]float64, 11)
	vals := append([]string{rec[1]}, rec[4:14]...)
	for i, s := range vals {
		if nums[i], err = strconv.ParseFloat(s, 64); err != nil {
			return Row{}, err
		}
	}
	sleeping, err := strconv.ParseBool(rec[14])
	if err != nil {
		return Row{}, err
	}

	row := Row{Frame: frame, Time: nums[0], Sleeping: sleeping}
	row.State.ID = id
	row.State.Shape = sim.Shape(rec[3])
	copy(row.State.Position[:], nums[1:4])
	row.State.Quaternion.W = nums[4]
	copy(row.State.Quaternion.V[:], nums[5:8])
	copy(row.State.Velocity[:], nums[8:11])
	row.State.Sleeping = sleeping
	return row, nil
}
