package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/turbulence/turbulence"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds every turbulence point's recorded walk at the end of a step.
type Snapshot struct {
	Version int     `json:"version"`
	Seed    int64   `json:"seed"`
	Step    int     `json:"step"`
	Time    float64 `json:"time"`

	Points []PointState `json:"points"`
}

// PointState holds one point's anchor and walk history.
type PointState struct {
	Index     int            `json:"index"`
	Anchor    [3]float64     `json:"anchor"`
	TimeStep  float64        `json:"time_step"`
	Keyframes []KeyframeJSON `json:"keyframes"`
}

// KeyframeJSON is the JSON form of a walk keyframe.
type KeyframeJSON struct {
	Time float64    `json:"t"`
	Off  [3]float64 `json:"offset"`
}

// NewSnapshot captures the walks of points.
func NewSnapshot(seed int64, step int, t float64, points []*turbulence.Point) *Snapshot {
	s := &Snapshot{
		Version: SnapshotVersion,
		Seed:    seed,
		Step:    step,
		Time:    t,
		Points:  make([]PointState, len(points)),
	}
	for i, p := range points {
		a := p.Anchor()
		frames := p.Keyframes()
		state := PointState{
			Index:     i,
			Anchor:    [3]float64{a.X, a.Y, a.Z},
			TimeStep:  p.TimeStep(),
			Keyframes: make([]KeyframeJSON, len(frames)),
		}
		for j, k := range frames {
			state.Keyframes[j] = KeyframeJSON{Time: k.Time, Off: [3]float64{k.Offset.X, k.Offset.Y, k.Offset.Z}}
		}
		s.Points[i] = state
	}
	return s
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("walks_%d.json", snapshot.Step))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
