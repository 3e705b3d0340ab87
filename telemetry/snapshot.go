package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// SnapshotExt is the file extension of a snapshot.
const SnapshotExt = ".json.zst"

// Vec3 is an XYZ triple in snapshot form.
type Vec3 [3]float64

// Snapshot holds the flock state at one tick.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`
	Tick    int32 `json:"tick"`

	HalfExtent float64          `json:"half_extent"`
	Settings   SnapshotSettings `json:"settings"`

	Agents []AgentState `json:"agents"`
}

// SnapshotSettings mirrors the flocking settings in force at capture time.
type SnapshotSettings struct {
	CellSize                  float64 `json:"cell_size"`
	CellZMultiplier           int32   `json:"cell_z_multiplier"`
	SeparationWeight          float64 `json:"separation_weight"`
	AlignmentWeight           float64 `json:"alignment_weight"`
	CohesionWeight            float64 `json:"cohesion_weight"`
	NeighborAvoidanceStrength float64 `json:"neighbor_avoidance_strength"`
}

// AgentState holds one agent's state.
type AgentState struct {
	ID     uint32 `json:"id"`
	State  string `json:"state"`
	Faults uint8  `json:"faults,omitempty"`

	Position Vec3 `json:"position"`
	Facing   Vec3 `json:"facing"`
	Velocity Vec3 `json:"velocity"`

	// Perception
	SeparationRadius         float64 `json:"separation_radius"`
	AlignmentRadius          float64 `json:"alignment_radius"`
	CohesionRadius           float64 `json:"cohesion_radius"`
	NeighborAversionDistance float64 `json:"neighbor_aversion_distance"`

	// Steering outputs
	CurrentHeading    Vec3 `json:"current_heading"`
	Separation        Vec3 `json:"separation"`
	Alignment         Vec3 `json:"alignment"`
	Cohesion          Vec3 `json:"cohesion"`
	NeighborAvoidance Vec3 `json:"neighbor_avoidance"`
}

// SnapshotPath returns the file a snapshot of the given tick is saved to.
func SnapshotPath(dir string, tick int32) string {
	return filepath.Join(dir, fmt.Sprintf("snapshot_%d%s", tick, SnapshotExt))
}

// SaveSnapshot writes a zstd-compressed JSON snapshot to dir.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := SnapshotPath(dir, snapshot.Tick)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", fmt.Errorf("zstd writer: %w", err)
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := json.NewEncoder(bw).Encode(snapshot); err != nil {
		enc.Close()
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return "", fmt.Errorf("flush snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("close zstd writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var snapshot Snapshot
	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
