// Package systems provides the per-tick flocking systems: a spatial hash over
// the XZ ground plane and the steering evaluator that queries it.
package systems

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// AgentRecord is one eligible agent as the grid sees it for a single tick.
type AgentRecord struct {
	Entity   ecs.Entity
	Position r3.Vec
	Facing   r3.Vec // heading reference accumulated by alignment
}

// NeighborhoodSize is the number of cells scanned per query.
const NeighborhoodSize = 5

// cellSpan locates one cell's records inside the arena.
type cellSpan struct {
	start, count int32
}

// stagedRecord is a record waiting in a worker's buffer for Commit.
type stagedRecord struct {
	key int32
	rec AgentRecord
}

// SpatialHash buckets agents into square cells of the XZ plane.
//
// The hash is rebuilt from scratch every tick: Reset clears it, workers
// Insert into their own staging buffers (so concurrent inserts never share
// memory), and Commit merges the buffers into one contiguous arena grouped by
// cell. After Commit the grid is read-only until the next Reset.
type SpatialHash struct {
	cellSize    float64
	zMultiplier int32

	staging [][]stagedRecord   // one buffer per worker
	records []AgentRecord      // arena, grouped by cell after Commit
	cells   map[int32]cellSpan // cell key -> span in records
}

// NewSpatialHash creates an empty hash.
// zMultiplier is the key stride of one Z row and must exceed the number of X
// columns in use so that row and column neighbors never share a key.
func NewSpatialHash(cellSize float64, zMultiplier int32) *SpatialHash {
	if !(cellSize > 0) {
		panic(fmt.Sprintf("systems: cell size must be positive, got %v", cellSize))
	}
	if zMultiplier < 2 || zMultiplier > MaxZMultiplier {
		panic(fmt.Sprintf("systems: cell z multiplier must be in [2, %d], got %d", MaxZMultiplier, zMultiplier))
	}
	return &SpatialHash{
		cellSize:    cellSize,
		zMultiplier: zMultiplier,
		staging:     make([][]stagedRecord, 1),
		cells:       make(map[int32]cellSpan),
	}
}

// MaxZMultiplier bounds the Z stride so the key range leaves room for the
// neighborhood offsets.
const MaxZMultiplier = 1 << 30

// CellKey hashes a world position to its cell key. Y is ignored.
//
// Keys are saturated to [math.MinInt32+zMultiplier, math.MaxInt32-zMultiplier]
// so that every Neighborhood offset stays representable. Positions beyond
// roughly ±cellSize·2³¹/zMultiplier therefore collapse into the edge keys
// instead of wrapping around; non-finite coordinates count as 0 for NaN and
// saturate for ±Inf.
func CellKey(p r3.Vec, cellSize float64, zMultiplier int32) int32 {
	zm := int64(zMultiplier)
	key := floorDiv(p.X, cellSize) + zm*floorDiv(p.Z, cellSize)
	lo, hi := int64(math.MinInt32)+zm, int64(math.MaxInt32)-zm
	return int32(min(max(key, lo), hi))
}

// Key returns the cell key of a world position.
func (g *SpatialHash) Key(p r3.Vec) int32 {
	return CellKey(p, g.cellSize, g.zMultiplier)
}

// CellSize returns the cell edge length in world units.
func (g *SpatialHash) CellSize() float64 {
	return g.cellSize
}

// ZMultiplier returns the key stride of one Z row.
func (g *SpatialHash) ZMultiplier() int32 {
	return g.zMultiplier
}

// Neighborhood returns the cross-shaped set of cells scanned around key:
// the cell itself and its four axis-adjacent cells. Diagonals are excluded.
func (g *SpatialHash) Neighborhood(key int32) [NeighborhoodSize]int32 {
	return [NeighborhoodSize]int32{
		key,
		key + 1,
		key - 1,
		key + g.zMultiplier,
		key - g.zMultiplier,
	}
}

// Reset empties the hash and prepares it for a build by the given number of
// workers. The arena is grown to hold at least capacity records up front so
// a stable population never reallocates mid-build.
func (g *SpatialHash) Reset(workers, capacity int) {
	workers = max(workers, 1)
	for len(g.staging) < workers {
		g.staging = append(g.staging, nil)
	}

	perWorker := capacity/workers + 1
	for i := range g.staging {
		if cap(g.staging[i]) < perWorker {
			g.staging[i] = make([]stagedRecord, 0, perWorker)
		}
		g.staging[i] = g.staging[i][:0]
	}

	if cap(g.records) < capacity {
		g.records = make([]AgentRecord, 0, capacity)
	}
	g.records = g.records[:0]
	clear(g.cells)
}

// Insert stages a record for the given worker.
// Distinct workers may call Insert concurrently; a single worker may not.
func (g *SpatialHash) Insert(worker int, rec AgentRecord) {
	g.staging[worker] = append(g.staging[worker], stagedRecord{
		key: g.Key(rec.Position),
		rec: rec,
	})
}

// Commit merges all staging buffers into the arena with a counting scatter.
// It must run after every Insert for the tick has returned.
func (g *SpatialHash) Commit() {
	// Pass 1: count records per cell
	total := 0
	for _, buf := range g.staging {
		total += len(buf)
		for i := range buf {
			s := g.cells[buf[i].key]
			s.count++
			g.cells[buf[i].key] = s
		}
	}

	if cap(g.records) < total {
		g.records = make([]AgentRecord, 0, total)
	}
	g.records = g.records[:total]

	// Pass 2: assign each cell a contiguous span
	var offset int32
	for k, s := range g.cells {
		s.start = offset
		offset += s.count
		s.count = 0
		g.cells[k] = s
	}

	// Pass 3: scatter
	for _, buf := range g.staging {
		for i := range buf {
			s := g.cells[buf[i].key]
			g.records[s.start+s.count] = buf[i].rec
			s.count++
			g.cells[buf[i].key] = s
		}
	}
}

// Build is a single-worker Reset, Insert and Commit.
func (g *SpatialHash) Build(records []AgentRecord) {
	g.Reset(1, len(records))
	for _, rec := range records {
		g.Insert(0, rec)
	}
	g.Commit()
}

// Cell returns the records bucketed under key, or nil for an empty cell.
// The returned slice aliases the arena and is valid until the next Reset.
func (g *SpatialHash) Cell(key int32) []AgentRecord {
	s, ok := g.cells[key]
	if !ok {
		return nil
	}
	end := s.start + s.count
	return g.records[s.start:end:end]
}

// Len returns the number of committed records.
func (g *SpatialHash) Len() int {
	return len(g.records)
}

// Occupancy returns the number of non-empty cells and the largest bucket.
func (g *SpatialHash) Occupancy() (cells, maxBucket int) {
	for _, s := range g.cells {
		maxBucket = max(maxBucket, int(s.count))
	}
	return len(g.cells), maxBucket
}

// ForEachCell calls fn for every non-empty cell in unspecified order.
func (g *SpatialHash) ForEachCell(fn func(key int32, records []AgentRecord)) {
	for k := range g.cells {
		fn(k, g.Cell(k))
	}
}
