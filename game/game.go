// Package game hosts the flocking kernel: it owns the ECS world and the
// spatial hash, runs the per-tick pipeline and feeds telemetry.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// Options configures a new game.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	Seed           int64
	LogStats       bool
	OutputDir      string // CSV telemetry, empty = off
	DBPath         string // SQLite run store, empty = off
	SnapshotDir    string // zstd snapshots, empty = off
	StepsPerUpdate int
	EmptyWorld     bool // skip the initial population
}

// Game holds the complete simulation state.
type Game struct {
	world *ecs.World
	cfg   *config.Config
	rng   *rand.Rand
	seed  int64

	// Entity mappers
	agentMapper *ecs.Map5[
		components.Transform,
		components.Velocity,
		components.FlockAgent,
		components.Locomotion,
		components.Steering,
	]
	pendingMapper *ecs.Map4[ // agents whose transform has not arrived yet
		components.Velocity,
		components.FlockAgent,
		components.Locomotion,
		components.Steering,
	]
	flockFilter  *ecs.Filter3[components.FlockAgent, components.Locomotion, components.Steering]
	movingFilter *ecs.Filter4[components.Transform, components.Velocity, components.Locomotion, components.Steering]

	// Individual component mappers for lookups
	transformMap  *ecs.Map[components.Transform]
	velocityMap   *ecs.Map[components.Velocity]
	agentMap      *ecs.Map[components.FlockAgent]
	locomotionMap *ecs.Map[components.Locomotion]
	steeringMap   *ecs.Map[components.Steering]

	// Flocking
	grid      *systems.SpatialHash
	settings  systems.FlockingSettings
	parallel  *parallelState
	debugRays []systems.DebugRay

	// Telemetry
	perf        *telemetry.PerfCollector
	collector   *telemetry.Collector
	lifetimes   *telemetry.LifetimeTracker
	bookmarks   *telemetry.BookmarkDetector
	output      *telemetry.OutputManager
	store       *telemetry.Store
	snapshotDir string
	logStats    bool

	// Inspection
	selected     ecs.Entity
	hasSelection bool

	// State
	tick           int32
	paused         bool
	stepsPerUpdate int
	agentCount     int
	lastEligible   int
	lastSkipped    int
}

// NewGameWithOptions creates a game, opens its outputs and spawns the
// initial population.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	world := ecs.NewWorld()
	settings := settingsFromConfig(cfg)

	g := &Game{
		world: world,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		seed:  opts.Seed,
		agentMapper: ecs.NewMap5[
			components.Transform,
			components.Velocity,
			components.FlockAgent,
			components.Locomotion,
			components.Steering,
		](world),
		pendingMapper: ecs.NewMap4[
			components.Velocity,
			components.FlockAgent,
			components.Locomotion,
			components.Steering,
		](world),
		flockFilter:   ecs.NewFilter3[components.FlockAgent, components.Locomotion, components.Steering](world),
		movingFilter:  ecs.NewFilter4[components.Transform, components.Velocity, components.Locomotion, components.Steering](world),
		transformMap:  ecs.NewMap[components.Transform](world),
		velocityMap:   ecs.NewMap[components.Velocity](world),
		agentMap:      ecs.NewMap[components.FlockAgent](world),
		locomotionMap: ecs.NewMap[components.Locomotion](world),
		steeringMap:   ecs.NewMap[components.Steering](world),

		grid:     systems.NewSpatialHash(settings.CellSize, settings.CellZMultiplier),
		settings: settings,
		parallel: newParallelState(cfg.Derived.Workers, cfg.Parallel.Threshold),

		perf:           telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.DT),
		lifetimes:      telemetry.NewLifetimeTracker(),
		bookmarks:      telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory),
		snapshotDir:    opts.SnapshotDir,
		logStats:       opts.LogStats,
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	g.output = output
	if err := g.output.WriteConfig(cfg); err != nil {
		g.output.Close()
		return nil, fmt.Errorf("output config: %w", err)
	}

	store, err := telemetry.OpenStore(opts.DBPath)
	if err != nil {
		g.output.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	g.store = store

	if !opts.EmptyWorld {
		g.spawnInitialPopulation()
	}

	if err := g.beginRun(); err != nil {
		g.Unload()
		return nil, err
	}

	return g, nil
}

// settingsFromConfig maps the flocking config section onto kernel settings.
func settingsFromConfig(cfg *config.Config) systems.FlockingSettings {
	f := cfg.Flocking
	return systems.FlockingSettings{
		CellSize:                  f.CellSize,
		CellZMultiplier:           f.CellZMultiplier,
		SeparationWeight:          f.SeparationWeight,
		AlignmentWeight:           f.AlignmentWeight,
		CohesionWeight:            f.CohesionWeight,
		NeighborAvoidanceStrength: f.NeighborAvoidanceStrength,
		Debug:                     f.Debug,
	}
}

// Update runs stepsPerUpdate ticks unless paused. Used by the graphical host.
func (g *Game) Update() {
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.Step()
	}
}

// UpdateHeadless runs stepsPerUpdate ticks regardless of pause state.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.Step()
	}
}

// Step advances the simulation by one fixed tick.
func (g *Game) Step() {
	g.perf.StartTick()

	g.perf.StartPhase(telemetry.PhaseSnapshot)
	g.collectSnapshots()

	g.perf.StartPhase(telemetry.PhaseSpatialGrid)
	g.buildGrid()

	g.perf.StartPhase(telemetry.PhaseFlocking)
	g.evaluateFlocking()
	g.applyIntents()

	if g.cfg.Locomotion.Enabled {
		g.perf.StartPhase(telemetry.PhaseLocomotion)
		g.updateLocomotion()
	}

	g.tick++

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordTick(g.lastEligible, g.lastSkipped)
	g.flushTelemetry()
	g.maybeSnapshot()

	g.perf.EndTick()
}

// Settings returns the flocking settings in force.
func (g *Game) Settings() systems.FlockingSettings {
	return g.settings
}

// SetSettings replaces the flocking settings between ticks. A change of cell
// size or Z multiplier swaps in a fresh grid.
func (g *Game) SetSettings(s systems.FlockingSettings) {
	if s.CellSize != g.settings.CellSize || s.CellZMultiplier != g.settings.CellZMultiplier {
		g.grid = systems.NewSpatialHash(s.CellSize, s.CellZMultiplier)
	}
	if s.Debug != g.settings.Debug {
		slog.Info("flocking debug", "enabled", s.Debug)
	}
	g.settings = s
	if !s.Debug {
		g.debugRays = g.debugRays[:0]
	}
}

// DebugRays returns the avoidance rays of the last tick. Empty unless
// debugging is enabled. The slice is reused by the next Step.
func (g *Game) DebugRays() []systems.DebugRay {
	return g.debugRays
}

// Grid returns the spatial hash built during the last tick.
func (g *Game) Grid() *systems.SpatialHash {
	return g.grid
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// AgentCount returns the number of live agents.
func (g *Game) AgentCount() int {
	return g.agentCount
}

// Eligible returns how many agents flocked during the last tick.
func (g *Game) Eligible() int {
	return g.lastEligible
}

// Paused reports whether Update is suspended.
func (g *Game) Paused() bool {
	return g.paused
}

// SetPaused suspends or resumes Update.
func (g *Game) SetPaused(p bool) {
	g.paused = p
}

// StepsPerUpdate returns the tick count per Update call.
func (g *Game) StepsPerUpdate() int {
	return g.stepsPerUpdate
}

// SetStepsPerUpdate changes the tick count per Update call.
func (g *Game) SetStepsPerUpdate(n int) {
	g.stepsPerUpdate = min(max(n, 1), 10)
}

// PerfStats returns timing statistics over the rolling window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perf.Stats()
}

// RecordFrame records frame timing for the graphical host.
func (g *Game) RecordFrame() {
	g.perf.RecordFrame()
}

// Unload stops workers and closes outputs.
func (g *Game) Unload() {
	g.stopParallelWorkers()
	if err := g.output.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if err := g.store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
}
