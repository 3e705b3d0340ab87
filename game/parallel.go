package game

import (
	"sync"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/systems"
)

// agentSnapshot captures read-only state for parallel processing.
type agentSnapshot struct {
	Entity   ecs.Entity
	Position r3.Vec
	Facing   r3.Vec
	Heading  r3.Vec // Steering.CurrentHeading
	Agent    components.FlockAgent
}

func (s *agentSnapshot) record() systems.AgentRecord {
	return systems.AgentRecord{Entity: s.Entity, Position: s.Position, Facing: s.Facing}
}

func (s *agentSnapshot) query() systems.FlockQuery {
	return systems.FlockQuery{Entity: s.Entity, Position: s.Position, Heading: s.Heading, Agent: s.Agent}
}

// stepPhase selects the work a chunk performs.
type stepPhase uint8

const (
	phaseInsert   stepPhase = iota // stage grid records
	phaseEvaluate                  // query the committed grid
)

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	phase      stepPhase
	start, end int
}

// parallelState holds resources for the parallel grid build and evaluation.
type parallelState struct {
	snapshots  []agentSnapshot
	intents    []systems.FlockResult // indexed like snapshots
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(numWorkers, threshold int) *parallelState {
	return &parallelState{
		numWorkers: max(numWorkers, 1),
		threshold:  threshold,
		snapshots:  make([]agentSnapshot, 0, 512),
		intents:    make([]systems.FlockResult, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
// The worker ID doubles as the grid staging buffer it appends to.
func (p *parallelState) worker(g *Game, workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.runChunk(workerID, chunk)
			p.doneChan <- struct{}{}
		}
	}
}

// runPhase processes every snapshot for the phase and returns once all of
// them are done. Small populations run inline on the caller as worker 0.
func (g *Game) runPhase(phase stepPhase) {
	n := len(g.parallel.snapshots)
	if n == 0 {
		return
	}

	if n < g.parallel.threshold || g.parallel.numWorkers == 1 {
		g.runChunk(0, workChunk{phase: phase, start: 0, end: n})
		return
	}

	if !g.parallel.running {
		g.parallel.startWorkers(g)
	}

	numWorkers := g.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		g.parallel.workChan <- workChunk{phase: phase, start: start, end: end}
		chunksDispatched++
	}

	// Join: the phase is complete only when every chunk has reported back
	for i := 0; i < chunksDispatched; i++ {
		<-g.parallel.doneChan
	}
}

// runChunk processes a range of snapshots for a single worker.
func (g *Game) runChunk(workerID int, c workChunk) {
	snaps := g.parallel.snapshots

	switch c.phase {
	case phaseInsert:
		for i := c.start; i < c.end; i++ {
			g.grid.Insert(workerID, snaps[i].record())
		}
	case phaseEvaluate:
		settings := g.settings
		for i := c.start; i < c.end; i++ {
			g.parallel.intents[i] = systems.EvaluateFlocking(g.grid, snaps[i].query(), settings)
		}
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
