package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkAvoidanceSpike BookmarkType = "avoidance_spike"
	BookmarkCrowding       BookmarkType = "crowding"
	BookmarkFragmentation  BookmarkType = "fragmentation"
	BookmarkEligibleDrop   BookmarkType = "eligible_drop"
	BookmarkSteadyFlock    BookmarkType = "steady_flock"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `db:"type"`
	Tick        int32        `db:"tick"`
	Description string       `db:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector flags windows where the flock behaves unusually
// compared with its recent history.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentEligiblePeak float64
	steadyWindows      int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady flock detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	for _, check := range []func(WindowStats) *Bookmark{
		bd.checkAvoidanceSpike,
		bd.checkCrowding,
		bd.checkFragmentation,
		bd.checkEligibleDrop,
		bd.checkSteadyFlock,
	} {
		if b := check(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	if stats.EligibleMean > bd.recentEligiblePeak {
		bd.recentEligiblePeak = stats.EligibleMean
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the recorded windows oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	out := make([]WindowStats, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}

// historyMean averages field over the recorded windows.
func (bd *BookmarkDetector) historyMean(field func(WindowStats) float64) (float64, int) {
	history := bd.getHistory()
	if len(history) == 0 {
		return 0, 0
	}
	var sum float64
	for _, h := range history {
		sum += field(h)
	}
	return sum / float64(len(history)), len(history)
}

func (bd *BookmarkDetector) checkAvoidanceSpike(stats WindowStats) *Bookmark {
	avg, n := bd.historyMean(func(s WindowStats) float64 { return s.AvoidanceRate })
	if n < 3 || avg == 0 {
		return nil
	}
	if stats.AvoidanceRate > avg*2 && stats.AvoidanceRate >= 0.05 {
		return &Bookmark{
			Type:        BookmarkAvoidanceSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Avoidance rate %.3f is %.1fx average (%.3f)", stats.AvoidanceRate, stats.AvoidanceRate/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkCrowding(stats WindowStats) *Bookmark {
	avg, n := bd.historyMean(func(s WindowStats) float64 { return float64(s.MaxBucket) })
	if n < 3 || avg == 0 {
		return nil
	}
	if float64(stats.MaxBucket) > avg*3 && stats.MaxBucket >= 16 {
		return &Bookmark{
			Type:        BookmarkCrowding,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Largest cell holds %d agents, %.1fx average (%.1f)", stats.MaxBucket, float64(stats.MaxBucket)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkFragmentation(stats WindowStats) *Bookmark {
	avg, n := bd.historyMean(func(s WindowStats) float64 { return s.IsolatedFraction })
	if n < 3 {
		return nil
	}
	if stats.IsolatedFraction >= 0.2 && stats.IsolatedFraction > avg*2 {
		return &Bookmark{
			Type:        BookmarkFragmentation,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%.0f%% of evaluations isolated (average %.0f%%)", stats.IsolatedFraction*100, avg*100),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkEligibleDrop(stats WindowStats) *Bookmark {
	if bd.recentEligiblePeak == 0 {
		return nil
	}

	drop := 1 - stats.EligibleMean/bd.recentEligiblePeak
	if drop > 0.30 && stats.EligibleMean < bd.recentEligiblePeak-10 {
		oldPeak := bd.recentEligiblePeak
		bd.recentEligiblePeak = stats.EligibleMean

		return &Bookmark{
			Type:        BookmarkEligibleDrop,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Flocking agents dropped %.0f%% from %.0f to %.0f", drop*100, oldPeak, stats.EligibleMean),
		}
	}
	return nil
}

// checkSteadyFlock fires once when the cohesion neighbor mean has held
// within 20% CV for five consecutive windows.
func (bd *BookmarkDetector) checkSteadyFlock(stats WindowStats) *Bookmark {
	if stats.EligibleMean < 10 {
		bd.steadyWindows = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := make([]float64, 0, 5)
	for _, h := range history[len(history)-4:] {
		recent = append(recent, h.CohesionMean)
	}
	recent = append(recent, stats.CohesionMean)

	mean, std := MeanStd(recent)
	if mean > 0 && std/mean < 0.2 {
		bd.steadyWindows++
	} else {
		bd.steadyWindows = 0
	}

	if bd.steadyWindows == 5 {
		return &Bookmark{
			Type:        BookmarkSteadyFlock,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Cohesion steady at %.1f neighbors over 5+ windows", mean),
		}
	}
	return nil
}
