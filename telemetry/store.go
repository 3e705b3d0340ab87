package telemetry

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store records runs and their window stats in SQLite.
// A nil *Store is valid and discards everything.
type Store struct {
	conn  *sqlx.DB
	runID int64
}

// OpenStore opens or creates the database at path.
// Returns nil if path is empty (store disabled).
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, nil
	}

	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		config TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS windows (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		window_start INTEGER NOT NULL,
		window_end INTEGER NOT NULL,
		sim_time REAL NOT NULL,
		agents INTEGER NOT NULL,
		eligible_mean REAL NOT NULL,
		spawned INTEGER NOT NULL,
		despawned INTEGER NOT NULL,
		skipped_no_transform INTEGER NOT NULL,
		occupied_cells INTEGER NOT NULL,
		max_bucket INTEGER NOT NULL,
		separation_mean REAL NOT NULL,
		separation_std REAL NOT NULL,
		alignment_mean REAL NOT NULL,
		alignment_std REAL NOT NULL,
		cohesion_mean REAL NOT NULL,
		cohesion_std REAL NOT NULL,
		cohesion_p90 REAL NOT NULL,
		evaluations INTEGER NOT NULL,
		avoidance_triggers INTEGER NOT NULL,
		avoidance_rate REAL NOT NULL,
		isolated_fraction REAL NOT NULL,
		PRIMARY KEY (run_id, window_end)
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// BeginRun registers a new run and makes it the target of InsertWindow.
func (s *Store) BeginRun(seed int64, agents int, configYAML []byte) (int64, error) {
	if s == nil {
		return 0, nil
	}

	res, err := s.conn.Exec(
		`INSERT INTO runs (started_at, seed, agents, config) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), seed, agents, string(configYAML),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	s.runID = id
	return id, nil
}

// windowRow is a WindowStats row tagged with its run.
type windowRow struct {
	RunID int64 `db:"run_id"`
	WindowStats
}

// InsertWindow stores one window of the current run.
func (s *Store) InsertWindow(stats WindowStats) error {
	if s == nil {
		return nil
	}
	if s.runID == 0 {
		return fmt.Errorf("insert window: no run started")
	}

	_, err := s.conn.NamedExec(`
		INSERT INTO windows (
			run_id, window_start, window_end, sim_time, agents, eligible_mean,
			spawned, despawned, skipped_no_transform, occupied_cells, max_bucket,
			separation_mean, separation_std, alignment_mean, alignment_std,
			cohesion_mean, cohesion_std, cohesion_p90,
			evaluations, avoidance_triggers, avoidance_rate, isolated_fraction
		) VALUES (
			:run_id, :window_start, :window_end, :sim_time, :agents, :eligible_mean,
			:spawned, :despawned, :skipped_no_transform, :occupied_cells, :max_bucket,
			:separation_mean, :separation_std, :alignment_mean, :alignment_std,
			:cohesion_mean, :cohesion_std, :cohesion_p90,
			:evaluations, :avoidance_triggers, :avoidance_rate, :isolated_fraction
		)`, windowRow{RunID: s.runID, WindowStats: stats})
	if err != nil {
		return fmt.Errorf("insert window: %w", err)
	}
	return nil
}

// Windows returns the stored windows of a run in tick order.
func (s *Store) Windows(runID int64) ([]WindowStats, error) {
	if s == nil {
		return nil, nil
	}

	var out []WindowStats
	err := s.conn.Select(&out, `
		SELECT window_start, window_end, sim_time, agents, eligible_mean,
			spawned, despawned, skipped_no_transform, occupied_cells, max_bucket,
			separation_mean, separation_std, alignment_mean, alignment_std,
			cohesion_mean, cohesion_std, cohesion_p90,
			evaluations, avoidance_triggers, avoidance_rate, isolated_fraction
		FROM windows WHERE run_id = ? ORDER BY window_end`, runID)
	if err != nil {
		return nil, fmt.Errorf("select windows: %w", err)
	}
	return out, nil
}

// InsertBookmark stores one bookmark of the current run.
func (s *Store) InsertBookmark(b Bookmark) error {
	if s == nil {
		return nil
	}
	if s.runID == 0 {
		return fmt.Errorf("insert bookmark: no run started")
	}

	_, err := s.conn.Exec(
		`INSERT INTO bookmarks (run_id, tick, type, description) VALUES (?, ?, ?, ?)`,
		s.runID, b.Tick, string(b.Type), b.Description,
	)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

// Bookmarks returns the stored bookmarks of a run in tick order.
func (s *Store) Bookmarks(runID int64) ([]Bookmark, error) {
	if s == nil {
		return nil, nil
	}

	var out []Bookmark
	err := s.conn.Select(&out, `
		SELECT tick, type, description
		FROM bookmarks WHERE run_id = ? ORDER BY tick, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("select bookmarks: %w", err)
	}
	return out, nil
}

// RunID returns the current run, or 0 before BeginRun.
func (s *Store) RunID() int64 {
	if s == nil {
		return 0
	}
	return s.runID
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.conn.Close()
}
