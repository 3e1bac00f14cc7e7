package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

var _ DB = (*SQLiteDB)(nil)

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		// Pragmas in the DSN apply to every pooled connection.
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Ping checks the connection is alive
func (s *SQLiteDB) Ping() error {
	return s.db.Ping()
}

// Migrate runs database migrations. It is safe to run repeatedly.
func (s *SQLiteDB) Migrate() error {
	baseMigrations := []string{
		`CREATE TABLE IF NOT EXISTS battles (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			ghost_id TEXT NOT NULL DEFAULT '',
			winner TEXT NOT NULL,
			player_hp REAL NOT NULL,
			ghost_hp REAL NOT NULL,
			rounds INTEGER NOT NULL,
			request_json TEXT NOT NULL,
			result_json TEXT NOT NULL,
			digest TEXT NOT NULL,
			signature TEXT NOT NULL DEFAULT '',
			engine_version TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id TEXT PRIMARY KEY,
			ghost_id TEXT NOT NULL DEFAULT '',
			metric TEXT NOT NULL,
			seed_start INTEGER NOT NULL,
			seed_end INTEGER NOT NULL,
			target_op TEXT NOT NULL,
			target_val REAL NOT NULL,
			target_val2 REAL NOT NULL DEFAULT 0,
			tolerance REAL NOT NULL DEFAULT 0,
			hit_limit INTEGER NOT NULL DEFAULT 0,
			timed_out INTEGER NOT NULL DEFAULT 0,
			hit_count INTEGER NOT NULL DEFAULT 0,
			total_evaluated INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			draws INTEGER NOT NULL DEFAULT 0,
			summary_min REAL,
			summary_max REAL,
			summary_mean REAL,
			request_json TEXT NOT NULL DEFAULT '{}',
			engine_version TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scan_hits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			metric REAL NOT NULL,
			winner TEXT NOT NULL,
			rounds INTEGER NOT NULL,
			FOREIGN KEY (run_id) REFERENCES scan_runs(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS campaigns (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			script_source TEXT NOT NULL DEFAULT '',
			final_state TEXT NOT NULL DEFAULT 'running',
			total_battles INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			draws INTEGER NOT NULL DEFAULT 0,
			best_streak INTEGER NOT NULL DEFAULT 0,
			worst_streak INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS campaign_battles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			campaign_id TEXT NOT NULL,
			number INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			ghost_id TEXT NOT NULL,
			winner TEXT NOT NULL,
			player_hp REAL NOT NULL,
			ghost_hp REAL NOT NULL,
			rounds INTEGER NOT NULL,
			FOREIGN KEY (campaign_id) REFERENCES campaigns(id) ON DELETE CASCADE
		)`,
	}

	for _, migration := range baseMigrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("base migration failed: %w", err)
		}
	}

	// Columns added after the first schema; re-running them is harmless.
	alterMigrations := []string{
		`ALTER TABLE battles ADD COLUMN event_id TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE campaign_battles ADD COLUMN event_id TEXT NOT NULL DEFAULT ''`,
	}

	for _, migration := range alterMigrations {
		if _, err := s.db.Exec(migration); err != nil {
			if !isDuplicateColumnError(err) {
				return fmt.Errorf("alter migration failed: %w", err)
			}
		}
	}

	indexMigrations := []string{
		`CREATE INDEX IF NOT EXISTS idx_battles_created_at ON battles(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_battles_ghost ON battles(ghost_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_battles_winner ON battles(winner)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_hits_run_seed ON scan_hits(run_id, seed)`,
		`CREATE INDEX IF NOT EXISTS idx_campaign_battles_campaign ON campaign_battles(campaign_id, number)`,
	}

	for _, migration := range indexMigrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("index migration failed: %w", err)
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	return strings.Contains(err.Error(), "duplicate column name")
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

func normalizePage(page, perPage, defaultPerPage int) (int, int) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > 500 {
		perPage = 500
	}
	if page <= 0 {
		page = 1
	}
	return page, perPage
}
