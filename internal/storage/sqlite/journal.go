package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/yegors/ground-atc/pkg/logger"
	_ "modernc.org/sqlite"
)

// JournalStorage is a SQLite-based store for the command and clearance history
type JournalStorage struct {
	db           *sql.DB
	logger       *logger.Logger
	maxRowsInAPI int
}

// NewJournalStorage opens (or creates) the journal database at dbPath
func NewJournalStorage(dbPath string, maxRowsInAPI int, log *logger.Logger) (*JournalStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite journal",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=10000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &JournalStorage{
		db:           db,
		logger:       storageLogger,
		maxRowsInAPI: maxRowsInAPI,
	}, nil
}

// Close closes the database connection
func (s *JournalStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	statements := []struct {
		name string
		sql  string
	}{
		{"commands table", `
			CREATE TABLE IF NOT EXISTS commands (
				id TEXT PRIMARY KEY,
				line TEXT NOT NULL,
				aircraft TEXT,
				command TEXT,
				accepted INTEGER NOT NULL,
				category TEXT,
				message TEXT,
				sim_time REAL NOT NULL,
				created_at TEXT NOT NULL
			)`},
		{"clearances table", `
			CREATE TABLE IF NOT EXISTS clearances (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				command_id TEXT NOT NULL,
				aircraft TEXT NOT NULL,
				text TEXT NOT NULL,
				from_state TEXT,
				to_state TEXT,
				runway TEXT,
				gate TEXT,
				sim_time REAL NOT NULL,
				created_at TEXT NOT NULL
			)`},
		{"commands created_at index", `CREATE INDEX IF NOT EXISTS idx_commands_created_at ON commands(created_at)`},
		{"commands aircraft index", `CREATE INDEX IF NOT EXISTS idx_commands_aircraft ON commands(aircraft)`},
		{"clearances aircraft index", `CREATE INDEX IF NOT EXISTS idx_clearances_aircraft ON clearances(aircraft)`},
	}

	for _, st := range statements {
		if _, err := db.Exec(st.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", st.name, err)
		}
	}
	return nil
}

// limit caps a caller-supplied row count to the configured API maximum.
// -1 is SQLite's "no limit".
func (s *JournalStorage) limit(n int) int {
	if s.maxRowsInAPI <= 0 {
		if n <= 0 {
			return -1
		}
		return n
	}
	if n <= 0 || n > s.maxRowsInAPI {
		return s.maxRowsInAPI
	}
	return n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
