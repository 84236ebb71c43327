package recorder

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit log to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *slog.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			deal_key    TEXT NOT NULL,
			kind        TEXT,
			destination TEXT,
			status      TEXT,
			cpp_value   REAL,
			total_value REAL,
			total_cash  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_ts ON evaluations(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_key ON evaluations(deal_key)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			deal_key  TEXT NOT NULL,
			status    TEXT,
			outcome   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,

		`CREATE TABLE IF NOT EXISTS expiries (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			expired         INTEGER,
			older_than_days INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expiries_ts ON expiries(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordEvaluation(evt *EvaluationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cpp sql.NullFloat64
	if evt.CPP != nil {
		cpp = sql.NullFloat64{Float64: *evt.CPP, Valid: true}
	}
	_, err := r.db.Exec(`INSERT INTO evaluations
		(id, timestamp, deal_key, kind, destination, status, cpp_value, total_value, total_cash)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), r.now().Unix(), evt.Key, evt.Kind, evt.Destination,
		string(evt.Status), cpp, evt.TotalValue, evt.TotalCash,
	)
	return err
}

func (r *SQLiteRecorder) RecordAlert(evt *AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO alerts (id, timestamp, deal_key, status, outcome)
		VALUES (?,?,?,?,?)`,
		uuid.NewString(), r.now().Unix(), evt.Key, string(evt.Status), evt.Outcome,
	)
	return err
}

func (r *SQLiteRecorder) RecordExpiry(evt *ExpiryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO expiries (id, timestamp, expired, older_than_days)
		VALUES (?,?,?,?)`,
		uuid.NewString(), r.now().Unix(), evt.Expired, evt.OlderThanDays,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
