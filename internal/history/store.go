package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	dirPermissions  = 0750
	filePermissions = 0600

	connectionTimeout = 5 * time.Second

	// queueSize bounds the write queue; full-queue records are dropped.
	queueSize = 256

	// defaultRecentLimit caps Recent when the caller passes no limit.
	defaultRecentLimit = 100
	maxRecentLimit     = 1000
)

const schema = `
CREATE TABLE IF NOT EXISTS rule_firings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	rule_id TEXT NOT NULL,
	category TEXT NOT NULL,
	device_id TEXT NOT NULL,
	value REAL NOT NULL,
	action TEXT NOT NULL,
	fired_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rule_firings_fired_at ON rule_firings(fired_at);
`

// Firing is one recorded rule firing.
type Firing struct {
	ID       int64   `json:"id"`
	RuleID   string  `json:"rule_id"`
	Category string  `json:"category"`
	DeviceID string  `json:"device_id"`
	Value    float64 `json:"value"`
	Action   string  `json:"action"`
	FiredAt  int64   `json:"fired_at"`
}

// Store persists rule firings to SQLite through an async writer.
//
// Thread Safety:
//   - Record and Recent are safe for concurrent use.
//   - Close drains the queue before returning.
type Store struct {
	db *sql.DB

	queue chan Firing
	done  chan struct{}

	closed bool
	mu     sync.Mutex
}

// Open creates or opens the history database at path and starts the writer.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	// SQLite supports one writer; readers go through the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify history db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	_ = os.Chmod(path, filePermissions)

	s := &Store{
		db:    db,
		queue: make(chan Firing, queueSize),
		done:  make(chan struct{}),
	}
	go s.writeLoop()

	return s, nil
}

// Record queues one firing for insertion. It never blocks; when the queue is
// full or the store is closed, the record is dropped and false is returned.
func (s *Store) Record(f Firing) bool {
	// The lock covers the closed check and the send, so Close cannot close
	// the queue between them.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	select {
	case s.queue <- f:
		return true
	default:
		return false
	}
}

// writeLoop is the single writer goroutine.
func (s *Store) writeLoop() {
	defer close(s.done)
	for f := range s.queue {
		// Insert errors are dropped; the audit trail is best effort.
		_, _ = s.db.Exec(
			`INSERT INTO rule_firings (rule_id, category, device_id, value, action, fired_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			f.RuleID, f.Category, f.DeviceID, f.Value, f.Action, f.FiredAt,
		)
	}
}

// Recent returns up to limit firings, newest first.
// A non-positive limit selects the default of 100; limits above 1000 are
// clamped.
func (s *Store) Recent(ctx context.Context, limit int) ([]Firing, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rule_id, category, device_id, value, action, fired_at
		 FROM rule_firings ORDER BY fired_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	firings := make([]Firing, 0, limit)
	for rows.Next() {
		var f Firing
		if err := rows.Scan(&f.ID, &f.RuleID, &f.Category, &f.DeviceID, &f.Value, &f.Action, &f.FiredAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		firings = append(firings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history rows: %w", err)
	}
	return firings, nil
}

// Close stops accepting records, drains the queue, and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done

	return s.db.Close()
}
