// Package history keeps an append-only sqlite record of volunteer toggle
// events. The session state file is the source of truth for current state;
// history answers "who toggled what, when" after the fact. Recording is
// best-effort from the toggle path and never blocks a toggle.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"studytables/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS toggle_events (
	id         TEXT PRIMARY KEY,
	session_key TEXT NOT NULL,
	course_key  TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	added       INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_toggle_events_session ON toggle_events(session_key, created_at);
`

// writeOperation queues one write for the single-writer loop.
type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// Log is the sqlite-backed toggle history. All writes funnel through a
// single goroutine; sqlite handles concurrent reads but contends badly on
// concurrent writers.
type Log struct {
	db       *sql.DB
	writes   chan writeOperation
	shutdown chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// Open opens (or creates) the history database at path. A nil *Log is a
// valid disabled log: its methods are no-ops.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	l := &Log{
		db:       db,
		writes:   make(chan writeOperation, 100),
		shutdown: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.writeLoop()
	return l, nil
}

// writeLoop processes all writes in one goroutine, retrying once after a
// short delay on failure.
func (l *Log) writeLoop() {
	defer l.wg.Done()

	for {
		select {
		case op := <-l.writes:
			err := op.operation(l.db)
			if err != nil {
				log.Printf("History write failed, retrying: %v", err)
				time.Sleep(time.Second)
				err = op.operation(l.db)
				if err != nil {
					log.Printf("History write failed after retry: %v", err)
				}
			}
			op.result <- err

		case <-l.shutdown:
			return
		}
	}
}

// executeWrite queues a write and waits for completion.
func (l *Log) executeWrite(operation func(*sql.DB) error) error {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return fmt.Errorf("history log is closed")
	}
	l.mu.RUnlock()

	result := make(chan error, 1)
	select {
	case l.writes <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(10 * time.Second):
		return fmt.Errorf("history write timeout")
	case <-l.shutdown:
		return fmt.Errorf("history log is shutting down")
	}
}

// RecordToggle appends one toggle event. Assigns the event an ID and
// timestamp when unset.
func (l *Log) RecordToggle(event *types.ToggleEvent) error {
	if l == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	return l.executeWrite(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO toggle_events (id, session_key, course_key, user_id, added, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			event.ID, event.SessionKey, event.CourseKey, event.UserID, event.Added, event.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert toggle event: %w", err)
		}
		return nil
	})
}

// RecentBySession returns up to limit toggle events for a session, newest
// first.
func (l *Log) RecentBySession(ctx context.Context, sessionKey string, limit int) ([]*types.ToggleEvent, error) {
	if l == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, session_key, course_key, user_id, added, created_at
		 FROM toggle_events
		 WHERE session_key = ?
		 ORDER BY created_at DESC, id
		 LIMIT ?`,
		sessionKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query toggle events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*types.ToggleEvent
	for rows.Next() {
		var event types.ToggleEvent
		if err := rows.Scan(&event.ID, &event.SessionKey, &event.CourseKey, &event.UserID, &event.Added, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan toggle event: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating toggle events: %w", err)
	}
	return events, nil
}

// HealthCheck validates database connectivity.
func (l *Log) HealthCheck(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.db.PingContext(ctx); err != nil {
		return fmt.Errorf("history database ping failed: %w", err)
	}
	return nil
}

// Close drains the write loop and closes the database.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	close(l.shutdown)
	l.wg.Wait()

	if err := l.db.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	return nil
}
