// Package sqlite provides SQLite-backed persistence adapters.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/formgate/formgate/adapters/clock"
	"github.com/formgate/formgate/adapters/idgen"
	"github.com/formgate/formgate/ports"
)

// AccessLogStore implements ports.AccessLog with a SQLite backend.
// Entries are buffered and written in batches off the request path.
type AccessLogStore struct {
	db     *sql.DB
	buffer chan ports.AccessEntry
	done   chan struct{}
	wg     sync.WaitGroup

	clock ports.Clock
	ids   ports.IDGenerator

	batchSize     int
	flushInterval time.Duration
}

// AccessLogConfig configures the access log store.
type AccessLogConfig struct {
	// BatchSize is the number of entries to batch before writing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the size of the in-memory entry buffer.
	BufferSize int

	// Clock stamps entries recorded without a timestamp. Nil means the
	// real clock.
	Clock ports.Clock

	// IDs assigns IDs to entries recorded without one. Nil means UUIDs.
	IDs ports.IDGenerator
}

// Open opens (or creates) the database at dsn.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewAccessLogStore creates a new SQLite-backed access log.
func NewAccessLogStore(db *sql.DB, cfg AccessLogConfig) (*AccessLogStore, error) {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 10000
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.IDs == nil {
		cfg.IDs = idgen.UUID{}
	}

	s := &AccessLogStore{
		db:            db,
		buffer:        make(chan ports.AccessEntry, cfg.BufferSize),
		done:          make(chan struct{}),
		clock:         cfg.Clock,
		ids:           cfg.IDs,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
	}

	if err := s.createTable(); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.flusher()

	return s, nil
}

func (s *AccessLogStore) createTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS access_log (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			status INTEGER NOT NULL,
			code INTEGER NOT NULL,
			latency_ms INTEGER NOT NULL,
			remote_ip TEXT,
			user_agent TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_access_log_timestamp ON access_log(timestamp);
		CREATE INDEX IF NOT EXISTS idx_access_log_path ON access_log(path);
	`)
	return err
}

// Record enqueues an entry (non-blocking). When the buffer is full the
// entry is dropped; access logging is best-effort.
func (s *AccessLogStore) Record(_ context.Context, e ports.AccessEntry) error {
	select {
	case s.buffer <- e:
	default:
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (s *AccessLogStore) Recent(ctx context.Context, limit int) ([]ports.AccessEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, method, path, status, code, latency_ms, remote_ip, user_agent
		FROM access_log ORDER BY timestamp DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query access log: %w", err)
	}
	defer rows.Close()

	var out []ports.AccessEntry
	for rows.Next() {
		var e ports.AccessEntry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Method, &e.Path, &e.Status, &e.Code, &e.LatencyMs, &e.RemoteIP, &e.UserAgent); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Flush forces pending entries to be written.
func (s *AccessLogStore) Flush(ctx context.Context) error {
	entries := s.drain()
	if len(entries) == 0 {
		return nil
	}
	return s.write(ctx, entries)
}

// Close flushes remaining entries and stops the background flusher.
func (s *AccessLogStore) Close() error {
	close(s.done)
	s.wg.Wait()
	return nil
}

func (s *AccessLogStore) drain() []ports.AccessEntry {
	var entries []ports.AccessEntry
	for {
		select {
		case e := <-s.buffer:
			entries = append(entries, e)
		default:
			return entries
		}
	}
}

// flusher periodically flushes entries to storage.
func (s *AccessLogStore) flusher() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	var batch []ports.AccessEntry

	for {
		select {
		case <-s.done:
			if len(batch) > 0 {
				s.write(context.Background(), batch)
			}
			if remaining := s.drain(); len(remaining) > 0 {
				s.write(context.Background(), remaining)
			}
			return

		case e := <-s.buffer:
			batch = append(batch, e)
			if len(batch) >= s.batchSize {
				s.write(context.Background(), batch)
				batch = nil
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.write(context.Background(), batch)
				batch = nil
			}
		}
	}
}

func (s *AccessLogStore) write(ctx context.Context, entries []ports.AccessEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO access_log (
			id, timestamp, method, path, status, code, latency_ms, remote_ip, user_agent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ID == "" {
			e.ID = s.ids.New()
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = s.clock.Now()
		}

		if _, err := stmt.ExecContext(ctx,
			e.ID, e.Timestamp.Format(time.RFC3339Nano),
			e.Method, e.Path, e.Status, e.Code, e.LatencyMs, e.RemoteIP, e.UserAgent,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
