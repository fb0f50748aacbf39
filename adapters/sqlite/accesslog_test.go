package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/formgate/formgate/adapters/sqlite"
	"github.com/formgate/formgate/ports"
)

func newStore(t *testing.T, cfg sqlite.AccessLogConfig) *sqlite.AccessLogStore {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := sqlite.NewAccessLogStore(db, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func entry(path string, code int) ports.AccessEntry {
	return ports.AccessEntry{
		Timestamp: time.Now(),
		Method:    "GET",
		Path:      path,
		Status:    code,
		Code:      code,
		LatencyMs: 3,
		RemoteIP:  "127.0.0.1",
		UserAgent: "test",
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := newStore(t, sqlite.AccessLogConfig{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := entry(fmt.Sprintf("/p%d", i), 200)
		e.Timestamp = time.Now().Add(time.Duration(i) * time.Second)
		if err := store.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// Newest first.
	if got[0].Path != "/p2" || got[2].Path != "/p0" {
		t.Errorf("order = %s, %s, %s", got[0].Path, got[1].Path, got[2].Path)
	}
	if got[0].ID == "" {
		t.Error("missing ID was not assigned")
	}
	if got[0].Status != 200 || got[0].RemoteIP != "127.0.0.1" {
		t.Errorf("entry = %+v", got[0])
	}

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRecentLimit(t *testing.T) {
	store := newStore(t, sqlite.AccessLogConfig{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Record(ctx, entry(fmt.Sprintf("/p%d", i), 200))
	}
	store.Flush(ctx)

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}

	store.Close()
}

func TestBackgroundFlusher(t *testing.T) {
	store := newStore(t, sqlite.AccessLogConfig{FlushInterval: 20 * time.Millisecond})
	ctx := context.Background()

	store.Record(ctx, entry("/bg", 200))

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		got, err := store.Recent(ctx, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 1 {
			store.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("entry never flushed by background flusher")
}

func TestCloseFlushesPending(t *testing.T) {
	store := newStore(t, sqlite.AccessLogConfig{FlushInterval: time.Hour})
	ctx := context.Background()

	store.Record(ctx, entry("/pending", 500))
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Path != "/pending" {
		t.Errorf("entries after Close = %+v", got)
	}
}

func TestRecordDropsWhenBufferFull(t *testing.T) {
	store := newStore(t, sqlite.AccessLogConfig{BufferSize: 1, FlushInterval: time.Hour, BatchSize: 1000})
	ctx := context.Background()

	// Second record finds the buffer full and must not block.
	done := make(chan struct{})
	go func() {
		store.Record(ctx, entry("/a", 200))
		store.Record(ctx, entry("/b", 200))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on full buffer")
	}

	store.Close()
}
