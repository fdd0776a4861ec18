package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/audit/storage"
)

// gatedStorage blocks Store calls until the gate opens, to hold the
// worker mid-write.
type gatedStorage struct {
	*storage.Memory
	started chan struct{}
	gate    chan struct{}
}

func newGatedStorage() *gatedStorage {
	return &gatedStorage{
		Memory:  storage.NewMemory(),
		started: make(chan struct{}, 16),
		gate:    make(chan struct{}),
	}
}

func (g *gatedStorage) Store(ctx context.Context, record *audit.Record) error {
	g.started <- struct{}{}
	<-g.gate
	return g.Memory.Store(ctx, record)
}

func testRun(id string) *audit.Record {
	return &audit.Record{
		ID:           id,
		StartedTime:  time.Now(),
		RecordedTime: time.Now(),
		ModuleSetID:  "set-1",
		Document:     "host.json",
		Outcome:      audit.OutcomeValid,
	}
}

func TestRecorderWritesAsync(t *testing.T) {
	mem := storage.NewMemory()
	r := NewRecorder(mem, &Config{Buffer: 10, WriteTimeout: time.Second}, nil)

	rec := testRun("run-1")
	if err := r.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	// The write happens on the worker goroutine.
	deadline := time.Now().Add(3 * time.Second)
	for mem.Size() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if mem.Size() != 1 {
		t.Fatalf("record was not written, size = %d", mem.Size())
	}
	if mem.GetByID("run-1") == nil {
		t.Error("stored record not found by ID")
	}
	if r.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", r.Dropped())
	}

	if err := r.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}

func TestRecorderDrainsOnClose(t *testing.T) {
	mem := storage.NewMemory()
	r := NewRecorder(mem, &Config{Buffer: 10, WriteTimeout: time.Second}, nil)

	for i := 0; i < 5; i++ {
		rec := testRun("run-" + string(rune('a'+i)))
		if err := r.Record(context.Background(), rec); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if mem.Size() != 5 {
		t.Errorf("size after Close = %d, want 5", mem.Size())
	}
}

func TestRecorderDropsWhenFull(t *testing.T) {
	gs := newGatedStorage()
	r := NewRecorder(gs, &Config{Buffer: 1, WriteTimeout: 50 * time.Millisecond}, nil)

	ctx := context.Background()

	// First record occupies the worker inside Store.
	if err := r.Record(ctx, testRun("run-1")); err != nil {
		t.Fatalf("Record(run-1) failed: %v", err)
	}
	select {
	case <-gs.started:
	case <-time.After(3 * time.Second):
		t.Fatal("worker never reached Store")
	}

	// Second record fills the buffer.
	if err := r.Record(ctx, testRun("run-2")); err != nil {
		t.Fatalf("Record(run-2) failed: %v", err)
	}

	// Third record finds the channel full and is dropped.
	err := r.Record(ctx, testRun("run-3"))
	var rerr *audit.RecorderError
	if !errors.As(err, &rerr) {
		t.Fatalf("Record(run-3) = %v, want *RecorderError", err)
	}
	if rerr.RecordID != "run-3" {
		t.Errorf("RecordID = %q, want run-3", rerr.RecordID)
	}
	if r.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", r.Dropped())
	}

	close(gs.gate)
	if err := r.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if gs.Size() != 2 {
		t.Errorf("size after Close = %d, want 2", gs.Size())
	}
}

func TestRecorderRejectsAfterClose(t *testing.T) {
	mem := storage.NewMemory()
	r := NewRecorder(mem, &Config{Buffer: 0, WriteTimeout: time.Second}, nil)

	if err := r.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	err := r.Record(context.Background(), testRun("run-late"))
	var rerr *audit.RecorderError
	if !errors.As(err, &rerr) {
		t.Fatalf("Record() after Close = %v, want *RecorderError", err)
	}
	if r.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", r.Dropped())
	}
}

func TestRecorderCancelledContext(t *testing.T) {
	gs := newGatedStorage()
	r := NewRecorder(gs, &Config{Buffer: 0, WriteTimeout: time.Minute}, nil)

	ctx := context.Background()

	// Occupy the worker so the unbuffered channel has no receiver.
	if err := r.Record(ctx, testRun("run-1")); err != nil {
		t.Fatalf("Record(run-1) failed: %v", err)
	}
	select {
	case <-gs.started:
	case <-time.After(3 * time.Second):
		t.Fatal("worker never reached Store")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	err := r.Record(cancelled, testRun("run-2"))
	var rerr *audit.RecorderError
	if !errors.As(err, &rerr) {
		t.Fatalf("Record() = %v, want *RecorderError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cause = %v, want context.Canceled", err)
	}

	close(gs.gate)
	if err := r.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if gs.Size() != 1 {
		t.Errorf("size after Close = %d, want 1", gs.Size())
	}
}
