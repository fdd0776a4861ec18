package retention

import (
	"context"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/audit/storage"
)

func storeRun(t *testing.T, s audit.Storage, id string, started time.Time) {
	t.Helper()
	err := s.Store(context.Background(), &audit.Record{
		ID:           id,
		StartedTime:  started,
		RecordedTime: started,
		ModuleSetID:  "set-1",
		Document:     id + ".json",
		Outcome:      audit.OutcomeValid,
	})
	if err != nil {
		t.Fatalf("Store(%s) failed: %v", id, err)
	}
}

func TestPruneByAge(t *testing.T) {
	mem := storage.NewMemory()
	defer mem.Close()

	now := time.Now()
	storeRun(t, mem, "ancient", now.AddDate(0, 0, -10))
	storeRun(t, mem, "old", now.AddDate(0, 0, -5))
	storeRun(t, mem, "fresh", now.Add(-time.Hour))

	p := NewPruner(mem, &Config{Days: 3}, nil)

	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() = %d, want 2", deleted)
	}
	if mem.GetByID("fresh") == nil {
		t.Error("fresh record was pruned")
	}
	if mem.GetByID("ancient") != nil || mem.GetByID("old") != nil {
		t.Error("expired records survived")
	}
}

func TestPruneByCount(t *testing.T) {
	mem := storage.NewMemory()
	defer mem.Close()

	base := time.Now().Add(-time.Hour)
	ids := []string{"r1", "r2", "r3", "r4", "r5"}
	for i, id := range ids {
		storeRun(t, mem, id, base.Add(time.Duration(i)*time.Minute))
	}

	p := NewPruner(mem, &Config{MaxRecords: 2}, nil)

	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Prune() = %d, want 3", deleted)
	}
	if mem.Size() != 2 {
		t.Errorf("Size() = %d, want 2", mem.Size())
	}
	// The newest two survive.
	if mem.GetByID("r4") == nil || mem.GetByID("r5") == nil {
		t.Error("newest records were pruned")
	}
}

func TestPruneBothPhases(t *testing.T) {
	mem := storage.NewMemory()
	defer mem.Close()

	now := time.Now()
	storeRun(t, mem, "expired", now.AddDate(0, 0, -5))
	storeRun(t, mem, "middle", now.AddDate(0, 0, -2))
	storeRun(t, mem, "fresh", now.Add(-time.Hour))

	p := NewPruner(mem, &Config{Days: 3, MaxRecords: 1}, nil)

	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() = %d, want 2", deleted)
	}
	if mem.Size() != 1 {
		t.Errorf("Size() = %d, want 1", mem.Size())
	}
	if mem.GetByID("fresh") == nil {
		t.Error("fresh record was pruned")
	}
}

func TestPruneNoLimits(t *testing.T) {
	mem := storage.NewMemory()
	defer mem.Close()

	storeRun(t, mem, "r1", time.Now().AddDate(-1, 0, 0))

	p := NewPruner(mem, &Config{}, nil)

	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Prune() = %d, want 0", deleted)
	}
	if mem.Size() != 1 {
		t.Errorf("Size() = %d, want 1", mem.Size())
	}
}
