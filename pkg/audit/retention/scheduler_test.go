package retention

import (
	"context"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/audit/storage"
)

func TestSchedulerStartStop(t *testing.T) {
	mem := storage.NewMemory()
	defer mem.Close()

	p := NewPruner(mem, &Config{Days: 7, PruneSchedule: "0 3 * * *"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !p.scheduler.IsRunning() {
		t.Error("scheduler not running after Start")
	}

	next := p.NextPruning()
	if next == nil {
		t.Fatal("NextPruning() = nil while running")
	}
	if !next.After(time.Now()) {
		t.Errorf("NextPruning() = %v, want a future time", next)
	}

	p.Stop()
	if p.scheduler.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
}

func TestSchedulerEmptySchedule(t *testing.T) {
	mem := storage.NewMemory()
	defer mem.Close()

	p := NewPruner(mem, &Config{Days: 7, PruneSchedule: ""}, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if p.scheduler.IsRunning() {
		t.Error("scheduler running with empty schedule")
	}
	if p.NextPruning() != nil {
		t.Error("NextPruning() set with empty schedule")
	}
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	mem := storage.NewMemory()
	defer mem.Close()

	p := NewPruner(mem, &Config{Days: 7, PruneSchedule: "every day at teatime"}, nil)

	if err := p.Start(context.Background()); err == nil {
		p.Stop()
		t.Fatal("Start() accepted an invalid cron expression")
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	mem := storage.NewMemory()
	defer mem.Close()

	p := NewPruner(mem, &Config{Days: 7, PruneSchedule: "0 3 * * *"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	cancel()

	deadline := time.Now().Add(3 * time.Second)
	for p.scheduler.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if p.scheduler.IsRunning() {
		t.Error("scheduler still running after context cancel")
	}
}
