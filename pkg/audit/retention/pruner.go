// Package retention enforces retention limits on the audit trail, either
// on demand or on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/ganymede/pkg/audit"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// Days is the number of days to retain audit records.
	// 0 means keep records forever.
	Days int

	// PruneSchedule is a cron expression for automatic pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables the
	// scheduler.
	PruneSchedule string

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	MaxRecords int64
}

// DefaultConfig returns the default retention configuration: no age or
// count limit, with the daily schedule ready should limits be set.
func DefaultConfig() *Config {
	return &Config{
		Days:          0,
		PruneSchedule: "0 3 * * *",
		MaxRecords:    0,
	}
}

// Pruner deletes audit records past their retention limits.
type Pruner struct {
	storage   audit.Storage
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a retention pruner over the given storage backend.
func NewPruner(storage audit.Storage, config *Config, logger *slog.Logger) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pruner{
		storage: storage,
		config:  config,
		logger:  logger.With("component", "audit.retention"),
	}
	p.scheduler = NewScheduler(p)

	return p
}

// Prune deletes records older than the retention period or exceeding
// the record limit. Age-based pruning runs first, then count-based
// pruning on what remains. Returns the total number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
		p.logger.Info("pruned audit records by age",
			"deleted", deleted,
			"retention_days", p.config.Days,
		)
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
		p.logger.Info("pruned audit records by count",
			"deleted", deleted,
			"max_records", p.config.MaxRecords,
		)
	}

	if totalDeleted == 0 {
		p.logger.Debug("no audit records pruned",
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	}

	return totalDeleted, nil
}

// pruneByAge deletes records whose run started before the cutoff.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.Days)

	deleted, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, audit.NewRetentionError(p.config.Days, err)
	}

	return deleted, nil
}

// pruneByCount deletes the oldest records when the total exceeds
// MaxRecords. Records sharing the cutoff timestamp are deleted together,
// so the retained count can land slightly under the limit.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &audit.Query{})
	if err != nil {
		return 0, audit.NewRetentionError(p.config.Days, err)
	}

	if count <= p.config.MaxRecords {
		p.logger.Debug("audit record count within limit",
			"current", count,
			"max", p.config.MaxRecords,
		)
		return 0, nil
	}

	overflow := count - p.config.MaxRecords

	oldest, err := p.storage.Query(ctx, &audit.Query{
		SortBy:    "started_time",
		SortOrder: "asc",
		Limit:     int(overflow),
	})
	if err != nil {
		return 0, audit.NewRetentionError(p.config.Days, err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	cutoff := oldest[len(oldest)-1].StartedTime

	deleted, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, audit.NewRetentionError(p.config.Days, err)
	}

	return deleted, nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning, or nil
// when the scheduler is not running.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
