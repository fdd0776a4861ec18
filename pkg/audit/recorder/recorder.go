// Package recorder writes audit records asynchronously so validation
// callers never block on storage.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/ganymede/pkg/audit"
)

// Config contains configuration for the audit recorder.
type Config struct {
	// Buffer is the size of the async write channel.
	// Default: 1000
	Buffer int

	// WriteTimeout bounds both the wait for channel space and each
	// storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Buffer:       1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder accepts audit records and writes them to storage from a
// background worker. Records are dropped, with an error and a counter
// increment, rather than ever blocking the caller past WriteTimeout.
type Recorder struct {
	storage  audit.Storage
	config   *Config
	recordCh chan *audit.Record
	wg       sync.WaitGroup
	done     chan struct{}
	dropped  atomic.Int64
	logger   *slog.Logger
}

// NewRecorder creates a recorder over the given storage backend and
// starts its background writer.
func NewRecorder(storage audit.Storage, config *Config, logger *slog.Logger) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:  storage,
		config:   config,
		recordCh: make(chan *audit.Record, config.Buffer),
		done:     make(chan struct{}),
		logger:   logger.With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("audit recorder started",
		"buffer", config.Buffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues an audit record for asynchronous writing and returns
// without waiting for the storage write.
func (r *Recorder) Record(ctx context.Context, record *audit.Record) error {
	select {
	case r.recordCh <- record:
		r.logger.Debug("audit record enqueued",
			"record_id", record.ID,
			"document", record.Document,
			"outcome", record.Outcome,
		)
		return nil
	case <-time.After(r.config.WriteTimeout):
		r.dropped.Add(1)
		r.logger.Error("audit channel full, dropping record",
			"record_id", record.ID,
			"document", record.Document,
			"channel_capacity", r.config.Buffer,
		)
		return audit.NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-ctx.Done():
		r.dropped.Add(1)
		return audit.NewRecorderError(record.ID, ctx.Err())
	case <-r.done:
		r.dropped.Add(1)
		r.logger.Warn("recorder shutting down, dropping record",
			"record_id", record.ID,
		)
		return audit.NewRecorderError(record.ID, context.Canceled)
	}
}

// Dropped returns how many records were dropped instead of enqueued.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close shuts the recorder down after draining the queue and finishing
// pending writes.
func (r *Recorder) Close() error {
	close(r.done)
	r.wg.Wait()

	r.logger.Debug("audit recorder stopped", "dropped", r.dropped.Load())
	return nil
}

// worker drains the record channel and writes records to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordCh:
			r.writeRecord(record)

		case <-r.done:
			// Drain remaining records before exit.
			for {
				select {
				case record := <-r.recordCh:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

// writeRecord writes a single record to storage.
func (r *Recorder) writeRecord(record *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"document", record.Document,
			"error", err,
		)
		return
	}

	elapsed := time.Since(start)

	r.logger.Info("validation run recorded",
		"record_id", record.ID,
		"document", record.Document,
		"outcome", record.Outcome,
		"violations", record.Violations,
	)

	if elapsed > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", elapsed.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
