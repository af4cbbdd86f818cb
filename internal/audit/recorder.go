// AngelaMos | 2026
// recorder.go

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/northstarhq/northstar/internal/config"
)

// Store is the slice of Repository the Recorder needs.
type Store interface {
	InsertBatch(ctx context.Context, logs []Log) error
}

// Recorder writes audit entries asynchronously. Record never blocks and
// never fails the caller: a full buffer drops the entry with a warning, a
// failed insert is logged and counted, neither is retried synchronously.
// Losing an entry is acceptable; blocking or failing the primary action is
// not.
type Recorder struct {
	store  Store
	logger *slog.Logger

	entries chan Log
	quit    chan struct{}
	wg      sync.WaitGroup
	closed  atomic.Bool

	workers       int
	batchSize     int
	flushInterval time.Duration
	writeTimeout  time.Duration

	enqueued atomic.Int64
	written  atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

type Stats struct {
	Enqueued   int64 `json:"enqueued"`
	Written    int64 `json:"written"`
	Dropped    int64 `json:"dropped"`
	Failed     int64 `json:"failed"`
	QueueDepth int   `json:"queue_depth"`
}

func NewRecorder(
	store Store,
	cfg config.AuditConfig,
	logger *slog.Logger,
) *Recorder {
	return &Recorder{
		store:         store,
		logger:        logger,
		entries:       make(chan Log, cfg.BufferSize),
		quit:          make(chan struct{}),
		workers:       cfg.Workers,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		writeTimeout:  5 * time.Second,
	}
}

func (r *Recorder) Start() {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
}

// Record enqueues an entry without blocking. Entries missing their actor,
// action or entity type indicate a programming error and are counted as
// failures rather than surfaced.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if e.ActorUserID == "" || e.Action == "" || e.EntityType == "" {
		r.failed.Add(1)
		r.logger.ErrorContext(ctx, "discarding incomplete audit entry",
			"action", e.Action,
			"entity_type", e.EntityType,
		)
		return
	}

	if r.closed.Load() {
		r.dropped.Add(1)
		return
	}

	var details json.RawMessage
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			r.logger.WarnContext(ctx, "audit details not serializable, recording without",
				"action", e.Action,
				"entity_type", e.EntityType,
				"error", err,
			)
		} else {
			details = raw
		}
	}

	entry := Log{
		ID:          uuid.New().String(),
		TenantID:    e.TenantID,
		ActorUserID: e.ActorUserID,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Details:     details,
		RecordedAt:  time.Now().UTC(),
	}

	select {
	case r.entries <- entry:
		r.enqueued.Add(1)
	default:
		r.dropped.Add(1)
		r.logger.WarnContext(ctx, "audit buffer full, dropping entry",
			"action", e.Action,
			"entity_type", e.EntityType,
		)
	}
}

// Close stops accepting entries, drains the buffer and waits for workers,
// bounded by ctx.
func (r *Recorder) Close(ctx context.Context) error {
	if r.closed.Swap(true) {
		return nil
	}

	close(r.quit)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit recorder shutdown: %w", ctx.Err())
	}
}

func (r *Recorder) Stats() Stats {
	return Stats{
		Enqueued:   r.enqueued.Load(),
		Written:    r.written.Load(),
		Dropped:    r.dropped.Load(),
		Failed:     r.failed.Load(),
		QueueDepth: len(r.entries),
	}
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	batch := make([]Log, 0, r.batchSize)
	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-r.entries:
			batch = append(batch, entry)
			if len(batch) >= r.batchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-r.quit:
			r.drain(batch)
			return
		}
	}
}

// drain empties whatever is left in the buffer before the worker exits.
func (r *Recorder) drain(batch []Log) {
	for {
		select {
		case entry := <-r.entries:
			batch = append(batch, entry)
			if len(batch) >= r.batchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				r.flush(batch)
			}
			return
		}
	}
}

func (r *Recorder) flush(batch []Log) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.store.InsertBatch(ctx, batch); err != nil {
		r.failed.Add(int64(len(batch)))
		r.logger.Error("audit batch write failed, entries lost",
			"count", len(batch),
			"error", err,
		)
		return
	}

	r.written.Add(int64(len(batch)))
}
