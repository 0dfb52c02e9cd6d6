package importer

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

var ErrUnknownBatch = errors.New("unknown batch")

type trackedBatch struct {
	result BatchResult
	cancel context.CancelFunc
	done   chan struct{}
}

// Tracker runs batches in the background and keeps their latest snapshot in memory
// until they are dismissed. The orchestrator goroutine writes and HTTP handlers read,
// so every access goes through mu.
type Tracker struct {
	base         context.Context
	orchestrator *Orchestrator
	log          *logger.Logger

	mu      sync.RWMutex
	batches map[string]*trackedBatch
}

// NewTracker binds running batches to base: cancelling it cancels them all.
func NewTracker(base context.Context, orchestrator *Orchestrator, log *logger.Logger) *Tracker {
	return &Tracker{
		base:         base,
		orchestrator: orchestrator,
		log:          log.Component("batch-tracker"),
		batches:      make(map[string]*trackedBatch),
	}
}

// Start launches a batch and returns its id immediately.
func (t *Tracker) Start(rows []map[string]string) string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(t.base)
	tb := &trackedBatch{
		result: BatchResult{ID: id, State: StateIdle, TotalCount: len(rows)},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	t.mu.Lock()
	t.batches[id] = tb
	t.mu.Unlock()

	go func() {
		defer close(tb.done)
		defer cancel()
		final := t.orchestrator.Run(ctx, id, rows, func(snap BatchResult) {
			t.mu.Lock()
			tb.result = snap
			t.mu.Unlock()
		})
		t.mu.Lock()
		tb.result = final
		t.mu.Unlock()
	}()

	t.log.Info("batch queued", "batch_id", id, "rows", len(rows))
	return id
}

// Get returns the latest snapshot of a batch.
func (t *Tracker) Get(id string) (BatchResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tb, ok := t.batches[id]
	if !ok {
		return BatchResult{}, false
	}
	return tb.result.snapshot(), true
}

// Cancel stops a running batch between rows.
func (t *Tracker) Cancel(id string) error {
	t.mu.RLock()
	tb, ok := t.batches[id]
	t.mu.RUnlock()
	if !ok {
		return ErrUnknownBatch
	}
	tb.cancel()
	return nil
}

// Dismiss forgets a batch, cancelling it first if it is still running.
func (t *Tracker) Dismiss(id string) error {
	t.mu.Lock()
	tb, ok := t.batches[id]
	delete(t.batches, id)
	t.mu.Unlock()
	if !ok {
		return ErrUnknownBatch
	}
	tb.cancel()
	return nil
}

// Wait blocks until the batch has finished or ctx is done.
func (t *Tracker) Wait(ctx context.Context, id string) (BatchResult, error) {
	t.mu.RLock()
	tb, ok := t.batches[id]
	t.mu.RUnlock()
	if !ok {
		return BatchResult{}, ErrUnknownBatch
	}
	select {
	case <-tb.done:
	case <-ctx.Done():
		return BatchResult{}, ctx.Err()
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return tb.result.snapshot(), nil
}
