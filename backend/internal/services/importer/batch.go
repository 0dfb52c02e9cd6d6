package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

type LogEntry struct {
	Row        int     `json:"row"`
	Reference  string  `json:"reference"`
	Outcome    Outcome `json:"outcome"`
	Detail     string  `json:"detail,omitempty"`
	DocumentID string  `json:"document_id,omitempty"`
}

func (e LogEntry) String() string {
	if e.Outcome == OutcomeSuccess {
		return fmt.Sprintf("✅ %s imported", e.Reference)
	}
	return fmt.Sprintf("❌ Error %s: %s", e.Reference, e.Detail)
}

// BatchResult is the process-local outcome of one batch. It is not persisted.
type BatchResult struct {
	ID             string     `json:"id"`
	State          State      `json:"state"`
	ProcessedCount int        `json:"processed_count"`
	TotalCount     int        `json:"total_count"`
	Log            []LogEntry `json:"log"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     time.Time  `json:"finished_at,omitzero"`
}

func (b BatchResult) Successes() int {
	return b.count(OutcomeSuccess)
}

func (b BatchResult) Failures() int {
	return b.count(OutcomeFailure)
}

func (b BatchResult) count(o Outcome) int {
	n := 0
	for _, e := range b.Log {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

func (b BatchResult) snapshot() BatchResult {
	b.Log = append([]LogEntry(nil), b.Log...)
	return b
}

// ProgressFunc observes a copy of the batch after every row.
type ProgressFunc func(BatchResult)

type RowNormalizer interface {
	Normalize(row map[string]string) domain.Record
}

// Orchestrator imports rows strictly one after another. A failing row is logged and the
// loop moves on; earlier successes are never rolled back.
type Orchestrator struct {
	normalizer RowNormalizer
	creator    *Creator
	log        *logger.Logger
}

func NewOrchestrator(normalizer RowNormalizer, creator *Creator, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		normalizer: normalizer,
		creator:    creator,
		log:        log.Component("batch-orchestrator"),
	}
}

type uploaded struct {
	rec    domain.Record
	main   *domain.UploadedAsset
	extras []domain.UploadedAsset
}

// Run processes rows in order. ctx is checked between rows; once it is done the batch
// stops in StateCancelled with the remaining rows unattempted.
func (o *Orchestrator) Run(ctx context.Context, batchID string, rows []map[string]string, progress ProgressFunc) BatchResult {
	b := BatchResult{
		ID:         batchID,
		State:      StateRunning,
		TotalCount: len(rows),
		Log:        make([]LogEntry, 0, len(rows)),
		StartedAt:  time.Now().UTC(),
	}
	notify := func() {
		if progress != nil {
			progress(b.snapshot())
		}
	}
	notify()

	log := o.log.With("batch_id", batchID)
	log.Info("batch started", "rows", len(rows))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			b.State = StateCancelled
			log.Warn("batch cancelled", "processed", b.ProcessedCount, "total", b.TotalCount)
			break
		}

		entry := o.processRow(ctx, i+1, row)
		if entry.Outcome == OutcomeFailure {
			log.Error("row failed", "row", entry.Row, "reference", entry.Reference, "detail", entry.Detail)
		}
		b.Log = append(b.Log, entry)
		b.ProcessedCount++
		notify()
	}

	if b.State == StateRunning {
		b.State = StateCompleted
	}
	b.FinishedAt = time.Now().UTC()
	notify()

	log.Info("batch finished", "state", b.State, "succeeded", b.Successes(), "failed", b.Failures())
	return b.snapshot()
}

func (o *Orchestrator) processRow(ctx context.Context, n int, row map[string]string) LogEntry {
	entry := LogEntry{Row: n}

	normalized := guard(func() result[domain.Record] {
		rec := o.normalizer.Normalize(row)
		// CSV rows are always created available, whatever their source status.
		rec.Status = domain.StatusAvailable
		entry.Reference = rec.Reference
		return succeed(rec)
	})

	withImages := guard(func() result[uploaded] {
		return then(normalized, func(rec domain.Record) (uploaded, error) {
			main, extras := o.creator.UploadImages(ctx, rec)
			return uploaded{rec: rec, main: main, extras: extras}, nil
		})
	})

	created := guard(func() result[string] {
		return then(withImages, func(u uploaded) (string, error) {
			return o.creator.CreatePropertyDocument(ctx, u.rec, u.main, u.extras)
		})
	})

	if created.err != nil {
		entry.Outcome = OutcomeFailure
		entry.Detail = created.err.Error()
		return entry
	}
	entry.Outcome = OutcomeSuccess
	entry.DocumentID = created.val
	return entry
}
