package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-data-sentinel/internal/metrics"
	"go-data-sentinel/internal/model"
)

// Store is the pluggable audit storage backend. Implementations must
// de-duplicate events on AuditEvent.DedupKey so at-least-once delivery
// yields exactly one stored record.
type Store interface {
	CreateRun(ctx context.Context, run model.Run) error
	// FinalizeRun applies the terminal status with compare-and-set
	// semantics: it only succeeds while the run is still running, and
	// reports whether this caller won the transition.
	FinalizeRun(ctx context.Context, runID string, status model.RunStatus, endedAt time.Time) (bool, error)
	GetRun(ctx context.Context, runID string) (model.Run, error)
	ListRuns(ctx context.Context) ([]model.Run, error)
	AppendEvent(ctx context.Context, event model.AuditEvent) error
	EventsByRun(ctx context.Context, runID string) ([]model.AuditEvent, error)
	SaveReport(ctx context.Context, report model.ValidationReport) error
	ReportsByRun(ctx context.Context, runID string) ([]model.ValidationReport, error)
}

// ReportStore persists validation reports to a secondary result store,
// e.g. JSON files under a per-run output directory.
type ReportStore interface {
	StoreReport(ctx context.Context, report model.ValidationReport) error
}

// Recorder owns audit persistence. Writes are retried best-effort; a write
// that still fails is escalated through logs and metrics, never by blocking
// the caller's pipeline.
type Recorder struct {
	store  Store
	logger *zap.Logger
	policy RetryPolicy
}

func NewRecorder(store Store, logger *zap.Logger, policy RetryPolicy) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger, policy: policy}
}

// Record appends one audit event, assigning an event id when missing.
func (r *Recorder) Record(ctx context.Context, event model.AuditEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	err := r.policy.run(ctx, func() error {
		return r.store.AppendEvent(ctx, event)
	})
	if err != nil {
		metrics.AuditWriteFailures.Inc()
		r.logger.Error("audit event dropped",
			zap.String("run_id", event.RunID),
			zap.String("event_kind", string(event.Kind)),
			zap.Error(err),
		)
		return &PersistenceError{Op: "append", Err: err}
	}
	return nil
}

// Query returns the run's audit trail ordered by timestamp.
func (r *Recorder) Query(ctx context.Context, runID string) ([]model.AuditEvent, error) {
	events, err := r.store.EventsByRun(ctx, runID)
	if err != nil {
		return nil, &PersistenceError{Op: "query", Err: err}
	}
	return events, nil
}

// OpenRun persists a new run record.
func (r *Recorder) OpenRun(ctx context.Context, run model.Run) error {
	err := r.policy.run(ctx, func() error {
		return r.store.CreateRun(ctx, run)
	})
	if err != nil {
		metrics.AuditWriteFailures.Inc()
		r.logger.Error("run record dropped", zap.String("run_id", run.RunID), zap.Error(err))
		return &PersistenceError{Op: "create-run", Err: err}
	}
	return nil
}

// CloseRun finalizes a run's status. Returns false when another caller
// already finalized it; the first terminal status wins.
func (r *Recorder) CloseRun(ctx context.Context, runID string, status model.RunStatus) (bool, error) {
	var won bool
	err := r.policy.run(ctx, func() error {
		var err error
		won, err = r.store.FinalizeRun(ctx, runID, status, time.Now().UTC())
		return err
	})
	if err != nil {
		metrics.AuditWriteFailures.Inc()
		r.logger.Error("run finalization dropped", zap.String("run_id", runID), zap.Error(err))
		return false, &PersistenceError{Op: "finalize-run", Err: err}
	}
	return won, nil
}

// Run fetches one run record.
func (r *Recorder) Run(ctx context.Context, runID string) (model.Run, error) {
	run, err := r.store.GetRun(ctx, runID)
	if err != nil {
		return model.Run{}, &PersistenceError{Op: "get-run", Err: err}
	}
	return run, nil
}

// Runs lists all run records, newest first.
func (r *Recorder) Runs(ctx context.Context) ([]model.Run, error) {
	runs, err := r.store.ListRuns(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list-runs", Err: err}
	}
	return runs, nil
}

// SaveReport persists a validation report.
func (r *Recorder) SaveReport(ctx context.Context, report model.ValidationReport) error {
	err := r.policy.run(ctx, func() error {
		return r.store.SaveReport(ctx, report)
	})
	if err != nil {
		metrics.AuditWriteFailures.Inc()
		r.logger.Error("validation report dropped",
			zap.String("run_id", report.RunID),
			zap.String("dataset", report.Dataset),
			zap.Error(err),
		)
		return &PersistenceError{Op: "save-report", Err: err}
	}
	return nil
}

// Reports returns the validation reports captured for a run.
func (r *Recorder) Reports(ctx context.Context, runID string) ([]model.ValidationReport, error) {
	reports, err := r.store.ReportsByRun(ctx, runID)
	if err != nil {
		return nil, &PersistenceError{Op: "list-reports", Err: err}
	}
	return reports, nil
}
