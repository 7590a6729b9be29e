// Package offline replays validation against persisted data outside a live
// pipeline run, reusing the Validator and AuditRecorder unchanged.
package offline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-data-sentinel/internal/audit"
	"go-data-sentinel/internal/metrics"
	"go-data-sentinel/internal/model"
	"go-data-sentinel/internal/notify"
	"go-data-sentinel/internal/validation"
)

// OfflinePipelineName tags audit records produced outside a live run.
const OfflinePipelineName = "offline"

// Runner evaluates rulesets against a catalog of named datasets. It
// produces one offline-flagged Run so audit history is queryable uniformly.
type Runner struct {
	Validator    *validation.Validator
	Recorder     *audit.Recorder
	ReportStores []audit.ReportStore
	Notifier     *notify.Dispatcher
	Logger       *zap.Logger
}

// Run validates each ruleset's dataset through the provider. Cancellation
// is honored between dataset evaluations, never mid-rule, so every produced
// report is complete.
func (r *Runner) Run(ctx context.Context, rulesets []*validation.RuleSet, data validation.DataProvider) ([]model.ValidationReport, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	runID := uuid.New().String()
	now := time.Now().UTC()
	_ = r.Recorder.OpenRun(ctx, model.Run{
		RunID:        runID,
		PipelineName: OfflinePipelineName,
		StartedAt:    now,
		Status:       model.RunStatusRunning,
		Offline:      true,
	})

	datasets := make([]string, 0, len(rulesets))
	for _, rs := range rulesets {
		datasets = append(datasets, rs.Dataset)
	}
	_ = r.Recorder.Record(ctx, model.AuditEvent{
		RunID:        runID,
		PipelineName: OfflinePipelineName,
		Kind:         model.EventRunStarted,
		Timestamp:    now,
		Payload:      map[string]interface{}{"datasets": datasets},
	})

	var (
		reports   []model.ValidationReport
		cancelled bool
	)
	for _, rs := range rulesets {
		if ctx.Err() != nil {
			cancelled = true
			logger.Warn("offline run cancelled", zap.String("run_id", runID))
			break
		}
		offline := rs.FilterMode(model.ModeOffline)
		if len(offline.Rules) == 0 {
			logger.Info("dataset has no offline rules, skipping",
				zap.String("run_id", runID),
				zap.String("dataset", rs.Dataset),
			)
			continue
		}

		report := r.Validator.Validate(ctx, runID, offline, data)
		metrics.ValidationsTotal.WithLabelValues(rs.Dataset, string(report.Verdict)).Inc()
		reports = append(reports, report)

		_ = r.Recorder.SaveReport(ctx, report)
		for _, store := range r.ReportStores {
			if err := store.StoreReport(ctx, report); err != nil {
				logger.Warn("report store write failed",
					zap.String("run_id", runID),
					zap.String("dataset", rs.Dataset),
					zap.Error(err),
				)
			}
		}
		_ = r.Recorder.Record(ctx, model.AuditEvent{
			RunID:        runID,
			PipelineName: OfflinePipelineName,
			Kind:         model.EventDatasetValidated,
			Timestamp:    time.Now().UTC(),
			Payload: map[string]interface{}{
				"dataset":          rs.Dataset,
				"verdict":          string(report.Verdict),
				"data_fingerprint": report.Fingerprint,
				"rule_count":       len(report.Outcomes),
			},
		})
		if r.Notifier != nil {
			r.Notifier.Dispatch(ctx, report)
		}
	}

	status := model.RunStatusSucceeded
	if cancelled {
		status = model.RunStatusFailed
	}
	_, _ = r.Recorder.CloseRun(ctx, runID, status)
	_ = r.Recorder.Record(ctx, model.AuditEvent{
		RunID:        runID,
		PipelineName: OfflinePipelineName,
		Kind:         model.EventRunEnded,
		Timestamp:    time.Now().UTC(),
		Payload:      map[string]interface{}{"status": string(status)},
	})

	if cancelled {
		return reports, ctx.Err()
	}
	return reports, nil
}
