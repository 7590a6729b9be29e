package validation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"go-data-sentinel/internal/model"
)

// DataProvider materializes a named dataset for validation. It decouples
// the Validator from storage; implementations may be slow (file, network)
// and are never called while the Validator holds a lock.
type DataProvider interface {
	Materialize(ctx context.Context, name string) ([]model.GenericRecord, error)
}

// DefaultEvidenceLimit bounds how many failing rows a single outcome keeps,
// so reports stay small and audit logs do not leak whole datasets.
const DefaultEvidenceLimit = 5

// materializationRuleID is the id of the synthetic outcome emitted when a
// dataset cannot be loaded.
const materializationRuleID = "materialize"

// evalContext carries everything a compiled rule needs at evaluation time.
type evalContext struct {
	ctx           context.Context
	rows          []model.GenericRecord
	provider      DataProvider
	evidenceLimit int
}

// Validator evaluates rulesets against materialized data. A Validator is
// stateless and safe for concurrent use.
type Validator struct {
	logger        *zap.Logger
	evidenceLimit int
}

// NewValidator creates a validator. evidenceLimit <= 0 selects the default.
func NewValidator(logger *zap.Logger, evidenceLimit int) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if evidenceLimit <= 0 {
		evidenceLimit = DefaultEvidenceLimit
	}
	return &Validator{logger: logger, evidenceLimit: evidenceLimit}
}

// Validate evaluates every rule in the set against the materialized dataset
// and always returns a complete report: no short-circuit on early failures,
// and a materialization error becomes a single synthetic failing outcome
// rather than an error.
func (v *Validator) Validate(ctx context.Context, runID string, rs *RuleSet, provider DataProvider) model.ValidationReport {
	start := time.Now()

	rows, err := provider.Materialize(ctx, rs.Dataset)
	if err != nil {
		merr := &MaterializationError{Dataset: rs.Dataset, Err: err}
		v.logger.Warn("dataset materialization failed",
			zap.String("run_id", runID),
			zap.String("dataset", rs.Dataset),
			zap.Error(err),
		)
		return model.ValidationReport{
			RunID:     runID,
			Dataset:   rs.Dataset,
			Timestamp: start.UTC(),
			Outcomes: []model.ValidationOutcome{{
				RuleID:   materializationRuleID,
				Severity: model.SeverityError,
				Passed:   false,
				Message:  merr.Error(),
			}},
			Verdict:  model.VerdictFail,
			Duration: time.Since(start),
		}
	}

	ec := &evalContext{
		ctx:           ctx,
		rows:          rows,
		provider:      provider,
		evidenceLimit: v.evidenceLimit,
	}

	outcomes := make([]model.ValidationOutcome, 0, len(rs.Rules))
	for _, rule := range rs.Rules {
		outcomes = append(outcomes, rule.Evaluate(ec))
	}

	report := model.ValidationReport{
		RunID:       runID,
		Dataset:     rs.Dataset,
		Timestamp:   start.UTC(),
		Fingerprint: Fingerprint(rows),
		Outcomes:    outcomes,
		Verdict:     rs.Verdict(outcomes),
		Duration:    time.Since(start),
	}

	v.logger.Info("dataset validated",
		zap.String("run_id", runID),
		zap.String("dataset", rs.Dataset),
		zap.String("verdict", string(report.Verdict)),
		zap.Int("rules", len(outcomes)),
		zap.Int("rows", len(rows)),
		zap.Duration("duration", report.Duration),
	)
	return report
}

// Fingerprint computes a content hash of the materialized data. Identical
// data always hashes identically (map keys marshal in sorted order), which
// lets two reports be compared for referring to the same data.
func Fingerprint(rows []model.GenericRecord) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, rec := range rows {
		_ = enc.Encode(rec)
	}
	return hex.EncodeToString(h.Sum(nil))
}
