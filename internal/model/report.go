package model

import "time"

// Verdict is the aggregate result of one validation over one dataset.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictWarn Verdict = "warn"
	VerdictFail Verdict = "fail"
)

// ValidationOutcome is the immutable result of evaluating a single rule.
type ValidationOutcome struct {
	RuleID   string          `json:"rule_id"`
	Severity Severity        `json:"severity"`
	Passed   bool            `json:"passed"`
	Message  string          `json:"message,omitempty"`
	Evidence []GenericRecord `json:"evidence,omitempty"` // bounded sample of failing rows
}

// ValidationReport is the immutable result of one validation run over one dataset.
// It is stored as produced and never mutated in place.
type ValidationReport struct {
	RunID       string              `json:"run_id"`
	Dataset     string              `json:"dataset"`
	Timestamp   time.Time           `json:"timestamp"`
	Fingerprint string              `json:"data_fingerprint"`
	Outcomes    []ValidationOutcome `json:"outcomes"`
	Verdict     Verdict             `json:"verdict"`
	Duration    time.Duration       `json:"duration"`
}

// Failed reports whether any error-severity outcome failed.
func (r ValidationReport) Failed() bool {
	return r.Verdict == VerdictFail
}
