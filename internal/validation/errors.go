package validation

import "fmt"

// ConfigurationError reports a malformed rule or ruleset definition.
// It is raised at construction time, never at evaluation time, so a
// misconfigured rule can never silently pass.
type ConfigurationError struct {
	Dataset string
	RuleID  string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("invalid rule %q for dataset %q: %s", e.RuleID, e.Dataset, e.Reason)
	}
	return fmt.Sprintf("invalid ruleset for dataset %q: %s", e.Dataset, e.Reason)
}

func configErr(dataset, ruleID, format string, args ...interface{}) error {
	return &ConfigurationError{Dataset: dataset, RuleID: ruleID, Reason: fmt.Sprintf(format, args...)}
}

// MaterializationError reports that a dataset could not be loaded for
// validation. The Validator converts it into a synthetic failing outcome
// instead of propagating it.
type MaterializationError struct {
	Dataset string
	Err     error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("failed to materialize dataset %q: %v", e.Dataset, e.Err)
}

func (e *MaterializationError) Unwrap() error { return e.Err }
