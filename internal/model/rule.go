package model

// RuleKind identifies one of the supported deterministic check kinds.
type RuleKind string

const (
	KindNotNull         RuleKind = "not-null"
	KindRange           RuleKind = "range"
	KindRegexMatch      RuleKind = "regex-match"
	KindSetMembership   RuleKind = "set-membership"
	KindUniqueness      RuleKind = "uniqueness"
	KindCustomPredicate RuleKind = "custom-predicate"
	KindCrossColumn     RuleKind = "cross-column"
	KindReferential     RuleKind = "referential"
)

// Severity determines whether a failing rule blocks downstream execution
// or is merely recorded.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Mode controls in which execution context a rule is evaluated.
type Mode string

const (
	ModeOnline  Mode = "online"  // evaluated by the lifecycle hook during a live run
	ModeOffline Mode = "offline" // evaluated by the offline runner only
	ModeBoth    Mode = "both"
)

// Applies reports whether a rule with this mode runs in the given context.
func (m Mode) Applies(target Mode) bool {
	if m == ModeBoth || m == "" {
		return true
	}
	return m == target
}

// Aggregation is the policy used to derive a RuleSet verdict from its outcomes.
type Aggregation string

const (
	AggregationAllMustPass       Aggregation = "all-must-pass"
	AggregationMajority          Aggregation = "majority"
	AggregationWeightedThreshold Aggregation = "weighted-threshold"
)

// RuleSpec is the configuration shape of a single rule.
type RuleSpec struct {
	ID         string                 `json:"id" yaml:"id"`
	Kind       RuleKind               `json:"kind" yaml:"kind"`
	Column     string                 `json:"column,omitempty" yaml:"column,omitempty"`
	Severity   Severity               `json:"severity,omitempty" yaml:"severity,omitempty"`
	Weight     float64                `json:"weight,omitempty" yaml:"weight,omitempty"`
	Mode       Mode                   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// RuleSetSpec is the configuration shape of all rules bound to one dataset.
type RuleSetSpec struct {
	Dataset     string      `json:"dataset" yaml:"dataset"`
	Aggregation Aggregation `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
	// Threshold is the passing fraction for majority aggregation, or the
	// maximum failing weighted fraction for weighted-threshold aggregation.
	Threshold *float64   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Blocking  *bool      `json:"blocking,omitempty" yaml:"blocking,omitempty"`
	Rules     []RuleSpec `json:"rules" yaml:"rules"`
}
