package validation

import (
	"go-data-sentinel/internal/model"
)

// DefaultThreshold is used for majority and weighted-threshold aggregation
// when the ruleset does not configure one.
const DefaultThreshold = 0.5

// RuleSet is a compiled, keyed collection of rules bound to one dataset.
type RuleSet struct {
	Dataset     string
	Aggregation model.Aggregation
	Threshold   float64
	Blocking    bool
	Rules       []Rule
}

// NewRuleSet compiles a ruleset spec, failing fast with a ConfigurationError
// on any shape or parameter problem.
func NewRuleSet(spec model.RuleSetSpec) (*RuleSet, error) {
	if spec.Dataset == "" {
		return nil, configErr("", "", "dataset name is required")
	}
	if len(spec.Rules) == 0 {
		return nil, configErr(spec.Dataset, "", "at least one rule is required")
	}

	aggregation := spec.Aggregation
	if aggregation == "" {
		aggregation = model.AggregationAllMustPass
	}
	switch aggregation {
	case model.AggregationAllMustPass, model.AggregationMajority, model.AggregationWeightedThreshold:
	default:
		return nil, configErr(spec.Dataset, "", "unknown aggregation %q", aggregation)
	}

	threshold := DefaultThreshold
	if spec.Threshold != nil {
		threshold = *spec.Threshold
		if threshold < 0 || threshold > 1 {
			return nil, configErr(spec.Dataset, "", "threshold must be within [0, 1], got %v", threshold)
		}
	}

	blocking := true
	if spec.Blocking != nil {
		blocking = *spec.Blocking
	}

	rules := make([]Rule, 0, len(spec.Rules))
	seen := make(map[string]bool, len(spec.Rules))
	for _, rs := range spec.Rules {
		rule, err := compileRule(spec.Dataset, rs)
		if err != nil {
			return nil, err
		}
		if seen[rule.Spec.ID] {
			return nil, configErr(spec.Dataset, rule.Spec.ID, "duplicate rule id")
		}
		seen[rule.Spec.ID] = true
		rules = append(rules, rule)
	}

	return &RuleSet{
		Dataset:     spec.Dataset,
		Aggregation: aggregation,
		Threshold:   threshold,
		Blocking:    blocking,
		Rules:       rules,
	}, nil
}

// FilterMode returns a shallow copy keeping only rules that apply in the
// given execution context. The copy may have zero rules; callers skip those.
func (rs *RuleSet) FilterMode(mode model.Mode) *RuleSet {
	filtered := *rs
	filtered.Rules = nil
	for _, r := range rs.Rules {
		if r.Spec.Mode.Applies(mode) {
			filtered.Rules = append(filtered.Rules, r)
		}
	}
	return &filtered
}

// Verdict derives the aggregate verdict from per-rule outcomes.
// Warning-severity failures never produce fail; they downgrade pass to warn.
func (rs *RuleSet) Verdict(outcomes []model.ValidationOutcome) model.Verdict {
	weights := make(map[string]float64, len(rs.Rules))
	for _, r := range rs.Rules {
		weights[r.Spec.ID] = r.Spec.Weight
	}

	var (
		totalWeight, failedWeight float64
		errTotal, errPassed       int
		anyErrFailed, warnFailed  bool
	)
	for _, o := range outcomes {
		if o.Severity == model.SeverityWarning {
			if !o.Passed {
				warnFailed = true
			}
			continue
		}
		weight := weights[o.RuleID]
		if weight == 0 {
			weight = 1 // synthetic outcomes carry no configured weight
		}
		totalWeight += weight
		errTotal++
		if o.Passed {
			errPassed++
		} else {
			failedWeight += weight
			anyErrFailed = true
		}
	}

	failed := false
	switch rs.Aggregation {
	case model.AggregationMajority:
		if errTotal > 0 {
			failed = float64(errPassed)/float64(errTotal) < rs.Threshold
		}
	case model.AggregationWeightedThreshold:
		if totalWeight > 0 {
			failed = failedWeight/totalWeight > rs.Threshold
		}
	default: // all-must-pass
		failed = anyErrFailed
	}

	if failed {
		return model.VerdictFail
	}
	if warnFailed {
		return model.VerdictWarn
	}
	return model.VerdictPass
}
