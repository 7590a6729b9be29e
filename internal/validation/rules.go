package validation

import (
	"fmt"
	"regexp"

	"go-data-sentinel/internal/model"
	"go-data-sentinel/pkg/utils"
)

// checkResult is the raw result of running one compiled check over a dataset.
type checkResult struct {
	passed   bool
	message  string
	evidence []model.GenericRecord
}

// checkFunc runs one rule against the materialized rows in the eval context.
type checkFunc func(ec *evalContext) checkResult

// Rule is a compiled, ready-to-evaluate check. All parameter validation
// happened in compileRule, so evaluation is pure and cannot misconfigure.
type Rule struct {
	Spec  model.RuleSpec
	check checkFunc
}

// Evaluate runs the rule and produces exactly one immutable outcome.
func (r Rule) Evaluate(ec *evalContext) model.ValidationOutcome {
	res := r.check(ec)
	return model.ValidationOutcome{
		RuleID:   r.Spec.ID,
		Severity: r.Spec.Severity,
		Passed:   res.passed,
		Message:  res.message,
		Evidence: res.evidence,
	}
}

// compileRule validates the rule spec and binds it to a check implementation.
// Unsupported parameter combinations fail here, never at evaluation time.
func compileRule(dataset string, spec model.RuleSpec) (Rule, error) {
	if spec.ID == "" {
		return Rule{}, configErr(dataset, "", "rule id is required")
	}
	switch spec.Severity {
	case "":
		spec.Severity = model.SeverityError
	case model.SeverityError, model.SeverityWarning:
	default:
		return Rule{}, configErr(dataset, spec.ID, "unknown severity %q", spec.Severity)
	}
	switch spec.Mode {
	case "":
		spec.Mode = model.ModeBoth
	case model.ModeOnline, model.ModeOffline, model.ModeBoth:
	default:
		return Rule{}, configErr(dataset, spec.ID, "unknown mode %q", spec.Mode)
	}
	if spec.Weight < 0 {
		return Rule{}, configErr(dataset, spec.ID, "weight must be positive, got %v", spec.Weight)
	}
	if spec.Weight == 0 {
		spec.Weight = 1
	}

	var (
		check checkFunc
		err   error
	)
	switch spec.Kind {
	case model.KindNotNull:
		check, err = compileNotNull(dataset, spec)
	case model.KindRange:
		check, err = compileRange(dataset, spec)
	case model.KindRegexMatch:
		check, err = compileRegexMatch(dataset, spec)
	case model.KindSetMembership:
		check, err = compileSetMembership(dataset, spec)
	case model.KindUniqueness:
		check, err = compileUniqueness(dataset, spec)
	case model.KindCustomPredicate:
		check, err = compileCustomPredicate(dataset, spec)
	case model.KindCrossColumn:
		check, err = compileCrossColumn(dataset, spec)
	case model.KindReferential:
		check, err = compileReferential(dataset, spec)
	default:
		return Rule{}, configErr(dataset, spec.ID, "unknown rule kind %q", spec.Kind)
	}
	if err != nil {
		return Rule{}, err
	}
	return Rule{Spec: spec, check: check}, nil
}

func requireColumn(dataset string, spec model.RuleSpec) (string, error) {
	if spec.Column == "" {
		return "", configErr(dataset, spec.ID, "%s rule requires a column", spec.Kind)
	}
	return spec.Column, nil
}

func paramFloat(spec model.RuleSpec, key string) (float64, bool, error) {
	raw, ok := spec.Parameters[key]
	if !ok {
		return 0, false, nil
	}
	if !utils.IsNumeric(raw) {
		return 0, false, fmt.Errorf("parameter %q must be numeric, got %T", key, raw)
	}
	return utils.Numeric(raw), true, nil
}

func paramString(spec model.RuleSpec, key string) (string, bool) {
	raw, ok := spec.Parameters[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// failRows walks all rows, collecting bounded evidence for rows the
// predicate flags as failing.
func failRows(ec *evalContext, failing func(rec model.GenericRecord) bool) (int, []model.GenericRecord) {
	failed := 0
	var evidence []model.GenericRecord
	for _, rec := range ec.rows {
		if failing(rec) {
			failed++
			if len(evidence) < ec.evidenceLimit {
				evidence = append(evidence, rec)
			}
		}
	}
	return failed, evidence
}

func compileNotNull(dataset string, spec model.RuleSpec) (checkFunc, error) {
	column, err := requireColumn(dataset, spec)
	if err != nil {
		return nil, err
	}
	return func(ec *evalContext) checkResult {
		failed, evidence := failRows(ec, func(rec model.GenericRecord) bool {
			val, ok := rec[column]
			return !ok || val == nil || val == ""
		})
		if failed == 0 {
			return checkResult{passed: true}
		}
		return checkResult{
			message:  fmt.Sprintf("column %q has %d null value(s) in %d row(s)", column, failed, len(ec.rows)),
			evidence: evidence,
		}
	}, nil
}

func compileRange(dataset string, spec model.RuleSpec) (checkFunc, error) {
	column, err := requireColumn(dataset, spec)
	if err != nil {
		return nil, err
	}
	min, hasMin, err := paramFloat(spec, "min")
	if err != nil {
		return nil, configErr(dataset, spec.ID, "%v", err)
	}
	max, hasMax, err := paramFloat(spec, "max")
	if err != nil {
		return nil, configErr(dataset, spec.ID, "%v", err)
	}
	if !hasMin && !hasMax {
		return nil, configErr(dataset, spec.ID, "range rule requires min and/or max")
	}
	if hasMin && hasMax && min > max {
		return nil, configErr(dataset, spec.ID, "range min %v exceeds max %v", min, max)
	}
	return func(ec *evalContext) checkResult {
		failed, evidence := failRows(ec, func(rec model.GenericRecord) bool {
			val, ok := rec[column]
			if !ok || val == nil {
				// presence is not-null's concern
				return false
			}
			if !utils.IsNumeric(val) {
				return true
			}
			n := utils.Numeric(val)
			return (hasMin && n < min) || (hasMax && n > max)
		})
		if failed == 0 {
			return checkResult{passed: true}
		}
		bounds := ""
		if hasMin {
			bounds = fmt.Sprintf("min %v", min)
		}
		if hasMax {
			if bounds != "" {
				bounds += ", "
			}
			bounds += fmt.Sprintf("max %v", max)
		}
		return checkResult{
			message:  fmt.Sprintf("column %q: %d of %d row(s) outside range (%s)", column, failed, len(ec.rows), bounds),
			evidence: evidence,
		}
	}, nil
}

func compileRegexMatch(dataset string, spec model.RuleSpec) (checkFunc, error) {
	column, err := requireColumn(dataset, spec)
	if err != nil {
		return nil, err
	}
	pattern, ok := paramString(spec, "pattern")
	if !ok || pattern == "" {
		return nil, configErr(dataset, spec.ID, "regex-match rule requires a string pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, configErr(dataset, spec.ID, "invalid pattern %q: %v", pattern, err)
	}
	return func(ec *evalContext) checkResult {
		failed, evidence := failRows(ec, func(rec model.GenericRecord) bool {
			val, ok := rec[column]
			if !ok || val == nil {
				return false
			}
			return !re.MatchString(fmt.Sprintf("%v", val))
		})
		if failed == 0 {
			return checkResult{passed: true}
		}
		return checkResult{
			message:  fmt.Sprintf("column %q: %d of %d row(s) do not match %q", column, failed, len(ec.rows), pattern),
			evidence: evidence,
		}
	}, nil
}

func compileSetMembership(dataset string, spec model.RuleSpec) (checkFunc, error) {
	column, err := requireColumn(dataset, spec)
	if err != nil {
		return nil, err
	}
	raw, ok := spec.Parameters["values"]
	if !ok {
		return nil, configErr(dataset, spec.ID, "set-membership rule requires a values list")
	}
	list, ok := raw.([]interface{})
	if !ok || len(list) == 0 {
		return nil, configErr(dataset, spec.ID, "values must be a non-empty list, got %T", raw)
	}
	allowed := make(map[string]bool, len(list))
	for _, v := range list {
		allowed[fmt.Sprintf("%v", v)] = true
	}
	return func(ec *evalContext) checkResult {
		failed, evidence := failRows(ec, func(rec model.GenericRecord) bool {
			val, ok := rec[column]
			if !ok || val == nil {
				return false
			}
			return !allowed[fmt.Sprintf("%v", val)]
		})
		if failed == 0 {
			return checkResult{passed: true}
		}
		return checkResult{
			message:  fmt.Sprintf("column %q: %d of %d row(s) outside the allowed set", column, failed, len(ec.rows)),
			evidence: evidence,
		}
	}, nil
}

func compileUniqueness(dataset string, spec model.RuleSpec) (checkFunc, error) {
	column, err := requireColumn(dataset, spec)
	if err != nil {
		return nil, err
	}
	return func(ec *evalContext) checkResult {
		seen := make(map[string]bool, len(ec.rows))
		failed, evidence := failRows(ec, func(rec model.GenericRecord) bool {
			val, ok := rec[column]
			if !ok || val == nil {
				return false
			}
			key := fmt.Sprintf("%v", val)
			if seen[key] {
				return true
			}
			seen[key] = true
			return false
		})
		if failed == 0 {
			return checkResult{passed: true}
		}
		return checkResult{
			message:  fmt.Sprintf("column %q has %d duplicated value(s)", column, failed),
			evidence: evidence,
		}
	}, nil
}

func compileCustomPredicate(dataset string, spec model.RuleSpec) (checkFunc, error) {
	name, ok := paramString(spec, "predicate")
	if !ok || name == "" {
		return nil, configErr(dataset, spec.ID, "custom-predicate rule requires a predicate name")
	}
	fn, ok := lookupPredicate(name)
	if !ok {
		return nil, configErr(dataset, spec.ID, "predicate %q is not registered", name)
	}
	return func(ec *evalContext) checkResult {
		failed, evidence := failRows(ec, func(rec model.GenericRecord) bool {
			return !fn(rec)
		})
		if failed == 0 {
			return checkResult{passed: true}
		}
		return checkResult{
			message:  fmt.Sprintf("predicate %q rejected %d of %d row(s)", name, failed, len(ec.rows)),
			evidence: evidence,
		}
	}, nil
}

var crossColumnOps = map[string]func(a, b float64) bool{
	"lt": func(a, b float64) bool { return a < b },
	"le": func(a, b float64) bool { return a <= b },
	"gt": func(a, b float64) bool { return a > b },
	"ge": func(a, b float64) bool { return a >= b },
	"eq": func(a, b float64) bool { return a == b },
	"ne": func(a, b float64) bool { return a != b },
}

func compileCrossColumn(dataset string, spec model.RuleSpec) (checkFunc, error) {
	left, ok := paramString(spec, "left")
	if !ok || left == "" {
		return nil, configErr(dataset, spec.ID, "cross-column rule requires a left column")
	}
	right, ok := paramString(spec, "right")
	if !ok || right == "" {
		return nil, configErr(dataset, spec.ID, "cross-column rule requires a right column")
	}
	op, ok := paramString(spec, "op")
	if !ok {
		return nil, configErr(dataset, spec.ID, "cross-column rule requires an op")
	}
	cmp, ok := crossColumnOps[op]
	if !ok {
		return nil, configErr(dataset, spec.ID, "unknown op %q (want lt, le, gt, ge, eq or ne)", op)
	}
	return func(ec *evalContext) checkResult {
		failed, evidence := failRows(ec, func(rec model.GenericRecord) bool {
			lv, lok := rec[left]
			rv, rok := rec[right]
			if !lok || !rok || lv == nil || rv == nil {
				return false
			}
			if !utils.IsNumeric(lv) || !utils.IsNumeric(rv) {
				// eq/ne still make sense for non-numeric values
				if op == "eq" {
					return fmt.Sprintf("%v", lv) != fmt.Sprintf("%v", rv)
				}
				if op == "ne" {
					return fmt.Sprintf("%v", lv) == fmt.Sprintf("%v", rv)
				}
				return true
			}
			return !cmp(utils.Numeric(lv), utils.Numeric(rv))
		})
		if failed == 0 {
			return checkResult{passed: true}
		}
		return checkResult{
			message:  fmt.Sprintf("%d of %d row(s) violate %q %s %q", failed, len(ec.rows), left, op, right),
			evidence: evidence,
		}
	}, nil
}

func compileReferential(dataset string, spec model.RuleSpec) (checkFunc, error) {
	column, err := requireColumn(dataset, spec)
	if err != nil {
		return nil, err
	}
	refDataset, ok := paramString(spec, "ref_dataset")
	if !ok || refDataset == "" {
		return nil, configErr(dataset, spec.ID, "referential rule requires ref_dataset")
	}
	refColumn, ok := paramString(spec, "ref_column")
	if !ok || refColumn == "" {
		return nil, configErr(dataset, spec.ID, "referential rule requires ref_column")
	}
	return func(ec *evalContext) checkResult {
		refRows, err := ec.provider.Materialize(ec.ctx, refDataset)
		if err != nil {
			return checkResult{
				message: fmt.Sprintf("reference dataset %q unavailable: %v", refDataset, err),
			}
		}
		known := make(map[string]bool, len(refRows))
		for _, rec := range refRows {
			if val, ok := rec[refColumn]; ok && val != nil {
				known[fmt.Sprintf("%v", val)] = true
			}
		}
		failed, evidence := failRows(ec, func(rec model.GenericRecord) bool {
			val, ok := rec[column]
			if !ok || val == nil {
				return false
			}
			return !known[fmt.Sprintf("%v", val)]
		})
		if failed == 0 {
			return checkResult{passed: true}
		}
		return checkResult{
			message: fmt.Sprintf("column %q: %d of %d row(s) missing from %s.%s",
				column, failed, len(ec.rows), refDataset, refColumn),
			evidence: evidence,
		}
	}, nil
}
