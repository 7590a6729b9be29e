package validation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-data-sentinel/internal/model"
)

// staticData materializes canned rows per dataset name.
type staticData map[string][]model.GenericRecord

func (d staticData) Materialize(ctx context.Context, name string) ([]model.GenericRecord, error) {
	rows, ok := d[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	return rows, nil
}

func ordersRuleSet(t *testing.T) *RuleSet {
	t.Helper()
	rs, err := NewRuleSet(model.RuleSetSpec{
		Dataset: "orders",
		Rules: []model.RuleSpec{
			{ID: "id-not-null", Kind: model.KindNotNull, Column: "id"},
			{ID: "amount-non-negative", Kind: model.KindRange, Column: "amount",
				Parameters: map[string]interface{}{"min": 0}},
		},
	})
	require.NoError(t, err)
	return rs
}

func TestValidate_ProducesOneOutcomePerRule(t *testing.T) {
	rows := make([]model.GenericRecord, 0, 10)
	for i := 0; i < 10; i++ {
		amount := 10.0
		if i == 3 {
			amount = -5
		}
		rows = append(rows, model.GenericRecord{"id": i, "amount": amount})
	}

	v := NewValidator(nil, 0)
	report := v.Validate(context.Background(), "run-1", ordersRuleSet(t), staticData{"orders": rows})

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "orders", report.Dataset)
	require.Len(t, report.Outcomes, 2)
	assert.True(t, report.Outcomes[0].Passed)
	assert.False(t, report.Outcomes[1].Passed)
	assert.Equal(t, model.VerdictFail, report.Verdict)
	assert.NotEmpty(t, report.Fingerprint)
}

func TestValidate_NoShortCircuit(t *testing.T) {
	// Every rule fails; the report must still contain all of them.
	rs, err := NewRuleSet(model.RuleSetSpec{
		Dataset: "orders",
		Rules: []model.RuleSpec{
			{ID: "a", Kind: model.KindNotNull, Column: "missing_a"},
			{ID: "b", Kind: model.KindNotNull, Column: "missing_b"},
			{ID: "c", Kind: model.KindNotNull, Column: "missing_c"},
		},
	})
	require.NoError(t, err)

	v := NewValidator(nil, 0)
	report := v.Validate(context.Background(), "run-1", rs,
		staticData{"orders": {{"id": 1}}})

	require.Len(t, report.Outcomes, 3)
	for _, o := range report.Outcomes {
		assert.False(t, o.Passed)
	}
}

func TestValidate_MaterializationFailure(t *testing.T) {
	v := NewValidator(nil, 0)
	report := v.Validate(context.Background(), "run-1", ordersRuleSet(t), staticData{})

	assert.Equal(t, model.VerdictFail, report.Verdict)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, "materialize", report.Outcomes[0].RuleID)
	assert.Equal(t, model.SeverityError, report.Outcomes[0].Severity)
	assert.False(t, report.Outcomes[0].Passed)
	assert.Empty(t, report.Fingerprint)
}

func TestValidate_EvidenceLimit(t *testing.T) {
	rows := make([]model.GenericRecord, 20)
	for i := range rows {
		rows[i] = model.GenericRecord{"amount": -1}
	}
	rs, err := NewRuleSet(model.RuleSetSpec{
		Dataset: "orders",
		Rules: []model.RuleSpec{
			{ID: "amount-non-negative", Kind: model.KindRange, Column: "amount",
				Parameters: map[string]interface{}{"min": 0}},
		},
	})
	require.NoError(t, err)

	v := NewValidator(nil, 3)
	report := v.Validate(context.Background(), "run-1", rs, staticData{"orders": rows})
	require.Len(t, report.Outcomes, 1)
	assert.Len(t, report.Outcomes[0].Evidence, 3)
}

func TestFingerprint(t *testing.T) {
	rows := []model.GenericRecord{{"id": 1, "amount": 10.0}, {"id": 2, "amount": 20.0}}

	t.Run("identical data hashes identically", func(t *testing.T) {
		again := []model.GenericRecord{{"amount": 10.0, "id": 1}, {"amount": 20.0, "id": 2}}
		assert.Equal(t, Fingerprint(rows), Fingerprint(again))
	})

	t.Run("different data hashes differently", func(t *testing.T) {
		other := []model.GenericRecord{{"id": 1, "amount": 10.0}}
		assert.NotEqual(t, Fingerprint(rows), Fingerprint(other))
	})

	t.Run("empty data still fingerprints", func(t *testing.T) {
		assert.NotEmpty(t, Fingerprint(nil))
	})
}
