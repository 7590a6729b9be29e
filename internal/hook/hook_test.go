package hook_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-data-sentinel/internal/audit"
	"go-data-sentinel/internal/audit/audittest"
	"go-data-sentinel/internal/hook"
	"go-data-sentinel/internal/model"
	"go-data-sentinel/internal/validation"
)

type staticData map[string][]model.GenericRecord

func (d staticData) Materialize(ctx context.Context, name string) ([]model.GenericRecord, error) {
	rows, ok := d[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	return rows, nil
}

func fastPolicy() audit.RetryPolicy {
	return audit.RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiplier: 1}
}

func ordersRuleSet(t *testing.T, blocking bool) map[string]*validation.RuleSet {
	t.Helper()
	rs, err := validation.NewRuleSet(model.RuleSetSpec{
		Dataset:  "orders",
		Blocking: &blocking,
		Rules: []model.RuleSpec{
			{ID: "id-not-null", Kind: model.KindNotNull, Column: "id"},
			{ID: "amount-non-negative", Kind: model.KindRange, Column: "amount",
				Parameters: map[string]interface{}{"min": 0}},
		},
	})
	require.NoError(t, err)
	return map[string]*validation.RuleSet{"orders": rs}
}

func ordersRows(badAmount bool) []model.GenericRecord {
	rows := make([]model.GenericRecord, 0, 10)
	for i := 0; i < 10; i++ {
		amount := 10.0
		if badAmount && i == 4 {
			amount = -5
		}
		rows = append(rows, model.GenericRecord{"id": i, "amount": amount})
	}
	return rows
}

func newHook(t *testing.T, store *audittest.Store, rulesets map[string]*validation.RuleSet) *hook.Hook {
	t.Helper()
	return hook.New(hook.Options{
		RuleSets:  rulesets,
		Validator: validation.NewValidator(nil, 0),
		Recorder:  audit.NewRecorder(store, nil, fastPolicy()),
	})
}

func eventKinds(t *testing.T, store *audittest.Store, runID string) []model.EventKind {
	t.Helper()
	events, err := store.EventsByRun(context.Background(), runID)
	require.NoError(t, err)
	kinds := make([]model.EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func TestHook_SuccessfulRun(t *testing.T) {
	store := audittest.New()
	h := newHook(t, store, ordersRuleSet(t, true))
	ctx := context.Background()

	require.NoError(t, h.OnRunStarted(ctx, hook.RunParams{
		RunID: "run-1", PipelineName: "etl", Env: "prod",
	}))
	node := hook.NodeParams{
		Name:    "load_orders",
		Outputs: []string{"orders"},
		Data:    staticData{"orders": ordersRows(false)},
	}
	require.NoError(t, h.OnNodeStarted(ctx, "run-1", node))
	require.NoError(t, h.OnNodeEnded(ctx, "run-1", node, nil))
	require.NoError(t, h.OnRunEnded(ctx, "run-1", nil))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSucceeded, run.Status)

	assert.Equal(t, []model.EventKind{
		model.EventRunStarted,
		model.EventNodeStarted,
		model.EventNodeEnded,
		model.EventDatasetValidated,
		model.EventRunEnded,
	}, eventKinds(t, store, "run-1"))

	reports, err := store.ReportsByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, model.VerdictPass, reports[0].Verdict)
}

func TestHook_BlockingFailureAbortsRun(t *testing.T) {
	store := audittest.New()
	h := newHook(t, store, ordersRuleSet(t, true))
	ctx := context.Background()

	require.NoError(t, h.OnRunStarted(ctx, hook.RunParams{RunID: "run-1", PipelineName: "etl"}))
	node := hook.NodeParams{
		Name:    "load_orders",
		Outputs: []string{"orders"},
		Data:    staticData{"orders": ordersRows(true)},
	}
	err := h.OnNodeEnded(ctx, "run-1", node, nil)
	require.Error(t, err)

	var abort *hook.AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, "run-1", abort.RunID)
	assert.Equal(t, "orders", abort.Dataset)
	require.Len(t, abort.Report.Outcomes, 2)
	assert.True(t, abort.Report.Outcomes[0].Passed)
	assert.False(t, abort.Report.Outcomes[1].Passed)
	assert.Equal(t, model.VerdictFail, abort.Report.Verdict)

	// The abort finalizes eagerly; run-ended afterwards must not override it.
	require.NoError(t, h.OnRunEnded(ctx, "run-1", nil))
	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusAbortedByValidation, run.Status)
}

func TestHook_NonBlockingFailureDoesNotAbort(t *testing.T) {
	store := audittest.New()
	h := newHook(t, store, ordersRuleSet(t, false))
	ctx := context.Background()

	require.NoError(t, h.OnRunStarted(ctx, hook.RunParams{RunID: "run-1"}))
	node := hook.NodeParams{
		Name:    "load_orders",
		Outputs: []string{"orders"},
		Data:    staticData{"orders": ordersRows(true)},
	}
	require.NoError(t, h.OnNodeEnded(ctx, "run-1", node, nil))
	require.NoError(t, h.OnRunEnded(ctx, "run-1", nil))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSucceeded, run.Status)

	reports, err := store.ReportsByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, model.VerdictFail, reports[0].Verdict)
}

func TestHook_NodeErrorFailsRunAndSkipsValidation(t *testing.T) {
	store := audittest.New()
	h := newHook(t, store, ordersRuleSet(t, true))
	ctx := context.Background()

	require.NoError(t, h.OnRunStarted(ctx, hook.RunParams{RunID: "run-1"}))
	node := hook.NodeParams{
		Name:    "load_orders",
		Outputs: []string{"orders"},
		Data:    staticData{"orders": ordersRows(false)},
	}
	nodeErr := errors.New("upstream exploded")
	require.NoError(t, h.OnNodeEnded(ctx, "run-1", node, nodeErr))
	require.NoError(t, h.OnRunEnded(ctx, "run-1", nodeErr))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)

	// Failed node output is never validated.
	kinds := eventKinds(t, store, "run-1")
	assert.NotContains(t, kinds, model.EventDatasetValidated)

	events, err := store.EventsByRun(ctx, "run-1")
	require.NoError(t, err)
	var nodeEnded model.AuditEvent
	for _, e := range events {
		if e.Kind == model.EventNodeEnded {
			nodeEnded = e
		}
	}
	assert.Contains(t, nodeEnded.Payload["exception"], "upstream exploded")
}

func TestHook_UnconfiguredDatasetIsSkipped(t *testing.T) {
	store := audittest.New()
	h := newHook(t, store, ordersRuleSet(t, true))
	ctx := context.Background()

	require.NoError(t, h.OnRunStarted(ctx, hook.RunParams{RunID: "run-1"}))
	node := hook.NodeParams{
		Name:    "load_customers",
		Outputs: []string{"customers"},
		Data:    staticData{"customers": {{"id": 1}}},
	}
	require.NoError(t, h.OnNodeEnded(ctx, "run-1", node, nil))

	assert.NotContains(t, eventKinds(t, store, "run-1"), model.EventDatasetValidated)
}

func TestHook_OfflineOnlyRulesAreSkippedOnline(t *testing.T) {
	rs, err := validation.NewRuleSet(model.RuleSetSpec{
		Dataset: "orders",
		Rules: []model.RuleSpec{
			{ID: "offline-only", Kind: model.KindNotNull, Column: "id", Mode: model.ModeOffline},
		},
	})
	require.NoError(t, err)

	store := audittest.New()
	h := newHook(t, store, map[string]*validation.RuleSet{"orders": rs})
	ctx := context.Background()

	require.NoError(t, h.OnRunStarted(ctx, hook.RunParams{RunID: "run-1"}))
	err = h.OnDatasetSaved(ctx, "run-1", "load_orders", "orders",
		staticData{"orders": {{"id": nil}}})
	require.NoError(t, err)

	assert.NotContains(t, eventKinds(t, store, "run-1"), model.EventDatasetValidated)
}

func TestHook_AuditOutageNeverBlocksPipeline(t *testing.T) {
	store := audittest.New()
	store.FailAppends = 100
	h := newHook(t, store, ordersRuleSet(t, true))
	ctx := context.Background()

	require.NoError(t, h.OnRunStarted(ctx, hook.RunParams{RunID: "run-1"}))
	node := hook.NodeParams{
		Name:    "load_orders",
		Outputs: []string{"orders"},
		Data:    staticData{"orders": ordersRows(false)},
	}
	require.NoError(t, h.OnNodeEnded(ctx, "run-1", node, nil))
	require.NoError(t, h.OnRunEnded(ctx, "run-1", nil))
}
