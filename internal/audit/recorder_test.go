package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-data-sentinel/internal/audit"
	"go-data-sentinel/internal/audit/audittest"
	"go-data-sentinel/internal/model"
)

func fastPolicy() audit.RetryPolicy {
	return audit.RetryPolicy{
		MaxAttempts:       3,
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRecord_AssignsEventIDAndTimestamp(t *testing.T) {
	store := audittest.New()
	rec := audit.NewRecorder(store, nil, fastPolicy())

	err := rec.Record(context.Background(), model.AuditEvent{
		RunID: "run-1",
		Kind:  model.EventRunStarted,
	})
	require.NoError(t, err)

	events, err := rec.Query(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].EventID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestRecord_RetriesTransientFailures(t *testing.T) {
	store := audittest.New()
	store.FailAppends = 2 // fail twice, succeed on the third attempt
	rec := audit.NewRecorder(store, nil, fastPolicy())

	err := rec.Record(context.Background(), model.AuditEvent{
		RunID: "run-1",
		Kind:  model.EventNodeStarted,
	})
	require.NoError(t, err)

	events, err := rec.Query(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecord_EscalatesAfterExhaustion(t *testing.T) {
	store := audittest.New()
	store.FailAppends = 10
	rec := audit.NewRecorder(store, nil, fastPolicy())

	err := rec.Record(context.Background(), model.AuditEvent{
		RunID: "run-1",
		Kind:  model.EventNodeStarted,
	})
	require.Error(t, err)
	var perr *audit.PersistenceError
	assert.ErrorAs(t, err, &perr)

	events, err := rec.Query(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecord_DeduplicatesRedelivery(t *testing.T) {
	store := audittest.New()
	rec := audit.NewRecorder(store, nil, fastPolicy())

	event := model.AuditEvent{
		RunID:     "run-1",
		Kind:      model.EventDatasetValidated,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]interface{}{"dataset": "orders", "verdict": "pass"},
	}
	require.NoError(t, rec.Record(context.Background(), event))
	require.NoError(t, rec.Record(context.Background(), event))

	events, err := rec.Query(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCloseRun_FirstTerminalStatusWins(t *testing.T) {
	store := audittest.New()
	rec := audit.NewRecorder(store, nil, fastPolicy())
	ctx := context.Background()

	require.NoError(t, rec.OpenRun(ctx, model.Run{
		RunID:     "run-1",
		StartedAt: time.Now().UTC(),
		Status:    model.RunStatusRunning,
	}))

	won, err := rec.CloseRun(ctx, "run-1", model.RunStatusAbortedByValidation)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = rec.CloseRun(ctx, "run-1", model.RunStatusSucceeded)
	require.NoError(t, err)
	assert.False(t, won)

	run, err := rec.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusAbortedByValidation, run.Status)
	require.NotNil(t, run.EndedAt)
}

func TestSaveReport_RoundTrip(t *testing.T) {
	store := audittest.New()
	rec := audit.NewRecorder(store, nil, fastPolicy())
	ctx := context.Background()

	report := model.ValidationReport{
		RunID:   "run-1",
		Dataset: "orders",
		Verdict: model.VerdictPass,
	}
	require.NoError(t, rec.SaveReport(ctx, report))

	reports, err := rec.Reports(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "orders", reports[0].Dataset)
}
