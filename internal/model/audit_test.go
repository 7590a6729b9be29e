package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupKey(t *testing.T) {
	ts := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	event := AuditEvent{
		RunID:     "run-1",
		Kind:      EventDatasetValidated,
		Timestamp: ts,
		Payload:   map[string]interface{}{"dataset": "orders", "verdict": "pass"},
	}

	t.Run("identical events share a key", func(t *testing.T) {
		redelivery := event
		redelivery.EventID = "different-delivery-id"
		assert.Equal(t, event.DedupKey(), redelivery.DedupKey())
	})

	t.Run("payload key order does not matter", func(t *testing.T) {
		reordered := event
		reordered.Payload = map[string]interface{}{"verdict": "pass", "dataset": "orders"}
		assert.Equal(t, event.DedupKey(), reordered.DedupKey())
	})

	t.Run("different payloads differ", func(t *testing.T) {
		other := event
		other.Payload = map[string]interface{}{"dataset": "orders", "verdict": "fail"}
		assert.NotEqual(t, event.DedupKey(), other.DedupKey())
	})

	t.Run("different timestamps differ", func(t *testing.T) {
		other := event
		other.Timestamp = ts.Add(time.Nanosecond)
		assert.NotEqual(t, event.DedupKey(), other.DedupKey())
	})

	t.Run("different kinds differ", func(t *testing.T) {
		other := event
		other.Kind = EventRunEnded
		assert.NotEqual(t, event.DedupKey(), other.DedupKey())
	})
}

func TestModeApplies(t *testing.T) {
	assert.True(t, ModeBoth.Applies(ModeOnline))
	assert.True(t, ModeBoth.Applies(ModeOffline))
	assert.True(t, Mode("").Applies(ModeOnline))
	assert.True(t, ModeOnline.Applies(ModeOnline))
	assert.False(t, ModeOnline.Applies(ModeOffline))
	assert.False(t, ModeOffline.Applies(ModeOnline))
}
