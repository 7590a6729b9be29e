package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// EventKind identifies one pipeline or validation lifecycle event.
type EventKind string

const (
	EventRunStarted       EventKind = "run-started"
	EventRunEnded         EventKind = "run-ended"
	EventNodeStarted      EventKind = "node-started"
	EventNodeEnded        EventKind = "node-ended"
	EventDatasetValidated EventKind = "dataset-validated"
)

// AuditEvent is one timestamped record of pipeline or validation activity.
// Events are append-only; ordering by timestamp within a run is significant.
type AuditEvent struct {
	EventID      string                 `json:"event_id"`
	RunID        string                 `json:"run_id"`
	PipelineName string                 `json:"pipeline_name"`
	NodeName     string                 `json:"node_name,omitempty"`
	Kind         EventKind              `json:"event_kind"`
	Timestamp    time.Time              `json:"timestamp"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// DedupKey derives the idempotency key the audit store de-duplicates on.
// Two deliveries of the same event (same run, kind, timestamp and payload)
// must collapse to one stored record.
func (e AuditEvent) DedupKey() string {
	payload, _ := json.Marshal(e.Payload) // map keys are marshaled in sorted order
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%s",
		e.RunID, e.Kind, e.Timestamp.UTC().Format(time.RFC3339Nano), payload))
	return hex.EncodeToString(h[:])
}

// RunStatus is the lifecycle state of one pipeline execution.
type RunStatus string

const (
	RunStatusRunning            RunStatus = "running"
	RunStatusSucceeded          RunStatus = "succeeded"
	RunStatusFailed             RunStatus = "failed"
	RunStatusAbortedByValidation RunStatus = "aborted-by-validation"
)

// Run is one execution of the host pipeline, or one offline validation
// invocation (flagged, not a separate schema).
type Run struct {
	RunID        string     `json:"run_id"`
	PipelineName string     `json:"pipeline_name"`
	Env          string     `json:"env,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Status       RunStatus  `json:"status"`
	Offline      bool       `json:"offline"`
}
