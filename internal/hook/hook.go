// Package hook integrates validation and audit capture with the host
// pipeline's lifecycle events without altering node execution results.
package hook

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-data-sentinel/internal/audit"
	"go-data-sentinel/internal/metrics"
	"go-data-sentinel/internal/model"
	"go-data-sentinel/internal/notify"
	"go-data-sentinel/internal/validation"
)

// RunParams is the run metadata the host exposes at run start.
type RunParams struct {
	RunID        string
	PipelineName string
	Env          string
	Tags         []string
	NodeNames    []string
	FromNodes    []string
	Extra        map[string]interface{}
}

// NodeParams describes one node execution. Data, when the host provides it,
// materializes the node's produced datasets for validation.
type NodeParams struct {
	Name    string
	Inputs  []string
	Outputs []string
	Data    validation.DataProvider
}

// Listener is the explicit subscription surface the host runner drives,
// one method per lifecycle event kind. A non-nil error from a node or
// dataset method is an abort request (see AbortError); the host decides
// how to propagate it.
type Listener interface {
	OnRunStarted(ctx context.Context, params RunParams) error
	OnNodeStarted(ctx context.Context, runID string, node NodeParams) error
	OnNodeEnded(ctx context.Context, runID string, node NodeParams, nodeErr error) error
	OnDatasetLoaded(ctx context.Context, runID, nodeName, dataset string, data validation.DataProvider) error
	OnDatasetSaved(ctx context.Context, runID, nodeName, dataset string, data validation.DataProvider) error
	OnRunEnded(ctx context.Context, runID string, runErr error) error
}

// Options wires a Hook's collaborators.
type Options struct {
	RuleSets     map[string]*validation.RuleSet
	Validator    *validation.Validator
	Recorder     *audit.Recorder
	ReportStores []audit.ReportStore
	Notifier     *notify.Dispatcher
	Logger       *zap.Logger
}

// Hook drives the Validator and AuditRecorder at the correct lifecycle
// points. It never holds dataset data beyond a single validation call, and
// its event methods are safe for concurrent node contexts within one run.
type Hook struct {
	rulesets     map[string]*validation.RuleSet
	validator    *validation.Validator
	recorder     *audit.Recorder
	reportStores []audit.ReportStore
	notifier     *notify.Dispatcher
	logger       *zap.Logger

	mu   sync.Mutex
	runs map[string]*runState
}

type runState struct {
	params  RunParams
	aborted bool
}

var _ Listener = (*Hook)(nil)

func New(opts Options) *Hook {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hook{
		rulesets:     opts.RuleSets,
		validator:    opts.Validator,
		recorder:     opts.Recorder,
		reportStores: opts.ReportStores,
		notifier:     opts.Notifier,
		logger:       logger,
		runs:         make(map[string]*runState),
	}
}

// OnRunStarted opens the run record and emits the run-started event.
// Audit-storage failures are escalated through the recorder but never
// surface to the host: the pipeline must not be blocked by an audit outage.
func (h *Hook) OnRunStarted(ctx context.Context, params RunParams) error {
	h.mu.Lock()
	h.runs[params.RunID] = &runState{params: params}
	h.mu.Unlock()

	now := time.Now().UTC()
	_ = h.recorder.OpenRun(ctx, model.Run{
		RunID:        params.RunID,
		PipelineName: params.PipelineName,
		Env:          params.Env,
		StartedAt:    now,
		Status:       model.RunStatusRunning,
	})

	payload := map[string]interface{}{
		"env": params.Env,
	}
	if len(params.Tags) > 0 {
		payload["tags"] = params.Tags
	}
	if len(params.NodeNames) > 0 {
		payload["node_names"] = params.NodeNames
	}
	if len(params.FromNodes) > 0 {
		payload["from_nodes"] = params.FromNodes
	}
	for k, v := range params.Extra {
		payload[k] = v
	}
	_ = h.recorder.Record(ctx, model.AuditEvent{
		RunID:        params.RunID,
		PipelineName: params.PipelineName,
		Kind:         model.EventRunStarted,
		Timestamp:    now,
		Payload:      payload,
	})
	return nil
}

func (h *Hook) OnNodeStarted(ctx context.Context, runID string, node NodeParams) error {
	_ = h.recorder.Record(ctx, model.AuditEvent{
		RunID:        runID,
		PipelineName: h.pipelineName(runID),
		NodeName:     node.Name,
		Kind:         model.EventNodeStarted,
		Timestamp:    time.Now().UTC(),
		Payload:      nodePayload(node, nil),
	})
	return nil
}

// OnNodeEnded records the node event, then validates every produced dataset
// that has a configured ruleset, when the host exposed the node's data.
func (h *Hook) OnNodeEnded(ctx context.Context, runID string, node NodeParams, nodeErr error) error {
	_ = h.recorder.Record(ctx, model.AuditEvent{
		RunID:        runID,
		PipelineName: h.pipelineName(runID),
		NodeName:     node.Name,
		Kind:         model.EventNodeEnded,
		Timestamp:    time.Now().UTC(),
		Payload:      nodePayload(node, nodeErr),
	})

	if nodeErr != nil || node.Data == nil {
		return nil
	}
	var abort *AbortError
	for _, dataset := range node.Outputs {
		if err := h.validateDataset(ctx, runID, node.Name, dataset, node.Data); err != nil {
			if ae, ok := err.(*AbortError); ok && abort == nil {
				abort = ae
			}
		}
	}
	if abort != nil {
		return abort
	}
	return nil
}

func (h *Hook) OnDatasetLoaded(ctx context.Context, runID, nodeName, dataset string, data validation.DataProvider) error {
	return h.validateDataset(ctx, runID, nodeName, dataset, data)
}

func (h *Hook) OnDatasetSaved(ctx context.Context, runID, nodeName, dataset string, data validation.DataProvider) error {
	return h.validateDataset(ctx, runID, nodeName, dataset, data)
}

// OnRunEnded finalizes the run record and emits the run-ended event. The
// host's own outcome decides succeeded/failed; a blocking validation
// failure earlier in the run downgrades it to aborted-by-validation.
func (h *Hook) OnRunEnded(ctx context.Context, runID string, runErr error) error {
	h.mu.Lock()
	state := h.runs[runID]
	delete(h.runs, runID)
	h.mu.Unlock()

	pipelineName := ""
	if state != nil {
		pipelineName = state.params.PipelineName
	}

	status := model.RunStatusSucceeded
	if runErr != nil {
		status = model.RunStatusFailed
	}
	if state != nil && state.aborted {
		status = model.RunStatusAbortedByValidation
	}

	won, _ := h.recorder.CloseRun(ctx, runID, status)
	if !won {
		// Already finalized, e.g. by an abort; keep the stored status.
		if run, err := h.recorder.Run(ctx, runID); err == nil {
			status = run.Status
		}
	}

	payload := map[string]interface{}{
		"status": string(status),
	}
	if runErr != nil {
		payload["exception"] = exceptionToStr(runErr)
	}
	_ = h.recorder.Record(ctx, model.AuditEvent{
		RunID:        runID,
		PipelineName: pipelineName,
		Kind:         model.EventRunEnded,
		Timestamp:    time.Now().UTC(),
		Payload:      payload,
	})
	return nil
}

// validateDataset runs the online rules configured for the dataset and
// emits the dataset-validated audit event. It returns an AbortError when
// the ruleset is blocking and the verdict is fail.
func (h *Hook) validateDataset(ctx context.Context, runID, nodeName, dataset string, data validation.DataProvider) error {
	rs, ok := h.rulesets[dataset]
	if !ok {
		return nil
	}
	online := rs.FilterMode(model.ModeOnline)
	if len(online.Rules) == 0 {
		return nil
	}

	report := h.validator.Validate(ctx, runID, online, data)
	metrics.ValidationsTotal.WithLabelValues(dataset, string(report.Verdict)).Inc()

	h.persistReport(ctx, report)
	_ = h.recorder.Record(ctx, model.AuditEvent{
		RunID:        runID,
		PipelineName: h.pipelineName(runID),
		NodeName:     nodeName,
		Kind:         model.EventDatasetValidated,
		Timestamp:    time.Now().UTC(),
		Payload: map[string]interface{}{
			"dataset":          dataset,
			"verdict":          string(report.Verdict),
			"data_fingerprint": report.Fingerprint,
			"rule_count":       len(report.Outcomes),
		},
	})
	if h.notifier != nil {
		h.notifier.Dispatch(ctx, report)
	}

	if report.Verdict == model.VerdictFail && rs.Blocking {
		h.mu.Lock()
		if state, ok := h.runs[runID]; ok {
			state.aborted = true
		}
		h.mu.Unlock()

		metrics.BlockingAborts.Inc()
		// Finalize eagerly so the aborted status survives even if the
		// host never delivers run-ended after tearing down.
		_, _ = h.recorder.CloseRun(ctx, runID, model.RunStatusAbortedByValidation)
		h.logger.Warn("blocking validation failure, requesting abort",
			zap.String("run_id", runID),
			zap.String("dataset", dataset),
		)
		return &AbortError{RunID: runID, Dataset: dataset, Report: report}
	}
	return nil
}

func (h *Hook) persistReport(ctx context.Context, report model.ValidationReport) {
	_ = h.recorder.SaveReport(ctx, report)
	for _, rs := range h.reportStores {
		if err := rs.StoreReport(ctx, report); err != nil {
			h.logger.Warn("report store write failed",
				zap.String("run_id", report.RunID),
				zap.String("dataset", report.Dataset),
				zap.Error(err),
			)
		}
	}
}

func (h *Hook) pipelineName(runID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if state, ok := h.runs[runID]; ok {
		return state.params.PipelineName
	}
	return ""
}

func nodePayload(node NodeParams, nodeErr error) map[string]interface{} {
	payload := map[string]interface{}{}
	if len(node.Inputs) > 0 {
		payload["inputs"] = node.Inputs
	}
	if len(node.Outputs) > 0 {
		payload["outputs"] = node.Outputs
	}
	if nodeErr != nil {
		payload["exception"] = exceptionToStr(nodeErr)
	}
	return payload
}
