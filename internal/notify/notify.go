// Package notify dispatches validation results to configured notifiers,
// keyed by the report's verdict.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"go-data-sentinel/internal/model"
)

// Event selects which reports a notifier receives.
type Event string

const (
	OnPass Event = "on_pass"
	OnWarn Event = "on_warn"
	OnFail Event = "on_fail"
)

// EventFor maps a report verdict to its notification event.
func EventFor(verdict model.Verdict) Event {
	switch verdict {
	case model.VerdictFail:
		return OnFail
	case model.VerdictWarn:
		return OnWarn
	default:
		return OnPass
	}
}

// Notifier delivers one validation report to an external channel.
type Notifier interface {
	Notify(ctx context.Context, report model.ValidationReport) error
}

// Dispatcher routes reports to the notifiers registered for their verdict.
// Delivery is best-effort; failures are logged, never propagated.
type Dispatcher struct {
	logger  *zap.Logger
	byEvent map[Event][]Notifier
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		logger:  logger,
		byEvent: make(map[Event][]Notifier),
	}
}

// Register adds a notifier for the given event.
func (d *Dispatcher) Register(event Event, n Notifier) {
	d.byEvent[event] = append(d.byEvent[event], n)
}

// Dispatch delivers the report to every notifier registered for its verdict.
func (d *Dispatcher) Dispatch(ctx context.Context, report model.ValidationReport) {
	event := EventFor(report.Verdict)
	for _, n := range d.byEvent[event] {
		if err := n.Notify(ctx, report); err != nil {
			d.logger.Warn("notifier delivery failed",
				zap.String("run_id", report.RunID),
				zap.String("dataset", report.Dataset),
				zap.String("event", string(event)),
				zap.Error(err),
			)
		}
	}
}

// LogNotifier records the report verdict in the structured log.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, report model.ValidationReport) error {
	n.Logger.Info("validation notification",
		zap.String("run_id", report.RunID),
		zap.String("dataset", report.Dataset),
		zap.String("verdict", string(report.Verdict)),
		zap.String("fingerprint", report.Fingerprint),
	)
	return nil
}

// WebhookNotifier POSTs the full report as JSON to a configured URL.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, report model.ValidationReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook POST failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
