// Package metrics exposes prometheus collectors shared by the validation
// and audit components. Collectors register on the default registry and are
// served by the audit API's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ValidationsTotal counts completed dataset validations by verdict.
	ValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "datasentinel",
		Name:      "validations_total",
		Help:      "Completed dataset validations, labeled by dataset and verdict.",
	}, []string{"dataset", "verdict"})

	// AuditWriteFailures counts audit records dropped after retries.
	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "datasentinel",
		Name:      "audit_write_failures_total",
		Help:      "Audit store writes that failed after exhausting retries.",
	})

	// BlockingAborts counts pipeline runs aborted by a blocking validation failure.
	BlockingAborts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "datasentinel",
		Name:      "blocking_aborts_total",
		Help:      "Pipeline runs aborted because a blocking ruleset failed.",
	})
)
