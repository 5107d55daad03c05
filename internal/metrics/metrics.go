// Package metrics exposes Prometheus metrics for the monitoring loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hamed0406/watchdog/internal/domain"
)

type Metrics struct {
	probesTotal        *prometheus.CounterVec
	resourceStatus     *prometheus.GaugeVec
	statusChanges      *prometheus.CounterVec
	destinationUpdates *prometheus.CounterVec
	persistFailures    prometheus.Counter
}

// New registers the watchdog metrics on reg. Pass prometheus.NewRegistry()
// in tests to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		probesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchdog_probes_total",
				Help: "Probe attempts by outcome (reachable, unreachable, error)",
			},
			[]string{"outcome"},
		),
		resourceStatus: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "watchdog_resource_status",
				Help: "Confirmed resource status (1 for the current status, 0 otherwise)",
			},
			[]string{"status"},
		),
		statusChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchdog_status_changes_total",
				Help: "Confirmed status changes",
			},
			[]string{"from", "to"},
		),
		destinationUpdates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchdog_destination_updates_total",
				Help: "Per-destination notification results (delivered, skipped)",
			},
			[]string{"result"},
		),
		persistFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "watchdog_persist_failures_total",
				Help: "Failed attempts to persist the runtime state",
			},
		),
	}
	return m
}

func (m *Metrics) RecordProbe(outcome string) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(outcome).Inc()
}

// SetStatus marks s as the only active status.
func (m *Metrics) SetStatus(s domain.ResourceStatus) {
	if m == nil {
		return
	}
	for _, v := range []domain.ResourceStatus{domain.StatusUnknown, domain.StatusUp, domain.StatusDown} {
		g := m.resourceStatus.WithLabelValues(v.String())
		if v == s {
			g.Set(1)
		} else {
			g.Set(0)
		}
	}
}

func (m *Metrics) RecordStatusChange(from, to domain.ResourceStatus) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *Metrics) RecordDestination(result string) {
	if m == nil {
		return
	}
	m.destinationUpdates.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordPersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}
