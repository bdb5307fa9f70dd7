// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus collectors for one manager instance.
type Collector struct {
	actionsTotal     *prometheus.CounterVec
	actionDuration   *prometheus.HistogramVec
	truncationsTotal *prometheus.CounterVec
	overBudgetTotal  prometheus.Counter
	tokensMeasured   prometheus.Counter
	historyEntries   prometheus.Gauge
	contextTokens    prometheus.Histogram
}

// NewCollector registers collectors under the given namespace. A nil
// registerer falls back to the default registry.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		actionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Total number of browser actions executed",
			},
			[]string{"action", "status"},
		),
		actionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Browser action execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		truncationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "truncations_total",
				Help:      "Context spans truncated or elided to satisfy the token budget",
			},
			[]string{"span", "mode"},
		),
		overBudgetTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "over_budget_total",
				Help:      "Compositions that stayed over budget after full elision",
			},
		),
		tokensMeasured: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_measured_total",
				Help:      "Total tokens measured across all composed contexts",
			},
		),
		historyEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "history_entries",
				Help:      "Entries in the session action history",
			},
		),
		contextTokens: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "context_tokens",
				Help:      "Token size of composed contexts after budget enforcement",
				Buckets:   prometheus.ExponentialBuckets(64, 2, 12),
			},
		),
	}
}

// ObserveAction records one executed action.
func (c *Collector) ObserveAction(action, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.actionsTotal.WithLabelValues(action, status).Inc()
	c.actionDuration.WithLabelValues(action).Observe(d.Seconds())
}

// ObserveTruncation records a truncated or elided span.
// span is "result" or "page_state"; mode is "trim" or "elide".
func (c *Collector) ObserveTruncation(span, mode string) {
	if c == nil {
		return
	}
	c.truncationsTotal.WithLabelValues(span, mode).Inc()
}

// ObserveOverBudget records a composition that could not be brought under
// budget.
func (c *Collector) ObserveOverBudget() {
	if c == nil {
		return
	}
	c.overBudgetTotal.Inc()
}

// ObserveContext records the measured size of a composed context.
func (c *Collector) ObserveContext(tokens int) {
	if c == nil {
		return
	}
	c.tokensMeasured.Add(float64(tokens))
	c.contextTokens.Observe(float64(tokens))
}

// SetHistoryLen records the current history length.
func (c *Collector) SetHistoryLen(n int) {
	if c == nil {
		return
	}
	c.historyEntries.Set(float64(n))
}
