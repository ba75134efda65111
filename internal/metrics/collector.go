// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jobflow-io/jobflow/workflow"
)

// Collector records parse and validation outcomes.
type Collector struct {
	parsesTotal   *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	parseDuration prometheus.Histogram
}

// NewCollector registers the collector's metrics under namespace. A nil
// registerer uses the default Prometheus registry.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		parsesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_parses_total",
				Help:      "Total workflow definition parses by outcome",
			},
			[]string{"outcome"},
		),
		failuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_validation_failures_total",
				Help:      "Workflow validation failures by error code",
			},
			[]string{"code"},
		),
		parseDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_parse_duration_seconds",
				Help:      "Workflow parse and validation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// ObserveParse records one parse attempt.
func (c *Collector) ObserveParse(err error, d time.Duration) {
	c.parseDuration.Observe(d.Seconds())
	if err == nil {
		c.parsesTotal.WithLabelValues("ok").Inc()
		return
	}
	c.parsesTotal.WithLabelValues("error").Inc()
	code := workflow.CodeOf(err)
	if code == "" {
		code = "internal"
	}
	c.failuresTotal.WithLabelValues(string(code)).Inc()
}
