// Package metrics exposes run counters to Prometheus.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records distribution outcomes. The zero value is not usable; use
// New. A nil *Collector is a no-op so callers never need to check.
type Collector struct {
	reg       prometheus.Registerer
	gatherer  prometheus.Gatherer
	namespace string
	once      sync.Once

	runs        *prometheus.CounterVec
	cases       *prometheus.CounterVec
	tiers       *prometheus.CounterVec
	stickMoved  prometheus.Counter
	runDuration prometheus.Histogram
}

// New registers the collectors on reg. A nil reg uses a private registry,
// which keeps tests independent from the default one.
func New(reg *prometheus.Registry, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "distribuicao"
	}
	c := &Collector{reg: reg, gatherer: reg, namespace: namespace}
	c.ensureRegistered()
	return c
}

func (c *Collector) ensureRegistered() {
	c.once.Do(func() {
		c.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "runs_total",
			Help:      "Distribution runs by final status.",
		}, []string{"status"})
		c.cases = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "cases_total",
			Help:      "Cases handled by category (pre_atribuido, principal, sem_candidato).",
		}, []string{"category"})
		c.tiers = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "fallback_tier_total",
			Help:      "Redistributed cases by fallback tier.",
		}, []string{"tier"})
		c.stickMoved = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      "continuity_moved_total",
			Help:      "Cases moved back to their previous reviewer.",
		})
		c.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: c.namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full distribution run.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		})
		c.reg.MustRegister(c.runs, c.cases, c.tiers, c.stickMoved, c.runDuration)
	})
}

func (c *Collector) ObserveRun(status string, seconds float64) {
	if c == nil {
		return
	}
	c.runs.WithLabelValues(status).Inc()
	c.runDuration.Observe(seconds)
}

func (c *Collector) AddCases(category string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.cases.WithLabelValues(category).Add(float64(n))
}

func (c *Collector) AddTier(tier string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.tiers.WithLabelValues(tier).Add(float64(n))
}

func (c *Collector) AddMoved(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.stickMoved.Add(float64(n))
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
