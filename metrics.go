package main

import (
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"strings"
)

type Metrics struct {
	upstream    *prometheus.CounterVec
	cache       *prometheus.CounterVec
	stale       prometheus.Counter
	submissions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dogimages",
			Name:      "upstream_requests_total",
			Help:      "Requests made to the dog image API by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dogimages",
			Name:      "request_cache_total",
			Help:      "Request cache lookups by result.",
		}, []string{"result"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dogimages",
			Name:      "stale_fetches_discarded_total",
			Help:      "Image fetch completions dropped because a newer selection was made.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dogimages",
			Name:      "form_submissions_total",
			Help:      "Form submissions by outcome.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{m.upstream, m.cache, m.stale, m.submissions} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

// Upstream labels by endpoint family so breed names don't explode cardinality.
func (m *Metrics) Upstream(path, outcome string) {
	if m == nil {
		return
	}
	endpoint := "images"
	if strings.HasPrefix(path, "/breeds/") {
		endpoint = "breeds"
	}
	m.upstream.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) CacheResult(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cache.WithLabelValues("hit").Inc()
	} else {
		m.cache.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) StaleDiscarded() {
	if m == nil {
		return
	}
	m.stale.Inc()
}

func (m *Metrics) Submission(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.submissions.WithLabelValues("ok").Inc()
	} else {
		m.submissions.WithLabelValues("invalid").Inc()
	}
}
