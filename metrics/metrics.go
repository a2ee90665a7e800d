// Package metrics exports container and discovery events as Prometheus
// metrics.
//
//	reg := prometheus.NewRegistry()
//	c := inject.NewContainer(inject.WithObserver(metrics.New(reg)))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kdpb/inject"
)

const namespace = "inject"

var _ inject.Observer = (*Observer)(nil)

// Observer implements inject.Observer with Prometheus collectors.
type Observer struct {
	binds       *prometheus.CounterVec
	collisions  prometheus.Counter
	skips       *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates an Observer and registers its collectors with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &Observer{
		binds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bindings_total",
			Help:      "Bindings made, by provider kind.",
		}, []string{"kind"}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collisions_total",
			Help:      "Bind calls ignored because the key was already bound.",
		}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_skips_total",
			Help:      "Descriptors skipped by discovery, by reason.",
		}, []string{"reason"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolutions, by key and result.",
		}, []string{"key", "kind", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Resolution latency, by provider kind.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"kind"}),
	}

	reg.MustRegister(o.binds, o.collisions, o.skips, o.resolutions, o.latency)
	return o
}

func (o *Observer) OnBind(_ inject.Key, kind inject.ProviderKind) {
	o.binds.WithLabelValues(kind.String()).Inc()
}

func (o *Observer) OnCollision(inject.Key) {
	o.collisions.Inc()
}

func (o *Observer) OnSkip(_ inject.Key, reason inject.SkipReason) {
	o.skips.WithLabelValues(string(reason)).Inc()
}

func (o *Observer) OnResolve(key inject.Key, kind inject.ProviderKind, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.resolutions.WithLabelValues(string(key), kind.String(), result).Inc()
	o.latency.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}
