package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vstore/internal/errors"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vstore").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for commit and dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vstore",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the store collectors. A nil *Metrics records nothing.
//
// Collected:
//   - vstore_commits_total: commits by store, mutation and status
//   - vstore_commit_duration_seconds: commit latency by store and mutation
//   - vstore_dispatches_total: action dispatches by store, action and status
//   - vstore_dispatch_duration_seconds: dispatch latency by store and action
//   - vstore_errors_total: failures by store, operation and error code
//   - vstore_state_changes_total: path events by store, root key and op
//   - vstore_watcher_fires_total: watcher callbacks by store
//   - vstore_recomputes_total: propagated computed recomputes by store and archetype
//   - vstore_watchers: registered watchers by store
//   - vstore_stores: live stores
type Metrics struct {
	commitsTotal     *prometheus.CounterVec
	commitDuration   *prometheus.HistogramVec
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
	changesTotal     *prometheus.CounterVec
	watcherFires     *prometheus.CounterVec
	recomputesTotal  *prometheus.CounterVec
	watchers         *prometheus.GaugeVec
	stores           prometheus.Gauge
}

// NewMetrics creates and registers the store collectors.
// Registering twice on the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		commitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of mutations committed",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "mutation", "status"}),

		commitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit duration in seconds, including watchers and recomputes",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store", "mutation"}),

		dispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of actions dispatched",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "action", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Action duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store", "action"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of failed store operations",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "op", "code"}),

		changesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "state_changes_total",
			Help:        "Total number of state writes and deletions",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "root", "op"}),

		watcherFires: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "watcher_fires_total",
			Help:        "Total number of watcher callbacks invoked",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		recomputesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputes_total",
			Help:        "Total number of computed properties re-derived after a state change",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "archetype"}),

		watchers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "watchers",
			Help:        "Number of registered watchers",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		stores: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stores",
			Help:        "Number of live stores",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ObserveCommit records one commit.
func (m *Metrics) ObserveCommit(store, mutation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.commitDuration.WithLabelValues(store, mutation).Observe(d.Seconds())
	m.commitsTotal.WithLabelValues(store, mutation, status(err)).Inc()
	if err != nil {
		m.errorsTotal.WithLabelValues(store, "commit", errorCode(err)).Inc()
	}
}

// ObserveDispatch records one action dispatch.
func (m *Metrics) ObserveDispatch(store, action string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.dispatchDuration.WithLabelValues(store, action).Observe(d.Seconds())
	m.dispatchesTotal.WithLabelValues(store, action, status(err)).Inc()
	if err != nil {
		m.errorsTotal.WithLabelValues(store, "dispatch", errorCode(err)).Inc()
	}
}

// RecordError records a failure outside commit and dispatch.
func (m *Metrics) RecordError(store, op string, err error) {
	if m == nil || err == nil {
		return
	}
	m.errorsTotal.WithLabelValues(store, op, errorCode(err)).Inc()
}

// RecordChange records one state write or deletion under a root key.
func (m *Metrics) RecordChange(store, root, op string) {
	if m == nil {
		return
	}
	m.changesTotal.WithLabelValues(store, root, op).Inc()
}

// RecordWatcherFire records one watcher callback.
func (m *Metrics) RecordWatcherFire(store string) {
	if m == nil {
		return
	}
	m.watcherFires.WithLabelValues(store).Inc()
}

// RecordRecompute records one propagated computed recompute.
func (m *Metrics) RecordRecompute(store, archetype string) {
	if m == nil {
		return
	}
	m.recomputesTotal.WithLabelValues(store, archetype).Inc()
}

// SetWatchers sets the watcher gauge of a store.
func (m *Metrics) SetWatchers(store string, n int) {
	if m == nil {
		return
	}
	m.watchers.WithLabelValues(store).Set(float64(n))
}

// StoreOpened increments the live store gauge.
func (m *Metrics) StoreOpened() {
	if m == nil {
		return
	}
	m.stores.Inc()
}

// StoreClosed decrements the live store gauge and drops the store's
// watcher series.
func (m *Metrics) StoreClosed(store string) {
	if m == nil {
		return
	}
	m.stores.Dec()
	m.watchers.DeleteLabelValues(store)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// errorCode keeps the label bounded: registered codes or "internal".
func errorCode(err error) string {
	if code := errors.Code(err); code != "" {
		return code
	}
	return "internal"
}
