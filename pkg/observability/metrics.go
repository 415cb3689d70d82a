package observability

import (
	"errors"
	"log/slog"

	"github.com/aretw0/yerf/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the set of collectors describing a tracker.
type Metrics struct {
	Started      prometheus.Counter
	Stopped      *prometheus.CounterVec
	Errors       *prometheus.CounterVec
	RootDuration prometheus.Histogram
	Flushes      *prometheus.CounterVec
	Entries      prometheus.Counter

	logger *slog.Logger
}

// Option configures Metrics.
type Option func(*Metrics)

// WithLogger logs every lifecycle event at debug level, and errors at warn.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Metrics) {
		m.logger = logger
	}
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer, opts ...Option) *Metrics {
	m := &Metrics{
		Started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yerf_samples_started_total",
			Help: "Total number of started samples",
		}),
		Stopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yerf_samples_stopped_total",
			Help: "Total number of stopped samples",
		}, []string{"root"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yerf_sample_errors_total",
			Help: "Protocol errors sent to the error channel",
		}, []string{"kind"}),
		RootDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "yerf_root_duration_seconds",
			Help:    "Duration of finished root samples",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		Flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yerf_flushes_total",
			Help: "Report flushes by result",
		}, []string{"result"}),
		Entries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yerf_entries_reported_total",
			Help: "Entries acknowledged by the sink",
		}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if reg != nil {
		reg.MustRegister(m.Started, m.Stopped, m.Errors, m.RootDuration, m.Flushes, m.Entries)
	}
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStart: func(e domain.SampleEvent) {
			m.Started.Inc()
			m.debug("sample_start", e)
		},
		OnStop: func(e domain.SampleEvent) {
			if e.Root {
				m.Stopped.WithLabelValues("true").Inc()
				m.RootDuration.Observe(e.Delta.Seconds())
			} else {
				m.Stopped.WithLabelValues("false").Inc()
			}
			m.debug("sample_stop", e)
		},
		OnReportable: func(e domain.SampleEvent) {
			m.debug("sample_reportable", e)
		},
		OnError: func(err error) {
			m.Errors.WithLabelValues(ErrorKind(err)).Inc()
		},
	}
}

// ObserveFlush records the outcome of one report flush of n entries.
func (m *Metrics) ObserveFlush(n int, err error) {
	if err != nil {
		m.Flushes.WithLabelValues("error").Inc()
		if m.logger != nil {
			m.logger.Warn("flush failed", "entries", n, "err", err)
		}
		return
	}
	m.Flushes.WithLabelValues("ok").Inc()
	m.Entries.Add(float64(n))
}

func (m *Metrics) debug(msg string, e domain.SampleEvent) {
	if m.logger == nil {
		return
	}
	m.logger.Debug(msg,
		"key", e.Key,
		"state", e.State,
		"offset", e.Offset,
		"delta", e.Delta,
	)
}

var kinds = []struct {
	err  error
	name string
}{
	{domain.ErrDuplicateKey, "duplicate_key"},
	{domain.ErrAlreadyStarted, "already_started"},
	{domain.ErrAlreadyStopped, "already_stopped"},
	{domain.ErrNotStarted, "not_started"},
	{domain.ErrChildNotAttached, "child_not_attached"},
	{domain.ErrWaterfallCannotStop, "waterfall_cannot_stop"},
	{domain.ErrNotStopped, "not_stopped"},
}

// ErrorKind returns a stable label for a protocol error.
func ErrorKind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "other"
}
