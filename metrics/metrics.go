// Package metrics exports Prometheus metrics for the recents model and the
// settings relay.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vinayprograms/recents/stack"
	"github.com/vinayprograms/recents/task"
)

// StackMetrics counts model changes. It implements stack.Callbacks and is
// meant to be attached next to the UI observer with stack.MultiCallbacks.
type StackMetrics struct {
	added          prometheus.Counter
	removed        *prometheus.CounterVec
	historyRemoved prometheus.Counter
	active         prometheus.Gauge
}

var _ stack.Callbacks = (*StackMetrics)(nil)

// NewStackMetrics registers the model metrics with reg. A nil reg uses the
// default registerer.
func NewStackMetrics(reg prometheus.Registerer) *StackMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &StackMetrics{
		added: f.NewCounter(prometheus.CounterOpts{
			Name: "recents_tasks_added_total",
			Help: "Tasks new to the collection after reconciliation",
		}),
		removed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recents_tasks_removed_total",
			Help: "Tasks removed from the active view or the collection",
		}, []string{"front_most"}),
		historyRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "recents_history_tasks_removed_total",
			Help: "Tasks removed from the historical view",
		}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Name: "recents_active_tasks",
			Help: "Current size of the active view",
		}),
	}
}

func (m *StackMetrics) OnStackTaskAdded(s *stack.TaskStack, _ *task.Task) {
	m.added.Inc()
	m.active.Set(float64(s.StackTaskCount()))
}

func (m *StackMetrics) OnStackTaskRemoved(s *stack.TaskStack, _ *task.Task, wasFrontMost bool, _ *task.Task) {
	m.removed.WithLabelValues(strconv.FormatBool(wasFrontMost)).Inc()
	m.active.Set(float64(s.StackTaskCount()))
}

func (m *StackMetrics) OnHistoryTaskRemoved(_ *stack.TaskStack, _ *task.Task) {
	m.historyRemoved.Inc()
}

// Observe sets the active gauge from the stack. Reconciliation without
// notifications does not reach the callbacks, so callers refresh here.
func (m *StackMetrics) Observe(s *stack.TaskStack) {
	m.active.Set(float64(s.StackTaskCount()))
}

// RelayMetrics tracks settings relay fan-out.
type RelayMetrics struct {
	dispatches *prometheus.CounterVec
	duration   prometheus.Histogram
	pruned     prometheus.Counter
	callbacks  prometheus.Gauge
}

// NewRelayMetrics registers the relay metrics with reg. A nil reg uses the
// default registerer.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &RelayMetrics{
		dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recents_relay_deliveries_total",
			Help: "Callback deliveries by outcome",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "recents_relay_dispatch_duration_seconds",
			Help:    "Duration of one event fan-out",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		pruned: f.NewCounter(prometheus.CounterOpts{
			Name: "recents_relay_callbacks_pruned_total",
			Help: "Callbacks dropped after their peer went away",
		}),
		callbacks: f.NewGauge(prometheus.GaugeOpts{
			Name: "recents_relay_callbacks",
			Help: "Registered relay callbacks",
		}),
	}
}

// ObserveDispatch records one fan-out. A nil receiver is a no-op.
func (m *RelayMetrics) ObserveDispatch(delivered, failed, pruned int, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues("delivered").Add(float64(delivered))
	m.dispatches.WithLabelValues("failed").Add(float64(failed))
	m.pruned.Add(float64(pruned))
	m.duration.Observe(d.Seconds())
}

// SetCallbacks records the registered callback count. A nil receiver is a
// no-op.
func (m *RelayMetrics) SetCallbacks(n int) {
	if m == nil {
		return
	}
	m.callbacks.Set(float64(n))
}
