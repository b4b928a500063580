package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cargo_dispatch"

// Recorder owns a private registry so tests can build as many as they like.
type Recorder struct {
	registry *prometheus.Registry

	turns          *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	droppedCalls   prometheus.Counter
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Chat turns handled, by outcome.",
			},
			[]string{"outcome"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Duration of dispatched action handlers.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		droppedCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_calls_total",
			Help:      "Call requests proposed by the model beyond the first one.",
		}),
	}
	r.registry.MustRegister(
		r.turns,
		r.actionDuration,
		r.droppedCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveTurn(outcome string) {
	if r == nil {
		return
	}
	r.turns.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveAction(action string, d time.Duration) {
	if r == nil {
		return
	}
	r.actionDuration.WithLabelValues(action).Observe(d.Seconds())
}

func (r *Recorder) AddDroppedCalls(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.droppedCalls.Add(float64(n))
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
