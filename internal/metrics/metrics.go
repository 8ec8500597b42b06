package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements service.Metrics on a dedicated prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	submitted *prometheus.CounterVec
	finished  *prometheus.CounterVec
	retries   prometheus.Counter
	pending   prometheus.Gauge
	running   prometheus.Gauge
	duration  prometheus.Histogram
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskqueue_tasks_submitted_total",
			Help: "Tasks accepted by the queue, by priority.",
		}, []string{"priority"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskqueue_tasks_finished_total",
			Help: "Tasks that reached a terminal status.",
		}, []string{"status"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskqueue_task_retries_total",
			Help: "Retry attempts scheduled after failed runs.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskqueue_tasks_pending",
			Help: "Tasks currently waiting for a worker slot.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskqueue_tasks_running",
			Help: "Worker slots currently occupied.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskqueue_task_duration_seconds",
			Help:    "Wall time of finished task bodies.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
	}
	reg.MustRegister(
		r.submitted, r.finished, r.retries, r.pending, r.running, r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) TaskSubmitted(priority string) {
	r.submitted.WithLabelValues(priority).Inc()
}

func (r *Recorder) TaskFinished(status string, duration time.Duration) {
	r.finished.WithLabelValues(status).Inc()
	r.duration.Observe(duration.Seconds())
}

func (r *Recorder) TaskRetried() {
	r.retries.Inc()
}

func (r *Recorder) QueueDepth(pending, running int) {
	r.pending.Set(float64(pending))
	r.running.Set(float64(running))
}

// Handler serves the registry in the Prometheus text exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
