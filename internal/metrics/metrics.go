package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buckets for seconds resolutions of histograms
var buckets = []float64{.005, .01, .05, .1, .25, .5, 1, 2.5}

// histograms
var (
	PassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Name:      "reconcile_pass_duration_seconds",
			Help:      "Time taken by a full stale artifact reconciliation pass.",
			Buckets:   buckets,
		},
	)
	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Name:      "task_duration_seconds",
			Help:      "Time taken to run a named task.",
			Buckets:   buckets,
		},
		[]string{"task"},
	)
)

var (
	Passes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "forge",
		Name:      "reconcile_passes",
	})
	Deleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forge",
		Name:      "reconcile_deleted_files",
	}, []string{"class"})
	DeleteFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forge",
		Name:      "reconcile_delete_failures",
	}, []string{"class"})
	ClassFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forge",
		Name:      "reconcile_class_failures",
	}, []string{"class"})
	TaskFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forge",
		Name:      "task_failures",
	}, []string{"task"})
	Reloads = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "forge",
		Name:      "live_reloads",
	})
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		PassDuration, TaskDuration,
		Passes, Deleted, DeleteFailures, ClassFailures, TaskFailures, Reloads,
	)
}

func New() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
