package metrics

import (
	"time"
	"workq/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeDone  = "done"
	OutcomeError = "error"
)

var (
	ItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workq_items_processed_total",
		Help: "Work items executed by the sweep, by outcome",
	}, []string{"kind", "outcome"})

	PassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workq_sweep_passes_total",
		Help: "Sweep passes run, by result",
	}, []string{"kind", "result"})

	PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workq_sweep_pass_duration_seconds",
		Help:    "Wall time of one sweep pass",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	ItemsSelected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "workq_sweep_items_selected",
		Help: "Due items selected by the most recent pass",
	}, []string{"kind"})
)

func ObserveItem(kind domain.Kind, outcome string) {
	ItemsProcessed.WithLabelValues(string(kind), outcome).Inc()
}

func ObservePass(kind domain.Kind, res domain.SweepResult, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	PassesTotal.WithLabelValues(string(kind), result).Inc()
	PassDuration.WithLabelValues(string(kind)).Observe(took.Seconds())
	ItemsSelected.WithLabelValues(string(kind)).Set(float64(res.Selected))
}
