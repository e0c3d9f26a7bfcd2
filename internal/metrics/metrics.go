package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline holds the job metrics. A nil *Pipeline is valid and records nothing.
type Pipeline struct {
	JobsTotal       *prometheus.CounterVec
	DecodeFallbacks *prometheus.CounterVec
	ModelCallTime   *prometheus.HistogramVec
	JobsActive      prometheus.Gauge
}

// NewPipeline registers the metrics on reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	f := promauto.With(reg)
	return &Pipeline{
		JobsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docpipe_jobs_total",
				Help: "Total number of processed jobs by document type and terminal status",
			},
			[]string{"doc_type", "status"},
		),
		DecodeFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docpipe_decode_fallbacks_total",
				Help: "Identity documents returned as raw-text fallback",
			},
			[]string{"doc_type"},
		),
		ModelCallTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docpipe_model_call_seconds",
				Help:    "Duration of external model calls in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"doc_type"},
		),
		JobsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "docpipe_jobs_active",
				Help: "Number of jobs currently running",
			},
		),
	}
}

func (p *Pipeline) JobFinished(docType, status string) {
	if p == nil {
		return
	}
	p.JobsTotal.WithLabelValues(docType, status).Inc()
}

func (p *Pipeline) Fallback(docType string) {
	if p == nil {
		return
	}
	p.DecodeFallbacks.WithLabelValues(docType).Inc()
}

func (p *Pipeline) ObserveModelCall(docType string, d time.Duration) {
	if p == nil {
		return
	}
	p.ModelCallTime.WithLabelValues(docType).Observe(d.Seconds())
}

// Track increments the active gauge and returns the matching decrement.
func (p *Pipeline) Track() func() {
	if p == nil {
		return func() {}
	}
	p.JobsActive.Inc()
	return p.JobsActive.Dec
}
