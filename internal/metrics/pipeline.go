// Package metrics holds the Prometheus collectors of the redaction pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline stages.
const (
	StageRasterize = "rasterize"
	StageBlur      = "blur"
	StageAssemble  = "assemble"
)

// Pipeline counts pipeline work and times each stage.
type Pipeline struct {
	pagesRasterized prometheus.Counter
	zonesBlurred    prometheus.Counter
	stageDuration   *prometheus.HistogramVec
	jobFailures     *prometheus.CounterVec
}

// NewPipeline creates the pipeline collectors and registers them on reg.
func NewPipeline(reg prometheus.Registerer) (*Pipeline, error) {
	p := &Pipeline{
		pagesRasterized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfblur_pages_rasterized_total",
			Help: "Pages rendered to canonical page images.",
		}),
		zonesBlurred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfblur_zones_blurred_total",
			Help: "Blur zones applied to page images.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdfblur_stage_duration_seconds",
			Help:    "Duration of a pipeline stage for one job.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"stage"}),
		jobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfblur_job_failures_total",
			Help: "Jobs that failed, by stage.",
		}, []string{"stage"}),
	}

	for _, c := range []prometheus.Collector{p.pagesRasterized, p.zonesBlurred, p.stageDuration, p.jobFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewNopPipeline returns collectors registered nowhere.
func NewNopPipeline() *Pipeline {
	p, _ := NewPipeline(prometheus.NewRegistry())
	return p
}

// PagesRasterized adds n rasterized pages.
func (p *Pipeline) PagesRasterized(n int) { p.pagesRasterized.Add(float64(n)) }

// ZonesBlurred adds n applied zones.
func (p *Pipeline) ZonesBlurred(n int) { p.zonesBlurred.Add(float64(n)) }

// ObserveStage records the time elapsed since start for stage.
func (p *Pipeline) ObserveStage(stage string, start time.Time) {
	p.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// JobFailed counts a job failing in stage.
func (p *Pipeline) JobFailed(stage string) { p.jobFailures.WithLabelValues(stage).Inc() }
