package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	registry       *prom.Registry
	entrySaves     *prom.CounterVec
	duplicates     prom.Counter
	exportDuration prom.Histogram
	exportPages    prom.Gauge
	exportOutcome  *prom.CounterVec
}

// NewPrometheusRecorder registers the wiki collectors on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		entrySaves: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "wiki",
			Name:      "entry_saves_total",
			Help:      "Entry writes by kind",
		}, []string{"kind"}),
		duplicates: prom.NewCounter(prom.CounterOpts{
			Namespace: "wiki",
			Name:      "metadata_duplicates_total",
			Help:      "Create requests rejected as duplicates",
		}),
		exportDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "wiki",
			Name:      "export_duration_seconds",
			Help:      "Static export duration",
			Buckets:   prom.DefBuckets,
		}),
		exportPages: prom.NewGauge(prom.GaugeOpts{
			Namespace: "wiki",
			Name:      "export_pages",
			Help:      "Pages written by the last static export",
		}),
		exportOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "wiki",
			Name:      "export_outcomes_total",
			Help:      "Static exports by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.entrySaves, pr.duplicates, pr.exportDuration, pr.exportPages, pr.exportOutcome)
	return pr
}

// EntrySaved counts a create (created=true) or an edit.
func (p *PrometheusRecorder) EntrySaved(created bool) {
	kind := "edit"
	if created {
		kind = "create"
	}
	p.entrySaves.WithLabelValues(kind).Inc()
}

// DuplicateRejected counts a rejected create.
func (p *PrometheusRecorder) DuplicateRejected() {
	p.duplicates.Inc()
}

// ExportFinished records the outcome of one export run.
func (p *PrometheusRecorder) ExportFinished(d time.Duration, pages int, warnings int, err error) {
	p.exportDuration.Observe(d.Seconds())
	outcome := "success"
	switch {
	case err != nil:
		outcome = "failed"
	case warnings > 0:
		outcome = "warning"
	}
	p.exportOutcome.WithLabelValues(outcome).Inc()
	if err == nil {
		p.exportPages.Set(float64(pages))
	}
}

// Handler exposes the registry in the Prometheus text format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
