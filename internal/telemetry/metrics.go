// Package telemetry exposes Prometheus metrics for the signal pipeline.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter the pipeline and delivery layers record.
// Malformed and rejected are deliberately separate: one is bad upstream
// data, the other is data that simply failed a quality bar.
type Metrics struct {
	PairsFetched   prometheus.Counter
	PairsMalformed prometheus.Counter
	PairsRejected  *prometheus.CounterVec
	PairsAccepted  prometheus.Counter

	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram

	AlertsSent       *prometheus.CounterVec
	AlertsSuppressed prometheus.Counter
}

// New registers the pipeline metrics on reg. Pass prometheus.NewRegistry()
// in tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PairsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "satoshibot_pairs_fetched_total",
			Help: "Raw pairs returned by the trending aggregator",
		}),
		PairsMalformed: factory.NewCounter(prometheus.CounterOpts{
			Name: "satoshibot_pairs_malformed_total",
			Help: "Pairs dropped by structural validation before filtering",
		}),
		PairsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "satoshibot_pairs_rejected_total",
			Help: "Pairs rejected by quality filtering, by failing predicate",
		}, []string{"reason"}),
		PairsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "satoshibot_pairs_accepted_total",
			Help: "Pairs that passed every quality predicate",
		}),
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "satoshibot_pipeline_runs_total",
			Help: "Pipeline invocations by outcome (ok, empty, error)",
		}, []string{"result"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "satoshibot_pipeline_duration_seconds",
			Help:    "Wall time of a full fetch-filter-rank run",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		AlertsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "satoshibot_alerts_sent_total",
			Help: "Digest messages delivered, by channel kind",
		}, []string{"channel"}),
		AlertsSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "satoshibot_alerts_suppressed_total",
			Help: "Pairs dropped from digests because they were alerted recently",
		}),
	}
}

// Handler serves the default registry, mounted on the webhook server.
func Handler() http.Handler {
	return promhttp.Handler()
}
