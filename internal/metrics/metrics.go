// Package metrics holds the Prometheus collectors for a report build.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RowsFetched counts raw rows read from the dataset.
	RowsFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "covidmap",
		Name:      "rows_fetched_total",
		Help:      "Raw rows read from the case distribution table.",
	})

	// RowsDropped counts rows removed during cleaning, by reason.
	RowsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "covidmap",
		Name:      "rows_dropped_total",
		Help:      "Rows removed while cleaning the table.",
	}, []string{"reason"})

	// SignCorrections counts cells whose negative count was replaced by its absolute value.
	SignCorrections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "covidmap",
		Name:      "sign_corrections_total",
		Help:      "Negative daily counts replaced by their absolute value.",
	}, []string{"column"})

	// SnapshotRows reports the rows available for the processing date.
	SnapshotRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "covidmap",
		Name:      "snapshot_rows",
		Help:      "Rows published for the processing date.",
	})

	// Countries reports the number of aggregated country codes.
	Countries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "covidmap",
		Name:      "countries",
		Help:      "Distinct country codes in the accumulated totals.",
	})

	// BuildDuration observes report build time by stage.
	BuildDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "covidmap",
		Name:      "build_duration_seconds",
		Help:      "Time spent per report build stage.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"stage"})

	// FigureRequests counts figure downloads by name and cache outcome.
	FigureRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "covidmap",
		Name:      "figure_requests_total",
		Help:      "Figure JSON requests served.",
	}, []string{"figure", "cache"})
)

func init() {
	prometheus.MustRegister(RowsFetched, RowsDropped, SignCorrections, SnapshotRows, Countries, BuildDuration, FigureRequests)
}

// ObserveStage records the time elapsed since start for stage.
func ObserveStage(stage string, start time.Time) {
	BuildDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
