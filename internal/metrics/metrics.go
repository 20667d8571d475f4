package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackstats_http_requests_total",
		Help: "Total number of tracker API requests, labelled by host and HTTP status code.",
	}, []string{"host", "code"})

	HTTPRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackstats_http_request_duration_ms",
		Help:    "Tracker API request latency in milliseconds.",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	SearchPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackstats_search_pages_total",
		Help: "Total number of search pages fetched, labelled by tracker.",
	}, []string{"tracker"})

	HistoriesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackstats_histories_fetched_total",
		Help: "Total number of entity histories fetched successfully.",
	})

	HistoryRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackstats_history_retries_total",
		Help: "Total number of history requests retried after a malformed payload.",
	})

	HistoryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackstats_history_failures_total",
		Help: "Total number of history fetches that failed, labelled by reason.",
	}, []string{"reason"})

	DispatchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackstats_dispatch_in_flight",
		Help: "History fetches currently running across all dispatches.",
	})

	EventsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackstats_events_scanned_total",
		Help: "Total number of change events inspected by the classifier.",
	})

	LabelsMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackstats_labels_matched_total",
		Help: "Total number of entities satisfying a transition rule, labelled by rule label.",
	}, []string{"label"})

	ReportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackstats_report_runs_total",
		Help: "Total number of report runs, labelled by report ID and outcome.",
	}, []string{"report_id", "status"})

	ReportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackstats_report_duration_seconds",
		Help:    "End-to-end report run latency in seconds.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})
)
