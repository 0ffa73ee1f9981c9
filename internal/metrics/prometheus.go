package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esgmonitor_http_requests_total",
		Help: "HTTP requests served, by route and status code.",
	}, []string{"route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "esgmonitor_http_request_duration_seconds",
		Help:    "HTTP request latency, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esgmonitor_result_cache_hits_total",
		Help: "Dashboard queries answered from the result cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esgmonitor_result_cache_misses_total",
		Help: "Dashboard queries that fell through to the database.",
	})

	ReadingsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esgmonitor_readings_published_total",
		Help: "Sensor readings accepted by the API and queued for ingest.",
	})

	ReadingsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esgmonitor_readings_ingested_total",
		Help: "Sensor readings written to the store by the ingest worker.",
	})

	ReadingsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esgmonitor_readings_rejected_total",
		Help: "Submitted readings dropped by validation.",
	})

	BatchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esgmonitor_ingest_batches_failed_total",
		Help: "Queue deliveries that could not be decoded or stored.",
	})

	ReportsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esgmonitor_reports_archived_total",
		Help: "Zone compliance reports uploaded to object storage.",
	})

	ZoneCompliancePct = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "esgmonitor_zone_compliance_percentage",
		Help: "Latest computed compliance percentage per zone.",
	}, []string{"zone"})
)
