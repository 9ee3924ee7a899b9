package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serialguard_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	UnchangedContentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serialguard_watcher_unchanged_content_total",
		Help: "Write events dropped because the file content fingerprint did not change.",
	})

	PrefilterTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serialguard_prefilter_total",
		Help: "Pre-filter decisions by outcome (pass or skip).",
	}, []string{"outcome"})

	DebounceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serialguard_debounce_total",
		Help: "Debouncer transitions by kind (scheduled, coalesced, rearmed, dropped, fired).",
	}, []string{"kind"})

	PendingChecks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "serialguard_pending_checks",
		Help: "Number of files with a scheduled deferred check.",
	})

	QualificationCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serialguard_qualification_cache_total",
		Help: "Qualification cache lookups by result (hit, miss).",
	}, []string{"result"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serialguard_notifications_total",
		Help: "Notification decisions by outcome (sent, throttled, rate_limited).",
	}, []string{"outcome"})

	CheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "serialguard_check_seconds",
		Help:    "Time spent analysing a file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path_kind"})

	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "serialguard_parsing_seconds",
		Help:    "Time spent parsing a Java source file.",
		Buckets: prometheus.DefBuckets,
	})

	ModelClasses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "serialguard_model_classes",
		Help: "Number of class declarations held by the structural model.",
	})
)
