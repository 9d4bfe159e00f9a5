package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Picks made per family, mode and outcome (selected, none_eligible, manual, preserved)
	moduleSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "module_selections_total",
			Help: "Module selections made for issues",
		},
		[]string{"family", "mode", "outcome"},
	)

	// Usage recordings per family and result (recorded, empty, already_used, missing_item)
	usageRecordingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usage_recordings_total",
			Help: "Selections processed when issues are sent",
		},
		[]string{"family", "result"},
	)

	issueRenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "issue_render_duration_seconds",
			Help:    "Time spent rendering every module of an issue",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	shortLinkClicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "short_link_clicks_total",
			Help: "Short link visits by tracking result",
		},
		[]string{"result"},
	)
)
