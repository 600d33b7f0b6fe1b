package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoreSubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ranking_score_submissions_total",
		Help: "Number of component score rows upserted.",
	})

	RecomputesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ranking_recomputes_total",
		Help: "Number of successful full ranking recomputes.",
	})

	PublicationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ranking_publications_total",
		Help: "Number of periods published.",
	})

	NotificationPayloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ranking_notification_payloads_total",
		Help: "Number of notification payloads rendered.",
	})
)
