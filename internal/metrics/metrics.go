package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PasteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebin_paste_created_total",
		Help: "no. of pastes created",
	})
	PasteRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebin_paste_read_total",
		Help: "no. of successful paste reads",
	})
	PasteDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebin_paste_deleted_total",
		Help: "no. of pastes deleted by request (explicit or read-once)",
	})
	ReapCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebin_reap_cycles_total",
		Help: "no. of reaper cycles run",
	})
	ReapedPastes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebin_reaped_pastes_total",
		Help: "no. of expired pastes removed by the reaper",
	})
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pastebin_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
