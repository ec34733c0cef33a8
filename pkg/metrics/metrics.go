package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session metrics
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sakya_sessions_active",
			Help: "Number of currently connected relay sessions",
		},
	)

	SessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakya_sessions_total",
			Help: "Total relay sessions opened, by how they ended",
		},
		[]string{"reason"},
	)

	// Room metrics
	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sakya_rooms_active",
			Help: "Number of rooms with at least one subscriber",
		},
	)

	RoomBroadcastsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sakya_room_broadcasts_total",
			Help: "Total messages broadcast to rooms",
		},
	)

	RoomSubscribersDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sakya_room_subscribers_dropped_total",
			Help: "Total times a lagging subscriber missed a broadcast",
		},
	)

	// Update/store metrics
	UpdatesReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sakya_updates_received_total",
			Help: "Total encrypted updates accepted by the relay",
		},
	)

	SnapshotsReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sakya_snapshots_received_total",
			Help: "Total encrypted snapshots accepted by the relay",
		},
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sakya_store_operation_duration_seconds",
			Help:    "Duration of update-store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Fragmentation metrics
	FragmentsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sakya_fragments_sent_total",
			Help: "Total wire fragments sent",
		},
	)

	FragmentsReassembledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sakya_fragments_reassembled_total",
			Help: "Total fragment sets successfully reassembled",
		},
	)

	// Auth metrics
	MagicLinksIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sakya_magic_links_issued_total",
			Help: "Total magic links issued",
		},
	)

	AuthFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sakya_auth_failures_total",
			Help: "Total rejected bearer tokens at session authentication",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsActive,
		SessionsTotal,
		RoomsActive,
		RoomBroadcastsTotal,
		RoomSubscribersDroppedTotal,
		UpdatesReceivedTotal,
		SnapshotsReceivedTotal,
		StoreOperationDuration,
		FragmentsSentTotal,
		FragmentsReassembledTotal,
		MagicLinksIssuedTotal,
		AuthFailuresTotal,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
