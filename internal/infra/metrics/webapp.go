package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(webAppSyncTotal, webAppSyncLatency) }

var (
	webAppSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webapp_sync_total",
			Help: "Account snapshots pushed to the web app, by result.",
		},
		[]string{"result"}, // ok, error, dropped
	)

	webAppSyncLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webapp_sync_latency_ms",
			Help:    "Web app push latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
	)
)

func IncWebAppSync(result string) {
	webAppSyncTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveWebAppSyncLatency(ms int64) {
	webAppSyncLatency.Observe(float64(ms))
}
