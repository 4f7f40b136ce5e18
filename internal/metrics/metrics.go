package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_http_requests_total",
		Help: "Total number of HTTP requests processed",
	}, []string{"path", "status", "method"})

	LogsAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "log_service_entries_appended_total",
		Help: "The total number of log entries appended to the store",
	})

	LogsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "log_service_entries_stored",
		Help: "Number of log entries currently persisted",
	})

	ReportsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_ingestor_reports_received_total",
		Help: "The total number of weather reports received on /input",
	}, []string{"country", "weather", "status"})
)
