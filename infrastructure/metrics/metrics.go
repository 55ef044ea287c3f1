package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// Количество HTTP запросов по маршруту и статусу
	RequestsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	// Время ответа (для response time показателей)
	ResponseTimeHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_http_response_time_seconds",
			Help:    "Response time in seconds",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
		[]string{"route"},
	)

	initOnce sync.Once
)

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsCounter)
		prometheus.MustRegister(ResponseTimeHistogram)
	})
}

func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	RequestsCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	ResponseTimeHistogram.WithLabelValues(route).Observe(elapsed.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer serves /metrics on its own listener.
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	go func() {
		logrus.WithField("addr", addr).Info("metrics server running")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logrus.WithError(err).Fatal("failed to start metrics server")
		}
	}()
}
