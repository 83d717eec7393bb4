package observability

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "spots", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spots", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "spots", Name: "db_queries_total", Help: "Database queries by operation."},
		[]string{"op", "result"},
	)
	DBLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spots", Name: "db_query_duration_seconds",
			Help:    "Database query duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "spots", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "spots", Name: "auth_events_total", Help: "Signups, logins, logouts and rejected tokens."},
		[]string{"event"},
	)
)

// Serve exposes the default registry on a dedicated listener when addr is set.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, DBQueries, DBLatency, CacheEvents, AuthEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveDB records one repository operation that began at start.
func ObserveDB(op string, start time.Time, err error) {
	DBQueries.WithLabelValues(op, LabelErr(err)).Inc()
	DBLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveAuth(event string) { // event: signup|login|login_failed|logout|token_rejected
	AuthEvents.WithLabelValues(event).Inc()
}

// LabelErr keeps error label cardinality bounded: "ok", a MySQL error number, or the Go type.
func LabelErr(err error) string {
	if err == nil {
		return "ok"
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return "mysql_" + strconv.Itoa(int(me.Number))
	}
	return fmt.Sprintf("%T", err)
}
