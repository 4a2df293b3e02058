// Package metrics expone las métricas Prometheus del servidor.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spot_http_requests_total",
		Help: "Total de requests HTTP por ruta, método y status.",
	}, []string{"path", "method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spot_http_request_duration_seconds",
		Help:    "Duración de los requests HTTP.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})

	authDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spot_auth_decisions_total",
		Help: "Decisiones del gate de autorización por resultado.",
	}, []string{"result"})

	invitationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spot_invitations_total",
		Help: "Operaciones sobre invitaciones por tipo.",
	}, []string{"op"})

	jwksRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spot_jwks_refresh_total",
		Help: "Refetches del JWKS por resultado.",
	}, []string{"result"})
)

// ObserveAuthDecision registra el resultado de una pasada por el gate.
func ObserveAuthDecision(result string) {
	authDecisionsTotal.WithLabelValues(result).Inc()
}

// ObserveInvitation registra una operación de invitación (invite | accept | revoke).
func ObserveInvitation(op string) {
	invitationsTotal.WithLabelValues(op).Inc()
}

// ObserveJWKSRefresh registra un refetch del JWKS (ok | error).
func ObserveJWKSRefresh(result string) {
	jwksRefreshTotal.WithLabelValues(result).Inc()
}

// Handler retorna el handler del endpoint /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// WithMetrics instrumenta un handler con contador y histograma por ruta.
// `path` debe ser el patrón de la ruta, no el path crudo, para acotar la
// cardinalidad de los labels.
func WithMetrics(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		httpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(sw.status)).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}
