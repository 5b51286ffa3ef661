package middleware

import (
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/backoffice/metrics"

	"github.com/go-chi/chi/v5"
)

type Metrics struct{}

func NewMetrics() *Metrics {
	return &Metrics{}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) CreateHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		// the route pattern keeps cardinality bounded; raw paths would
		// explode the label set with entity ids
		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}
