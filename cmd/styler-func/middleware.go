package main

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kwarren/image-styler/internal/metrics"
)

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// withRequestLog logs one line per completed request, tagged with the
// invocation ID. The Functions host forwards its ID in
// X-Azure-Functions-InvocationId; local runs get a generated one.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invocationID := r.Header.Get("X-Azure-Functions-InvocationId")
		if invocationID == "" {
			invocationID = uuid.NewString()
		}

		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sr, r)

		log.Info().
			Str("invocationId", invocationID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sr.statusCode).
			Dur("duration", time.Since(start)).
			Msg("Request complete")
	})
}

// withMetrics emits one metric document per request:
// RequestLatencyMs and RequestCount with Endpoint and StatusClass dimensions.
func withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		elapsed := time.Since(start)
		metrics.New("ImageStyler").
			Dimension("Endpoint", normalizeEndpoint(r.URL.Path)).
			Dimension("StatusClass", statusClass(sr.statusCode)).
			Metric("RequestLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
			Count("RequestCount").
			Property("method", r.Method).
			Property("statusCode", sr.statusCode).
			Property("path", r.URL.Path).
			Flush()
	})
}

// normalizeEndpoint keeps the Endpoint dimension low-cardinality: unknown
// paths collapse into a single bucket.
func normalizeEndpoint(path string) string {
	switch path {
	case "/api/list_files", "/api/style_images", "/api/health":
		return path
	default:
		return "other"
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
