package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/markdave123-py/chatterbox/internal/metrics"
)

// MetricsRecorder records request count and latency per route pattern.
// Health and metrics scrapes are skipped.
func MetricsRecorder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		endpoint := routePattern(r)
		if endpoint == r.URL.Path && status == http.StatusNotFound {
			// unmatched paths share one label
			endpoint = "unmatched"
		}
		metrics.RecordRequest(r.Method, endpoint, strconv.Itoa(status), time.Since(start).Seconds())
	})
}
