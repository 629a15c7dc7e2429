package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/skillswap-api/internal/platform/metrics"
)

// Metrics records the status code of every response.
func Metrics(recorder metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			recorder.RecordHTTPStatus(status)
		})
	}
}
