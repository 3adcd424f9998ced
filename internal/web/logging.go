package web

import (
	"net/http"
	"time"

	"conductor/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger логирует каждый запрос: 4xx на уровне warn, 5xx на уровне error
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = log.Error()
			case status >= 400:
				ev = log.Warn()
			default:
				ev = log.Info()
			}
			ev = ev.Int("status", status).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("client_ip", r.RemoteAddr).
				Str("request_id", middleware.GetReqID(r.Context()))
			if r.URL.RawQuery != "" {
				ev = ev.Str("query", r.URL.RawQuery)
			}
			ev.Msg("request completed")
		})
	}
}
