package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"loginprobe/pkg/logger"
)

// LoggingMiddleware writes one access line per request. Server errors log at
// error level, client errors at warn, everything else at info.
type LoggingMiddleware struct {
	logger logger.Logger
}

func NewLoggingMiddleware(log logger.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: log}
}

func (m *LoggingMiddleware) Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		status := rec.Status()
		fields := map[string]interface{}{
			"request_id":  RequestID(r.Context()),
			"method":      r.Method,
			"route":       routeTemplate(r),
			"status":      status,
			"bytes":       rec.bytes,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          clientIP(r),
		}
		if ua := r.UserAgent(); ua != "" {
			fields["user_agent"] = ua
		}

		switch {
		case status >= http.StatusInternalServerError:
			m.logger.Error("Request failed", fields)
		case status >= http.StatusBadRequest:
			m.logger.Warn("Request rejected", fields)
		default:
			m.logger.Info("Request served", fields)
		}
	})
}

// routeTemplate names the matched mux route, so /api/auth/me and friends
// group in logs; unmatched requests fall back to the raw path.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
