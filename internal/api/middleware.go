package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/logging"
	"github.com/FairForge/dctip/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// requestContext copies chi's request id into the shared context key and
// echoes it back to the client.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := middleware.GetReqID(r.Context())
		if id != "" {
			w.Header().Set("X-Request-ID", id)
		}
		next.ServeHTTP(w, r.WithContext(common.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.FromContext(r.Context(), s.logger).Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// metricsMiddleware labels requests by route pattern rather than raw path
// so ids do not explode label cardinality.
func metricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(r.Method, route, status, time.Since(start).Seconds())
		})
	}
}

// RateLimitMiddleware enforces the per-organization limit. It must run after
// authentication so the principal is available.
func RateLimitMiddleware(limiter *RateLimiter, m *metrics.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			org := common.DefaultOrganization
			if p, ok := common.PrincipalFromContext(r.Context()); ok {
				org = p.OrganizationID
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.requestsPerSecond))
			if !limiter.Allow(org) {
				m.IncrementRateLimitHit(org)
				w.Header().Set("Retry-After", "1")
				if err := common.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"}); err != nil {
					logger.Error("failed to encode response", zap.Error(err))
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
