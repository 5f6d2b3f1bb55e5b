// internal/auth/middleware.go
package auth

import (
	"net/http"
	"strings"

	"github.com/FairForge/dctip/internal/common"
	"go.uber.org/zap"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's principal in the request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			common.WriteError(w, s.logger, ErrInvalidToken)
			return
		}

		user, err := s.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			if common.HTTPStatus(err) == http.StatusUnauthorized {
				s.logger.Debug("rejected bearer token", zap.String("path", r.URL.Path))
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			common.WriteError(w, s.logger, err)
			return
		}

		ctx := common.WithPrincipal(r.Context(), user.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
