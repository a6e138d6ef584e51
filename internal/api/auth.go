// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/airrkit/airrspec/internal/auth"
	"github.com/airrkit/airrspec/internal/log"
)

// authMiddleware enforces API token authentication on the /v1 surface.
// Without a configured token, access is denied unless anonymous access was
// explicitly enabled; the default listen address binds every interface.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.snap.App.API.Token
		authAnon := s.snap.App.API.AuthAnonymous

		if token == "" {
			if authAnon {
				next.ServeHTTP(w, r)
				return
			}
			log.FromContext(r.Context()).Error().
				Str(log.FieldEvent, "auth.fail_closed").
				Msg("AIRRSPEC_API_TOKEN not set and AIRRSPEC_AUTH_ANONYMOUS!=true; denying access")
			RespondError(w, r, http.StatusUnauthorized, ErrUnauthorized)
			return
		}

		reqToken := auth.ExtractToken(r)

		logger := log.WithComponentFromContext(r.Context(), "auth")

		if reqToken == "" {
			logger.Warn().Str(log.FieldEvent, "auth.missing_header").Msg("authorization header missing")
			s.audit.AuthMissing(r.RemoteAddr, r.URL.Path)
			RespondError(w, r, http.StatusUnauthorized, ErrUnauthorized)
			return
		}

		if !auth.AuthorizeToken(reqToken, token) {
			logger.Warn().Str(log.FieldEvent, "auth.invalid_token").Msg("invalid api token")
			s.audit.AuthFailure(r.RemoteAddr, r.URL.Path, "invalid token")
			RespondError(w, r, http.StatusUnauthorized, ErrUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
