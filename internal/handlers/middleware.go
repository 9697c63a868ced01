package handlers

import (
	"context"
	"net/http"

	"github.com/wanderblog/apiserver/internal/apperr"
	"github.com/wanderblog/apiserver/internal/services"
	"github.com/wanderblog/apiserver/internal/token"
	"github.com/wanderblog/apiserver/types"
)

// RequireAuth verifies the access-token cookie and attaches the resolved
// user to the request context. A missing cookie is a 400 (the client
// should re-login); an unverifiable one is a 403.
func RequireAuth(users *services.UserService, tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieAccessToken)
			if err != nil {
				writeError(w, apperr.New(http.StatusBadRequest, "please log in again"))
				return
			}

			claims, err := tokens.Verify(cookie.Value)
			if err != nil {
				writeError(w, apperr.Forbidden("invalid token"))
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				writeError(w, apperr.Forbidden("invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), contextUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole passes through only when the authenticated user holds the
// given role. It must be composed after RequireAuth.
func RequireRole(role types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromContext(r.Context())
			if err != nil || user.Role != role {
				writeError(w, apperr.Unauthorized("unauthorized access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
