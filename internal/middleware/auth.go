package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/response"
)

// AccessTokenCookie is the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

// TokenAuthenticator resolves an access token to a user id.
type TokenAuthenticator interface {
	Authenticate(token string) (string, error)
}

// Authenticator attaches the acting user to requests that carry a valid
// access token, either as a cookie or as a bearer header.
type Authenticator struct {
	Tokens TokenAuthenticator
}

// Optional lets anonymous requests through; an invalid token is treated as
// no token at all.
func (a Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, err := a.resolve(r); err == nil && userID != "" {
			r = r.WithContext(withActor(r, userID))
		}
		next.ServeHTTP(w, r)
	})
}

// Required rejects requests without a valid access token with 401.
func (a Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.resolve(r)
		if err != nil || userID == "" {
			logging.FromContext(r.Context()).Debug("access token rejected", "error", err)
			response.Error(r.Context(), w, http.StatusUnauthorized, "Unauthorized request")
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r, userID)))
	})
}

func (a Authenticator) resolve(r *http.Request) (string, error) {
	token := accessToken(r)
	if token == "" || a.Tokens == nil {
		return "", nil
	}
	return a.Tokens.Authenticate(token)
}

func withActor(r *http.Request, userID string) context.Context {
	ctx := auth.WithActor(r.Context(), userID)
	return logging.With(ctx, "actor_id", userID)
}

func accessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
