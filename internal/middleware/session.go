package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/funillab/insta-dash-server/internal/model"
	"github.com/funillab/insta-dash-server/internal/service"
)

type contextKey string

const (
	AdminSessionCookie  = "admin_session"
	ClientSessionCookie = "dashboard_session"
)

const sessionContextKey contextKey = "session"

// SessionResolver turns a cookie token back into a session. Tokens that do
// not resolve yield (nil, nil), not an error.
type SessionResolver interface {
	Restore(ctx context.Context, token string) (*service.Session, error)
}

func GetSession(ctx context.Context) *service.Session {
	if session, ok := ctx.Value(sessionContextKey).(*service.Session); ok {
		return session
	}
	return nil
}

type SessionMiddleware struct {
	resolver SessionResolver
}

func NewSessionMiddleware(resolver SessionResolver) *SessionMiddleware {
	return &SessionMiddleware{resolver: resolver}
}

// RequireAdmin admits only requests carrying a valid administrator session.
func (m *SessionMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.require(next, AdminSessionCookie, model.RoleAdmin)
}

// RequireClient admits only requests carrying a valid client session.
func (m *SessionMiddleware) RequireClient(next http.Handler) http.Handler {
	return m.require(next, ClientSessionCookie, model.RoleClient)
}

func (m *SessionMiddleware) require(next http.Handler, cookieName string, role model.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(cookieName)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		session, err := m.resolver.Restore(r.Context(), cookie.Value)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: restore failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Session validation failed",
			})
			return
		}
		if session == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}
		if session.Role != role {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "Forbidden",
			})
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SetSessionCookie(w http.ResponseWriter, name, token, path string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   path,
		MaxAge: -1,
	})
}
