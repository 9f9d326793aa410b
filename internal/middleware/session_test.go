package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funillab/insta-dash-server/internal/model"
	"github.com/funillab/insta-dash-server/internal/service"
)

type stubResolver struct {
	sessions map[string]*service.Session
	err      error
}

func (s *stubResolver) Restore(ctx context.Context, token string) (*service.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sessions[token], nil
}

func adminSession() *service.Session {
	return &service.Session{ID: "admin-1", Role: model.RoleAdmin, Email: "owner@agency.example.com"}
}

func clientSession() *service.Session {
	id := "client-1"
	return &service.Session{ID: id, Role: model.RoleClient, ClientID: &id, Email: "acme@clients.example.com"}
}

func requestWithCookie(name, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if name != "" {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return r
}

func TestRequireAdmin(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSession(r.Context())
		require.NotNil(t, session)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("rejects requests without a cookie", func(t *testing.T) {
		m := NewSessionMiddleware(&stubResolver{})
		rec := httptest.NewRecorder()

		m.RequireAdmin(okHandler).ServeHTTP(rec, requestWithCookie("", ""))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects tokens that do not resolve", func(t *testing.T) {
		m := NewSessionMiddleware(&stubResolver{sessions: map[string]*service.Session{}})
		rec := httptest.NewRecorder()

		m.RequireAdmin(okHandler).ServeHTTP(rec, requestWithCookie(AdminSessionCookie, "stale"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects client sessions on admin routes", func(t *testing.T) {
		m := NewSessionMiddleware(&stubResolver{sessions: map[string]*service.Session{
			"client-token": clientSession(),
		}})
		rec := httptest.NewRecorder()

		m.RequireAdmin(okHandler).ServeHTTP(rec, requestWithCookie(AdminSessionCookie, "client-token"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admits admin sessions and exposes them on the context", func(t *testing.T) {
		m := NewSessionMiddleware(&stubResolver{sessions: map[string]*service.Session{
			"admin-token": adminSession(),
		}})
		rec := httptest.NewRecorder()

		var seen *service.Session
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetSession(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		m.RequireAdmin(handler).ServeHTTP(rec, requestWithCookie(AdminSessionCookie, "admin-token"))
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "admin-1", seen.ID)
	})

	t.Run("resolver failure answers 500", func(t *testing.T) {
		m := NewSessionMiddleware(&stubResolver{err: errors.New("db down")})
		rec := httptest.NewRecorder()

		m.RequireAdmin(okHandler).ServeHTTP(rec, requestWithCookie(AdminSessionCookie, "any"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRequireClient(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("reads the client cookie, not the admin one", func(t *testing.T) {
		m := NewSessionMiddleware(&stubResolver{sessions: map[string]*service.Session{
			"client-token": clientSession(),
		}})
		rec := httptest.NewRecorder()

		m.RequireClient(okHandler).ServeHTTP(rec, requestWithCookie(AdminSessionCookie, "client-token"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = httptest.NewRecorder()
		m.RequireClient(okHandler).ServeHTTP(rec, requestWithCookie(ClientSessionCookie, "client-token"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects admin sessions on client routes", func(t *testing.T) {
		m := NewSessionMiddleware(&stubResolver{sessions: map[string]*service.Session{
			"admin-token": adminSession(),
		}})
		rec := httptest.NewRecorder()

		m.RequireClient(okHandler).ServeHTTP(rec, requestWithCookie(ClientSessionCookie, "admin-token"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestSessionCookies(t *testing.T) {
	t.Run("set cookie is http-only with the given lifetime", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SetSessionCookie(rec, ClientSessionCookie, "token-value", "/", 7*24*time.Hour, true)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		cookie := cookies[0]
		assert.Equal(t, ClientSessionCookie, cookie.Name)
		assert.Equal(t, "token-value", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
	})

	t.Run("clear cookie expires immediately", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ClearSessionCookie(rec, AdminSessionCookie, "/admin")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})
}
