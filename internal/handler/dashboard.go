package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/funillab/insta-dash-server/internal/audit"
	apperrors "github.com/funillab/insta-dash-server/internal/errors"
	"github.com/funillab/insta-dash-server/internal/middleware"
	"github.com/funillab/insta-dash-server/internal/service"
)

// DashboardHandler serves the client-facing dashboard: login, the client's
// own metrics, and self-service password changes.
type DashboardHandler struct {
	authService       *service.AuthService
	clientService     *service.ClientService
	metricsService    *service.MetricsService
	collectorService  *service.CollectorService
	sessionMiddleware func(http.Handler) http.Handler
	rateLimiter       func(http.Handler) http.Handler
	loginRateLimiter  *middleware.LoginRateLimiter
	isProduction      bool
}

func NewDashboardHandler(
	authService *service.AuthService,
	clientService *service.ClientService,
	metricsService *service.MetricsService,
	collectorService *service.CollectorService,
	sessionMiddleware func(http.Handler) http.Handler,
	rateLimiter func(http.Handler) http.Handler,
	isProduction bool,
) *DashboardHandler {
	return &DashboardHandler{
		authService:       authService,
		clientService:     clientService,
		metricsService:    metricsService,
		collectorService:  collectorService,
		sessionMiddleware: sessionMiddleware,
		rateLimiter:       rateLimiter,
		loginRateLimiter:  middleware.NewLoginRateLimiter(),
		isProduction:      isProduction,
	}
}

func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginRateLimiter.Handler).Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.Use(h.rateLimiter)
		r.Get("/api/me", h.Me)
		r.Get("/api/metrics", h.Metrics)
		r.Post("/api/metrics/collect", h.Collect)
		r.Post("/api/password", h.ChangePassword)
	})

	return r
}

func (h *DashboardHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	token, session, err := h.authService.LoginClient(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]interface{}{"surface": "dashboard", "email": req.Email},
		})
		writeLoginError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventLoginSuccess,
		ActorID:  session.ID,
		ClientID: session.ID,
		Details:  map[string]interface{}{"surface": "dashboard"},
	})

	middleware.SetSessionCookie(w, middleware.ClientSessionCookie, token, "/", service.ClientSessionTTL, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{"user": session})
}

func (h *DashboardHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.ClientSessionCookie)
	if err == nil && cookie.Value != "" {
		h.authService.Logout(r.Context(), cookie.Value)
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})
	middleware.ClearSessionCookie(w, middleware.ClientSessionCookie, "/")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the freshly restored session so the dashboard always shows the
// client's current name and resource links.
func (h *DashboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": session})
}

// Metrics returns the client's own samples for the requested range together
// with the aggregates the dashboard renders.
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}

	samples, err := h.metricsService.Fetch(r.Context(), session.ID, from, to)
	if err != nil {
		log.Error().Err(err).Str("clientId", session.ID).Msg("failed to fetch metrics")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"samples": samples,
		"summary": service.Summarize(samples),
		"trend":   service.Trend(samples),
		"total":   len(samples),
	})
}

// Collect triggers an on-demand collection for the logged-in client.
func (h *DashboardHandler) Collect(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	sample, err := h.collectorService.CollectDaily(r.Context(), session.ID)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:     audit.EventCollectionFailure,
			ActorID:  session.ID,
			ClientID: session.ID,
			Details:  map[string]interface{}{"error": err.Error()},
		})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventCollectionRun,
		ActorID:  session.ID,
		ClientID: session.ID,
	})
	writeJSON(w, http.StatusCreated, sample)
}

func (h *DashboardHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := h.clientService.ChangePassword(r.Context(), session.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeInvalidCredentials {
			audit.LogFromRequest(r, audit.Event{
				Type:     audit.EventLoginFailure,
				ActorID:  session.ID,
				ClientID: session.ID,
				Details:  map[string]interface{}{"surface": "password_change"},
			})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventPasswordChange,
		ActorID:  session.ID,
		ClientID: session.ID,
	})

	// The change revoked every session of this client, including the one
	// behind this request.
	middleware.ClearSessionCookie(w, middleware.ClientSessionCookie, "/")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
