package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/funillab/insta-dash-server/internal/audit"
	"github.com/funillab/insta-dash-server/internal/middleware"
	"github.com/funillab/insta-dash-server/internal/service"
)

// AdminHandler serves the agency console: administrator login and full
// client record management.
type AdminHandler struct {
	authService       *service.AuthService
	clientService     *service.ClientService
	metricsService    *service.MetricsService
	collectorService  *service.CollectorService
	sessionMiddleware func(http.Handler) http.Handler
	loginRateLimiter  *middleware.LoginRateLimiter
	isProduction      bool
}

func NewAdminHandler(
	authService *service.AuthService,
	clientService *service.ClientService,
	metricsService *service.MetricsService,
	collectorService *service.CollectorService,
	sessionMiddleware func(http.Handler) http.Handler,
	isProduction bool,
) *AdminHandler {
	return &AdminHandler{
		authService:       authService,
		clientService:     clientService,
		metricsService:    metricsService,
		collectorService:  collectorService,
		sessionMiddleware: sessionMiddleware,
		loginRateLimiter:  middleware.NewLoginRateLimiter(),
		isProduction:      isProduction,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginRateLimiter.Handler).Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.Get("/api/me", h.Me)
		r.Get("/api/stats", h.Stats)

		// Clients
		r.Get("/api/clients", h.ListClients)
		r.Post("/api/clients", h.CreateClient)
		r.Get("/api/clients/{id}", h.GetClient)
		r.Patch("/api/clients/{id}", h.UpdateClient)
		r.Delete("/api/clients/{id}", h.DeleteClient)
		r.Get("/api/clients/{id}/metrics", h.ClientMetrics)
		r.Post("/api/clients/{id}/collect", h.CollectClient)
	})

	return r
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	token, session, err := h.authService.LoginAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Details: map[string]interface{}{"surface": "admin", "email": req.Email},
		})
		writeLoginError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLoginSuccess,
		ActorID: session.ID,
		Details: map[string]interface{}{"surface": "admin"},
	})

	middleware.SetSessionCookie(w, middleware.AdminSessionCookie, token, "/admin", service.AdminSessionTTL, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{"user": session})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.AdminSessionCookie)
	if err == nil && cookie.Value != "" {
		h.authService.Logout(r.Context(), cookie.Value)
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})
	middleware.ClearSessionCookie(w, middleware.AdminSessionCookie, "/admin")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": session})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.clientService.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get stats")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	clients, total, err := h.clientService.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list clients")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": clients,
		"total": total,
	})
}

func (h *AdminHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req service.CreateClientInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	client, err := h.clientService.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventClientCreate,
		ActorID:  actorID(r),
		ClientID: client.ID,
	})
	writeJSON(w, http.StatusCreated, client)
}

func (h *AdminHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	client, err := h.clientService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, client)
}

func (h *AdminHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req service.UpdateClientInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	client, err := h.clientService.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventClientUpdate,
		ActorID:  actorID(r),
		ClientID: client.ID,
	})
	writeJSON(w, http.StatusOK, client)
}

func (h *AdminHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.clientService.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventClientDelete,
		ActorID:  actorID(r),
		ClientID: id,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ClientMetrics lets an administrator inspect any client's samples over an
// optional date range.
func (h *AdminHandler) ClientMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	client, err := h.clientService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

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

	samples, err := h.metricsService.Fetch(r.Context(), client.ID, from, to)
	if err != nil {
		log.Error().Err(err).Str("clientId", client.ID).Msg("failed to fetch metrics")
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

// CollectClient triggers an immediate collection run for one client.
func (h *AdminHandler) CollectClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sample, err := h.collectorService.CollectDaily(r.Context(), id)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:     audit.EventCollectionFailure,
			ActorID:  actorID(r),
			ClientID: id,
			Details:  map[string]interface{}{"error": err.Error()},
		})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventCollectionRun,
		ActorID:  actorID(r),
		ClientID: id,
	})
	writeJSON(w, http.StatusCreated, sample)
}

func actorID(r *http.Request) string {
	if session := middleware.GetSession(r.Context()); session != nil {
		return session.ID
	}
	return ""
}
