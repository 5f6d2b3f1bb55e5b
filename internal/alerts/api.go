package alerts

import (
	"net/http"
	"strconv"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var createConfigSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"severity_levels": {"type": "array", "items": {"type": "string"}},
		"categories": {"type": "array", "items": {"type": "string"}},
		"notification_email": {"type": "boolean"},
		"notification_dashboard": {"type": "boolean"},
		"is_active": {"type": "boolean"}
	}
}`)

// APIHandler provides HTTP handlers for alerts and alert configs
type APIHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewAPIHandler(service *Service, logger *zap.Logger) *APIHandler {
	return &APIHandler{service: service, logger: logger}
}

// AlertRoutes mounts /api/alerts.
func (h *APIHandler) AlertRoutes(r chi.Router) {
	r.Get("/", h.HandleListAlerts)
	r.Put("/read-all", h.HandleMarkAllRead)
	r.Put("/{alertID}/read", h.HandleMarkRead)
}

// ConfigRoutes mounts /api/alert-configs.
func (h *APIHandler) ConfigRoutes(r chi.Router) {
	r.Get("/", h.HandleListConfigs)
	r.Post("/", h.HandleCreateConfig)
}

func (h *APIHandler) principal(w http.ResponseWriter, r *http.Request) (common.Principal, bool) {
	p, ok := common.PrincipalFromContext(r.Context())
	if !ok {
		common.WriteError(w, h.logger, common.ErrUnauthorized)
	}
	return p, ok
}

func (h *APIHandler) respond(w http.ResponseWriter, status int, v interface{}) {
	if err := common.WriteJSON(w, status, v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// HandleListAlerts handles GET /api/alerts
func (h *APIHandler) HandleListAlerts(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := AlertFilter{}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	if v := q.Get("is_read"); v != "" {
		read, err := strconv.ParseBool(v)
		if err != nil {
			common.WriteError(w, h.logger, common.ErrValidation)
			return
		}
		f.IsRead = &read
	}

	alerts, err := h.service.ListAlerts(r.Context(), p, f)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if alerts == nil {
		alerts = []*Alert{}
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"alerts": alerts, "count": len(alerts)})
}

// HandleMarkRead handles PUT /api/alerts/{alertID}/read
func (h *APIHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkRead(r.Context(), p, chi.URLParam(r, "alertID")); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]string{"message": "Alert marked as read"})
}

// HandleMarkAllRead handles PUT /api/alerts/read-all
func (h *APIHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	n, err := h.service.MarkAllRead(r.Context(), p)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"message": "All alerts marked as read",
		"updated": n,
	})
}

// HandleListConfigs handles GET /api/alert-configs
func (h *APIHandler) HandleListConfigs(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	configs, err := h.service.ListConfigs(r.Context(), p)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if configs == nil {
		configs = []*AlertConfig{}
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"configs": configs, "count": len(configs)})
}

// HandleCreateConfig handles POST /api/alert-configs
func (h *APIHandler) HandleCreateConfig(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req CreateConfigRequest
	if err := validation.DecodeJSON(r, createConfigSchema, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	c, err := h.service.CreateConfig(r.Context(), p, req)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusCreated, c)
}
