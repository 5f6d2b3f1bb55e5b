package threats

import (
	"net/http"
	"strconv"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var createThreatSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["name", "severity", "category"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"severity": {"type": "string", "enum": ["critical", "high", "medium", "low"]},
		"category": {"type": "string"},
		"source_ip": {"type": "string"},
		"target_system": {"type": "string"},
		"industry_tags": {"type": "array", "items": {"type": "string"}},
		"detected_by": {"type": "string", "enum": ["manual", "federated_model", "ai_autonomous"]},
		"confidence_score": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`)

var updateStatusSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["status"],
	"properties": {
		"status": {"type": "string", "enum": ["active", "mitigated", "investigating", "false_positive"]}
	}
}`)

var createIncidentSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["threat_id", "action_type"],
	"properties": {
		"threat_id": {"type": "string", "minLength": 1},
		"action_type": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"is_automated": {"type": "boolean"}
	}
}`)

// APIHandler provides HTTP handlers for threats and incidents
type APIHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewAPIHandler(service *Service, logger *zap.Logger) *APIHandler {
	return &APIHandler{service: service, logger: logger}
}

// ThreatRoutes mounts /api/threats.
func (h *APIHandler) ThreatRoutes(r chi.Router) {
	r.Get("/", h.HandleListThreats)
	r.Post("/", h.HandleCreateThreat)
	r.Get("/{threatID}", h.HandleGetThreat)
	r.Put("/{threatID}/status", h.HandleUpdateThreatStatus)
}

// IncidentRoutes mounts /api/incidents.
func (h *APIHandler) IncidentRoutes(r chi.Router) {
	r.Get("/", h.HandleListIncidents)
	r.Post("/", h.HandleCreateIncident)
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

// HandleListThreats handles GET /api/threats
func (h *APIHandler) HandleListThreats(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	threats, err := h.service.ListThreats(r.Context(), p, ThreatFilter{
		Status:   q.Get("status"),
		Severity: q.Get("severity"),
		Category: q.Get("category"),
		Limit:    limit,
	})
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if threats == nil {
		threats = []*Threat{}
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"threats": threats, "count": len(threats)})
}

// HandleCreateThreat handles POST /api/threats
func (h *APIHandler) HandleCreateThreat(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req CreateThreatRequest
	if err := validation.DecodeJSON(r, createThreatSchema, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	t, err := h.service.CreateThreat(r.Context(), p, req)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusCreated, t)
}

// HandleGetThreat handles GET /api/threats/{threatID}
func (h *APIHandler) HandleGetThreat(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetThreat(r.Context(), p, chi.URLParam(r, "threatID"))
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, t)
}

// HandleUpdateThreatStatus handles PUT /api/threats/{threatID}/status.
// The status may come from the JSON body or the status query parameter.
func (h *APIHandler) HandleUpdateThreatStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		var body struct {
			Status string `json:"status"`
		}
		if err := validation.DecodeJSON(r, updateStatusSchema, &body); err != nil {
			common.WriteError(w, h.logger, err)
			return
		}
		status = body.Status
	}

	if err := h.service.UpdateThreatStatus(r.Context(), p, chi.URLParam(r, "threatID"), status); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"message": "Threat status updated",
		"status":  status,
	})
}

// HandleListIncidents handles GET /api/incidents
func (h *APIHandler) HandleListIncidents(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := IncidentFilter{}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	if v := q.Get("is_automated"); v != "" {
		automated, err := strconv.ParseBool(v)
		if err != nil {
			common.WriteError(w, h.logger, common.ErrValidation)
			return
		}
		f.Automated = &automated
	}

	incidents, err := h.service.ListIncidents(r.Context(), p, f)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if incidents == nil {
		incidents = []*Incident{}
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"incidents": incidents, "count": len(incidents)})
}

// HandleCreateIncident handles POST /api/incidents
func (h *APIHandler) HandleCreateIncident(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req CreateIncidentRequest
	if err := validation.DecodeJSON(r, createIncidentSchema, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	inc, err := h.service.CreateIncident(r.Context(), p, req)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusCreated, inc)
}
