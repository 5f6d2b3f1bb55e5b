// internal/auth/handlers.go
package auth

import (
	"net/http"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var registerSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["email", "password", "full_name", "organization"],
	"properties": {
		"email": {"type": "string", "minLength": 3},
		"password": {"type": "string", "minLength": 8},
		"full_name": {"type": "string", "minLength": 1},
		"organization": {"type": "string", "minLength": 1},
		"role": {"type": "string", "enum": ["analyst", "admin", "incident_responder"]},
		"industry": {"type": "string"}
	}
}`)

var loginSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["email", "password"],
	"properties": {
		"email": {"type": "string"},
		"password": {"type": "string"}
	}
}`)

// APIHandler provides HTTP handlers for accounts
type APIHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewAPIHandler(service *Service, logger *zap.Logger) *APIHandler {
	return &APIHandler{service: service, logger: logger}
}

// PublicRoutes mounts the endpoints that need no token.
func (h *APIHandler) PublicRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
}

// HandleRegister handles POST /api/auth/register
func (h *APIHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validation.DecodeJSON(r, registerSchema, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	if err := common.WriteJSON(w, http.StatusCreated, resp); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// HandleLogin handles POST /api/auth/login
func (h *APIHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validation.DecodeJSON(r, loginSchema, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	if err := common.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// HandleMe handles GET /api/auth/me
func (h *APIHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := common.PrincipalFromContext(r.Context())
	if !ok {
		common.WriteError(w, h.logger, ErrInvalidToken)
		return
	}

	user, err := h.service.User(r.Context(), p.UserID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	if err := common.WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
