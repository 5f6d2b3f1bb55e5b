package collaboration

import (
	"net/http"
	"strconv"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var shareSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["title", "severity"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"threat_indicators": {"type": "array", "items": {"type": "string"}},
		"severity": {"type": "string", "minLength": 1},
		"industry_relevance": {"type": "array", "items": {"type": "string"}}
	}
}`)

// APIHandler provides HTTP handlers for shared intelligence
type APIHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewAPIHandler(service *Service, logger *zap.Logger) *APIHandler {
	return &APIHandler{service: service, logger: logger}
}

// Routes mounts /api/collaboration.
func (h *APIHandler) Routes(r chi.Router) {
	r.Post("/share", h.HandleShare)
	r.Get("/shared", h.HandleListShared)
	r.Post("/{intelID}/upvote", h.HandleUpvote)
}

func (h *APIHandler) respond(w http.ResponseWriter, status int, v interface{}) {
	if err := common.WriteJSON(w, status, v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// HandleShare handles POST /api/collaboration/share
func (h *APIHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	p, ok := common.PrincipalFromContext(r.Context())
	if !ok {
		common.WriteError(w, h.logger, common.ErrUnauthorized)
		return
	}

	var req ShareRequest
	if err := validation.DecodeJSON(r, shareSchema, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	intel, err := h.service.Share(r.Context(), p, req)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusCreated, intel)
}

// HandleListShared handles GET /api/collaboration/shared
func (h *APIHandler) HandleListShared(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	items, err := h.service.List(r.Context(), Filter{Industry: q.Get("industry"), Limit: limit})
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []*SharedIntelligence{}
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"shared": items, "count": len(items)})
}

// HandleUpvote handles POST /api/collaboration/{intelID}/upvote
func (h *APIHandler) HandleUpvote(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Upvote(r.Context(), chi.URLParam(r, "intelID"))
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"message": "Upvoted successfully",
		"upvotes": n,
	})
}
