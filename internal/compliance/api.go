package compliance

import (
	"net/http"
	"strconv"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var controlStatusSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["status"],
	"properties": {
		"status": {"type": "string", "minLength": 1},
		"notes": {"type": "string"}
	}
}`)

var uploadDocumentSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["title", "document_type", "compliance_standard", "file_name"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"document_type": {"type": "string", "minLength": 1},
		"compliance_standard": {"type": "string", "minLength": 1},
		"file_name": {"type": "string", "minLength": 1},
		"file_size": {"type": "integer", "minimum": 0},
		"file_content": {"type": "string"},
		"tags": {"type": "array", "items": {"type": "string"}}
	}
}`)

// APIHandler provides HTTP handlers for the compliance core
type APIHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewAPIHandler creates a new compliance API handler
func NewAPIHandler(service *Service, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts /api/compliance.
func (h *APIHandler) Routes(r chi.Router) {
	r.Get("/score", h.HandleScore)
	r.Post("/audit", h.HandleRunAudit)
	r.Get("/audits", h.HandleListAudits)
	r.Get("/controls", h.HandleListControls)
	r.Put("/controls/{controlID}/status", h.HandleUpdateControlStatus)
	r.Get("/documents", h.HandleListDocuments)
	r.Post("/documents", h.HandleUploadDocument)
	r.Delete("/documents/{documentID}", h.HandleDeleteDocument)
	r.Get("/report", h.HandleReport)
	r.Get("/templates", h.HandleTemplates)
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

// HandleScore handles GET /api/compliance/score
func (h *APIHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	score, err := h.service.ComputeScore(r.Context(), p)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, score)
}

// HandleRunAudit handles POST /api/compliance/audit
func (h *APIHandler) HandleRunAudit(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	audit, err := h.service.RunAudit(r.Context(), p)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, audit)
}

// HandleListAudits handles GET /api/compliance/audits?limit=N
func (h *APIHandler) HandleListAudits(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			common.WriteError(w, h.logger, common.ErrValidation)
			return
		}
		limit = n
	}

	audits, err := h.service.ListAudits(r.Context(), p, limit)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if audits == nil {
		audits = []*Audit{}
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"audits": audits, "count": len(audits)})
}

// HandleListControls handles GET /api/compliance/controls. The catalog is
// seeded on first access.
func (h *APIHandler) HandleListControls(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	controls, err := h.service.EnsureControls(r.Context(), p)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"controls": controls, "count": len(controls)})
}

// HandleUpdateControlStatus handles PUT /api/compliance/controls/{controlID}/status
func (h *APIHandler) HandleUpdateControlStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := validation.DecodeJSON(r, controlStatusSchema, &body); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	control, tx, err := h.service.UpdateControlStatus(r.Context(), p, chi.URLParam(r, "controlID"), body.Status, body.Notes)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"message":         "Control status updated",
		"control":         control,
		"blockchain_hash": tx.TransactionHash,
	})
}

// HandleListDocuments handles GET /api/compliance/documents
func (h *APIHandler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	docs, err := h.service.ListDocuments(r.Context(), p)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if docs == nil {
		docs = []*Document{}
	}
	h.respond(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

// HandleUploadDocument handles POST /api/compliance/documents
func (h *APIHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req UploadDocumentRequest
	if err := validation.DecodeJSON(r, uploadDocumentSchema, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	doc, err := h.service.UploadDocument(r.Context(), p, req)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusCreated, doc)
}

// HandleDeleteDocument handles DELETE /api/compliance/documents/{documentID}
func (h *APIHandler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	tx, err := h.service.DeleteDocument(r.Context(), p, chi.URLParam(r, "documentID"))
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"message":         "Document deleted",
		"blockchain_hash": tx.TransactionHash,
	})
}

// HandleReport handles GET /api/compliance/report
func (h *APIHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	report, err := h.service.BuildReport(r.Context(), p)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, report)
}

// HandleTemplates handles GET /api/compliance/templates
func (h *APIHandler) HandleTemplates(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	h.respond(w, http.StatusOK, IndustryTemplates())
}
