package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/FairForge/dctip/internal/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// APIHandler exposes the ledger over HTTP
type APIHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewAPIHandler(service *Service, logger *zap.Logger) *APIHandler {
	return &APIHandler{service: service, logger: logger}
}

// Routes mounts the handlers on a chi router.
func (h *APIHandler) Routes(r chi.Router) {
	r.Get("/transactions", h.HandleListTransactions)
	r.Get("/verify/{hash}", h.HandleVerify)
}

// HandleListTransactions handles GET /api/ledger/transactions
func (h *APIHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	p, ok := common.PrincipalFromContext(r.Context())
	if !ok {
		common.WriteError(w, h.logger, common.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txs, err := h.service.List(r.Context(), p.OrganizationID, limit)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if txs == nil {
		txs = []*Transaction{}
	}

	if err := common.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	}); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// HandleVerify handles GET /api/ledger/verify/{hash}. It reports whether the
// hash was recorded for the caller's organization; it does not check integrity.
func (h *APIHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	p, ok := common.PrincipalFromContext(r.Context())
	if !ok {
		common.WriteError(w, h.logger, common.ErrUnauthorized)
		return
	}

	hash := chi.URLParam(r, "hash")
	resp := map[string]interface{}{
		"transaction_hash": hash,
		"recorded":         false,
	}

	tx, err := h.service.Lookup(r.Context(), p.OrganizationID, hash)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		common.WriteError(w, h.logger, err)
		return
	default:
		resp["recorded"] = true
		resp["transaction"] = tx
	}

	if err := common.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
