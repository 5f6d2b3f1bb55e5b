package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FairForge/dctip/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(svc *Service, p *common.Principal) *chi.Mux {
	r := chi.NewRouter()
	if p != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(common.WithPrincipal(req.Context(), *p)))
			})
		})
	}
	r.Route("/api/ledger", NewAPIHandler(svc, zap.NewNop()).Routes)
	return r
}

func TestAPIHandler_Transactions(t *testing.T) {
	svc := NewService(NewMemoryStore(), zap.NewNop())
	tx, err := svc.Record(context.Background(), TypeComplianceAudit, "a-1", "acme")
	require.NoError(t, err)

	router := newTestRouter(svc, &common.Principal{UserID: "u1", OrganizationID: "acme"})

	t.Run("lists", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ledger/transactions?limit=5", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Transactions []Transaction `json:"transactions"`
			Count        int           `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, tx.TransactionHash, body.Transactions[0].TransactionHash)
	})

	t.Run("verify recorded", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ledger/verify/"+tx.TransactionHash, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["recorded"])
		assert.NotNil(t, body["transaction"])
	})

	t.Run("verify unknown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ledger/verify/unknown", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["recorded"])
		assert.NotContains(t, body, "transaction")
	})
}

func TestAPIHandler_Unauthorized(t *testing.T) {
	router := newTestRouter(NewService(NewMemoryStore(), zap.NewNop()), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ledger/transactions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
