package collaboration

import (
	"bytes"
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

func setupRouter(t *testing.T) *chi.Mux {
	svc, _ := newTestService(t)
	h := NewAPIHandler(svc, zap.NewNop())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("X-Test-Anonymous") != "" {
				next.ServeHTTP(w, req)
				return
			}
			next.ServeHTTP(w, req.WithContext(common.WithPrincipal(req.Context(), acme)))
		})
	})
	r.Route("/api/collaboration", h.Routes)
	return r
}

func do(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Collaboration(t *testing.T) {
	router := setupRouter(t)

	rec := do(router, http.MethodGet, "/api/collaboration/shared", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"shared": [], "count": 0}`, rec.Body.String())

	rec = do(router, http.MethodPost, "/api/collaboration/share", map[string]interface{}{
		"title": "Qakbot C2", "description": "new infra", "severity": "high",
		"threat_indicators": []string{"198.51.100.7"}, "industry_relevance": []string{"finance"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var intel SharedIntelligence
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &intel))
	assert.NotEmpty(t, intel.BlockchainHash)

	t.Run("missing title", func(t *testing.T) {
		rec := do(router, http.MethodPost, "/api/collaboration/share", map[string]interface{}{"severity": "low"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("industry filter", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/api/collaboration/shared?industry=finance", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"count":1`)

		rec = do(router, http.MethodGet, "/api/collaboration/shared?industry=energy", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"count":0`)
	})

	t.Run("upvote", func(t *testing.T) {
		rec := do(router, http.MethodPost, "/api/collaboration/"+intel.ID+"/upvote", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"upvotes":1`)
	})

	t.Run("upvote missing", func(t *testing.T) {
		rec := do(router, http.MethodPost, "/api/collaboration/nope/upvote", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("share requires a caller", func(t *testing.T) {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(map[string]string{"title": "x", "severity": "low"})
		req := httptest.NewRequest(http.MethodPost, "/api/collaboration/share", &buf)
		req.Header.Set("X-Test-Anonymous", "1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
