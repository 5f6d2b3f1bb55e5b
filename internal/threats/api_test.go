package threats

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
	r.Route("/api/threats", h.ThreatRoutes)
	r.Route("/api/incidents", h.IncidentRoutes)
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

func TestAPI_ThreatLifecycle(t *testing.T) {
	router := setupRouter(t)

	rec := do(router, http.MethodPost, "/api/threats", map[string]interface{}{
		"name": "Cobalt Strike beacon", "severity": "high", "category": "intrusion",
		"industry_tags": []string{"finance"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created Threat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, []string{"finance"}, created.IndustryTags)

	t.Run("get", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/api/threats/"+created.ID, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("get missing", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/api/threats/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update status via body", func(t *testing.T) {
		rec := do(router, http.MethodPut, "/api/threats/"+created.ID+"/status", map[string]string{"status": "investigating"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "investigating")
	})

	t.Run("update status via query", func(t *testing.T) {
		rec := do(router, http.MethodPut, "/api/threats/"+created.ID+"/status?status=mitigated", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("list filtered", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/api/threats?status=mitigated", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Threats []Threat `json:"threats"`
			Count   int      `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
	})

	t.Run("incident", func(t *testing.T) {
		rec := do(router, http.MethodPost, "/api/incidents", map[string]interface{}{
			"threat_id": created.ID, "action_type": "isolate_system", "is_automated": true,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = do(router, http.MethodGet, "/api/incidents?is_automated=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"count":1`)
	})
}

func TestAPI_Validation(t *testing.T) {
	router := setupRouter(t)

	rec := do(router, http.MethodPost, "/api/threats", map[string]interface{}{"name": "x", "severity": "extreme", "category": "c"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/api/incidents?is_automated=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/threats", nil)
	req.Header.Set("X-Test-Anonymous", "1")
	anon := httptest.NewRecorder()
	router.ServeHTTP(anon, req)
	assert.Equal(t, http.StatusUnauthorized, anon.Code)
}
