package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FairForge/dctip/internal/alerts"
	"github.com/FairForge/dctip/internal/auth"
	"github.com/FairForge/dctip/internal/collaboration"
	"github.com/FairForge/dctip/internal/compliance"
	"github.com/FairForge/dctip/internal/config"
	"github.com/FairForge/dctip/internal/dashboard"
	"github.com/FairForge/dctip/internal/ledger"
	"github.com/FairForge/dctip/internal/metrics"
	"github.com/FairForge/dctip/internal/threats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, mutate func(*config.Config, *Dependencies)) *Server {
	t.Helper()
	cfg := config.Default()
	logger := zap.NewNop()
	m := metrics.New()

	l := ledger.NewService(ledger.NewMemoryStore(), logger, ledger.WithMetrics(m))
	al := alerts.NewService(alerts.NewMemoryStore(), logger, alerts.WithMetrics(m))
	th := threats.NewService(threats.NewMemoryStore(), l, logger, threats.WithNotifier(al))
	deps := Dependencies{
		Auth:          auth.NewService(auth.NewMemoryStore(), "test-secret", time.Hour, logger),
		Threats:       th,
		Ledger:        l,
		Compliance:    compliance.NewService(compliance.NewMemoryStore(), th, l, logger, compliance.WithMetrics(m)),
		Alerts:        al,
		Collaboration: collaboration.NewService(collaboration.NewMemoryStore(), l, logger),
		Dashboard:     dashboard.NewService(th, l),
		Metrics:       m,
	}
	if mutate != nil {
		mutate(cfg, &deps)
	}
	return NewServer(cfg, logger, deps)
}

func call(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, h http.Handler, email, org, industry string) string {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "correct-horse", "full_name": "Test User",
		"organization": org, "industry": industry,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp auth.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestServer_OperationalEndpoints(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	for _, path := range []string{"/health", "/ready", "/version", "/api/"} {
		rec := call(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), path)
	}

	rec := call(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dctip_http_requests_total")
}

func TestServer_ReadyReportsDatabase(t *testing.T) {
	h := newTestServer(t, func(_ *config.Config, d *Dependencies) {
		d.DB = stubPinger{err: errors.New("connection refused")}
	}).Handler()

	rec := call(t, h, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready":false`)
}

func TestServer_RequiresAuth(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	for _, path := range []string{"/api/threats", "/api/incidents", "/api/ledger/transactions", "/api/compliance/score", "/api/auth/me",
		"/api/alerts", "/api/alert-configs", "/api/collaboration/shared", "/api/dashboard/stats"} {
		rec := call(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := call(t, h, http.MethodGet, "/api/compliance/score", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_ComplianceFlow(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	token := register(t, h, "ciso@hospital.example", "St. Mercy", "healthcare")

	rec := call(t, h, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/threats", token, map[string]interface{}{
		"name": "LockBit", "severity": "critical", "category": "ransomware",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/compliance/controls", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "HIPAA-001")

	rec = call(t, h, http.MethodGet, "/api/compliance/score", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var score compliance.Score
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, "healthcare", score.Industry)
	// (100 - 30 - 5) * 0.7 with every control unimplemented
	assert.InDelta(t, 45.5, score.OverallScore, 1e-9)

	rec = call(t, h, http.MethodPost, "/api/compliance/audit", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var audit compliance.Audit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &audit))
	assert.Equal(t, 0, audit.PassedControls)
	assert.Equal(t, 8, audit.FailedControls) // seven controls plus critical exposure

	rec = call(t, h, http.MethodGet, "/api/ledger/verify/"+audit.BlockchainHash, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recorded":true`)

	t.Run("organizations are isolated", func(t *testing.T) {
		other := register(t, h, "admin@bank.example", "First Bank", "finance")
		rec := call(t, h, http.MethodGet, "/api/compliance/audits", other, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"count":0`)

		rec = call(t, h, http.MethodGet, "/api/ledger/verify/"+audit.BlockchainHash, other, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"recorded":false`)
	})

	rec = call(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `dctip_compliance_audits_total{industry="healthcare"} 1`)
	assert.True(t, strings.Contains(body, `route="/api/compliance/score"`), "metrics are labelled by route pattern")
}

func TestServer_AlertsAndCollaborationFlow(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	analyst := register(t, h, "analyst@acme.example", "Acme", "finance")

	rec := call(t, h, http.MethodPost, "/api/alert-configs", analyst, map[string]interface{}{
		"name": "critical ransomware", "severity_levels": []string{"critical"}, "categories": []string{"ransomware"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, th := range []map[string]string{
		{"name": "LockBit", "severity": "critical", "category": "ransomware"},
		{"name": "Spoofed invoice", "severity": "low", "category": "phishing"},
	} {
		rec = call(t, h, http.MethodPost, "/api/threats", analyst, th)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = call(t, h, http.MethodGet, "/api/alerts?is_read=false", analyst, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Alerts []alerts.Alert `json:"alerts"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Equal(t, 1, listed.Count)
	assert.Equal(t, "CRITICAL threat detected: LockBit", listed.Alerts[0].Message)

	rec = call(t, h, http.MethodPut, "/api/alerts/"+listed.Alerts[0].ID+"/read", analyst, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/collaboration/share", analyst, map[string]interface{}{
		"title": "LockBit affiliate", "description": "new loader", "severity": "critical",
		"threat_indicators": []string{"203.0.113.9"}, "industry_relevance": []string{"finance"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("shared intelligence is visible to other organizations", func(t *testing.T) {
		other := register(t, h, "soc@bank.example", "First Bank", "finance")
		rec := call(t, h, http.MethodGet, "/api/collaboration/shared?industry=finance", other, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "LockBit affiliate")

		rec = call(t, h, http.MethodGet, "/api/alerts", other, nil)
		assert.JSONEq(t, `{"alerts": [], "count": 0}`, rec.Body.String())
	})

	rec = call(t, h, http.MethodGet, "/api/dashboard/stats", analyst, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st dashboard.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 2, st.TotalThreats)
	assert.Equal(t, 1, st.CriticalAlerts)
	assert.Equal(t, 1, st.ThreatsByCategory["ransomware"])
	assert.Equal(t, 3, st.BlockchainTransactions, "two threats and one share")

	rec = call(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, rec.Body.String(), `dctip_alerts_raised_total{severity="critical"} 1`)
}

func TestServer_RateLimit(t *testing.T) {
	h := newTestServer(t, func(cfg *config.Config, _ *Dependencies) {
		cfg.RateLimit.RequestsPerSecond = 1
		cfg.RateLimit.Burst = 2
	}).Handler()
	token := register(t, h, "soc@acme.example", "Acme", "")

	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, call(t, h, http.MethodGet, "/api/threats", token, nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rec := call(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, rec.Body.String(), "dctip_rate_limit_hits_total")
}
