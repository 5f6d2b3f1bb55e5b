package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/ledger"
	"github.com/FairForge/dctip/internal/threats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	acme   = common.Principal{UserID: "u-acme", OrganizationID: "acme"}.Normalize()
	globex = common.Principal{UserID: "u-globex", OrganizationID: "globex"}.Normalize()
)

type fixture struct {
	threats *threats.Service
	ledger  *ledger.Service
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{clock: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	f.ledger = ledger.NewService(ledger.NewMemoryStore(), zap.NewNop())
	f.threats = threats.NewService(threats.NewMemoryStore(), f.ledger, zap.NewNop(),
		threats.WithClock(func() time.Time { return f.clock }))
	return f
}

func (f *fixture) service() *Service {
	return NewService(f.threats, f.ledger, WithClock(func() time.Time { return f.clock }))
}

func (f *fixture) threat(t *testing.T, p common.Principal, severity, category string) *threats.Threat {
	t.Helper()
	th, err := f.threats.CreateThreat(context.Background(), p, threats.CreateThreatRequest{
		Name: "t", Severity: severity, Category: category,
	})
	require.NoError(t, err)
	return th
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("empty organization", func(t *testing.T) {
		st, err := newFixture(t).service().Stats(ctx, "acme")
		require.NoError(t, err)
		assert.Zero(t, st.TotalThreats)
		assert.Zero(t, st.BlockchainTransactions)
		assert.Len(t, st.ThreatsByCategory, len(knownCategories))
		assert.Equal(t, map[string]int{"critical": 0, "high": 0, "medium": 0, "low": 0}, st.ThreatsBySeverity)
	})

	f := newFixture(t)
	crit := f.threat(t, acme, "critical", "ransomware")
	f.threat(t, acme, "critical", "malware")
	f.threat(t, acme, "high", "malware")
	f.threat(t, acme, "low", "supply_chain")
	f.threat(t, globex, "critical", "malware")
	require.NoError(t, f.threats.UpdateThreatStatus(ctx, acme, crit.ID, threats.StatusMitigated))

	// yesterday's automated response does not count as today
	f.clock = time.Date(2026, 4, 30, 23, 59, 0, 0, time.UTC)
	_, err := f.threats.CreateIncident(ctx, acme, threats.CreateIncidentRequest{ThreatID: crit.ID, ActionType: "isolate", IsAutomated: true})
	require.NoError(t, err)
	f.clock = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	_, err = f.threats.CreateIncident(ctx, acme, threats.CreateIncidentRequest{ThreatID: crit.ID, ActionType: "block_ip", IsAutomated: true})
	require.NoError(t, err)
	_, err = f.threats.CreateIncident(ctx, acme, threats.CreateIncidentRequest{ThreatID: crit.ID, ActionType: "notify"})
	require.NoError(t, err)

	st, err := f.service().Stats(ctx, "acme")
	require.NoError(t, err)

	assert.Equal(t, 4, st.TotalThreats)
	assert.Equal(t, 3, st.ActiveThreats)
	assert.Equal(t, 1, st.MitigatedThreats)
	assert.Equal(t, 1, st.CriticalAlerts, "mitigated critical threat is not an alert")
	assert.Equal(t, 1, st.HighAlerts)
	assert.Equal(t, 0, st.MediumAlerts)
	assert.Equal(t, 1, st.LowAlerts)
	assert.Equal(t, map[string]int{"critical": 2, "high": 1, "medium": 0, "low": 1}, st.ThreatsBySeverity)
	assert.Equal(t, 2, st.ThreatsByCategory["malware"])
	assert.Equal(t, 1, st.ThreatsByCategory["ransomware"])
	assert.Equal(t, 1, st.ThreatsByCategory["supply_chain"])
	assert.Equal(t, 0, st.ThreatsByCategory["phishing"])
	assert.Equal(t, 1, st.AutonomousResponsesToday)
	assert.Equal(t, 7, st.BlockchainTransactions, "four threats and three incidents")
}

type brokenLedger struct{}

func (brokenLedger) Count(context.Context, string) (int, error) { return 0, errors.New("ledger down") }

func TestService_StatsLedgerFailure(t *testing.T) {
	f := newFixture(t)
	_, err := NewService(f.threats, brokenLedger{}).Stats(context.Background(), "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger down")
}

func TestAPI_Stats(t *testing.T) {
	f := newFixture(t)
	f.threat(t, acme, "high", "phishing")
	h := NewAPIHandler(f.service(), zap.NewNop())

	t.Run("scoped to caller", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
		req = req.WithContext(common.WithPrincipal(req.Context(), acme))
		rec := httptest.NewRecorder()
		h.HandleStats(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var st Stats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		assert.Equal(t, 1, st.TotalThreats)
		assert.Equal(t, 1, st.HighAlerts)
		assert.Equal(t, 1, st.ThreatsByCategory["phishing"])
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleStats(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
