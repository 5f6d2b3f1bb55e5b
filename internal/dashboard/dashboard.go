// Package dashboard summarizes an organization's threat activity.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/threats"
	"go.uber.org/zap"
)

// Categories always present in ThreatsByCategory, zero when unseen.
var knownCategories = []string{"malware", "phishing", "ddos", "intrusion", "ransomware", "data_breach", "insider_threat"}

var severities = []string{threats.SeverityCritical, threats.SeverityHigh, threats.SeverityMedium, threats.SeverityLow}

// Stats counts threats by status and severity. The *Alerts fields count active threats per severity.
type Stats struct {
	TotalThreats             int            `json:"total_threats"`
	ActiveThreats            int            `json:"active_threats"`
	MitigatedThreats         int            `json:"mitigated_threats"`
	CriticalAlerts           int            `json:"critical_alerts"`
	HighAlerts               int            `json:"high_alerts"`
	MediumAlerts             int            `json:"medium_alerts"`
	LowAlerts                int            `json:"low_alerts"`
	BlockchainTransactions   int            `json:"blockchain_transactions"`
	AutonomousResponsesToday int            `json:"autonomous_responses_today"`
	ThreatsByCategory        map[string]int `json:"threats_by_category"`
	ThreatsBySeverity        map[string]int `json:"threats_by_severity"`
	GeneratedAt              time.Time      `json:"generated_at"`
}

type ThreatCounter interface {
	CountThreats(ctx context.Context, organizationID, status, severity string) (int, error)
	CountByCategory(ctx context.Context, organizationID string) (map[string]int, error)
	CountAutomatedIncidentsSince(ctx context.Context, organizationID string, since time.Time) (int, error)
}

type LedgerCounter interface {
	Count(ctx context.Context, organizationID string) (int, error)
}

type Service struct {
	threats ThreatCounter
	ledger  LedgerCounter
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(tc ThreatCounter, lc LedgerCounter, opts ...Option) *Service {
	s := &Service{threats: tc, ledger: lc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats computes the organization's dashboard. "Today" starts at midnight UTC.
func (s *Service) Stats(ctx context.Context, organizationID string) (*Stats, error) {
	now := s.now().UTC()
	st := &Stats{
		ThreatsByCategory: make(map[string]int, len(knownCategories)),
		ThreatsBySeverity: make(map[string]int, len(severities)),
		GeneratedAt:       now,
	}

	counts := []struct {
		dst              *int
		status, severity string
	}{
		{&st.TotalThreats, "", ""},
		{&st.ActiveThreats, threats.StatusActive, ""},
		{&st.MitigatedThreats, threats.StatusMitigated, ""},
		{&st.CriticalAlerts, threats.StatusActive, threats.SeverityCritical},
		{&st.HighAlerts, threats.StatusActive, threats.SeverityHigh},
		{&st.MediumAlerts, threats.StatusActive, threats.SeverityMedium},
		{&st.LowAlerts, threats.StatusActive, threats.SeverityLow},
	}
	for _, c := range counts {
		n, err := s.threats.CountThreats(ctx, organizationID, c.status, c.severity)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	for _, sev := range severities {
		n, err := s.threats.CountThreats(ctx, organizationID, "", sev)
		if err != nil {
			return nil, err
		}
		st.ThreatsBySeverity[sev] = n
	}

	for _, c := range knownCategories {
		st.ThreatsByCategory[c] = 0
	}
	byCategory, err := s.threats.CountByCategory(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	for c, n := range byCategory {
		st.ThreatsByCategory[c] = n
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if st.AutonomousResponsesToday, err = s.threats.CountAutomatedIncidentsSince(ctx, organizationID, midnight); err != nil {
		return nil, err
	}
	if st.BlockchainTransactions, err = s.ledger.Count(ctx, organizationID); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return st, nil
}

// APIHandler serves GET /api/dashboard/stats.
type APIHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewAPIHandler(service *Service, logger *zap.Logger) *APIHandler {
	return &APIHandler{service: service, logger: logger}
}

func (h *APIHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	p, ok := common.PrincipalFromContext(r.Context())
	if !ok {
		common.WriteError(w, h.logger, common.ErrUnauthorized)
		return
	}

	st, err := h.service.Stats(r.Context(), p.OrganizationID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if err := common.WriteJSON(w, http.StatusOK, st); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
