package threats

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages threats and incident responses for an organization.
type Service struct {
	store  Store
	ledger Ledger
	logger *zap.Logger
	notify Notifier
	now    func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the source for default confidence scores.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rnd = r }
}

// WithNotifier is told about every recorded threat.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

func NewService(store Store, ledger Ledger, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		ledger: ledger,
		logger: logger,
		now:    time.Now,
		rnd:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)), // #nosec G404 -- display value, not security sensitive
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateThreat records a threat and appends a threat_recorded ledger entry.
func (s *Service) CreateThreat(ctx context.Context, p common.Principal, req CreateThreatRequest) (*Threat, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	severity := strings.ToLower(strings.TrimSpace(req.Severity))
	if !validSeverity(severity) {
		return nil, fmt.Errorf("%w: invalid severity %q", common.ErrValidation, req.Severity)
	}

	confidence := 0.0
	if req.ConfidenceScore != nil {
		confidence = *req.ConfidenceScore
		if confidence < 0 || confidence > 1 {
			return nil, fmt.Errorf("%w: confidence_score must be between 0 and 1", common.ErrValidation)
		}
	} else {
		confidence = s.defaultConfidence()
	}

	detectedBy := req.DetectedBy
	if detectedBy == "" {
		detectedBy = DetectedByManual
	}
	tags := req.IndustryTags
	if tags == nil {
		tags = []string{}
	}

	t := &Threat{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Severity:        severity,
		Category:        req.Category,
		SourceIP:        req.SourceIP,
		TargetSystem:    req.TargetSystem,
		IndustryTags:    tags,
		Status:          StatusActive,
		DetectedAt:      s.now().UTC(),
		DetectedBy:      detectedBy,
		ConfidenceScore: confidence,
		OrganizationID:  p.OrganizationID,
	}

	tx, err := s.ledger.Record(ctx, ledger.TypeThreatRecorded, t.ID, p.OrganizationID)
	if err != nil {
		return nil, err
	}
	t.BlockchainHash = tx.TransactionHash

	if err := s.store.CreateThreat(ctx, t); err != nil {
		return nil, fmt.Errorf("create threat: %w", err)
	}

	s.logger.Info("threat recorded",
		zap.String("threat_id", t.ID),
		zap.String("severity", t.Severity),
		zap.String("organization_id", t.OrganizationID))

	if s.notify != nil {
		if err := s.notify.ThreatRecorded(ctx, t); err != nil {
			s.logger.Warn("threat notification failed", zap.String("threat_id", t.ID), zap.Error(err))
		}
	}
	return t, nil
}

// defaultConfidence draws a score in [0.70, 0.99].
func (s *Service) defaultConfidence() float64 {
	s.rndMu.Lock()
	v := s.rnd.Float64()
	s.rndMu.Unlock()
	return math.Round((0.70+v*0.29)*100) / 100
}

func (s *Service) GetThreat(ctx context.Context, p common.Principal, id string) (*Threat, error) {
	return s.store.GetThreat(ctx, p.OrganizationID, id)
}

// ListThreats returns the organization's threats, newest first.
func (s *Service) ListThreats(ctx context.Context, p common.Principal, f ThreatFilter) ([]*Threat, error) {
	f.Limit = clampLimit(f.Limit)
	threats, err := s.store.ListThreats(ctx, p.OrganizationID, f)
	if err != nil {
		return nil, fmt.Errorf("list threats: %w", err)
	}
	return threats, nil
}

func (s *Service) UpdateThreatStatus(ctx context.Context, p common.Principal, id, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if !validStatus(status) {
		return fmt.Errorf("%w: invalid status %q", common.ErrValidation, status)
	}
	if err := s.store.UpdateThreatStatus(ctx, p.OrganizationID, id, status); err != nil {
		return err
	}
	s.logger.Info("threat status updated", zap.String("threat_id", id), zap.String("status", status))
	return nil
}

// CreateIncident records a response against one of the organization's threats.
func (s *Service) CreateIncident(ctx context.Context, p common.Principal, req CreateIncidentRequest) (*Incident, error) {
	if strings.TrimSpace(req.ActionType) == "" {
		return nil, fmt.Errorf("%w: action_type is required", common.ErrValidation)
	}
	if _, err := s.store.GetThreat(ctx, p.OrganizationID, req.ThreatID); err != nil {
		return nil, err
	}

	executedBy := p.UserID
	if req.IsAutomated {
		executedBy = ExecutorAutonomous
	}

	inc := &Incident{
		ID:             uuid.New().String(),
		ThreatID:       req.ThreatID,
		ActionType:     req.ActionType,
		Description:    req.Description,
		IsAutomated:    req.IsAutomated,
		ExecutedBy:     executedBy,
		Status:         IncidentStatusCompleted,
		ExecutedAt:     s.now().UTC(),
		OrganizationID: p.OrganizationID,
	}

	tx, err := s.ledger.Record(ctx, ledger.TypeIncidentResponse, inc.ID, p.OrganizationID)
	if err != nil {
		return nil, err
	}
	inc.BlockchainHash = tx.TransactionHash

	if err := s.store.CreateIncident(ctx, inc); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	s.logger.Info("incident response recorded",
		zap.String("incident_id", inc.ID),
		zap.String("threat_id", inc.ThreatID),
		zap.String("action_type", inc.ActionType))
	return inc, nil
}

func (s *Service) ListIncidents(ctx context.Context, p common.Principal, f IncidentFilter) ([]*Incident, error) {
	f.Limit = clampLimit(f.Limit)
	incidents, err := s.store.ListIncidents(ctx, p.OrganizationID, f)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

// CountThreats counts the organization's threats by status and severity. Empty filters match all.
func (s *Service) CountThreats(ctx context.Context, organizationID, status, severity string) (int, error) {
	n, err := s.store.CountThreats(ctx, organizationID, status, severity)
	if err != nil {
		return 0, fmt.Errorf("count threats: %w", err)
	}
	return n, nil
}

func (s *Service) CountIncidents(ctx context.Context, organizationID string) (int, error) {
	n, err := s.store.CountIncidents(ctx, organizationID)
	if err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return n, nil
}

// CountByCategory counts the organization's threats per category.
func (s *Service) CountByCategory(ctx context.Context, organizationID string) (map[string]int, error) {
	counts, err := s.store.CountByCategory(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("count threats by category: %w", err)
	}
	return counts, nil
}

// CountAutomatedIncidentsSince counts automated responses executed at or after since.
func (s *Service) CountAutomatedIncidentsSince(ctx context.Context, organizationID string, since time.Time) (int, error) {
	n, err := s.store.CountAutomatedIncidentsSince(ctx, organizationID, since)
	if err != nil {
		return 0, fmt.Errorf("count automated incidents: %w", err)
	}
	return n, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
