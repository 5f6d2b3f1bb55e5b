package collaboration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/ledger"
	"github.com/FairForge/dctip/internal/threats"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	store  Store
	ledger Ledger
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, ledger Ledger, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{store: store, ledger: ledger, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Share publishes intelligence on behalf of the caller's organization and records an intelligence_shared ledger entry.
func (s *Service) Share(ctx context.Context, p common.Principal, req ShareRequest) (*SharedIntelligence, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	severity := strings.ToLower(strings.TrimSpace(req.Severity))
	switch severity {
	case threats.SeverityCritical, threats.SeverityHigh, threats.SeverityMedium, threats.SeverityLow:
	default:
		return nil, fmt.Errorf("%w: invalid severity %q", common.ErrValidation, req.Severity)
	}

	indicators := make([]string, 0, len(req.ThreatIndicators))
	for _, ind := range req.ThreatIndicators {
		if ind = strings.TrimSpace(ind); ind != "" {
			indicators = append(indicators, ind)
		}
	}
	industries := make([]string, 0, len(req.IndustryRelevance))
	for _, ind := range req.IndustryRelevance {
		if strings.TrimSpace(ind) != "" {
			industries = append(industries, common.NormalizeIndustry(ind))
		}
	}

	intel := &SharedIntelligence{
		ID:                uuid.New().String(),
		Title:             title,
		Description:       req.Description,
		ThreatIndicators:  indicators,
		Severity:          severity,
		SharedByOrg:       p.OrganizationID,
		SharedByUser:      p.UserID,
		IndustryRelevance: industries,
		Timestamp:         s.now().UTC(),
	}

	tx, err := s.ledger.Record(ctx, ledger.TypeIntelligenceShared, intel.ID, p.OrganizationID)
	if err != nil {
		return nil, err
	}
	intel.BlockchainHash = tx.TransactionHash

	if err := s.store.Create(ctx, intel); err != nil {
		return nil, fmt.Errorf("share intelligence: %w", err)
	}

	s.logger.Info("intelligence shared",
		zap.String("intel_id", intel.ID),
		zap.String("organization_id", intel.SharedByOrg),
		zap.Strings("industries", intel.IndustryRelevance))
	return intel, nil
}

// List returns shared intelligence from every organization, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]*SharedIntelligence, error) {
	if f.Industry != "" {
		f.Industry = common.NormalizeIndustry(f.Industry)
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list shared intelligence: %w", err)
	}
	return out, nil
}

func (s *Service) Upvote(ctx context.Context, id string) (int, error) {
	n, err := s.store.Upvote(ctx, id)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("intelligence upvoted", zap.String("intel_id", id), zap.Int("upvotes", n))
	return n, nil
}
