package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/metrics"
	"github.com/FairForge/dctip/internal/threats"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages alert configs and the alerts they raise.
type Service struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateConfig stores an alert config owned by the caller.
func (s *Service) CreateConfig(ctx context.Context, p common.Principal, req CreateConfigRequest) (*AlertConfig, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	severities := make([]string, 0, len(req.SeverityLevels))
	for _, sev := range req.SeverityLevels {
		sev = strings.ToLower(strings.TrimSpace(sev))
		switch sev {
		case threats.SeverityCritical, threats.SeverityHigh, threats.SeverityMedium, threats.SeverityLow:
			severities = append(severities, sev)
		default:
			return nil, fmt.Errorf("%w: invalid severity %q", common.ErrValidation, sev)
		}
	}
	categories := make([]string, 0, len(req.Categories))
	for _, c := range req.Categories {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}

	c := &AlertConfig{
		ID:                    uuid.New().String(),
		UserID:                p.UserID,
		OrganizationID:        p.OrganizationID,
		Name:                  name,
		SeverityLevels:        severities,
		Categories:            categories,
		NotificationEmail:     boolOr(req.NotificationEmail, true),
		NotificationDashboard: boolOr(req.NotificationDashboard, true),
		IsActive:              boolOr(req.IsActive, true),
		CreatedAt:             s.now().UTC(),
	}
	if err := s.store.CreateConfig(ctx, c); err != nil {
		return nil, fmt.Errorf("create alert config: %w", err)
	}

	s.logger.Info("alert config created",
		zap.String("config_id", c.ID),
		zap.String("user_id", c.UserID))
	return c, nil
}

func (s *Service) ListConfigs(ctx context.Context, p common.Principal) ([]*AlertConfig, error) {
	configs, err := s.store.ListConfigs(ctx, p.UserID, MaxConfigListLimit)
	if err != nil {
		return nil, fmt.Errorf("list alert configs: %w", err)
	}
	return configs, nil
}

// ListAlerts returns the caller's alerts, newest first.
func (s *Service) ListAlerts(ctx context.Context, p common.Principal, f AlertFilter) ([]*Alert, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	alerts, err := s.store.ListAlerts(ctx, p.UserID, f)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// MarkRead marks one of the caller's alerts as read.
func (s *Service) MarkRead(ctx context.Context, p common.Principal, id string) error {
	return s.store.MarkRead(ctx, p.UserID, id)
}

// MarkAllRead marks every unread alert of the caller as read and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, p common.Principal) (int, error) {
	n, err := s.store.MarkAllRead(ctx, p.UserID)
	if err != nil {
		return 0, fmt.Errorf("mark alerts read: %w", err)
	}
	return n, nil
}

// ThreatRecorded raises one alert per matching active config in the threat's organization.
func (s *Service) ThreatRecorded(ctx context.Context, t *threats.Threat) error {
	configs, err := s.store.ListActiveConfigs(ctx, t.OrganizationID)
	if err != nil {
		return fmt.Errorf("list active alert configs: %w", err)
	}

	raised := 0
	for _, c := range configs {
		if !c.Matches(t.Severity, t.Category) {
			continue
		}
		a := &Alert{
			ID:             uuid.New().String(),
			ThreatID:       t.ID,
			UserID:         c.UserID,
			OrganizationID: t.OrganizationID,
			ConfigID:       c.ID,
			Message:        fmt.Sprintf("%s threat detected: %s", strings.ToUpper(t.Severity), t.Name),
			Severity:       t.Severity,
			Category:       t.Category,
			CreatedAt:      s.now().UTC(),
		}
		if err := s.store.CreateAlert(ctx, a); err != nil {
			return fmt.Errorf("create alert: %w", err)
		}
		s.metrics.RecordAlert(a.Severity)
		raised++
	}

	if raised > 0 {
		s.logger.Info("alerts raised",
			zap.String("threat_id", t.ID),
			zap.Int("count", raised))
	}
	return nil
}

// Matches reports whether a threat with the given severity and category selects this config.
func (c *AlertConfig) Matches(severity, category string) bool {
	if !c.IsActive || !c.NotificationDashboard {
		return false
	}
	return anyOrContains(c.SeverityLevels, severity) && anyOrContains(c.Categories, category)
}

func anyOrContains(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
