// Package alerts raises per-user alerts for recorded threats according to each user's alert configs.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/FairForge/dctip/internal/common"
)

const (
	DefaultListLimit   = 50
	MaxListLimit       = 500
	MaxConfigListLimit = 100
)

var (
	ErrAlertNotFound = fmt.Errorf("alert %w", common.ErrNotFound)
)

// Alert tells one user about one threat.
type Alert struct {
	ID             string    `json:"id"`
	ThreatID       string    `json:"threat_id"`
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id"`
	ConfigID       string    `json:"config_id"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"`
	Category       string    `json:"category"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// AlertConfig selects which threats raise alerts for its owner.
// Empty SeverityLevels or Categories match every threat.
type AlertConfig struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	OrganizationID        string    `json:"organization_id"`
	Name                  string    `json:"name"`
	SeverityLevels        []string  `json:"severity_levels"`
	Categories            []string  `json:"categories"`
	NotificationEmail     bool      `json:"notification_email"`
	NotificationDashboard bool      `json:"notification_dashboard"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
}

// CreateConfigRequest leaves the notification and active flags nil to take their true default.
type CreateConfigRequest struct {
	Name                  string   `json:"name"`
	SeverityLevels        []string `json:"severity_levels"`
	Categories            []string `json:"categories"`
	NotificationEmail     *bool    `json:"notification_email"`
	NotificationDashboard *bool    `json:"notification_dashboard"`
	IsActive              *bool    `json:"is_active"`
}

type AlertFilter struct {
	IsRead *bool
	Limit  int
}

// Store persists alerts and alert configs. Alerts are scoped to their owning user.
type Store interface {
	CreateAlert(ctx context.Context, a *Alert) error
	ListAlerts(ctx context.Context, userID string, f AlertFilter) ([]*Alert, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)

	CreateConfig(ctx context.Context, c *AlertConfig) error
	ListConfigs(ctx context.Context, userID string, limit int) ([]*AlertConfig, error)
	// ListActiveConfigs returns the organization's active configs that notify on the dashboard.
	ListActiveConfigs(ctx context.Context, organizationID string) ([]*AlertConfig, error)
}
