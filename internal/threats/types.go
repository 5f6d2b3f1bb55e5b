// Package threats records detected threats and the incident responses taken against them.
package threats

import (
	"context"
	"fmt"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/ledger"
)

// Severities
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Threat statuses
const (
	StatusActive        = "active"
	StatusMitigated     = "mitigated"
	StatusInvestigating = "investigating"
	StatusFalsePositive = "false_positive"
)

// Detection sources
const (
	DetectedByManual         = "manual"
	DetectedByFederatedModel = "federated_model"
	DetectedByAutonomous     = "ai_autonomous"
)

const (
	IncidentStatusCompleted = "completed"
	ExecutorAutonomous      = "autonomous_ai"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

var (
	ErrThreatNotFound = fmt.Errorf("threat %w", common.ErrNotFound)
)

func validSeverity(s string) bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case StatusActive, StatusMitigated, StatusInvestigating, StatusFalsePositive:
		return true
	}
	return false
}

type Threat struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Severity        string    `json:"severity"`
	Category        string    `json:"category"`
	SourceIP        string    `json:"source_ip,omitempty"`
	TargetSystem    string    `json:"target_system,omitempty"`
	IndustryTags    []string  `json:"industry_tags"`
	Status          string    `json:"status"`
	DetectedAt      time.Time `json:"detected_at"`
	DetectedBy      string    `json:"detected_by"`
	ConfidenceScore float64   `json:"confidence_score"`
	BlockchainHash  string    `json:"blockchain_hash"`
	OrganizationID  string    `json:"organization_id"`
}

type Incident struct {
	ID             string    `json:"id"`
	ThreatID       string    `json:"threat_id"`
	ActionType     string    `json:"action_type"`
	Description    string    `json:"description"`
	IsAutomated    bool      `json:"is_automated"`
	ExecutedBy     string    `json:"executed_by"`
	Status         string    `json:"status"`
	ExecutedAt     time.Time `json:"executed_at"`
	BlockchainHash string    `json:"blockchain_hash"`
	OrganizationID string    `json:"organization_id"`
}

type CreateThreatRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Severity        string   `json:"severity"`
	Category        string   `json:"category"`
	SourceIP        string   `json:"source_ip"`
	TargetSystem    string   `json:"target_system"`
	IndustryTags    []string `json:"industry_tags"`
	DetectedBy      string   `json:"detected_by"`
	ConfidenceScore *float64 `json:"confidence_score"`
}

type CreateIncidentRequest struct {
	ThreatID    string `json:"threat_id"`
	ActionType  string `json:"action_type"`
	Description string `json:"description"`
	IsAutomated bool   `json:"is_automated"`
}

// ThreatFilter narrows a threat listing. Empty fields match everything.
type ThreatFilter struct {
	Status   string
	Severity string
	Category string
	Limit    int
}

type IncidentFilter struct {
	Automated *bool
	Limit     int
}

// Store persists threats and incidents. Every call is scoped to one organization.
type Store interface {
	CreateThreat(ctx context.Context, t *Threat) error
	GetThreat(ctx context.Context, organizationID, id string) (*Threat, error)
	ListThreats(ctx context.Context, organizationID string, f ThreatFilter) ([]*Threat, error)
	UpdateThreatStatus(ctx context.Context, organizationID, id, status string) error
	// CountThreats counts threats; empty status or severity match any value.
	CountThreats(ctx context.Context, organizationID, status, severity string) (int, error)
	CountByCategory(ctx context.Context, organizationID string) (map[string]int, error)

	CreateIncident(ctx context.Context, inc *Incident) error
	ListIncidents(ctx context.Context, organizationID string, f IncidentFilter) ([]*Incident, error)
	CountIncidents(ctx context.Context, organizationID string) (int, error)
	CountAutomatedIncidentsSince(ctx context.Context, organizationID string, since time.Time) (int, error)
}

// Notifier reacts to newly recorded threats. Errors are logged, not returned to the caller.
type Notifier interface {
	ThreatRecorded(ctx context.Context, t *Threat) error
}

// Ledger is the append-only log threats and incidents are recorded in.
type Ledger interface {
	Record(ctx context.Context, txType, dataID, organizationID string) (*ledger.Transaction, error)
}
