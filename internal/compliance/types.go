// Package compliance scores an organization's compliance posture, runs rule-based
// audits over its controls, threats and documents, and assembles reports.
package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/ledger"
)

// Control implementation statuses
const (
	StatusNotImplemented = "not_implemented"
	StatusPartial        = "partial"
	StatusImplemented    = "implemented"
)

// Trend classifications
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Finding severities
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
)

const (
	AuditTypeOnDemand    = "on_demand"
	AuditStatusCompleted = "completed"

	DefaultAuditListLimit = 10
	DefaultAuditHistory   = 100
)

var (
	ErrControlNotFound  = fmt.Errorf("compliance: control %w", common.ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("compliance: document %w", common.ErrNotFound)
)

func validControlStatus(s string) bool {
	switch s {
	case StatusNotImplemented, StatusPartial, StatusImplemented:
		return true
	}
	return false
}

// Control is one compliance requirement tracked per user.
// (UserID, ControlID) is unique.
type Control struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	OrganizationID string     `json:"organization_id"`
	Industry       string     `json:"industry"`
	ControlID      string     `json:"control_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Standard       string     `json:"standard"`
	Category       string     `json:"category"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	ImplementedAt  *time.Time `json:"implemented_at"`
	VerifiedAt     *time.Time `json:"verified_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Finding is a single audit observation.
type Finding struct {
	Severity string `json:"severity"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Control  string `json:"control,omitempty"`
	Standard string `json:"standard,omitempty"`
	Count    int    `json:"count,omitempty"`
}

// Audit is an immutable record of one audit run.
type Audit struct {
	ID               string    `json:"id"`
	OrganizationID   string    `json:"organization_id"`
	AuditorID        string    `json:"auditor_id"`
	AuditType        string    `json:"audit_type"`
	Industry         string    `json:"industry"`
	StandardsChecked []string  `json:"standards_checked"`
	OverallScore     float64   `json:"overall_score"`
	PassedControls   int       `json:"passed_controls"`
	FailedControls   int       `json:"failed_controls"`
	Warnings         int       `json:"warnings"`
	Findings         []Finding `json:"findings"`
	Recommendations  []string  `json:"recommendations"`
	Timestamp        time.Time `json:"audit_timestamp"`
	BlockchainHash   string    `json:"blockchain_hash"`
	Status           string    `json:"status"`
}

// AuditSummary is the short form of an audit embedded in a score.
type AuditSummary struct {
	ID             string    `json:"id"`
	OverallScore   float64   `json:"overall_score"`
	Timestamp      time.Time `json:"timestamp"`
	FailedControls int       `json:"failed_controls"`
	Warnings       int       `json:"warnings"`
}

func (a *Audit) Summary() AuditSummary {
	return AuditSummary{
		ID:             a.ID,
		OverallScore:   a.OverallScore,
		Timestamp:      a.Timestamp,
		FailedControls: a.FailedControls,
		Warnings:       a.Warnings,
	}
}

// Document is compliance evidence metadata. The content itself lives in the blob store.
type Document struct {
	ID                 string    `json:"id"`
	OrganizationID     string    `json:"organization_id"`
	UploadedBy         string    `json:"uploaded_by"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	DocumentType       string    `json:"document_type"`
	ComplianceStandard string    `json:"compliance_standard"`
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size"`
	FilePath           string    `json:"file_path"`
	Tags               []string  `json:"tags"`
	BlockchainHash     string    `json:"blockchain_hash"`
	UploadedAt         time.Time `json:"uploaded_at"`
}

type UploadDocumentRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	DocumentType       string   `json:"document_type"`
	ComplianceStandard string   `json:"compliance_standard"`
	FileName           string   `json:"file_name"`
	FileSize           int64    `json:"file_size"`
	FileContent        string   `json:"file_content"`
	Tags               []string `json:"tags"`
}

// StandardScore is the sub-score for one standard. Score is nil when no
// control references the standard and estimation is disabled.
type StandardScore struct {
	Score         *float64 `json:"score"`
	Measured      bool     `json:"measured"`
	TotalControls int      `json:"total_controls"`
	Implemented   int      `json:"implemented"`
}

type ControlsStatus struct {
	Implemented    int `json:"implemented"`
	Partial        int `json:"partial"`
	NotImplemented int `json:"not_implemented"`
	Total          int `json:"total"`
}

// Score is derived on every request and never persisted.
type Score struct {
	OverallScore     float64                  `json:"overall_score"`
	Industry         string                   `json:"industry"`
	ScoresByStandard map[string]StandardScore `json:"scores_by_standard"`
	ControlsStatus   ControlsStatus           `json:"controls_status"`
	RecentAudits     []AuditSummary           `json:"recent_audits"`
	ThreatImpact     float64                  `json:"threat_impact"`
	Trend            string                   `json:"trend"`
	LastCalculated   time.Time                `json:"last_calculated"`
}

type ControlsSummary struct {
	TotalControls  int `json:"total_controls"`
	Implemented    int `json:"implemented"`
	Partial        int `json:"partial"`
	NotImplemented int `json:"not_implemented"`
}

type DocumentsSummary struct {
	TotalDocuments int `json:"total_documents"`
}

type ThreatsSummary struct {
	Active    int `json:"active"`
	Mitigated int `json:"mitigated"`
}

type Report struct {
	ComplianceScore  *Score           `json:"compliance_score"`
	LatestAudit      *Audit           `json:"latest_audit"`
	ControlsSummary  ControlsSummary  `json:"controls_summary"`
	DocumentsSummary DocumentsSummary `json:"documents_summary"`
	DocumentsCount   int              `json:"documents_count"`
	ThreatsSummary   ThreatsSummary   `json:"threats_summary"`
	Recommendations  []string         `json:"recommendations"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// Store persists controls, audits and documents.
type Store interface {
	// ListControls returns the user's controls ordered by control_id.
	ListControls(ctx context.Context, userID string) ([]*Control, error)
	// UpsertControl inserts c unless (UserID, ControlID) already exists.
	UpsertControl(ctx context.Context, c *Control) error
	GetControl(ctx context.Context, userID, controlID string) (*Control, error)
	UpdateControl(ctx context.Context, c *Control) error

	CreateAudit(ctx context.Context, a *Audit) error
	// ListAudits returns the organization's audits, newest first.
	ListAudits(ctx context.Context, organizationID string, limit int) ([]*Audit, error)

	CreateDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, organizationID, id string) (*Document, error)
	ListDocuments(ctx context.Context, organizationID string) ([]*Document, error)
	DeleteDocument(ctx context.Context, organizationID, id string) error
	CountDocuments(ctx context.Context, organizationID string) (int, error)
}

// ThreatStats is the threat data the score and audit read.
// Empty status or severity match any value.
type ThreatStats interface {
	CountThreats(ctx context.Context, organizationID, status, severity string) (int, error)
	CountIncidents(ctx context.Context, organizationID string) (int, error)
}

type Ledger interface {
	Record(ctx context.Context, txType, dataID, organizationID string) (*ledger.Transaction, error)
}
