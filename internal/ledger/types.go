package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/FairForge/dctip/internal/common"
)

// Transaction types
const (
	TypeThreatRecorded      = "threat_recorded"
	TypeIncidentResponse    = "incident_response"
	TypeComplianceAudit     = "compliance_audit"
	TypeControlStatusUpdate = "control_status_update"
	TypeDocumentUploaded    = "document_uploaded"
	TypeDocumentDeleted     = "document_deleted"
	TypeIntelligenceShared  = "intelligence_shared"
)

var ErrNotFound = fmt.Errorf("ledger: transaction %w", common.ErrNotFound)

// Transaction is one append-only ledger entry. Entries are not chained; the
// hash identifies the entry but proves nothing about its neighbours.
type Transaction struct {
	ID              string    `json:"id"`
	TransactionHash string    `json:"transaction_hash"`
	BlockNumber     int64     `json:"block_number"`
	TransactionType string    `json:"transaction_type"`
	DataHash        string    `json:"data_hash"`
	OrganizationID  string    `json:"organization_id"`
	Timestamp       time.Time `json:"timestamp"`
}

// Store persists ledger entries.
type Store interface {
	// Append assigns BlockNumber and persists tx.
	Append(ctx context.Context, tx *Transaction) error
	List(ctx context.Context, organizationID string, limit int) ([]*Transaction, error)
	GetByHash(ctx context.Context, hash string) (*Transaction, error)
	Count(ctx context.Context, organizationID string) (int, error)
}
