// Package collaboration lets organizations share threat intelligence with each other.
package collaboration

import (
	"context"
	"fmt"
	"time"

	"github.com/FairForge/dctip/internal/common"
	"github.com/FairForge/dctip/internal/ledger"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

var (
	ErrIntelligenceNotFound = fmt.Errorf("shared intelligence %w", common.ErrNotFound)
)

// SharedIntelligence is visible to every organization, not only the one that shared it.
type SharedIntelligence struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	ThreatIndicators  []string  `json:"threat_indicators"`
	Severity          string    `json:"severity"`
	SharedByOrg       string    `json:"shared_by_org"`
	SharedByUser      string    `json:"shared_by_user"`
	IndustryRelevance []string  `json:"industry_relevance"`
	Timestamp         time.Time `json:"timestamp"`
	BlockchainHash    string    `json:"blockchain_hash"`
	Upvotes           int       `json:"upvotes"`
	CommentsCount     int       `json:"comments_count"`
}

type ShareRequest struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	ThreatIndicators  []string `json:"threat_indicators"`
	Severity          string   `json:"severity"`
	IndustryRelevance []string `json:"industry_relevance"`
}

type Filter struct {
	Industry string
	Limit    int
}

type Store interface {
	Create(ctx context.Context, s *SharedIntelligence) error
	// List returns entries newest first. An empty industry matches all.
	List(ctx context.Context, f Filter) ([]*SharedIntelligence, error)
	// Upvote increments the counter and returns its new value.
	Upvote(ctx context.Context, id string) (int, error)
}

// Ledger is the append-only log shares are recorded in.
type Ledger interface {
	Record(ctx context.Context, txType, dataID, organizationID string) (*ledger.Transaction, error)
}
