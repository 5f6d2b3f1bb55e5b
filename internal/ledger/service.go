package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FairForge/dctip/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Service appends and reads ledger entries.
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

// NewService creates a ledger service
func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends an entry of txType about dataID for the organization.
func (s *Service) Record(ctx context.Context, txType, dataID, organizationID string) (*Transaction, error) {
	if strings.TrimSpace(txType) == "" {
		return nil, fmt.Errorf("ledger: transaction type is required")
	}

	now := s.now().UTC()
	tx := &Transaction{
		ID:              uuid.New().String(),
		TransactionHash: Token(txType, organizationID+"/"+dataID, now),
		TransactionType: txType,
		DataHash:        dataHash(dataID),
		OrganizationID:  organizationID,
		Timestamp:       now,
	}

	if err := s.store.Append(ctx, tx); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	s.metrics.RecordLedgerEntry(txType)
	s.logger.Debug("ledger entry recorded",
		zap.String("type", txType),
		zap.String("organization_id", organizationID),
		zap.Int64("block_number", tx.BlockNumber))

	return tx, nil
}

// List returns the organization's entries, newest first.
func (s *Service) List(ctx context.Context, organizationID string, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	txs, err := s.store.List(ctx, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return txs, nil
}

// Lookup finds an entry by its transaction hash within the organization.
func (s *Service) Lookup(ctx context.Context, organizationID, hash string) (*Transaction, error) {
	tx, err := s.store.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if tx.OrganizationID != organizationID {
		return nil, ErrNotFound
	}
	return tx, nil
}

// Count returns how many entries the organization has recorded.
func (s *Service) Count(ctx context.Context, organizationID string) (int, error) {
	n, err := s.store.Count(ctx, organizationID)
	if err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return n, nil
}
