package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists entries in ledger_transactions. Block numbers come from the BIGSERIAL key.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Append(ctx context.Context, tx *Transaction) error {
	query := `
		INSERT INTO ledger_transactions (
			id, transaction_hash, transaction_type, data_hash, organization_id, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING block_number
	`
	err := p.db.QueryRowContext(ctx, query,
		tx.ID,
		tx.TransactionHash,
		tx.TransactionType,
		tx.DataHash,
		tx.OrganizationID,
		tx.Timestamp,
	).Scan(&tx.BlockNumber)
	if err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, organizationID string, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, transaction_hash, block_number, transaction_type, data_hash, organization_id, recorded_at
		FROM ledger_transactions
		WHERE organization_id = $1
		ORDER BY block_number DESC
		LIMIT $2
	`
	rows, err := p.db.QueryContext(ctx, query, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txs []*Transaction
	for rows.Next() {
		tx := &Transaction{}
		if err := rows.Scan(&tx.ID, &tx.TransactionHash, &tx.BlockNumber, &tx.TransactionType,
			&tx.DataHash, &tx.OrganizationID, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ledger transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (p *PostgresStore) GetByHash(ctx context.Context, hash string) (*Transaction, error) {
	query := `
		SELECT id, transaction_hash, block_number, transaction_type, data_hash, organization_id, recorded_at
		FROM ledger_transactions
		WHERE transaction_hash = $1
	`
	tx := &Transaction{}
	err := p.db.QueryRowContext(ctx, query, hash).Scan(&tx.ID, &tx.TransactionHash, &tx.BlockNumber,
		&tx.TransactionType, &tx.DataHash, &tx.OrganizationID, &tx.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger transaction: %w", err)
	}
	return tx, nil
}

func (p *PostgresStore) Count(ctx context.Context, organizationID string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_transactions WHERE organization_id = $1`, organizationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ledger transactions: %w", err)
	}
	return n, nil
}
