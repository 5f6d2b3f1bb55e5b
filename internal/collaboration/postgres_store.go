package collaboration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore persists shared intelligence.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, s *SharedIntelligence) error {
	indicators, err := json.Marshal(s.ThreatIndicators)
	if err != nil {
		return fmt.Errorf("marshal threat indicators: %w", err)
	}
	industries, err := json.Marshal(s.IndustryRelevance)
	if err != nil {
		return fmt.Errorf("marshal industry relevance: %w", err)
	}

	query := `
		INSERT INTO shared_intelligence (
			id, title, description, threat_indicators, severity, shared_by_org,
			shared_by_user, industry_relevance, shared_at, blockchain_hash, upvotes, comments_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = p.db.ExecContext(ctx, query,
		s.ID, s.Title, s.Description, indicators, s.Severity, s.SharedByOrg,
		s.SharedByUser, industries, s.Timestamp, s.BlockchainHash, s.Upvotes, s.CommentsCount)
	if err != nil {
		return fmt.Errorf("insert shared intelligence: %w", err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, f Filter) ([]*SharedIntelligence, error) {
	query := `
		SELECT id, title, description, threat_indicators, severity, shared_by_org,
		       shared_by_user, industry_relevance, shared_at, blockchain_hash, upvotes, comments_count
		FROM shared_intelligence`
	var args []interface{}
	if f.Industry != "" {
		industry, err := json.Marshal([]string{f.Industry})
		if err != nil {
			return nil, fmt.Errorf("marshal industry filter: %w", err)
		}
		args = append(args, industry)
		query += fmt.Sprintf(" WHERE industry_relevance @> $%d", len(args))
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY shared_at DESC LIMIT $%d", len(args))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shared intelligence: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*SharedIntelligence
	for rows.Next() {
		s := &SharedIntelligence{}
		var indicators, industries []byte
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &indicators, &s.Severity, &s.SharedByOrg,
			&s.SharedByUser, &industries, &s.Timestamp, &s.BlockchainHash, &s.Upvotes, &s.CommentsCount); err != nil {
			return nil, fmt.Errorf("scan shared intelligence: %w", err)
		}
		s.ThreatIndicators = []string{}
		s.IndustryRelevance = []string{}
		if len(indicators) > 0 {
			if err := json.Unmarshal(indicators, &s.ThreatIndicators); err != nil {
				return nil, fmt.Errorf("unmarshal threat indicators: %w", err)
			}
		}
		if len(industries) > 0 {
			if err := json.Unmarshal(industries, &s.IndustryRelevance); err != nil {
				return nil, fmt.Errorf("unmarshal industry relevance: %w", err)
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Upvote(ctx context.Context, id string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`UPDATE shared_intelligence SET upvotes = upvotes + 1 WHERE id = $1 RETURNING upvotes`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrIntelligenceNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("upvote shared intelligence: %w", err)
	}
	return n, nil
}
