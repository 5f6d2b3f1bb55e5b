package threats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists threats and incidents.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) CreateThreat(ctx context.Context, t *Threat) error {
	tags, err := json.Marshal(t.IndustryTags)
	if err != nil {
		return fmt.Errorf("marshal industry tags: %w", err)
	}

	query := `
		INSERT INTO threats (
			id, organization_id, name, description, severity, category, source_ip,
			target_system, industry_tags, status, detected_at, detected_by,
			confidence_score, blockchain_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = p.db.ExecContext(ctx, query,
		t.ID,
		t.OrganizationID,
		t.Name,
		t.Description,
		t.Severity,
		t.Category,
		nullString(t.SourceIP),
		nullString(t.TargetSystem),
		tags,
		t.Status,
		t.DetectedAt,
		t.DetectedBy,
		t.ConfidenceScore,
		t.BlockchainHash,
	)
	if err != nil {
		return fmt.Errorf("insert threat: %w", err)
	}
	return nil
}

const threatColumns = `id, organization_id, name, description, severity, category, source_ip,
	target_system, industry_tags, status, detected_at, detected_by, confidence_score, blockchain_hash`

func (p *PostgresStore) GetThreat(ctx context.Context, organizationID, id string) (*Threat, error) {
	query := `SELECT ` + threatColumns + ` FROM threats WHERE organization_id = $1 AND id = $2`
	rows, err := p.db.QueryContext(ctx, query, organizationID, id)
	if err != nil {
		return nil, fmt.Errorf("get threat: %w", err)
	}
	defer func() { _ = rows.Close() }()

	threats, err := scanThreats(rows)
	if err != nil {
		return nil, err
	}
	if len(threats) == 0 {
		return nil, ErrThreatNotFound
	}
	return threats[0], nil
}

func (p *PostgresStore) ListThreats(ctx context.Context, organizationID string, f ThreatFilter) ([]*Threat, error) {
	query := `SELECT ` + threatColumns + ` FROM threats WHERE organization_id = $1`
	args := []interface{}{organizationID}
	argIdx := 2

	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}
	if f.Severity != "" {
		query += fmt.Sprintf(" AND severity = $%d", argIdx)
		args = append(args, f.Severity)
		argIdx++
	}
	if f.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, f.Category)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY detected_at DESC LIMIT $%d", argIdx)
	args = append(args, f.Limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query threats: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanThreats(rows)
}

func scanThreats(rows *sql.Rows) ([]*Threat, error) {
	var out []*Threat
	for rows.Next() {
		t := &Threat{}
		var sourceIP, target sql.NullString
		var tags []byte
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Description, &t.Severity, &t.Category,
			&sourceIP, &target, &tags, &t.Status, &t.DetectedAt, &t.DetectedBy,
			&t.ConfidenceScore, &t.BlockchainHash); err != nil {
			return nil, fmt.Errorf("scan threat: %w", err)
		}
		t.SourceIP = sourceIP.String
		t.TargetSystem = target.String
		t.IndustryTags = []string{}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &t.IndustryTags); err != nil {
				return nil, fmt.Errorf("unmarshal industry tags: %w", err)
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *PostgresStore) UpdateThreatStatus(ctx context.Context, organizationID, id, status string) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE threats SET status = $1 WHERE organization_id = $2 AND id = $3`,
		status, organizationID, id)
	if err != nil {
		return fmt.Errorf("update threat status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update threat status: %w", err)
	}
	if n == 0 {
		return ErrThreatNotFound
	}
	return nil
}

func (p *PostgresStore) CountThreats(ctx context.Context, organizationID, status, severity string) (int, error) {
	query := `SELECT COUNT(*) FROM threats WHERE organization_id = $1`
	args := []interface{}{organizationID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if severity != "" {
		args = append(args, severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}

	var n int
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count threats: %w", err)
	}
	return n, nil
}

func (p *PostgresStore) CreateIncident(ctx context.Context, inc *Incident) error {
	query := `
		INSERT INTO incidents (
			id, organization_id, threat_id, action_type, description, is_automated,
			executed_by, status, executed_at, blockchain_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := p.db.ExecContext(ctx, query,
		inc.ID, inc.OrganizationID, inc.ThreatID, inc.ActionType, inc.Description,
		inc.IsAutomated, inc.ExecutedBy, inc.Status, inc.ExecutedAt, inc.BlockchainHash)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListIncidents(ctx context.Context, organizationID string, f IncidentFilter) ([]*Incident, error) {
	query := `
		SELECT id, organization_id, threat_id, action_type, description, is_automated,
		       executed_by, status, executed_at, blockchain_hash
		FROM incidents WHERE organization_id = $1`
	args := []interface{}{organizationID}
	if f.Automated != nil {
		args = append(args, *f.Automated)
		query += fmt.Sprintf(" AND is_automated = $%d", len(args))
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY executed_at DESC LIMIT $%d", len(args))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Incident
	for rows.Next() {
		inc := &Incident{}
		if err := rows.Scan(&inc.ID, &inc.OrganizationID, &inc.ThreatID, &inc.ActionType, &inc.Description,
			&inc.IsAutomated, &inc.ExecutedBy, &inc.Status, &inc.ExecutedAt, &inc.BlockchainHash); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CountIncidents(ctx context.Context, organizationID string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM incidents WHERE organization_id = $1`, organizationID).Scan(&n)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return n, nil
}

func (p *PostgresStore) CountByCategory(ctx context.Context, organizationID string) (map[string]int, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM threats WHERE organization_id = $1 GROUP BY category`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("count threats by category: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[category] = n
	}
	return counts, rows.Err()
}

func (p *PostgresStore) CountAutomatedIncidentsSince(ctx context.Context, organizationID string, since time.Time) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM incidents WHERE organization_id = $1 AND is_automated AND executed_at >= $2`,
		organizationID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count automated incidents: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
