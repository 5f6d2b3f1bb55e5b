package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists alerts and alert configs.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) CreateAlert(ctx context.Context, a *Alert) error {
	query := `
		INSERT INTO alerts (
			id, user_id, organization_id, threat_id, config_id, message,
			severity, category, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := p.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.OrganizationID, a.ThreatID, a.ConfigID, a.Message,
		a.Severity, a.Category, a.IsRead, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListAlerts(ctx context.Context, userID string, f AlertFilter) ([]*Alert, error) {
	query := `
		SELECT id, user_id, organization_id, threat_id, config_id, message,
		       severity, category, is_read, created_at
		FROM alerts WHERE user_id = $1`
	args := []interface{}{userID}
	if f.IsRead != nil {
		args = append(args, *f.IsRead)
		query += fmt.Sprintf(" AND is_read = $%d", len(args))
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Alert
	for rows.Next() {
		a := &Alert{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.OrganizationID, &a.ThreatID, &a.ConfigID, &a.Message,
			&a.Severity, &a.Category, &a.IsRead, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *PostgresStore) MarkRead(ctx context.Context, userID, id string) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE alerts SET is_read = TRUE WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	if n == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func (p *PostgresStore) MarkAllRead(ctx context.Context, userID string) (int, error) {
	result, err := p.db.ExecContext(ctx,
		`UPDATE alerts SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark alerts read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark alerts read: %w", err)
	}
	return int(n), nil
}

func (p *PostgresStore) CreateConfig(ctx context.Context, c *AlertConfig) error {
	severities, err := json.Marshal(c.SeverityLevels)
	if err != nil {
		return fmt.Errorf("marshal severity levels: %w", err)
	}
	categories, err := json.Marshal(c.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	query := `
		INSERT INTO alert_configs (
			id, user_id, organization_id, name, severity_levels, categories,
			notification_email, notification_dashboard, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = p.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.OrganizationID, c.Name, severities, categories,
		c.NotificationEmail, c.NotificationDashboard, c.IsActive, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert config: %w", err)
	}
	return nil
}

const configColumns = `id, user_id, organization_id, name, severity_levels, categories,
	notification_email, notification_dashboard, is_active, created_at`

func (p *PostgresStore) ListConfigs(ctx context.Context, userID string, limit int) ([]*AlertConfig, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+configColumns+` FROM alert_configs WHERE user_id = $1 ORDER BY created_at LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query alert configs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanConfigs(rows)
}

func (p *PostgresStore) ListActiveConfigs(ctx context.Context, organizationID string) ([]*AlertConfig, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+configColumns+` FROM alert_configs
		 WHERE organization_id = $1 AND is_active AND notification_dashboard`,
		organizationID)
	if err != nil {
		return nil, fmt.Errorf("query active alert configs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanConfigs(rows)
}

func scanConfigs(rows *sql.Rows) ([]*AlertConfig, error) {
	var out []*AlertConfig
	for rows.Next() {
		c := &AlertConfig{}
		var severities, categories []byte
		if err := rows.Scan(&c.ID, &c.UserID, &c.OrganizationID, &c.Name, &severities, &categories,
			&c.NotificationEmail, &c.NotificationDashboard, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert config: %w", err)
		}
		c.SeverityLevels = []string{}
		c.Categories = []string{}
		if len(severities) > 0 {
			if err := json.Unmarshal(severities, &c.SeverityLevels); err != nil {
				return nil, fmt.Errorf("unmarshal severity levels: %w", err)
			}
		}
		if len(categories) > 0 {
			if err := json.Unmarshal(categories, &c.Categories); err != nil {
				return nil, fmt.Errorf("unmarshal categories: %w", err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
