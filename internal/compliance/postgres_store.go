package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists compliance state in the compliance_* tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const controlColumns = `id, user_id, organization_id, industry, control_id, name, description,
	standard, category, status, notes, implemented_at, verified_at, created_at, updated_at`

func scanControl(row interface{ Scan(...interface{}) error }) (*Control, error) {
	c := &Control{}
	var implementedAt, verifiedAt sql.NullTime
	if err := row.Scan(&c.ID, &c.UserID, &c.OrganizationID, &c.Industry, &c.ControlID, &c.Name,
		&c.Description, &c.Standard, &c.Category, &c.Status, &c.Notes,
		&implementedAt, &verifiedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ImplementedAt = timePtr(implementedAt)
	c.VerifiedAt = timePtr(verifiedAt)
	return c, nil
}

func (p *PostgresStore) ListControls(ctx context.Context, userID string) ([]*Control, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+controlColumns+` FROM compliance_controls WHERE user_id = $1 ORDER BY control_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query controls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	controls := []*Control{}
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		controls = append(controls, c)
	}
	return controls, rows.Err()
}

func (p *PostgresStore) UpsertControl(ctx context.Context, c *Control) error {
	query := `
		INSERT INTO compliance_controls (
			id, user_id, organization_id, industry, control_id, name, description,
			standard, category, status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, control_id) DO NOTHING
	`
	_, err := p.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.OrganizationID, c.Industry, c.ControlID, c.Name, c.Description,
		c.Standard, c.Category, c.Status, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert control: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetControl(ctx context.Context, userID, controlID string) (*Control, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+controlColumns+` FROM compliance_controls WHERE user_id = $1 AND control_id = $2`,
		userID, controlID)
	c, err := scanControl(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrControlNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get control: %w", err)
	}
	return c, nil
}

func (p *PostgresStore) UpdateControl(ctx context.Context, c *Control) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE compliance_controls
		SET status = $1, notes = $2, implemented_at = $3, verified_at = $4, updated_at = $5
		WHERE user_id = $6 AND control_id = $7`,
		c.Status, c.Notes, nullTime(c.ImplementedAt), nullTime(c.VerifiedAt), c.UpdatedAt,
		c.UserID, c.ControlID)
	if err != nil {
		return fmt.Errorf("update control: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update control: %w", err)
	}
	if n == 0 {
		return ErrControlNotFound
	}
	return nil
}

func (p *PostgresStore) CreateAudit(ctx context.Context, a *Audit) error {
	standards, err := json.Marshal(a.StandardsChecked)
	if err != nil {
		return fmt.Errorf("marshal standards: %w", err)
	}
	findings, err := json.Marshal(a.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}
	recommendations, err := json.Marshal(a.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}

	query := `
		INSERT INTO compliance_audits (
			id, organization_id, auditor_id, audit_type, industry, standards_checked,
			overall_score, passed_controls, failed_controls, warnings, findings,
			recommendations, audit_timestamp, blockchain_hash, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = p.db.ExecContext(ctx, query,
		a.ID, a.OrganizationID, a.AuditorID, a.AuditType, a.Industry, standards,
		a.OverallScore, a.PassedControls, a.FailedControls, a.Warnings, findings,
		recommendations, a.Timestamp, a.BlockchainHash, a.Status)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListAudits(ctx context.Context, organizationID string, limit int) ([]*Audit, error) {
	query := `
		SELECT id, organization_id, auditor_id, audit_type, industry, standards_checked,
		       overall_score, passed_controls, failed_controls, warnings, findings,
		       recommendations, audit_timestamp, blockchain_hash, status
		FROM compliance_audits
		WHERE organization_id = $1
		ORDER BY audit_timestamp DESC, seq DESC
		LIMIT $2`
	rows, err := p.db.QueryContext(ctx, query, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var audits []*Audit
	for rows.Next() {
		a := &Audit{}
		var standards, findings, recommendations []byte
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.AuditorID, &a.AuditType, &a.Industry, &standards,
			&a.OverallScore, &a.PassedControls, &a.FailedControls, &a.Warnings, &findings,
			&recommendations, &a.Timestamp, &a.BlockchainHash, &a.Status); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		if err := unmarshalJSONB(standards, &a.StandardsChecked); err != nil {
			return nil, fmt.Errorf("unmarshal standards: %w", err)
		}
		if err := unmarshalJSONB(findings, &a.Findings); err != nil {
			return nil, fmt.Errorf("unmarshal findings: %w", err)
		}
		if err := unmarshalJSONB(recommendations, &a.Recommendations); err != nil {
			return nil, fmt.Errorf("unmarshal recommendations: %w", err)
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

const documentColumns = `id, organization_id, uploaded_by, title, description, document_type,
	compliance_standard, file_name, file_size, file_path, tags, blockchain_hash, uploaded_at`

func scanDocument(row interface{ Scan(...interface{}) error }) (*Document, error) {
	d := &Document{}
	var tags []byte
	if err := row.Scan(&d.ID, &d.OrganizationID, &d.UploadedBy, &d.Title, &d.Description, &d.DocumentType,
		&d.ComplianceStandard, &d.FileName, &d.FileSize, &d.FilePath, &tags, &d.BlockchainHash,
		&d.UploadedAt); err != nil {
		return nil, err
	}
	d.Tags = []string{}
	if err := unmarshalJSONB(tags, &d.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return d, nil
}

func (p *PostgresStore) CreateDocument(ctx context.Context, d *Document) error {
	tags, err := json.Marshal(d.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	query := `
		INSERT INTO compliance_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = p.db.ExecContext(ctx, query,
		d.ID, d.OrganizationID, d.UploadedBy, d.Title, d.Description, d.DocumentType,
		d.ComplianceStandard, d.FileName, d.FileSize, d.FilePath, tags, d.BlockchainHash, d.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetDocument(ctx context.Context, organizationID, id string) (*Document, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM compliance_documents WHERE organization_id = $1 AND id = $2`,
		organizationID, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (p *PostgresStore) ListDocuments(ctx context.Context, organizationID string) ([]*Document, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM compliance_documents WHERE organization_id = $1 ORDER BY uploaded_at DESC`,
		organizationID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (p *PostgresStore) DeleteDocument(ctx context.Context, organizationID, id string) error {
	result, err := p.db.ExecContext(ctx,
		`DELETE FROM compliance_documents WHERE organization_id = $1 AND id = $2`, organizationID, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (p *PostgresStore) CountDocuments(ctx context.Context, organizationID string) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM compliance_documents WHERE organization_id = $1`, organizationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func unmarshalJSONB(data []byte, dst interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
