package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

var controlCols = []string{"id", "user_id", "organization_id", "industry", "control_id", "name", "description",
	"standard", "category", "status", "notes", "implemented_at", "verified_at", "created_at", "updated_at"}

func TestPostgresStore_Controls(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	c := &Control{
		ID: "c1", UserID: "u1", OrganizationID: "acme", Industry: "finance", ControlID: "PCI-001",
		Name: "Network Firewall", Standard: "PCI-DSS", Category: "network_security",
		Status: StatusNotImplemented, CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO compliance_controls (.+) ON CONFLICT \\(user_id, control_id\\) DO NOTHING").
		WithArgs("c1", "u1", "acme", "finance", "PCI-001", "Network Firewall", "", "PCI-DSS",
			"network_security", StatusNotImplemented, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.UpsertControl(ctx, c))

	mock.ExpectQuery("SELECT (.+) FROM compliance_controls WHERE user_id = \\$1 ORDER BY control_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(controlCols).
			AddRow("c1", "u1", "acme", "finance", "PCI-001", "Network Firewall", "", "PCI-DSS",
				"network_security", StatusImplemented, "done", now, now, now, now).
			AddRow("c2", "u1", "acme", "finance", "PCI-002", "Encryption", "", "PCI-DSS",
				"encryption", StatusNotImplemented, "", nil, nil, now, now))

	controls, err := store.ListControls(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, controls, 2)
	require.NotNil(t, controls[0].ImplementedAt)
	assert.True(t, now.Equal(*controls[0].ImplementedAt))
	assert.Nil(t, controls[1].ImplementedAt)
	assert.Nil(t, controls[1].VerifiedAt)

	mock.ExpectQuery("SELECT (.+) FROM compliance_controls WHERE user_id = \\$1 AND control_id = \\$2").
		WithArgs("u1", "NOPE").
		WillReturnRows(sqlmock.NewRows(controlCols))
	_, err = store.GetControl(ctx, "u1", "NOPE")
	assert.True(t, errors.Is(err, ErrControlNotFound))

	c.Status = StatusImplemented
	c.ImplementedAt = &now
	c.VerifiedAt = &now
	mock.ExpectExec("UPDATE compliance_controls SET status").
		WithArgs(StatusImplemented, "", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "u1", "PCI-001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.UpdateControl(ctx, c))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Audits(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	a := &Audit{
		ID: "a1", OrganizationID: "acme", AuditorID: "u1", AuditType: AuditTypeOnDemand, Industry: "general",
		StandardsChecked: []string{"ISO 27001"}, OverallScore: 70, PassedControls: 7, FailedControls: 1, Warnings: 2,
		Findings:        []Finding{{Severity: SeverityHigh, Type: "control_gap", Message: "Control 'X' is not implemented"}},
		Recommendations: []string{"Implement X"}, Timestamp: now, BlockchainHash: "h", Status: AuditStatusCompleted,
	}
	mock.ExpectExec("INSERT INTO compliance_audits").
		WithArgs("a1", "acme", "u1", AuditTypeOnDemand, "general", []byte(`["ISO 27001"]`), 70.0, 7, 1, 2,
			sqlmock.AnyArg(), []byte(`["Implement X"]`), sqlmock.AnyArg(), "h", AuditStatusCompleted).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.CreateAudit(ctx, a))

	cols := []string{"id", "organization_id", "auditor_id", "audit_type", "industry", "standards_checked",
		"overall_score", "passed_controls", "failed_controls", "warnings", "findings", "recommendations",
		"audit_timestamp", "blockchain_hash", "status"}
	mock.ExpectQuery("SELECT (.+) FROM compliance_audits WHERE organization_id = \\$1 ORDER BY audit_timestamp DESC, seq DESC LIMIT \\$2").
		WithArgs("acme", 5).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("a1", "acme", "u1", AuditTypeOnDemand, "general",
			[]byte(`["ISO 27001"]`), 70.0, 7, 1, 2,
			[]byte(`[{"severity":"high","type":"control_gap","message":"Control 'X' is not implemented"}]`),
			[]byte(`["Implement X"]`), now, "h", AuditStatusCompleted))

	audits, err := store.ListAudits(ctx, "acme", 5)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, a.Findings, audits[0].Findings)
	assert.Equal(t, a.Recommendations, audits[0].Recommendations)
	assert.Equal(t, a.StandardsChecked, audits[0].StandardsChecked)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Documents(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO compliance_documents").
		WithArgs("d1", "acme", "u1", "IR Plan", "", "procedure", "NIST CSF", "ir.pdf", int64(42),
			"acme/d1", []byte(`["ir"]`), "h", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.CreateDocument(ctx, &Document{
		ID: "d1", OrganizationID: "acme", UploadedBy: "u1", Title: "IR Plan", DocumentType: "procedure",
		ComplianceStandard: "NIST CSF", FileName: "ir.pdf", FileSize: 42, FilePath: "acme/d1",
		Tags: []string{"ir"}, BlockchainHash: "h", UploadedAt: time.Now(),
	}))

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM compliance_documents WHERE organization_id = \\$1").
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	n, err := store.CountDocuments(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mock.ExpectExec("DELETE FROM compliance_documents").
		WithArgs("acme", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = store.DeleteDocument(ctx, "acme", "missing")
	assert.True(t, errors.Is(err, ErrDocumentNotFound))

	mock.ExpectQuery("SELECT (.+) FROM compliance_documents WHERE organization_id = \\$1 AND id = \\$2").
		WithArgs("globex", "d1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = store.GetDocument(ctx, "globex", "d1")
	assert.True(t, errors.Is(err, ErrDocumentNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}
