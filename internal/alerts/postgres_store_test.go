package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Alerts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := NewPostgresStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	a := &Alert{ID: "a1", UserID: "u1", OrganizationID: "acme", ThreatID: "t1", ConfigID: "c1",
		Message: "HIGH threat detected: Emotet", Severity: "high", Category: "malware", CreatedAt: now}

	mock.ExpectExec("INSERT INTO alerts").
		WithArgs("a1", "u1", "acme", "t1", "c1", a.Message, "high", "malware", false, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.CreateAlert(ctx, a))

	cols := []string{"id", "user_id", "organization_id", "threat_id", "config_id", "message",
		"severity", "category", "is_read", "created_at"}
	mock.ExpectQuery(`FROM alerts WHERE user_id = \$1 AND is_read = \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs("u1", false, 50).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "u1", "acme", "t1", "c1", a.Message, "high", "malware", false, now))

	unread := false
	list, err := store.ListAlerts(ctx, "u1", AlertFilter{IsRead: &unread, Limit: 50})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "t1", list[0].ThreatID)

	mock.ExpectExec(`UPDATE alerts SET is_read = TRUE WHERE user_id = \$1 AND NOT is_read`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := store.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkReadNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`UPDATE alerts SET is_read = TRUE WHERE user_id = \$1 AND id = \$2`).
		WithArgs("u1", "a-other").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresStore(db).MarkRead(context.Background(), "u1", "a-other")
	assert.True(t, errors.Is(err, ErrAlertNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Configs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := NewPostgresStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	c := &AlertConfig{ID: "c1", UserID: "u1", OrganizationID: "acme", Name: "severe",
		SeverityLevels: []string{"critical"}, Categories: []string{},
		NotificationEmail: true, NotificationDashboard: true, IsActive: true, CreatedAt: now}

	mock.ExpectExec("INSERT INTO alert_configs").
		WithArgs("c1", "u1", "acme", "severe", []byte(`["critical"]`), []byte(`[]`), true, true, true, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.CreateConfig(ctx, c))

	cols := []string{"id", "user_id", "organization_id", "name", "severity_levels", "categories",
		"notification_email", "notification_dashboard", "is_active", "created_at"}
	mock.ExpectQuery(`FROM alert_configs\s+WHERE organization_id = \$1 AND is_active AND notification_dashboard`).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c1", "u1", "acme", "severe", []byte(`["critical"]`), nil, true, true, true, now))

	active, err := store.ListActiveConfigs(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, []string{"critical"}, active[0].SeverityLevels)
	assert.Equal(t, []string{}, active[0].Categories)

	mock.ExpectQuery(`FROM alert_configs WHERE user_id = \$1 ORDER BY created_at LIMIT \$2`).
		WithArgs("u1", MaxConfigListLimit).
		WillReturnRows(sqlmock.NewRows(cols))
	list, err := store.ListConfigs(ctx, "u1", MaxConfigListLimit)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.NoError(t, mock.ExpectationsWereMet())
}
