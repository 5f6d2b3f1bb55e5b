package collaboration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_CreateAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := NewPostgresStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	s := &SharedIntelligence{ID: "s1", Title: "Qakbot", ThreatIndicators: []string{"198.51.100.7"},
		Severity: "high", SharedByOrg: "acme", SharedByUser: "u1",
		IndustryRelevance: []string{"finance"}, Timestamp: now, BlockchainHash: "h"}

	mock.ExpectExec("INSERT INTO shared_intelligence").
		WithArgs("s1", "Qakbot", "", []byte(`["198.51.100.7"]`), "high", "acme", "u1",
			[]byte(`["finance"]`), now, "h", 0, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.Create(ctx, s))

	cols := []string{"id", "title", "description", "threat_indicators", "severity", "shared_by_org",
		"shared_by_user", "industry_relevance", "shared_at", "blockchain_hash", "upvotes", "comments_count"}
	mock.ExpectQuery(`FROM shared_intelligence WHERE industry_relevance @> \$1 ORDER BY shared_at DESC LIMIT \$2`).
		WithArgs([]byte(`["finance"]`), 50).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s1", "Qakbot", "", []byte(`["198.51.100.7"]`), "high", "acme", "u1",
				[]byte(`["finance"]`), now, "h", 3, 0))

	list, err := store.List(ctx, Filter{Industry: "finance", Limit: 50})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Upvotes)
	assert.Equal(t, []string{"finance"}, list[0].IndustryRelevance)

	mock.ExpectQuery(`FROM shared_intelligence ORDER BY shared_at DESC LIMIT \$1`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(cols))
	list, err = store.List(ctx, Filter{Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Upvote(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := NewPostgresStore(db)

	mock.ExpectQuery(`UPDATE shared_intelligence SET upvotes = upvotes \+ 1 WHERE id = \$1 RETURNING upvotes`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"upvotes"}).AddRow(4))
	n, err := store.Upvote(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	mock.ExpectQuery(`UPDATE shared_intelligence SET upvotes`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"upvotes"}))
	_, err = store.Upvote(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrIntelligenceNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}
