package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := NewPostgresStore(db)

	user := &User{
		ID: "u1", Email: "a@acme.test", PasswordHash: "hash", FullName: "A",
		Organization: "acme", Role: RoleAnalyst, Industry: "finance", CreatedAt: time.Now(),
	}

	t.Run("inserts", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs("u1", "a@acme.test", "hash", "A", "acme", "acme", RoleAnalyst, "finance", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		require.NoError(t, store.CreateUser(context.Background(), user))
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505"})
		err := store.CreateUser(context.Background(), user)
		assert.True(t, errors.Is(err, ErrEmailTaken))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := NewPostgresStore(db)

	cols := []string{"id", "email", "password_hash", "full_name", "organization", "role", "industry", "created_at"}

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("a@acme.test").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("u1", "a@acme.test", "hash", "A", "acme", RoleAdmin, "government", time.Now()))

	u, err := store.GetUserByEmail(context.Background(), "a@acme.test")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, RoleAdmin, u.Role)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = store.GetUserByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrUserNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}
