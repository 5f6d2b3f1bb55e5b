package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists users in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, organization, organization_id, role, industry, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := p.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName,
		user.Organization, user.Principal().OrganizationID, user.Role, user.Industry, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const selectUser = `SELECT id, email, password_hash, full_name, organization, role, industry, created_at FROM users`

func (p *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return p.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (p *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return p.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (p *PostgresStore) getOne(ctx context.Context, query string, arg string) (*User, error) {
	var u User
	err := p.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Organization, &u.Role, &u.Industry, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
