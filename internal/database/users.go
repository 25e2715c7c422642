package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/tasklist/internal/models"
	"github.com/google/uuid"
)

const selectUser = `SELECT id, email, provider_id, name, email_verified, created_at, updated_at FROM users`

// UserRepository stores the accounts that own todo lists. Users are keyed
// locally by id and matched to the identity provider by provider_id.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user and fills its timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (id, email, provider_id, name, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, q,
		user.ID, user.Email, user.ProviderID, user.Name, user.EmailVerified, time.Now().UTC(),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", user.ID, err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.queryUser(ctx, selectUser+` WHERE id = $1`, id)
}

// GetByEmail backs the CLI's --user lookup
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.queryUser(ctx, selectUser+` WHERE lower(email) = lower($1)`, email)
}

// GetByProviderID finds the user for a token subject
func (r *UserRepository) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	return r.queryUser(ctx, selectUser+` WHERE provider_id = $1`, providerID)
}

// Update refreshes the profile fields the provider reports
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users
		SET email = $2, provider_id = $3, name = $4, email_verified = $5, updated_at = $6
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, q,
		user.ID, user.Email, user.ProviderID, user.Name, user.EmailVerified, time.Now().UTC(),
	).Scan(&user.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}
	return nil
}

func (r *UserRepository) queryUser(ctx context.Context, q string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.ProviderID, &u.Name, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
