package storage

import (
	"context"
	"database/sql"
	"fmt"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

// defaultDisplayName is assigned until the user renames themselves.
const defaultDisplayName = "新朋友"

// UserRepository manages rows of the users table.
type UserRepository struct {
	db *sql.DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository wires a sql.DB implementation.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUser creates a registered user for the external id or refreshes the
// existing one. Repeated calls for the same id return the same row.
func (r *UserRepository) UpsertUser(ctx context.Context, lineUserID string) (domain.User, error) {
	query := `INSERT INTO users (line_user_id, display_name, is_registered, registration_date, last_active)
              VALUES ($1, $2, TRUE, NOW(), NOW())
              ON CONFLICT (line_user_id) DO UPDATE
              SET is_registered = TRUE,
                  last_active = NOW()
              RETURNING id, line_user_id, display_name, is_registered, registration_date, last_active`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, lineUserID, defaultDisplayName).Scan(
		&user.ID,
		&user.LineUserID,
		&user.DisplayName,
		&user.IsRegistered,
		&user.RegisteredAt,
		&user.LastActiveAt,
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user %s: %w", lineUserID, err)
	}

	return user, nil
}
