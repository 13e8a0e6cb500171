package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) EnsureUser(ctx context.Context, principal domain.Principal) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, email, full_name, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING
`, principal.UserID, principal.Email, principal.FullName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}
