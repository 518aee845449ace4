package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/reviewhub/internal/config"
)

// EnsureAdminUser creates the bootstrap superuser when ADMIN_EMAIL is set
// and no user with that email exists yet. The account signs in through the
// normal confirmation-code flow.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return nil
	}

	var id int64
	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	username := cfg.AdminUsername
	if username == "" {
		username = email
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (username, email, role, is_staff, is_superuser)
		VALUES ($1, $2, 'admin', TRUE, TRUE)
		ON CONFLICT DO NOTHING
	`, username, email)

	return err
}
