package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/reviewhub/internal/domain/job"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/observability"
)

const userColumns = `id, username, email, first_name, last_name, bio, role,
	is_staff, is_superuser, confirmation_code_hash, date_joined`

type UsersRepo struct {
	pool *pgxpool.Pool
	jobs *JobsRepo
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, jobs *JobsRepo, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, jobs: jobs, prom: prom}
}

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Bio, &role,
		&u.IsStaff, &u.IsSuperuser, &u.ConfirmationCodeHash, &u.DateJoined,
	)
	if err != nil {
		return user.User{}, err
	}
	u.Role = user.Role(role)
	return u, nil
}

// mapUserWriteErr turns unique violations into field-level domain errors.
func mapUserWriteErr(err error) error {
	switch violatedConstraint(err) {
	case "users_username_uniq":
		return user.ErrUsernameTaken
	case "users_email_uniq":
		return user.ErrEmailTaken
	}
	return err
}

func (r *UsersRepo) getBy(ctx context.Context, op, column string, arg any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		var scanErr error
		u, scanErr = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, arg))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getBy(ctx, "users.get_by_id", "id", id)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.getBy(ctx, "users.get_by_username", "username", username)
}

func (r *UsersRepo) List(ctx context.Context, f user.ListFilter) ([]user.User, int, error) {
	where := ""
	args := []any{}

	if f.Search != nil && *f.Search != "" {
		args = append(args, *f.Search)
		where = ` WHERE strpos(lower(username), lower($1)) > 0`
	}

	var total int
	err := r.prom.ObserveDB("users.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY id ASC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	out := make([]user.User, 0, f.Limit)
	err = r.prom.ObserveDB("users.list", func() error {
		rows, qerr := r.pool.Query(ctx, q, args...)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			u, scanErr := scanUser(rows)
			if scanErr != nil {
				return scanErr
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	var created user.User

	err := r.prom.ObserveDB("users.create", func() error {
		var scanErr error
		created, scanErr = scanUser(r.pool.QueryRow(ctx, `
			INSERT INTO users (username, email, first_name, last_name, bio, role, is_staff, is_superuser)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+userColumns,
			u.Username, strings.ToLower(u.Email), u.FirstName, u.LastName, u.Bio, string(u.Role),
			u.IsStaff, u.IsSuperuser,
		))
		return scanErr
	})
	if err != nil {
		return user.User{}, mapUserWriteErr(err)
	}
	return created, nil
}

func (r *UsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	var updated user.User

	err := r.prom.ObserveDB("users.update", func() error {
		var scanErr error
		updated, scanErr = scanUser(r.pool.QueryRow(ctx, `
			UPDATE users
			SET username = $2, email = $3, first_name = $4, last_name = $5, bio = $6, role = $7
			WHERE id = $1
			RETURNING `+userColumns,
			u.ID, u.Username, strings.ToLower(u.Email), u.FirstName, u.LastName, u.Bio, string(u.Role),
		))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, mapUserWriteErr(err)
	}
	return updated, nil
}

func (r *UsersRepo) Delete(ctx context.Context, username string) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("users.delete", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
		return execErr
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// IssueConfirmationCode finds or creates the user for email, replaces the
// stored code hash, and enqueues the delivery job in the same transaction.
func (r *UsersRepo) IssueConfirmationCode(
	ctx context.Context,
	email string,
	codeHash string,
	delivery func(u user.User) (job.CreateRequest, error),
) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return user.User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var u user.User
	err = r.prom.ObserveDB("users.issue_code.upsert", func() error {
		var scanErr error
		u, scanErr = scanUser(tx.QueryRow(ctx, `
			INSERT INTO users (username, email, confirmation_code_hash)
			VALUES ($1, $1, $2)
			ON CONFLICT ON CONSTRAINT users_email_uniq
			DO UPDATE SET confirmation_code_hash = EXCLUDED.confirmation_code_hash
			RETURNING `+userColumns,
			email, codeHash,
		))
		return scanErr
	})
	if err != nil {
		return user.User{}, mapUserWriteErr(err)
	}

	req, err := delivery(u)
	if err != nil {
		return user.User{}, err
	}

	if _, err := r.jobs.CreateTx(ctx, tx, req); err != nil {
		return user.User{}, fmt.Errorf("enqueue confirmation delivery: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// ConsumeConfirmationCode locks the user row, runs check against the stored
// hash and clears it on success so a code can be exchanged only once.
func (r *UsersRepo) ConsumeConfirmationCode(
	ctx context.Context,
	email string,
	check func(hash string) error,
) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return user.User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var u user.User
	err = r.prom.ObserveDB("users.consume_code.lock", func() error {
		var scanErr error
		u, scanErr = scanUser(tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1 FOR UPDATE`, email))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	if u.ConfirmationCodeHash == nil || check(*u.ConfirmationCodeHash) != nil {
		return user.User{}, user.ErrInvalidConfirmationCode
	}

	err = r.prom.ObserveDB("users.consume_code.clear", func() error {
		_, execErr := tx.Exec(ctx, `UPDATE users SET confirmation_code_hash = NULL WHERE id = $1`, u.ID)
		return execErr
	})
	if err != nil {
		return user.User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return user.User{}, err
	}

	u.ConfirmationCodeHash = nil
	return u, nil
}
