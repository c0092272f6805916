package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/dbx"
	"github.com/dmitrijs2005/medauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	query :=
		`SELECT id, email, first_name, last_name, phone, country, role, auth_method, created_at
		 FROM profiles
		 WHERE id = $1
		 `

	var (
		p      models.Profile
		phone  sql.NullString
		role   string
		method sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &phone, &p.Country, &role, &method, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.Phone = phone.String
	p.Role = models.ParseRole(role)
	p.AuthMethod = models.ParseAuthMethod(method.String)

	return &p, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error {
	if upd.Empty() {
		return nil
	}

	query :=
		`UPDATE profiles
		 SET first_name = COALESCE($2, first_name),
		     last_name  = COALESCE($3, last_name),
		     phone      = COALESCE($4, phone),
		     country    = COALESCE($5, country),
		     updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id,
		nullable(upd.FirstName), nullable(upd.LastName), nullable(upd.Phone), nullable(upd.Country))
	if err != nil {
		if _, ok := dbx.IsUniqueViolation(err); ok {
			return fmt.Errorf("db error: %w", common.ErrUniqueViolation)
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// RecordAuthMethod sets the auth method only when none is recorded yet and
// reports whether the row changed. An existing method is never overwritten.
func (r *PostgresRepository) RecordAuthMethod(ctx context.Context, id string, method models.AuthMethod) (bool, error) {
	query :=
		`UPDATE profiles
		 SET auth_method = $2, updated_at = now()
		 WHERE id = $1 AND (auth_method IS NULL OR auth_method = '')
		 `

	res, err := r.db.ExecContext(ctx, query, id, string(method))
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE lower(email) = lower($1))`

	return r.exists(ctx, query, email)
}

func (r *PostgresRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE phone = $1)`

	return r.exists(ctx, query, phone)
}

func (r *PostgresRepository) PhoneExistsExcludingSelf(ctx context.Context, phone, ownerID string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE phone = $1 AND id <> $2)`

	return r.exists(ctx, query, phone, ownerID)
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
