package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"blocktrust/internal/authority/models"
	id "blocktrust/pkg/domain"
	"blocktrust/pkg/platform/sentinel"
)

// Schema for the authority store.
const Schema = `
CREATE TABLE IF NOT EXISTS minters (
    account     TEXT PRIMARY KEY,
    granted_by  TEXT NOT NULL,
    granted_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate applies the authority schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate authority schema: %w", err)
	}
	return nil
}

// Postgres persists authority grants in the minters table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Grant(ctx context.Context, grant models.Grant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO minters (account, granted_by, granted_at) VALUES ($1, $2, $3)`,
		grant.Account.String(), grant.GrantedBy, grant.GrantedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("grant authority: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Postgres) Revoke(ctx context.Context, account id.Account) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM minters WHERE account = $1`, account.String())
	if err != nil {
		return fmt.Errorf("revoke authority: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke authority: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Has(ctx context.Context, account id.Account) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM minters WHERE account = $1)`,
		account.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check authority: %w", err)
	}
	return exists, nil
}

func (s *Postgres) List(ctx context.Context) ([]models.Grant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account, granted_by, granted_at FROM minters ORDER BY account`)
	if err != nil {
		return nil, fmt.Errorf("list authority: %w", err)
	}
	defer rows.Close()

	var grants []models.Grant
	for rows.Next() {
		var (
			g       models.Grant
			account string
		)
		if err := rows.Scan(&account, &g.GrantedBy, &g.GrantedAt); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		g.Account, err = id.ParseAccount(account)
		if err != nil {
			return nil, fmt.Errorf("stored account invalid: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
