package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"blocktrust/internal/registry/models"
	id "blocktrust/pkg/domain"
	"blocktrust/pkg/platform/sentinel"
)

// Schema is the registry's persistent layout: the record table, the
// fingerprint index, and the id counter.
//
// The partial unique index makes the central invariant unrepresentable: the
// database itself refuses a second active record per fingerprint. The counter
// row replaces a sequence because ids must be gapless - sequences burn values
// on rollback, the counter update rolls back with the rejected mint. The row
// lock it takes also serializes mints, which is exactly the single-writer
// discipline the registry wants.
const Schema = `
CREATE TABLE IF NOT EXISTS identities (
    id              BIGINT PRIMARY KEY,
    owner_account   TEXT        NOT NULL,
    name            TEXT        NOT NULL,
    document_number TEXT        NOT NULL,
    bio_hash        TEXT        NOT NULL,
    kyc_timestamp   TIMESTAMPTZ NOT NULL,
    is_active       BOOLEAN     NOT NULL,
    previous_id     BIGINT      NOT NULL DEFAULT 0,
    applicant_id    TEXT        NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS identities_active_fingerprint
    ON identities (bio_hash) WHERE is_active;

CREATE TABLE IF NOT EXISTS registry_counter (
    singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    next_id   BIGINT NOT NULL
);

INSERT INTO registry_counter (singleton, next_id)
    VALUES (TRUE, 1)
    ON CONFLICT (singleton) DO NOTHING;
`

// Postgres persists the registry in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate applies the registry schema. Idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply registry schema: %w", err)
	}
	return nil
}

func (s *Postgres) CreateActive(ctx context.Context, rec models.NewIdentity) (models.Identity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Identity{}, fmt.Errorf("begin mint: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	identity, err := createActiveTx(ctx, tx, rec)
	if err != nil {
		return models.Identity{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Identity{}, fmt.Errorf("commit mint: %w", err)
	}
	return identity, nil
}

// createActiveTx allocates the next id and inserts the record inside tx. The
// counter update and the insert roll back together, so rejected mints never
// consume an id.
func createActiveTx(ctx context.Context, tx *sql.Tx, rec models.NewIdentity) (models.Identity, error) {
	var tokenID uint64
	err := tx.QueryRowContext(ctx, `
		UPDATE registry_counter SET next_id = next_id + 1
		RETURNING next_id - 1
	`).Scan(&tokenID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("allocate token id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (
			id, owner_account, name, document_number, bio_hash,
			kyc_timestamp, is_active, previous_id, applicant_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8)
	`,
		tokenID,
		rec.Owner.String(),
		rec.Name,
		rec.DocumentNumber,
		rec.BioHash.String(),
		rec.KYCTimestamp,
		uint64(rec.PreviousID),
		rec.ApplicantID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Identity{}, sentinel.ErrConflict
		}
		return models.Identity{}, fmt.Errorf("insert identity: %w", err)
	}

	return models.Identity{
		ID:             id.TokenID(tokenID),
		Owner:          rec.Owner,
		Name:           rec.Name,
		DocumentNumber: rec.DocumentNumber,
		BioHash:        rec.BioHash,
		KYCTimestamp:   rec.KYCTimestamp,
		IsActive:       true,
		PreviousID:     rec.PreviousID,
		ApplicantID:    rec.ApplicantID,
	}, nil
}

func (s *Postgres) FindByID(ctx context.Context, tokenID id.TokenID) (models.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_account, name, document_number, bio_hash,
			   kyc_timestamp, is_active, previous_id, applicant_id
		FROM identities
		WHERE id = $1
	`, uint64(tokenID))
	return scanIdentity(row)
}

func (s *Postgres) FindActiveByFingerprint(ctx context.Context, bioHash id.BioHash) (models.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_account, name, document_number, bio_hash,
			   kyc_timestamp, is_active, previous_id, applicant_id
		FROM identities
		WHERE bio_hash = $1 AND is_active
	`, bioHash.String())
	return scanIdentity(row)
}

func (s *Postgres) Deactivate(ctx context.Context, tokenID id.TokenID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE identities SET is_active = FALSE
		WHERE id = $1 AND is_active
	`, uint64(tokenID))
	if err != nil {
		return fmt.Errorf("deactivate identity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate identity: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Distinguish unknown id from already-retired record.
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM identities WHERE id = $1)`, uint64(tokenID),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("deactivate identity: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *Postgres) Reissue(ctx context.Context, previousID id.TokenID, rec models.NewIdentity) (models.Identity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Identity{}, fmt.Errorf("begin reissue: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE identities SET is_active = FALSE
		WHERE id = $1 AND is_active
	`, uint64(previousID))
	if err != nil {
		return models.Identity{}, fmt.Errorf("retire previous identity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return models.Identity{}, fmt.Errorf("retire previous identity: %w", err)
	}
	if affected == 0 {
		var exists bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM identities WHERE id = $1)`, uint64(previousID),
		).Scan(&exists)
		if err != nil {
			return models.Identity{}, fmt.Errorf("retire previous identity: %w", err)
		}
		if !exists {
			return models.Identity{}, sentinel.ErrNotFound
		}
		return models.Identity{}, sentinel.ErrInvalidState
	}

	identity, err := createActiveTx(ctx, tx, rec)
	if err != nil {
		return models.Identity{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Identity{}, fmt.Errorf("commit reissue: %w", err)
	}
	return identity, nil
}

func scanIdentity(row *sql.Row) (models.Identity, error) {
	var (
		identity   models.Identity
		tokenID    uint64
		owner      string
		bioHash    string
		previousID uint64
	)
	err := row.Scan(
		&tokenID,
		&owner,
		&identity.Name,
		&identity.DocumentNumber,
		&bioHash,
		&identity.KYCTimestamp,
		&identity.IsActive,
		&previousID,
		&identity.ApplicantID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Identity{}, sentinel.ErrNotFound
		}
		return models.Identity{}, fmt.Errorf("scan identity: %w", err)
	}

	identity.ID = id.TokenID(tokenID)
	identity.PreviousID = id.TokenID(previousID)
	identity.Owner = id.Account(owner)
	parsed, err := id.ParseBioHash(bioHash)
	if err != nil {
		return models.Identity{}, fmt.Errorf("corrupt bio hash for identity %d: %w", tokenID, err)
	}
	identity.BioHash = parsed
	return identity, nil
}

// isUniqueViolation recognizes code 23505 from either driver: the service
// opens the pool with pgx, the test containers use lib/pq.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
