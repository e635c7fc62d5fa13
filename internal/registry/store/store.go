package store

import (
	"context"

	"blocktrust/internal/registry/models"
	id "blocktrust/pkg/domain"
)

// Store owns the persistent registry state: the record table and the
// fingerprint index. Implementations must apply every mutation as a single
// atomic step so no reader ever observes a partially applied mint, and must
// return sentinel errors for factual outcomes:
//
//   - sentinel.ErrConflict: an active record already holds the fingerprint
//   - sentinel.ErrNotFound: no record for the id / no active record for the
//     fingerprint
//   - sentinel.ErrInvalidState: record already retired
//
// Stores are interface-driven to keep the state machine testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring the service.
type Store interface {
	// CreateActive assigns the next sequential token id, persists rec as an
	// active record and indexes its fingerprint. Ids are only consumed by
	// successful creations.
	CreateActive(ctx context.Context, rec models.NewIdentity) (models.Identity, error)

	// FindByID returns the record for a previously assigned id, retired
	// records included.
	FindByID(ctx context.Context, tokenID id.TokenID) (models.Identity, error)

	// FindActiveByFingerprint resolves the fingerprint index to the one
	// active record for bioHash.
	FindActiveByFingerprint(ctx context.Context, bioHash id.BioHash) (models.Identity, error)

	// Deactivate retires the record, removing it from the fingerprint index.
	// Retirement is terminal for the record; the fingerprint becomes mintable
	// again.
	Deactivate(ctx context.Context, tokenID id.TokenID) error

	// Reissue retires the record identified by previousID and creates rec as
	// the new active record for the same fingerprint, atomically.
	Reissue(ctx context.Context, previousID id.TokenID, rec models.NewIdentity) (models.Identity, error)
}
