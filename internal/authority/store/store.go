// Package store persists minter authority grants.
//
// Stores speak in sentinel errors: Grant returns sentinel.ErrConflict when the
// account already holds authority, Revoke returns sentinel.ErrNotFound when it
// never did. The service layer maps these to domain errors.
package store

import (
	"context"

	"blocktrust/internal/authority/models"
	id "blocktrust/pkg/domain"
)

type Store interface {
	Grant(ctx context.Context, grant models.Grant) error
	Revoke(ctx context.Context, account id.Account) error
	Has(ctx context.Context, account id.Account) (bool, error)
	List(ctx context.Context) ([]models.Grant, error)
}
