package models

import (
	"time"

	id "blocktrust/pkg/domain"
)

// Grant records that an account holds minter capability. Authority is a flat
// capability set: an account either holds it or does not, with no implicit
// grants derived from transaction context.
type Grant struct {
	Account   id.Account
	GrantedBy string
	GrantedAt time.Time
}
