package models

import (
	"time"

	id "blocktrust/pkg/domain"
)

// Identity is one record in the registry, created by mint and never deleted.
// BioHash, Name, DocumentNumber and ApplicantID are immutable after creation;
// only IsActive flips when the record is retired. Retired records stay
// queryable by ID for audit.
type Identity struct {
	ID             id.TokenID
	Owner          id.Account
	Name           string
	DocumentNumber string
	BioHash        id.BioHash
	KYCTimestamp   time.Time
	IsActive       bool
	// PreviousID links a reissued record to the retired record it replaces.
	// Zero for first issuance.
	PreviousID  id.TokenID
	ApplicantID string
}

// NewIdentity carries the immutable creation attributes of a record. The store
// assigns the sequential ID and sets the record active.
type NewIdentity struct {
	Owner          id.Account
	Name           string
	DocumentNumber string
	BioHash        id.BioHash
	KYCTimestamp   time.Time
	PreviousID     id.TokenID
	ApplicantID    string
}
