package models

// Request and response shapes for the registry HTTP surface. Handlers parse
// these into domain primitives before anything reaches the service.

// MintRequest creates a new active identity for a fingerprint.
type MintRequest struct {
	Owner          string `json:"owner"`
	Name           string `json:"name"`
	DocumentNumber string `json:"document_number"`
	BioHash        string `json:"bio_hash"`
	ApplicantID    string `json:"applicant_id"`
}

// MintResponse returns the freshly assigned token id.
type MintResponse struct {
	ID uint64 `json:"id"`
}

// LookupResponse answers a fingerprint-recovery request.
type LookupResponse struct {
	ID    uint64 `json:"id"`
	Owner string `json:"owner"`
}

// ValidateRequest checks whether a candidate owner holds the active identity
// for a fingerprint.
type ValidateRequest struct {
	Owner   string `json:"owner"`
	BioHash string `json:"bio_hash"`
}

// ValidateResponse is always a 200; absence of a match is valid=false, never
// an error.
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// ReissueRequest retires the active record for its fingerprint and mints a
// replacement in one step. The replacement keeps the subject attributes of the
// retired record but takes a new owner and a fresh applicant correlation.
type ReissueRequest struct {
	PreviousID  uint64 `json:"previous_id"`
	Owner       string `json:"owner"`
	ApplicantID string `json:"applicant_id"`
}

// AuditEntryResponse is one entry in an owner's audit trail.
type AuditEntryResponse struct {
	Action    string `json:"action"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	TokenID   uint64 `json:"token_id,omitempty"`
	Owner     string `json:"owner,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// IdentityResponse is the full record, including retired ones.
type IdentityResponse struct {
	ID             uint64 `json:"id"`
	Owner          string `json:"owner"`
	Name           string `json:"name"`
	DocumentNumber string `json:"document_number"`
	BioHash        string `json:"bio_hash"`
	KYCTimestamp   string `json:"kyc_timestamp"`
	IsActive       bool   `json:"is_active"`
	PreviousID     uint64 `json:"previous_id,omitempty"`
	ApplicantID    string `json:"applicant_id"`
}
