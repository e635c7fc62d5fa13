package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: identity minted, reissued, deactivated.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics. Examples: rejected mints, authority changes.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	// Examples: fingerprint lookups, ownership validations.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key registry actions. Keep it
// transport-agnostic so stores and sinks can fan out. The registry emits it as
// an explicit output of each operation, decoupled from the state mutation, so
// tests can assert on state and on notifications independently.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// TokenID is the identity record the event concerns, 0 when none was
	// assigned (e.g. rejected mints).
	TokenID uint64
	// Owner is the holder of record at event time.
	Owner string
	// BioHash is the hex digest of the fingerprint involved. It is a content
	// fingerprint, not raw biometric material, so it is safe to persist.
	BioHash string
	// ApplicantID correlates the event to the external onboarding process.
	ApplicantID string
	// ActorID is the caller that performed the action when different from
	// the owner, e.g. the minter account.
	ActorID string
	// Reason explains rejections ("unauthorized", "duplicate_fingerprint").
	Reason string
	// RequestID is the correlation id from the HTTP request context.
	RequestID string
}

type AuditEvent string

const (
	// Identity lifecycle events
	EventIdentityMinted      AuditEvent = "identity_minted"
	EventIdentityReissued    AuditEvent = "identity_reissued"
	EventIdentityDeactivated AuditEvent = "identity_deactivated"

	// Rejection events
	EventMintRejected AuditEvent = "mint_rejected"

	// Authority events
	EventMinterGranted AuditEvent = "minter_granted"
	EventMinterRevoked AuditEvent = "minter_revoked"

	// Read-path events
	EventFingerprintLookup  AuditEvent = "fingerprint_lookup"
	EventOwnershipValidated AuditEvent = "ownership_validated"
)

// eventCategories maps each audit event to its category.
// Compliance: legal/regulatory significance, long retention required.
// Security: security monitoring, SIEM integration, alerting.
// Operations: debugging, operational visibility, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	EventIdentityMinted:      CategoryCompliance,
	EventIdentityReissued:    CategoryCompliance,
	EventIdentityDeactivated: CategoryCompliance,

	EventMintRejected:  CategorySecurity,
	EventMinterGranted: CategorySecurity,
	EventMinterRevoked: CategorySecurity,

	EventFingerprintLookup:  CategoryOperations,
	EventOwnershipValidated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
