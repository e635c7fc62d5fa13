package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"blocktrust/internal/registry/metrics"
	"blocktrust/internal/registry/models"
	"blocktrust/internal/registry/store"
	id "blocktrust/pkg/domain"
	dErrors "blocktrust/pkg/domain-errors"
	audit "blocktrust/pkg/platform/audit"
	"blocktrust/pkg/platform/sentinel"
)

// Authority answers whether an account holds minter capability. It is a pure
// check: every mutating operation calls it at the top, with no reliance on
// implicit context.
type Authority interface {
	HasAuthority(ctx context.Context, account id.Account) (bool, error)
}

// Publisher receives the auditable notifications the registry emits. Emission
// is an explicit output of each operation, decoupled from the state mutation.
type Publisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// FingerprintCache is an optional read-through cache for the recovery lookup
// path. Mutations invalidate; misses fall through to the store.
type FingerprintCache interface {
	Get(ctx context.Context, bioHash id.BioHash) (models.Identity, bool)
	Set(ctx context.Context, identity models.Identity)
	Invalidate(ctx context.Context, bioHash id.BioHash)
}

// MintInput carries the caller-supplied attributes of a new identity.
type MintInput struct {
	Owner          id.Account
	Name           string
	DocumentNumber string
	BioHash        id.BioHash
	ApplicantID    string
}

// ReissueInput retires an identity and mints its replacement in one step. The
// replacement keeps the subject attributes of the retired record; the owner
// may change (that is the recovery case) and the applicant correlation must be
// fresh, since reissue implies a new onboarding pass.
type ReissueInput struct {
	PreviousID  id.TokenID
	Owner       id.Account
	ApplicantID string
}

// Service is the registry state machine. All persistent state lives in the
// store; the service is stateless and safe for concurrent use.
type Service struct {
	store     store.Store
	authority Authority
	publisher Publisher
	// ops receives read-path events fire-and-forget; nil disables them.
	ops     Publisher
	cache   FingerprintCache
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithCache attaches a fingerprint lookup cache.
func WithCache(cache FingerprintCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithOpsPublisher attaches a publisher for read-path events. Wire a buffered
// async publisher here: lookup volume is orders of magnitude above lifecycle
// volume and must not block reads.
func WithOpsPublisher(p Publisher) Option {
	return func(s *Service) {
		s.ops = p
	}
}

// WithMetrics attaches the registry metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates the registry service.
func New(st store.Store, authority Authority, publisher Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     st,
		authority: authority,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("blocktrust/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mint creates a new active identity for a fingerprint. The caller must hold
// minter authority and no active record may exist for the fingerprint. Mint
// is all-or-nothing: a rejected attempt leaves no trace in the registry and
// consumes no token id.
func (s *Service) Mint(ctx context.Context, caller id.Account, input MintInput) (id.TokenID, error) {
	ctx, span := s.tracer.Start(ctx, "registry.mint")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveOpLatency("mint", time.Since(start)) }()

	if err := validateMintInput(input); err != nil {
		return 0, err
	}

	if err := s.requireAuthority(ctx, caller, input.BioHash); err != nil {
		s.metrics.IncrementMintOutcome("unauthorized")
		return 0, err
	}

	identity, err := s.store.CreateActive(ctx, models.NewIdentity{
		Owner:          input.Owner,
		Name:           input.Name,
		DocumentNumber: input.DocumentNumber,
		BioHash:        input.BioHash,
		KYCTimestamp:   time.Now(),
		ApplicantID:    input.ApplicantID,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementMintOutcome("duplicate")
			s.emit(ctx, audit.Event{
				Action:      string(audit.EventMintRejected),
				Owner:       input.Owner.String(),
				BioHash:     input.BioHash.String(),
				ApplicantID: input.ApplicantID,
				ActorID:     caller.String(),
				Reason:      string(dErrors.CodeDuplicateFingerprint),
			})
			return 0, dErrors.New(dErrors.CodeDuplicateFingerprint,
				"an active identity already exists for this fingerprint")
		}
		s.metrics.IncrementMintOutcome("error")
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "mint identity")
	}

	s.invalidate(ctx, input.BioHash)
	s.metrics.IncrementMintOutcome("minted")
	s.metrics.AddActiveIdentities(1)
	span.SetAttributes(attribute.Int64("registry.token_id", int64(identity.ID)))

	s.emit(ctx, audit.Event{
		Action:      string(audit.EventIdentityMinted),
		TokenID:     uint64(identity.ID),
		Owner:       identity.Owner.String(),
		BioHash:     identity.BioHash.String(),
		ApplicantID: identity.ApplicantID,
		ActorID:     caller.String(),
	})

	return identity.ID, nil
}

// LookupActiveByFingerprint resolves a fingerprint to its current live
// identity. This is the recovery path: the caller expects a hit, so absence
// is an error.
func (s *Service) LookupActiveByFingerprint(ctx context.Context, bioHash id.BioHash) (models.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "registry.lookup_fingerprint")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveOpLatency("lookup", time.Since(start)) }()

	if s.cache != nil {
		if identity, ok := s.cache.Get(ctx, bioHash); ok {
			s.metrics.IncrementLookup("hit")
			return identity, nil
		}
	}

	identity, err := s.store.FindActiveByFingerprint(ctx, bioHash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementLookup("miss")
			return models.Identity{}, dErrors.New(dErrors.CodeNotFound,
				"no active identity for fingerprint")
		}
		s.metrics.IncrementLookup("error")
		return models.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "lookup fingerprint")
	}

	if s.cache != nil {
		s.cache.Set(ctx, identity)
	}
	s.metrics.IncrementLookup("hit")
	s.emitOps(ctx, audit.Event{
		Action:  string(audit.EventFingerprintLookup),
		TokenID: uint64(identity.ID),
		Owner:   identity.Owner.String(),
		BioHash: bioHash.String(),
	})
	return identity, nil
}

// ValidateOwnership reports whether candidate holds the active identity for
// bioHash. This is the validation path: absence of a match is a legitimate
// negative result, never an error.
func (s *Service) ValidateOwnership(ctx context.Context, candidate id.Account, bioHash id.BioHash) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "registry.validate_ownership")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveOpLatency("validate", time.Since(start)) }()

	identity, err := s.store.FindActiveByFingerprint(ctx, bioHash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementValidation("no_match")
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "validate ownership")
	}

	match := identity.Owner == candidate
	if match {
		s.metrics.IncrementValidation("match")
	} else {
		s.metrics.IncrementValidation("no_match")
	}
	s.emitOps(ctx, audit.Event{
		Action:  string(audit.EventOwnershipValidated),
		TokenID: uint64(identity.ID),
		Owner:   identity.Owner.String(),
		BioHash: bioHash.String(),
		ActorID: candidate.String(),
	})
	return match, nil
}

// GetRecord fetches the full record for a previously assigned id, retired
// records included.
func (s *Service) GetRecord(ctx context.Context, tokenID id.TokenID) (models.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "registry.get_record")
	defer span.End()

	identity, err := s.store.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Identity{}, dErrors.New(dErrors.CodeNotFound, "unknown token id")
		}
		return models.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "get record")
	}
	return identity, nil
}

// Deactivate retires a record, permanently removing it as the answer to
// fingerprint lookups. The record stays queryable by id for audit. Retirement
// is terminal for the record; the fingerprint becomes mintable again.
func (s *Service) Deactivate(ctx context.Context, caller id.Account, tokenID id.TokenID) error {
	ctx, span := s.tracer.Start(ctx, "registry.deactivate")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveOpLatency("deactivate", time.Since(start)) }()

	if err := s.requireAuthority(ctx, caller, id.BioHash{}); err != nil {
		return err
	}

	if err := s.store.Deactivate(ctx, tokenID); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "unknown token id")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeInvalidState, "identity already retired")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "deactivate identity")
		}
	}

	retired, err := s.store.FindByID(ctx, tokenID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load retired identity")
	}

	s.invalidate(ctx, retired.BioHash)
	s.metrics.AddActiveIdentities(-1)

	s.emit(ctx, audit.Event{
		Action:      string(audit.EventIdentityDeactivated),
		TokenID:     uint64(retired.ID),
		Owner:       retired.Owner.String(),
		BioHash:     retired.BioHash.String(),
		ApplicantID: retired.ApplicantID,
		ActorID:     caller.String(),
	})
	return nil
}

// Reissue retires the record identified by PreviousID and mints its
// replacement for the same fingerprint in one atomic step.
func (s *Service) Reissue(ctx context.Context, caller id.Account, input ReissueInput) (id.TokenID, error) {
	ctx, span := s.tracer.Start(ctx, "registry.reissue")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveOpLatency("reissue", time.Since(start)) }()

	if input.Owner.IsNil() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "owner is required")
	}
	if input.ApplicantID == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "applicant id is required")
	}

	if err := s.requireAuthority(ctx, caller, id.BioHash{}); err != nil {
		s.metrics.IncrementMintOutcome("unauthorized")
		return 0, err
	}

	previous, err := s.store.FindByID(ctx, input.PreviousID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "unknown previous token id")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "load previous identity")
	}
	if input.ApplicantID == previous.ApplicantID {
		return 0, dErrors.New(dErrors.CodeInvalidInput,
			"reissue requires a fresh applicant id")
	}

	identity, err := s.store.Reissue(ctx, previous.ID, models.NewIdentity{
		Owner:          input.Owner,
		Name:           previous.Name,
		DocumentNumber: previous.DocumentNumber,
		BioHash:        previous.BioHash,
		KYCTimestamp:   time.Now(),
		PreviousID:     previous.ID,
		ApplicantID:    input.ApplicantID,
	})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return 0, dErrors.New(dErrors.CodeNotFound, "unknown previous token id")
		case errors.Is(err, sentinel.ErrInvalidState):
			return 0, dErrors.New(dErrors.CodeInvalidState, "previous identity already retired")
		default:
			s.metrics.IncrementMintOutcome("error")
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "reissue identity")
		}
	}

	s.invalidate(ctx, identity.BioHash)
	s.metrics.IncrementMintOutcome("reissued")
	span.SetAttributes(attribute.Int64("registry.token_id", int64(identity.ID)))

	s.emit(ctx, audit.Event{
		Action:      string(audit.EventIdentityReissued),
		TokenID:     uint64(identity.ID),
		Owner:       identity.Owner.String(),
		BioHash:     identity.BioHash.String(),
		ApplicantID: identity.ApplicantID,
		ActorID:     caller.String(),
	})
	return identity.ID, nil
}

// ListAuditTrail returns the audit events recorded for an owner account.
func (s *Service) ListAuditTrail(ctx context.Context, owner id.Account) ([]audit.Event, error) {
	lister, ok := s.publisher.(interface {
		List(ctx context.Context, owner string) ([]audit.Event, error)
	})
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "audit trail not queryable")
	}
	events, err := lister.List(ctx, owner.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list audit trail")
	}
	return events, nil
}

// requireAuthority enforces the minter capability gate. A rejected caller is
// recorded as a security event.
func (s *Service) requireAuthority(ctx context.Context, caller id.Account, bioHash id.BioHash) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller account is required")
	}
	ok, err := s.authority.HasAuthority(ctx, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check minter authority")
	}
	if !ok {
		event := audit.Event{
			Action:  string(audit.EventMintRejected),
			ActorID: caller.String(),
			Reason:  string(dErrors.CodeUnauthorized),
		}
		if !bioHash.IsZero() {
			event.BioHash = bioHash.String()
		}
		s.emit(ctx, event)
		return dErrors.New(dErrors.CodeUnauthorized, "caller lacks minter authority")
	}
	return nil
}

func validateMintInput(input MintInput) error {
	switch {
	case input.Owner.IsNil():
		return dErrors.New(dErrors.CodeInvalidInput, "owner is required")
	case input.BioHash.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "bio hash is required")
	case input.Name == "":
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	case input.DocumentNumber == "":
		return dErrors.New(dErrors.CodeInvalidInput, "document number is required")
	case input.ApplicantID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "applicant id is required")
	}
	return nil
}

// emit forwards a notification. Delivery is decoupled from the state
// mutation: in production the outbox-backed store makes it durable, here a
// failure is logged and the completed operation stands.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emission failed",
			"action", event.Action,
			"error", err,
		)
	}
}

// emitOps forwards a read-path event when an ops publisher is wired. A full
// buffer drops the event; reads never fail on audit.
func (s *Service) emitOps(ctx context.Context, event audit.Event) {
	if s.ops == nil {
		return
	}
	if err := s.ops.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "ops event dropped",
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) invalidate(ctx context.Context, bioHash id.BioHash) {
	if s.cache != nil && !bioHash.IsZero() {
		s.cache.Invalidate(ctx, bioHash)
	}
}
