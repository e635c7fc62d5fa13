// Package handler exposes the registry over HTTP. Handlers parse wire shapes
// into domain primitives, delegate to the service and translate domain errors
// into status codes.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"blocktrust/internal/platform/metrics"
	"blocktrust/internal/platform/middleware"
	"blocktrust/internal/registry/models"
	"blocktrust/internal/registry/service"
	id "blocktrust/pkg/domain"
	dErrors "blocktrust/pkg/domain-errors"
	audit "blocktrust/pkg/platform/audit"
	"blocktrust/pkg/platform/httputil"
)

// Service defines the registry operations the handler needs.
type Service interface {
	Mint(ctx context.Context, caller id.Account, input service.MintInput) (id.TokenID, error)
	LookupActiveByFingerprint(ctx context.Context, bioHash id.BioHash) (models.Identity, error)
	ValidateOwnership(ctx context.Context, candidate id.Account, bioHash id.BioHash) (bool, error)
	GetRecord(ctx context.Context, tokenID id.TokenID) (models.Identity, error)
	Deactivate(ctx context.Context, caller id.Account, tokenID id.TokenID) error
	Reissue(ctx context.Context, caller id.Account, input service.ReissueInput) (id.TokenID, error)
	ListAuditTrail(ctx context.Context, owner id.Account) ([]audit.Event, error)
}

// Handler handles registry endpoints.
type Handler struct {
	logger       *slog.Logger
	registry     Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new registry Handler.
func New(
	registry Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		registry:     registry,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	registryRouter := chi.NewRouter()
	registryRouter.Use(middleware.Recovery(h.logger))
	registryRouter.Use(middleware.RequestID)
	registryRouter.Use(middleware.Logger(h.logger))
	registryRouter.Use(middleware.Timeout(30 * time.Second))
	registryRouter.Use(middleware.ContentTypeJSON)
	registryRouter.Use(middleware.LatencyMiddleware(h.metrics))
	registryRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	registryRouter.Post("/mint", h.handleMint)
	registryRouter.Get("/fingerprint/{bioHash}", h.handleLookupFingerprint)
	registryRouter.Post("/validate", h.handleValidate)
	registryRouter.Get("/identities/{id}", h.handleGetRecord)
	registryRouter.Post("/identities/{id}/deactivate", h.handleDeactivate)
	registryRouter.Post("/reissue", h.handleReissue)
	registryRouter.Get("/owners/{account}/audit", h.handleAuditTrail)

	// Each feature owns a prefix; mounting them all at the root would
	// collide on the shared parent router.
	r.Mount("/registry", registryRouter)
}

// caller resolves the authenticated account the operation runs on behalf of.
func (h *Handler) caller(ctx context.Context) (id.Account, error) {
	raw := middleware.GetAccount(ctx)
	if raw == "" {
		// Should never happen behind RequireAuth.
		h.logger.ErrorContext(ctx, "account missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		return "", dErrors.New(dErrors.CodeInternal, "authentication context error")
	}
	account, err := id.ParseAccount(raw)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid account claim")
	}
	return account, nil
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := h.caller(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid mint request", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	owner, err := id.ParseAccount(req.Owner)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid owner address"))
		return
	}
	bioHash, err := id.ParseBioHash(req.BioHash)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid bio hash"))
		return
	}

	tokenID, err := h.registry.Mint(ctx, caller, service.MintInput{
		Owner:          owner,
		Name:           req.Name,
		DocumentNumber: req.DocumentNumber,
		BioHash:        bioHash,
		ApplicantID:    req.ApplicantID,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "mint failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, models.MintResponse{ID: uint64(tokenID)})
}

func (h *Handler) handleLookupFingerprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bioHash, err := id.ParseBioHash(chi.URLParam(r, "bioHash"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid bio hash"))
		return
	}

	identity, err := h.registry.LookupActiveByFingerprint(ctx, bioHash)
	if err != nil {
		h.writeServiceError(ctx, w, "fingerprint lookup failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.LookupResponse{
		ID:    uint64(identity.ID),
		Owner: identity.Owner.String(),
	})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid validate request", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	owner, err := id.ParseAccount(req.Owner)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid owner address"))
		return
	}
	bioHash, err := id.ParseBioHash(req.BioHash)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid bio hash"))
		return
	}

	valid, err := h.registry.ValidateOwnership(ctx, owner, bioHash)
	if err != nil {
		h.writeServiceError(ctx, w, "ownership validation failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ValidateResponse{Valid: valid})
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tokenID, err := id.ParseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid token id"))
		return
	}

	identity, err := h.registry.GetRecord(ctx, tokenID)
	if err != nil {
		h.writeServiceError(ctx, w, "get record failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(identity))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := h.caller(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tokenID, err := id.ParseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid token id"))
		return
	}

	if err := h.registry.Deactivate(ctx, caller, tokenID); err != nil {
		h.writeServiceError(ctx, w, "deactivation failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReissue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := h.caller(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.ReissueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid reissue request", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	owner, err := id.ParseAccount(req.Owner)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid owner address"))
		return
	}

	tokenID, err := h.registry.Reissue(ctx, caller, service.ReissueInput{
		PreviousID:  id.TokenID(req.PreviousID),
		Owner:       owner,
		ApplicantID: req.ApplicantID,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "reissue failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, models.MintResponse{ID: uint64(tokenID)})
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := id.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid owner address"))
		return
	}

	events, err := h.registry.ListAuditTrail(ctx, owner)
	if err != nil {
		h.writeServiceError(ctx, w, "audit trail lookup failed", err)
		return
	}

	out := make([]models.AuditEntryResponse, 0, len(events))
	for _, event := range events {
		out = append(out, toAuditEntryResponse(event))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// writeServiceError logs and renders a service failure. Expected domain codes
// pass through verbatim; anything else is masked as internal.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
	default:
		h.warn(ctx, msg, err)
		httputil.WriteError(w, err)
	}
}

func (h *Handler) warn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}

func toIdentityResponse(identity models.Identity) models.IdentityResponse {
	return models.IdentityResponse{
		ID:             uint64(identity.ID),
		Owner:          identity.Owner.String(),
		Name:           identity.Name,
		DocumentNumber: identity.DocumentNumber,
		BioHash:        identity.BioHash.String(),
		KYCTimestamp:   identity.KYCTimestamp.UTC().Format(time.RFC3339),
		IsActive:       identity.IsActive,
		PreviousID:     uint64(identity.PreviousID),
		ApplicantID:    identity.ApplicantID,
	}
}

func toAuditEntryResponse(event audit.Event) models.AuditEntryResponse {
	return models.AuditEntryResponse{
		Action:    event.Action,
		Category:  string(event.Category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		TokenID:   event.TokenID,
		Owner:     event.Owner,
		ActorID:   event.ActorID,
		Reason:    event.Reason,
	}
}
