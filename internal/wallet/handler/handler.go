// Package handler exposes deterministic wallet derivation over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"blocktrust/internal/platform/metrics"
	"blocktrust/internal/platform/middleware"
	"blocktrust/internal/wallet"
	id "blocktrust/pkg/domain"
	dErrors "blocktrust/pkg/domain-errors"
	"blocktrust/pkg/platform/httputil"
)

// DeriveRequest asks for the account address of a fingerprint digest.
type DeriveRequest struct {
	BioHash string `json:"bio_hash"`
	// Count asks for sequential sub-account addresses; 0 or 1 returns one.
	Count int `json:"count,omitempty"`
}

// DeriveResponse carries the derived addresses, primary first.
type DeriveResponse struct {
	Addresses []string `json:"addresses"`
}

// ValidateRequest checks an address against a fingerprint digest.
type ValidateRequest struct {
	BioHash string `json:"bio_hash"`
	Address string `json:"address"`
}

// ValidateResponse reports the check outcome.
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// AnalyzeRequest inspects raw template material before hashing.
type AnalyzeRequest struct {
	Material string `json:"material"`
}

// Handler handles wallet endpoints.
type Handler struct {
	logger       *slog.Logger
	deriver      *wallet.Deriver
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new wallet Handler.
func New(
	deriver *wallet.Deriver,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		deriver:      deriver,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the wallet routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	walletRouter := chi.NewRouter()
	walletRouter.Use(middleware.Recovery(h.logger))
	walletRouter.Use(middleware.RequestID)
	walletRouter.Use(middleware.Logger(h.logger))
	walletRouter.Use(middleware.Timeout(10 * time.Second))
	walletRouter.Use(middleware.ContentTypeJSON)
	walletRouter.Use(middleware.LatencyMiddleware(h.metrics))
	walletRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	walletRouter.Post("/derive", h.handleDerive)
	walletRouter.Post("/validate", h.handleValidate)
	walletRouter.Post("/analyze", h.handleAnalyze)

	r.Mount("/wallet", walletRouter)
}

func (h *Handler) handleDerive(w http.ResponseWriter, r *http.Request) {
	var req DeriveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	bioHash, err := id.ParseBioHash(req.BioHash)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid bio hash"))
		return
	}

	count := req.Count
	if count < 1 {
		count = 1
	}
	accounts, err := h.deriver.DeriveMultiple(bioHash, count)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "wallet derivation failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "derivation failed"))
		return
	}

	out := make([]string, len(accounts))
	for i, account := range accounts {
		out[i] = account.String()
	}
	httputil.WriteJSON(w, http.StatusOK, DeriveResponse{Addresses: out})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	bioHash, err := id.ParseBioHash(req.BioHash)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid bio hash"))
		return
	}
	address, err := id.ParseAccount(req.Address)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid address"))
		return
	}

	valid, err := h.deriver.ValidateAddressForBioHash(bioHash, address)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "validation failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ValidateResponse{Valid: valid})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, wallet.AnalyzeQuality(req.Material))
}
