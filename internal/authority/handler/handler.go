// Package handler exposes minter authority administration over HTTP. All
// routes require an admin token.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"blocktrust/internal/authority/models"
	"blocktrust/internal/platform/metrics"
	"blocktrust/internal/platform/middleware"
	id "blocktrust/pkg/domain"
	dErrors "blocktrust/pkg/domain-errors"
	"blocktrust/pkg/platform/httputil"
)

// Service defines the authority operations the handler needs.
type Service interface {
	Grant(ctx context.Context, actor string, account id.Account) error
	Revoke(ctx context.Context, actor string, account id.Account) error
	List(ctx context.Context) ([]models.Grant, error)
}

// GrantRequest adds an account to the minter set.
type GrantRequest struct {
	Account string `json:"account"`
}

// GrantResponse is one entry of the minter set.
type GrantResponse struct {
	Account   string `json:"account"`
	GrantedBy string `json:"granted_by"`
	GrantedAt string `json:"granted_at"`
}

// Handler handles authority administration endpoints.
type Handler struct {
	logger       *slog.Logger
	authority    Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new authority Handler.
func New(
	authority Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		authority:    authority,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the authority routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	adminRouter := chi.NewRouter()
	adminRouter.Use(middleware.Recovery(h.logger))
	adminRouter.Use(middleware.RequestID)
	adminRouter.Use(middleware.Logger(h.logger))
	adminRouter.Use(middleware.Timeout(10 * time.Second))
	adminRouter.Use(middleware.ContentTypeJSON)
	adminRouter.Use(middleware.LatencyMiddleware(h.metrics))
	adminRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	adminRouter.Use(middleware.RequireAdmin(h.logger))

	adminRouter.Post("/minters", h.handleGrant)
	adminRouter.Delete("/minters/{account}", h.handleRevoke)
	adminRouter.Get("/minters", h.handleList)

	r.Mount("/admin", adminRouter)
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, err := id.ParseAccount(req.Account)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid account address"))
		return
	}

	if err := h.authority.Grant(ctx, middleware.GetAccount(ctx), account); err != nil {
		h.writeServiceError(ctx, w, "grant authority failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, err := id.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid account address"))
		return
	}

	if err := h.authority.Revoke(ctx, middleware.GetAccount(ctx), account); err != nil {
		h.writeServiceError(ctx, w, "revoke authority failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	grants, err := h.authority.List(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, "list authority failed", err)
		return
	}

	out := make([]GrantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, GrantResponse{
			Account:   g.Account.String(),
			GrantedBy: g.GrantedBy,
			GrantedAt: g.GrantedAt.UTC().Format(time.RFC3339),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
		return
	}
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
	httputil.WriteError(w, err)
}
