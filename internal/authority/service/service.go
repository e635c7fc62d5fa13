// Package service manages the minter authority set. Every registry mutation
// checks this set explicitly; there is no ambient authority.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"blocktrust/internal/authority/models"
	"blocktrust/internal/authority/store"
	id "blocktrust/pkg/domain"
	dErrors "blocktrust/pkg/domain-errors"
	audit "blocktrust/pkg/platform/audit"
	"blocktrust/pkg/platform/sentinel"
)

// Publisher receives authority change events.
type Publisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store     store.Store
	publisher Publisher
	logger    *slog.Logger
}

func New(st store.Store, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{store: st, publisher: publisher, logger: logger}
}

// HasAuthority reports whether account currently holds minter capability.
func (s *Service) HasAuthority(ctx context.Context, account id.Account) (bool, error) {
	ok, err := s.store.Has(ctx, account)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "check authority")
	}
	return ok, nil
}

// Grant adds account to the minter set. actor identifies the administrator
// performing the change, for the audit trail.
func (s *Service) Grant(ctx context.Context, actor string, account id.Account) error {
	if account.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "account is required")
	}
	err := s.store.Grant(ctx, models.Grant{
		Account:   account,
		GrantedBy: actor,
		GrantedAt: time.Now(),
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeInvalidState, "account already holds minter authority")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "grant authority")
	}
	s.emit(ctx, audit.Event{
		Action:  string(audit.EventMinterGranted),
		Owner:   account.String(),
		ActorID: actor,
	})
	return nil
}

// Revoke removes account from the minter set. Revocation only affects future
// operations; identities minted under the grant stand.
func (s *Service) Revoke(ctx context.Context, actor string, account id.Account) error {
	if account.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "account is required")
	}
	if err := s.store.Revoke(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account holds no minter authority")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "revoke authority")
	}
	s.emit(ctx, audit.Event{
		Action:  string(audit.EventMinterRevoked),
		Owner:   account.String(),
		ActorID: actor,
	})
	return nil
}

// List returns the current minter set.
func (s *Service) List(ctx context.Context) ([]models.Grant, error) {
	grants, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list authority")
	}
	return grants, nil
}

// Seed grants authority to the configured bootstrap accounts, skipping those
// already present. Used at startup so a fresh deployment has at least one
// minter.
func (s *Service) Seed(ctx context.Context, accounts []id.Account) error {
	for _, account := range accounts {
		err := s.store.Grant(ctx, models.Grant{
			Account:   account,
			GrantedBy: "bootstrap",
			GrantedAt: time.Now(),
		})
		if err != nil && !errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "seed authority")
		}
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emission failed",
			"action", event.Action,
			"error", err,
		)
	}
}
