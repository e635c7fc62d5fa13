package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"blocktrust/internal/authority/store"
	id "blocktrust/pkg/domain"
	dErrors "blocktrust/pkg/domain-errors"
	audit "blocktrust/pkg/platform/audit"
	auditmemory "blocktrust/pkg/platform/audit/store/memory"
	"blocktrust/pkg/platform/audit/publisher"
)

type AuthoritySuite struct {
	suite.Suite

	ctx        context.Context
	auditStore *auditmemory.InMemoryStore
	svc        *Service

	account id.Account
}

func TestAuthoritySuite(t *testing.T) {
	suite.Run(t, new(AuthoritySuite))
}

func (s *AuthoritySuite) SetupTest() {
	s.ctx = context.Background()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.svc = New(store.NewInMemory(), publisher.NewPublisher(s.auditStore), slog.Default())

	account, err := id.ParseAccount("0x1000000000000000000000000000000000000001")
	require.NoError(s.T(), err)
	s.account = account
}

func (s *AuthoritySuite) TestGrantAndRevoke() {
	ok, err := s.svc.HasAuthority(s.ctx, s.account)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.svc.Grant(s.ctx, "admin", s.account))
	ok, err = s.svc.HasAuthority(s.ctx, s.account)
	s.Require().NoError(err)
	s.True(ok)

	grants, err := s.svc.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(grants, 1)
	s.Equal(s.account, grants[0].Account)
	s.Equal("admin", grants[0].GrantedBy)

	s.Require().NoError(s.svc.Revoke(s.ctx, "admin", s.account))
	ok, err = s.svc.HasAuthority(s.ctx, s.account)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *AuthoritySuite) TestGrantIsIdempotentPerAccount() {
	s.Require().NoError(s.svc.Grant(s.ctx, "admin", s.account))
	err := s.svc.Grant(s.ctx, "admin", s.account)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *AuthoritySuite) TestRevokeUnknownAccount() {
	err := s.svc.Revoke(s.ctx, "admin", s.account)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AuthoritySuite) TestSeedSkipsExisting() {
	s.Require().NoError(s.svc.Grant(s.ctx, "admin", s.account))
	s.Require().NoError(s.svc.Seed(s.ctx, []id.Account{s.account}))

	grants, err := s.svc.List(s.ctx)
	s.Require().NoError(err)
	s.Len(grants, 1)
}

func (s *AuthoritySuite) TestAuthorityChangesAreAudited() {
	s.Require().NoError(s.svc.Grant(s.ctx, "admin", s.account))
	s.Require().NoError(s.svc.Revoke(s.ctx, "admin", s.account))

	events, err := s.auditStore.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventMinterGranted), events[0].Action)
	s.Equal(string(audit.EventMinterRevoked), events[1].Action)
	s.Equal(audit.CategorySecurity, events[0].Category)
	s.Equal(s.account.String(), events[0].Owner)
}
