//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"blocktrust/internal/authority/models"
	"blocktrust/internal/authority/store"
	id "blocktrust/pkg/domain"
	"blocktrust/pkg/platform/sentinel"
	"blocktrust/pkg/testutil/containers"
)

type PostgresAuthoritySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresAuthoritySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuthoritySuite))
}

func (s *PostgresAuthoritySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresAuthoritySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "minters"))
}

func (s *PostgresAuthoritySuite) account(raw string) id.Account {
	account, err := id.ParseAccount(raw)
	s.Require().NoError(err)
	return account
}

func (s *PostgresAuthoritySuite) TestGrantHasRevoke() {
	ctx := context.Background()
	account := s.account("0x1000000000000000000000000000000000000001")

	ok, err := s.store.Has(ctx, account)
	s.Require().NoError(err)
	s.False(ok)

	err = s.store.Grant(ctx, models.Grant{
		Account:   account,
		GrantedBy: "bootstrap",
		GrantedAt: time.Now(),
	})
	s.Require().NoError(err)

	ok, err = s.store.Has(ctx, account)
	s.Require().NoError(err)
	s.True(ok)

	// Double grant is a conflict, primary key enforced.
	err = s.store.Grant(ctx, models.Grant{
		Account:   account,
		GrantedBy: "admin",
		GrantedAt: time.Now(),
	})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	s.Require().NoError(s.store.Revoke(ctx, account))
	s.Require().ErrorIs(s.store.Revoke(ctx, account), sentinel.ErrNotFound)
}

func (s *PostgresAuthoritySuite) TestListIsOrdered() {
	ctx := context.Background()
	accounts := []id.Account{
		s.account("0x3000000000000000000000000000000000000003"),
		s.account("0x1000000000000000000000000000000000000001"),
		s.account("0x2000000000000000000000000000000000000002"),
	}
	for _, account := range accounts {
		err := s.store.Grant(ctx, models.Grant{
			Account:   account,
			GrantedBy: "bootstrap",
			GrantedAt: time.Now(),
		})
		s.Require().NoError(err)
	}

	grants, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(grants, 3)
	s.Equal(accounts[1], grants[0].Account)
	s.Equal(accounts[2], grants[1].Account)
	s.Equal(accounts[0], grants[2].Account)
}
