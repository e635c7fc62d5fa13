package store

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"blocktrust/internal/registry/models"
	id "blocktrust/pkg/domain"
	"blocktrust/pkg/platform/sentinel"
)

type RegistryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *RegistryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestRegistryStoreSuite(t *testing.T) {
	suite.Run(t, new(RegistryStoreSuite))
}

func (s *RegistryStoreSuite) newIdentity(owner string, material string) models.NewIdentity {
	bioHash, err := id.BioHashFromMaterial(material)
	s.Require().NoError(err)
	account, err := id.ParseAccount(owner)
	s.Require().NoError(err)
	return models.NewIdentity{
		Owner:          account,
		Name:           "Test Subject",
		DocumentNumber: "D-0001",
		BioHash:        bioHash,
		KYCTimestamp:   time.Now(),
		ApplicantID:    "applicant-1",
	}
}

const (
	ownerA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	ownerB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// TestCreationAndLookups verifies sequential id assignment and both read
// paths.
func (s *RegistryStoreSuite) TestCreationAndLookups() {
	s.Run("assigns ids sequentially from 1", func() {
		first, err := s.store.CreateActive(s.ctx, s.newIdentity(ownerA, "material-one-32-characters-long!!"))
		s.Require().NoError(err)
		s.Equal(id.TokenID(1), first.ID)
		s.True(first.IsActive)

		second, err := s.store.CreateActive(s.ctx, s.newIdentity(ownerB, "material-two-32-characters-long!!"))
		s.Require().NoError(err)
		s.Equal(id.TokenID(2), second.ID)
	})

	s.Run("finds records by id", func() {
		created, err := s.store.CreateActive(s.ctx, s.newIdentity(ownerA, "material-three-32-characters-long"))
		s.Require().NoError(err)

		found, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created, found)
	})

	s.Run("resolves fingerprints to the active record", func() {
		rec := s.newIdentity(ownerB, "material-four-32-characters-long!")
		created, err := s.store.CreateActive(s.ctx, rec)
		s.Require().NoError(err)

		found, err := s.store.FindActiveByFingerprint(s.ctx, rec.BioHash)
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
		s.Equal(created.Owner, found.Owner)
	})

	s.Run("returns ErrNotFound for unassigned id", func() {
		_, err := s.store.FindByID(s.ctx, id.TokenID(9999))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound for unknown fingerprint", func() {
		unknown, err := id.BioHashFromMaterial("material-never-minted-32-chars-ok")
		s.Require().NoError(err)
		_, err = s.store.FindActiveByFingerprint(s.ctx, unknown)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestFingerprintUniqueness verifies the central invariant: at most one
// active record per fingerprint, and rejected creations consume no id.
func (s *RegistryStoreSuite) TestFingerprintUniqueness() {
	s.Run("rejects duplicate active fingerprint", func() {
		rec := s.newIdentity(ownerA, "material-five-32-characters-long!")
		_, err := s.store.CreateActive(s.ctx, rec)
		s.Require().NoError(err)

		dupe := s.newIdentity(ownerB, "material-five-32-characters-long!")
		_, err = s.store.CreateActive(s.ctx, dupe)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("rejected creations do not consume ids", func() {
		first, err := s.store.CreateActive(s.ctx, s.newIdentity(ownerA, "material-six-32-characters-long!!"))
		s.Require().NoError(err)

		_, err = s.store.CreateActive(s.ctx, s.newIdentity(ownerB, "material-six-32-characters-long!!"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		next, err := s.store.CreateActive(s.ctx, s.newIdentity(ownerB, "material-seven-32-characters-long"))
		s.Require().NoError(err)
		s.Equal(first.ID+1, next.ID)
	})

	s.Run("same owner may hold several fingerprints", func() {
		_, err := s.store.CreateActive(s.ctx, s.newIdentity(ownerA, "material-eight-32-characters-long"))
		s.Require().NoError(err)
		_, err = s.store.CreateActive(s.ctx, s.newIdentity(ownerA, "material-nine-32-characters-long!"))
		s.Require().NoError(err)
	})
}

// TestRetirement verifies the one-way active -> retired transition and that a
// retired fingerprint becomes mintable again.
func (s *RegistryStoreSuite) TestRetirement() {
	s.Run("deactivation retires the record and clears the index", func() {
		rec := s.newIdentity(ownerA, "material-ten-32-characters-long!!")
		created, err := s.store.CreateActive(s.ctx, rec)
		s.Require().NoError(err)

		s.Require().NoError(s.store.Deactivate(s.ctx, created.ID))

		retired, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.False(retired.IsActive)

		_, err = s.store.FindActiveByFingerprint(s.ctx, rec.BioHash)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("deactivating a retired record fails", func() {
		created, err := s.store.CreateActive(s.ctx, s.newIdentity(ownerA, "material-11-32-characters-long!!!"))
		s.Require().NoError(err)

		s.Require().NoError(s.store.Deactivate(s.ctx, created.ID))
		s.Require().ErrorIs(s.store.Deactivate(s.ctx, created.ID), sentinel.ErrInvalidState)
	})

	s.Run("retired fingerprint can be minted anew", func() {
		rec := s.newIdentity(ownerA, "material-12-32-characters-long!!!")
		created, err := s.store.CreateActive(s.ctx, rec)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Deactivate(s.ctx, created.ID))

		remint := s.newIdentity(ownerB, "material-12-32-characters-long!!!")
		reminted, err := s.store.CreateActive(s.ctx, remint)
		s.Require().NoError(err)
		s.Equal(created.ID+1, reminted.ID)

		found, err := s.store.FindActiveByFingerprint(s.ctx, rec.BioHash)
		s.Require().NoError(err)
		s.Equal(reminted.ID, found.ID)
	})
}

// TestReissue verifies the atomic retire-then-remint path.
func (s *RegistryStoreSuite) TestReissue() {
	s.Run("retires the previous record and links the replacement", func() {
		rec := s.newIdentity(ownerA, "material-13-32-characters-long!!!")
		created, err := s.store.CreateActive(s.ctx, rec)
		s.Require().NoError(err)

		replacement := s.newIdentity(ownerB, "material-13-32-characters-long!!!")
		replacement.PreviousID = created.ID
		replacement.ApplicantID = "applicant-2"

		reissued, err := s.store.Reissue(s.ctx, created.ID, replacement)
		s.Require().NoError(err)
		s.Equal(created.ID+1, reissued.ID)
		s.Equal(created.ID, reissued.PreviousID)
		s.True(reissued.IsActive)

		prev, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.False(prev.IsActive)

		found, err := s.store.FindActiveByFingerprint(s.ctx, rec.BioHash)
		s.Require().NoError(err)
		s.Equal(reissued.ID, found.ID)
	})

	s.Run("fails for unknown previous id", func() {
		_, err := s.store.Reissue(s.ctx, id.TokenID(404), s.newIdentity(ownerA, "material-14-32-characters-long!!!"))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("fails when previous record is already retired", func() {
		created, err := s.store.CreateActive(s.ctx, s.newIdentity(ownerA, "material-15-32-characters-long!!!"))
		s.Require().NoError(err)
		s.Require().NoError(s.store.Deactivate(s.ctx, created.ID))

		_, err = s.store.Reissue(s.ctx, created.ID, s.newIdentity(ownerB, "material-15-32-characters-long!!!"))
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})
}

// TestImmutability verifies creation attributes never change across unrelated
// operations.
func (s *RegistryStoreSuite) TestImmutability() {
	rec := s.newIdentity(ownerA, "material-16-32-characters-long!!!")
	created, err := s.store.CreateActive(s.ctx, rec)
	s.Require().NoError(err)

	// Churn the store with unrelated mutations.
	other, err := s.store.CreateActive(s.ctx, s.newIdentity(ownerB, "material-17-32-characters-long!!!"))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Deactivate(s.ctx, other.ID))

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Name, found.Name)
	s.Equal(created.DocumentNumber, found.DocumentNumber)
	s.Equal(created.BioHash, found.BioHash)
	s.Equal(created.ApplicantID, found.ApplicantID)
}

// TestUniquenessProperty drives randomized mint sequences over a small
// fingerprint alphabet and asserts the invariant after every step: at most
// one active record per fingerprint, ids strictly increasing with no gaps.
func TestUniquenessProperty(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	alphabet := make([]id.BioHash, 5)
	for i := range alphabet {
		h, err := id.BioHashFromMaterial(fmt.Sprintf("property-material-%d-padding-to-32-chars", i))
		if err != nil {
			t.Fatalf("build fingerprint: %v", err)
		}
		alphabet[i] = h
	}
	owner, err := id.ParseAccount(ownerA)
	if err != nil {
		t.Fatalf("parse owner: %v", err)
	}

	s := NewInMemory()
	var lastID id.TokenID
	activeByHash := make(map[id.BioHash]id.TokenID)

	for step := 0; step < 500; step++ {
		h := alphabet[rng.Intn(len(alphabet))]
		rec := models.NewIdentity{
			Owner:          owner,
			Name:           "P",
			DocumentNumber: "D",
			BioHash:        h,
			KYCTimestamp:   time.Now(),
			ApplicantID:    fmt.Sprintf("step-%d", step),
		}

		// Randomly interleave mints and deactivations.
		if tokenID, ok := activeByHash[h]; ok && rng.Intn(2) == 0 {
			if err := s.Deactivate(ctx, tokenID); err != nil {
				t.Fatalf("step %d: deactivate: %v", step, err)
			}
			delete(activeByHash, h)
		} else {
			created, err := s.CreateActive(ctx, rec)
			switch {
			case ok:
				// An active record exists: the mint must be rejected.
				if err == nil {
					t.Fatalf("step %d: duplicate fingerprint accepted", step)
				}
			case err != nil:
				t.Fatalf("step %d: mint: %v", step, err)
			default:
				if created.ID != lastID+1 {
					t.Fatalf("step %d: id %d not sequential after %d", step, created.ID, lastID)
				}
				lastID = created.ID
				activeByHash[h] = created.ID
			}
		}

		// Invariant: the index answer matches the model after every step.
		for _, h := range alphabet {
			rec, err := s.FindActiveByFingerprint(ctx, h)
			want, ok := activeByHash[h]
			if ok {
				if err != nil {
					t.Fatalf("step %d: expected active record: %v", step, err)
				}
				if rec.ID != want {
					t.Fatalf("step %d: index resolves %d, want %d", step, rec.ID, want)
				}
			} else if err == nil {
				t.Fatalf("step %d: retired fingerprint still resolves", step)
			}
		}
	}
}
