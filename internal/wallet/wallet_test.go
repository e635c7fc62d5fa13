package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "blocktrust/pkg/domain"
)

func TestDeriveIsDeterministic(t *testing.T) {
	d := New()
	bioHash := id.MustBioHashFromMaterial("fingerprint-template-aaaaaaaaaaaaaaa")

	first, err := d.Derive(bioHash)
	require.NoError(t, err)
	second, err := d.Derive(bioHash)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.False(t, first.IsNil())
}

func TestDeriveDistinguishesFingerprints(t *testing.T) {
	d := New()

	a, err := d.Derive(id.MustBioHashFromMaterial("fingerprint-template-aaaaaaaaaaaaaaa"))
	require.NoError(t, err)
	b, err := d.Derive(id.MustBioHashFromMaterial("fingerprint-template-bbbbbbbbbbbbbbb"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDeriveRejectsZeroHash(t *testing.T) {
	_, err := New().Derive(id.BioHash{})
	require.Error(t, err)
}

func TestSaltChangesAddressSpace(t *testing.T) {
	bioHash := id.MustBioHashFromMaterial("fingerprint-template-aaaaaaaaaaaaaaa")

	a, err := New().Derive(bioHash)
	require.NoError(t, err)
	b, err := New(WithSalt("staging-environment")).Derive(bioHash)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDeriveMultiple(t *testing.T) {
	d := New()
	bioHash := id.MustBioHashFromMaterial("fingerprint-template-aaaaaaaaaaaaaaa")

	accounts, err := d.DeriveMultiple(bioHash, 3)
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	// Index 0 is the primary account address.
	primary, err := d.Derive(bioHash)
	require.NoError(t, err)
	assert.Equal(t, primary, accounts[0])

	seen := make(map[id.Account]struct{})
	for _, account := range accounts {
		seen[account] = struct{}{}
	}
	assert.Len(t, seen, 3)

	_, err = d.DeriveMultiple(bioHash, 0)
	require.Error(t, err)
}

func TestValidateAddressForBioHash(t *testing.T) {
	d := New()
	bioHash := id.MustBioHashFromMaterial("fingerprint-template-aaaaaaaaaaaaaaa")

	address, err := d.Derive(bioHash)
	require.NoError(t, err)

	ok, err := d.ValidateAddressForBioHash(bioHash, address)
	require.NoError(t, err)
	assert.True(t, ok)

	other, err := id.ParseAccount("0x1000000000000000000000000000000000000001")
	require.NoError(t, err)
	ok, err = d.ValidateAddressForBioHash(bioHash, other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAnalyzeQuality(t *testing.T) {
	t.Run("acceptable material", func(t *testing.T) {
		report := AnalyzeQuality("fingerprint-template-0123456789abcdef")
		assert.True(t, report.Acceptable)
		assert.Empty(t, report.Issues)
	})

	t.Run("too short", func(t *testing.T) {
		report := AnalyzeQuality("short")
		assert.False(t, report.Acceptable)
		require.NotEmpty(t, report.Issues)
		assert.Contains(t, report.Issues[0], "too short")
	})

	t.Run("constant fill", func(t *testing.T) {
		report := AnalyzeQuality(strings.Repeat("a", 64))
		assert.False(t, report.Acceptable)
		require.NotEmpty(t, report.Issues)
		assert.Contains(t, report.Issues[0], "byte diversity")
	})
}
