package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "blocktrust/pkg/domain-errors"
)

// TestParseBioHash_Invariants validates the parsing invariant: a fingerprint
// is a 32-byte, non-zero digest, and nothing else gets past the boundary.
func TestParseBioHash_Invariants(t *testing.T) {
	valid := strings.Repeat("a1", 32)

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseBioHash("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-hex input", func(t *testing.T) {
		_, err := ParseBioHash(strings.Repeat("zz", 32))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseBioHash("a1b2c3")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero digest", func(t *testing.T) {
		_, err := ParseBioHash(strings.Repeat("00", 32))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid digest", func(t *testing.T) {
		h, err := ParseBioHash(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, h.String())
	})

	t.Run("accepts 0x prefix", func(t *testing.T) {
		h, err := ParseBioHash("0x" + valid)
		require.NoError(t, err)
		assert.Equal(t, valid, h.String())
	})
}

func TestBioHashFromMaterial(t *testing.T) {
	t.Run("rejects short material", func(t *testing.T) {
		_, err := BioHashFromMaterial("short")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("digests are deterministic", func(t *testing.T) {
		material := "test-bio-hash-12345678901234567890"
		h1, err := BioHashFromMaterial(material)
		require.NoError(t, err)
		h2, err := BioHashFromMaterial(material)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)

		expected := sha256.Sum256([]byte(material))
		assert.Equal(t, hex.EncodeToString(expected[:]), h1.String())
	})

	t.Run("different material yields different digests", func(t *testing.T) {
		h1, err := BioHashFromMaterial("test-bio-hash-1-12345678901234567890")
		require.NoError(t, err)
		h2, err := BioHashFromMaterial("test-bio-hash-2-12345678901234567890")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})
}

// TestParseAccount_SecurityInvariants validates trust-boundary parsing rules
// for account addresses.
func TestParseAccount_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE identities;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "0x1234567890123456789012345678901234567890\x00", true},
		{"Oversized input", "0x" + strings.Repeat("a", 1000), true},

		// Edge cases
		{"Empty string", "", true},
		{"Missing prefix", "1234567890123456789012345678901234567890", true},
		{"Too short", "0x1234", true},
		{"Non-hex body", "0x123456789012345678901234567890123456789g", true},

		// Valid
		{"Valid lowercase", "0x1234567890abcdef1234567890abcdef12345678", false},
		{"Valid mixed case", "0x1234567890ABCDEF1234567890abcdef12345678", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccount(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}

	t.Run("normalizes to lower case", func(t *testing.T) {
		a, err := ParseAccount("0x1234567890ABCDEF1234567890ABCDEF12345678")
		require.NoError(t, err)
		assert.Equal(t, "0x1234567890abcdef1234567890abcdef12345678", a.String())
	})
}

func TestParseTokenID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseTokenID("")
		require.Error(t, err)
	})

	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseTokenID("0")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects negative and garbage", func(t *testing.T) {
		for _, input := range []string{"-1", "abc", "1.5", "1e9"} {
			_, err := ParseTokenID(input)
			require.Error(t, err, "input %q", input)
		}
	})

	t.Run("round-trips valid ids", func(t *testing.T) {
		id, err := ParseTokenID("42")
		require.NoError(t, err)
		assert.Equal(t, TokenID(42), id)
		assert.Equal(t, "42", id.String())
		assert.False(t, id.IsNil())
	})
}
