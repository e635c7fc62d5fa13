package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	dErrors "blocktrust/pkg/domain-errors"
)

// Typed domain primitives for the identity registry. Construct via the Parse
// functions at trust boundaries; direct casting bypasses validation.

// BioHash is the fixed-size cryptographic digest of a subject's biometric
// material. It is the uniqueness key of the registry: at most one active
// identity may hold a given BioHash at any time.
type BioHash [32]byte

// minMaterialLength is the minimum accepted length of raw biometric material
// before digestion. Shorter material does not carry enough entropy to act as
// an identity key.
const minMaterialLength = 32

// ParseBioHash constructs a BioHash from its hex encoding. A leading "0x" is
// accepted. The zero digest is rejected: it can never identify a subject and
// would otherwise alias the "no entry" state of the fingerprint index.
func ParseBioHash(s string) (BioHash, error) {
	var h BioHash
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return h, dErrors.New(dErrors.CodeInvalidInput, "bio hash cannot be empty")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, dErrors.New(dErrors.CodeInvalidInput, "bio hash must be hex encoded")
	}
	if len(raw) != len(h) {
		return h, dErrors.Newf(dErrors.CodeInvalidInput, "bio hash must be %d bytes", len(h))
	}
	copy(h[:], raw)
	if h.IsZero() {
		return BioHash{}, dErrors.New(dErrors.CodeInvalidInput, "bio hash cannot be the zero digest")
	}
	return h, nil
}

// BioHashFromMaterial digests raw biometric material into a BioHash. The
// registry never stores the material itself, only the digest.
func BioHashFromMaterial(material string) (BioHash, error) {
	if len(material) < minMaterialLength {
		return BioHash{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"biometric material must be at least %d characters", minMaterialLength)
	}
	return BioHash(sha256.Sum256([]byte(material))), nil
}

// MustBioHashFromMaterial is BioHashFromMaterial for fixtures; it panics on
// invalid material.
func MustBioHashFromMaterial(material string) BioHash {
	h, err := BioHashFromMaterial(material)
	if err != nil {
		panic(err)
	}
	return h
}

// String returns the bare hex encoding of the digest.
func (h BioHash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the digest is the all-zero value.
func (h BioHash) IsZero() bool {
	return h == BioHash{}
}

// Account references a holder of record: a 20-byte address in 0x-hex form.
// Accounts are normalized to lower case at parse time so equality is a plain
// string compare everywhere downstream.
type Account string

// ParseAccount validates and normalizes an account address.
func ParseAccount(s string) (Account, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account cannot be empty")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account must be 0x-prefixed")
	}
	body := s[2:]
	if len(body) != 40 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account must be a 20-byte hex address")
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account must be hex encoded")
	}
	return Account("0x" + strings.ToLower(body)), nil
}

// String returns the normalized address.
func (a Account) String() string {
	return string(a)
}

// IsNil reports whether the account is empty.
func (a Account) IsNil() bool {
	return a == ""
}

// TokenID is the opaque sequential handle of an identity record. IDs are
// assigned from 1 upward with no gaps and never reused; 0 is never a valid
// handle.
type TokenID uint64

// ParseTokenID constructs a TokenID from its decimal encoding.
func ParseTokenID(s string) (TokenID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "token id cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "token id must be a positive integer")
	}
	if v == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "token id 0 is never assigned")
	}
	return TokenID(v), nil
}

// String returns the decimal encoding.
func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsNil reports whether the handle is unassigned.
func (id TokenID) IsNil() bool {
	return id == 0
}
