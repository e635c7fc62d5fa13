// Package wallet derives deterministic account addresses from fingerprint
// digests. The same fingerprint always yields the same address, which lets a
// holder recover their account from biometrics alone.
package wallet

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"

	"golang.org/x/crypto/pbkdf2"

	id "blocktrust/pkg/domain"
)

const (
	// derivationSalt is fixed: determinism is the point. Address secrecy
	// comes from the fingerprint digest, not the salt.
	derivationSalt = "blocktrust-deterministic"

	iterations = 100000
	keyLength  = 32
)

// Deriver turns fingerprint digests into account addresses.
type Deriver struct {
	salt string
}

// Option configures the Deriver.
type Option func(*Deriver)

// WithSalt overrides the derivation salt. Changing it produces a disjoint
// address space; only do this for isolated environments.
func WithSalt(salt string) Option {
	return func(d *Deriver) {
		d.salt = salt
	}
}

// New creates a Deriver.
func New(opts ...Option) *Deriver {
	d := &Deriver{salt: derivationSalt}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive computes the account address for a fingerprint digest.
func (d *Deriver) Derive(bioHash id.BioHash) (id.Account, error) {
	if bioHash.IsZero() {
		return "", fmt.Errorf("bio hash is zero")
	}
	return d.deriveIndexed(bioHash, 0)
}

// DeriveMultiple computes count sequential addresses for the same fingerprint,
// index 0 first. Index 0 is the account address; higher indexes serve
// applications that need per-purpose sub-accounts.
func (d *Deriver) DeriveMultiple(bioHash id.BioHash, count int) ([]id.Account, error) {
	if bioHash.IsZero() {
		return nil, fmt.Errorf("bio hash is zero")
	}
	if count < 1 {
		return nil, fmt.Errorf("count must be positive")
	}
	accounts := make([]id.Account, count)
	for i := range accounts {
		account, err := d.deriveIndexed(bioHash, i)
		if err != nil {
			return nil, err
		}
		accounts[i] = account
	}
	return accounts, nil
}

// ValidateAddressForBioHash reports whether address is the derived account of
// bioHash. Comparison is constant-time.
func (d *Deriver) ValidateAddressForBioHash(bioHash id.BioHash, address id.Account) (bool, error) {
	derived, err := d.Derive(bioHash)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(derived), []byte(address)) == 1, nil
}

func (d *Deriver) deriveIndexed(bioHash id.BioHash, index int) (id.Account, error) {
	material := bioHash.String() + ":" + d.salt
	if index > 0 {
		material += ":" + strconv.Itoa(index)
	}
	key := pbkdf2.Key([]byte(material), []byte(d.salt), iterations, keyLength, sha256.New)
	// The low 20 bytes of the stretched key form the address.
	return id.ParseAccount("0x" + hex.EncodeToString(key[keyLength-20:]))
}
