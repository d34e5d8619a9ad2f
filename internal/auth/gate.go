// Package auth implements the credential gate that admits an identity into
// a session. The gate only answers allow/deny; where the expected secrets
// come from is a CredentialSource so the lookup can be replaced without
// touching the record store or the session navigator.
package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// CredentialSource verifies a secret presented for an identity.
// Implementations must return false for unknown identities.
type CredentialSource interface {
	Verify(identity string, secret []byte) bool
}

// StaticTable is a fixed identity -> plain secret table. Matching is exact
// and case-sensitive; secrets are held unhashed.
type StaticTable map[string]string

func (t StaticTable) Verify(identity string, secret []byte) bool {
	expected, ok := t[identity]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), secret) == 1
}

// BcryptTable is an identity -> bcrypt hash table.
type BcryptTable map[string]string

// dummyHash is compared against for unknown identities so the response
// time does not reveal whether the identity exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("patientkeeper"), bcrypt.MinCost)

func (t BcryptTable) Verify(identity string, secret []byte) bool {
	hash, ok := t[identity]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, secret)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), secret) == nil
}

// NewSource picks the table type for a configured credential map.
func NewSource(credentials map[string]string, hashed bool) CredentialSource {
	if hashed {
		return BcryptTable(credentials)
	}
	return StaticTable(credentials)
}

// Gate authorizes identities against a CredentialSource.
type Gate struct {
	src CredentialSource
}

func NewGate(src CredentialSource) *Gate {
	return &Gate{src: src}
}

// Authorize reports whether identity is known and secret matches.
func (g *Gate) Authorize(identity string, secret []byte) bool {
	return g.src.Verify(identity, secret)
}

// Check is Authorize with an error result: common.ErrInvalidCredential on deny.
func (g *Gate) Check(identity string, secret []byte) error {
	if !g.Authorize(identity, secret) {
		return fmt.Errorf("login %q: %w", identity, common.ErrInvalidCredential)
	}
	return nil
}
