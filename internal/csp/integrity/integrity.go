// Package integrity implements the optional body digest that activates
// ErrorInvalidHash, a status the wire format reserves but the base codec
// never produces on its own. Grounded on the blake2b usage in
// other_examples/0ebdce86_dblokhin-gringo__src-consensus-block.go.go, which
// hashes a block's canonical byte form with blake2b.Sum256 before
// comparing it against a stored digest.
package integrity

import (
	"golang.org/x/crypto/blake2b"

	"github.com/ocx/csp/internal/csp/status"
)

// Size is the digest length blake2b.Sum256 produces.
const Size = blake2b.Size256

// Digest computes the blake2b-256 digest of a serialized body.
func Digest(body []byte) [Size]byte {
	return blake2b.Sum256(body)
}

// Verify reports NoError when want matches the digest of body, and
// ErrorInvalidHash otherwise. No data flag requests a digest, and the
// deserialize paths in this module do not call Verify.
func Verify(body []byte, want [Size]byte) status.Status {
	got := Digest(body)
	if got != want {
		return status.ErrorInvalidHash
	}
	return status.NoError
}
