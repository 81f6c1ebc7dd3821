// Package commitment implements the hash commit-reveal scheme used by
// prediction rounds.
//
// A participant publishes Commit(guess, salt) before the reveal phase and
// discloses the plaintext pair afterwards. Verification re-derives the
// digest and compares it against the published hash, so nobody can change
// their guess after seeing the target.
package commitment

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// defaultSaltLength is the number of random bytes in a generated salt.
const defaultSaltLength = 32

// Commit returns the lowercase hex SHA-256 digest of message||salt.
// The salt is mandatory: without it a short guess could be brute-forced
// from the published hash before the reveal.
func Commit(message, salt string) (string, error) {
	if salt == "" {
		return "", ErrEmptySalt
	}
	h := sha256.New()
	h.Write([]byte(message))
	h.Write([]byte(salt))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify recomputes the commitment for message and salt and compares it
// against expected. Inputs are public at verification time, so a plain
// comparison is sufficient.
func Verify(message, salt, expected string) bool {
	calculated, err := Commit(message, salt)
	if err != nil {
		return false
	}
	return calculated == expected
}

// GenerateSalt returns a random hex-encoded salt suitable for a commitment.
func GenerateSalt() string {
	buf := make([]byte, defaultSaltLength)
	// rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
