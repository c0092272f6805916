// Package cryptox holds the PKCE primitives used to start a federated sign-in.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// VerifierBytes is the entropy behind a code verifier. 32 bytes encode to
// 43 characters, the minimum length PKCE allows.
const VerifierBytes = 32

var randReader io.Reader = rand.Reader

// NewCodeVerifier returns a fresh random code verifier, base64url encoded
// without padding.
func NewCodeVerifier() (string, error) {
	b := make([]byte, VerifierBytes)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CodeChallenge derives the S256 challenge for verifier.
func CodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
