package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"golang.org/x/oauth2"
)

const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// NewVerifier returns a PKCE code verifier: 43 characters of the unreserved set.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// Challenge derives the S256 code challenge, base64url without padding.
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// ValidVerifier reports whether v is 43-128 characters from the unreserved set.
func ValidVerifier(v string) bool {
	if len(v) < 43 || len(v) > 128 {
		return false
	}
	for _, r := range v {
		if !strings.ContainsRune(unreserved, r) {
			return false
		}
	}
	return true
}

// randomString returns n random bytes encoded url-safe. Used for state and nonce.
func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
