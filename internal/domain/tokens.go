package domain

import "time"

// Tokens is the persisted OAuth state of a signed-in customer.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	IDToken      string `json:"idToken"`
	// ExpiresAt is a unix timestamp in milliseconds.
	ExpiresAt int64 `json:"expiresAt"`
}

// ExpiresIn reports the time left before expiry relative to now.
func (t Tokens) ExpiresIn(now time.Time) time.Duration {
	return time.Duration(t.ExpiresAt-now.UnixMilli()) * time.Millisecond
}

// NeedsRefresh is true when fewer than buffer remain before expiry.
func (t Tokens) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	return t.ExpiresIn(now) < buffer
}
