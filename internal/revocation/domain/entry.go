package domain

import "time"

// Entry is one revoked token. Token is the membership key; ExpiresAt is the token's
// own exp claim, after which the entry is compacted away.
type Entry struct {
	Token     string
	ExpiresAt time.Time
	RevokedAt time.Time
}

// Expired reports whether the entry no longer needs to be kept at now.
// A token expires at exactly its exp instant.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
