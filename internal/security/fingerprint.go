package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short, stable SHA-256 prefix of a token for log lines.
// Raw bearer tokens are never written to logs.
func Fingerprint(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:6])
}
