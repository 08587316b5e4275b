package security

import (
	"fmt"
	"os"
	"strings"
)

const secretFilePrefix = "file:"

// LoadSecret resolves the JWT signing secret. A value prefixed with "file:" is read
// from that path (trailing whitespace trimmed); anything else is used inline.
// Returns ErrMissingSecret when the resolved secret is empty.
func LoadSecret(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMissingSecret
	}
	if !strings.HasPrefix(s, secretFilePrefix) {
		return s, nil
	}
	path := strings.TrimSpace(strings.TrimPrefix(s, secretFilePrefix))
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read jwt secret file: %w", err)
	}
	secret := strings.TrimSpace(string(b))
	if secret == "" {
		return "", ErrMissingSecret
	}
	return secret, nil
}
