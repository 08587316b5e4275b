package security

import "testing"

func TestFingerprint_Consistent(t *testing.T) {
	a := Fingerprint("token-1")
	b := Fingerprint("token-1")
	if a != b {
		t.Errorf("Fingerprint not consistent: %q != %q", a, b)
	}
	if len(a) != 12 {
		t.Errorf("fingerprint length = %d, want 12", len(a))
	}
}

func TestFingerprint_DifferentTokens(t *testing.T) {
	if Fingerprint("token-1") == Fingerprint("token-2") {
		t.Error("Fingerprint produced same value for different tokens")
	}
}
