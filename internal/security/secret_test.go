package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSecret_Inline(t *testing.T) {
	got, err := LoadSecret("  super-secret ")
	if err != nil {
		t.Fatalf("LoadSecret: %v", err)
	}
	if got != "super-secret" {
		t.Errorf("secret = %q, want %q", got, "super-secret")
	}
}

func TestLoadSecret_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n"} {
		if _, err := LoadSecret(in); !errors.Is(err, ErrMissingSecret) {
			t.Errorf("LoadSecret(%q): want ErrMissingSecret, got %v", in, err)
		}
	}
}

func TestLoadSecret_FilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt.secret")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := LoadSecret("file:" + path)
	if err != nil {
		t.Fatalf("LoadSecret: %v", err)
	}
	if got != "from-file" {
		t.Errorf("secret = %q, want %q", got, "from-file")
	}
}

func TestLoadSecret_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt.secret")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadSecret("file:" + path); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("LoadSecret empty file: want ErrMissingSecret, got %v", err)
	}
}

func TestLoadSecret_MissingFile(t *testing.T) {
	_, err := LoadSecret("file:" + filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("LoadSecret missing file: want error")
	}
	if errors.Is(err, ErrMissingSecret) {
		t.Errorf("missing file should surface the read error, got %v", err)
	}
}
