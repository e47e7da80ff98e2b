package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestExpandUserPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandUserPath("~/keys/id_ed25519")
	if err != nil {
		t.Fatalf("expandUserPath: %v", err)
	}
	if got != filepath.Join(home, "keys", "id_ed25519") {
		t.Errorf("expanded = %q", got)
	}

	abs, err := expandUserPath("/etc/key")
	if err != nil {
		t.Fatalf("expandUserPath abs: %v", err)
	}
	if abs != "/etc/key" {
		t.Errorf("absolute path rewritten to %q", abs)
	}
}

func TestResolveSigningKeyPathExplicit(t *testing.T) {
	got, err := resolveSigningKeyPath("  /some/key  ")
	if err != nil {
		t.Fatalf("resolveSigningKeyPath: %v", err)
	}
	if got != "/some/key" {
		t.Errorf("resolved = %q", got)
	}
}

func TestResolveSigningKeyPathDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	// No keys in ~/.ssh at all.
	if _, err := resolveSigningKeyPath(""); err == nil {
		t.Fatal("expected failure with no default keys")
	}

	writeTestFile(t, filepath.Join(home, ".ssh", "id_rsa"), "rsa key")
	got, err := resolveSigningKeyPath("")
	if err != nil {
		t.Fatalf("resolveSigningKeyPath: %v", err)
	}
	if !strings.HasSuffix(got, filepath.Join(".ssh", "id_rsa")) {
		t.Errorf("resolved = %q", got)
	}

	// A higher-preference key wins once present.
	writeTestFile(t, filepath.Join(home, ".ssh", "id_ed25519"), "ed key")
	got, err = resolveSigningKeyPath("")
	if err != nil {
		t.Fatalf("resolveSigningKeyPath: %v", err)
	}
	if !strings.HasSuffix(got, filepath.Join(".ssh", "id_ed25519")) {
		t.Errorf("resolved = %q", got)
	}
}

func TestNewSSHCommitSignerMissingKey(t *testing.T) {
	if _, _, err := newSSHCommitSigner("/nonexistent/key"); err == nil {
		t.Fatal("expected failure for missing key file")
	}
}
