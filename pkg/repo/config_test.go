package repo

import (
	"testing"
)

func TestUserIdentityRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Fresh repo has no identity.
	id, err := r.UserIdentity()
	if err != nil {
		t.Fatalf("UserIdentity: %v", err)
	}
	if id.String() != "" {
		t.Errorf("identity = %q, want empty", id.String())
	}

	if err := r.SetUserIdentity("Ada Lovelace", "ada@example.com"); err != nil {
		t.Fatalf("SetUserIdentity: %v", err)
	}
	id, err = r.UserIdentity()
	if err != nil {
		t.Fatalf("UserIdentity: %v", err)
	}
	if id.String() != "Ada Lovelace <ada@example.com>" {
		t.Errorf("identity = %q", id.String())
	}

	// Reopen and read back from disk.
	r2, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err = r2.UserIdentity()
	if err != nil {
		t.Fatalf("UserIdentity: %v", err)
	}
	if id.Name != "Ada Lovelace" || id.Email != "ada@example.com" {
		t.Errorf("identity = %+v", id)
	}
}

func TestIdentityString(t *testing.T) {
	if got := (Identity{}).String(); got != "" {
		t.Errorf("empty identity = %q", got)
	}
	if got := (Identity{Name: "Solo"}).String(); got != "Solo" {
		t.Errorf("name-only identity = %q", got)
	}
	if got := (Identity{Name: "A B", Email: "a@b"}).String(); got != "A B <a@b>" {
		t.Errorf("full identity = %q", got)
	}
}

func TestSetUserIdentityValidation(t *testing.T) {
	r, _ := newTestRepo(t)

	if err := r.SetUserIdentity("", "x@example.com"); err == nil {
		t.Error("empty name should fail")
	}
	if err := r.SetUserIdentity("  ", ""); err == nil {
		t.Error("blank name should fail")
	}
}

func TestRemotesRoundTrip(t *testing.T) {
	r, _ := newTestRepo(t)

	if _, err := r.RemoteURL("origin"); err == nil {
		t.Error("unset remote should fail")
	}

	if err := r.SetRemote("origin", "ssh://grit@example.com/repo"); err != nil {
		t.Fatalf("SetRemote: %v", err)
	}
	url, err := r.RemoteURL("origin")
	if err != nil {
		t.Fatalf("RemoteURL: %v", err)
	}
	if url != "ssh://grit@example.com/repo" {
		t.Errorf("url = %q", url)
	}

	// Updating overwrites, and the identity survives alongside.
	if err := r.SetRemote("origin", "https://example.com/repo.git"); err != nil {
		t.Fatalf("SetRemote update: %v", err)
	}
	url, _ = r.RemoteURL("origin")
	if url != "https://example.com/repo.git" {
		t.Errorf("updated url = %q", url)
	}
	id, _ := r.UserIdentity()
	if id.Name != "Test User" {
		t.Errorf("identity lost after remote write: %+v", id)
	}
}

func TestSetRemoteValidation(t *testing.T) {
	r, _ := newTestRepo(t)

	if err := r.SetRemote("", "url"); err == nil {
		t.Error("empty remote name should fail")
	}
	if err := r.SetRemote("origin", " "); err == nil {
		t.Error("empty remote URL should fail")
	}
}
