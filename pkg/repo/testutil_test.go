package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grit-vcs/grit/pkg/object"
)

// newTestRepo initializes a repository in a temp dir with an author
// identity configured, so CommitIndex works without explicit options.
func newTestRepo(t *testing.T) (*Repo, string) {
	t.Helper()

	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := r.SetUserIdentity("Test User", "test@example.com"); err != nil {
		t.Fatalf("SetUserIdentity: %v", err)
	}
	return r, dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	abs := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func stage(t *testing.T, r *Repo, paths ...string) {
	t.Helper()

	if err := r.Add(paths); err != nil {
		t.Fatalf("Add(%v): %v", paths, err)
	}
}

func commit(t *testing.T, r *Repo, message string) object.Hash {
	t.Helper()

	res, err := r.CommitIndex(CommitOptions{Message: message})
	if err != nil {
		t.Fatalf("CommitIndex(%q): %v", message, err)
	}
	return res.Hash
}

// commitFile writes, stages, and commits a single file in one step.
func commitFile(t *testing.T, r *Repo, dir, name, content, message string) object.Hash {
	t.Helper()

	writeFile(t, dir, name, content)
	stage(t, r, name)
	return commit(t, r, message)
}

func mustResolve(t *testing.T, r *Repo, name string) object.Hash {
	t.Helper()

	h, err := r.ResolveRef(name)
	if err != nil {
		t.Fatalf("ResolveRef(%s): %v", name, err)
	}
	return h
}

func checkout(t *testing.T, r *Repo, target string) {
	t.Helper()

	if err := r.Checkout(target); err != nil {
		t.Fatalf("Checkout(%s): %v", target, err)
	}
}

func readWorktreeFile(t *testing.T, dir, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}
