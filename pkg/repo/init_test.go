package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestInitCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, sub := range []string{
		".grit",
		".grit/objects",
		".grit/refs/heads",
		".grit/refs/tags",
		".grit/logs/refs/heads",
	} {
		if st, err := os.Stat(filepath.Join(dir, sub)); err != nil || !st.IsDir() {
			t.Errorf("missing directory %s: %v", sub, err)
		}
	}

	head, err := os.ReadFile(filepath.Join(dir, ".grit", "HEAD"))
	if err != nil {
		t.Fatalf("read HEAD: %v", err)
	}
	if string(head) != "ref: refs/heads/main\n" {
		t.Errorf("HEAD = %q", head)
	}

	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "main" {
		t.Errorf("branch = %q, want main", branch)
	}
}

func TestOpenFromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}

	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r, err := Open(sub)
	if err != nil {
		t.Fatalf("Open from subdir: %v", err)
	}
	if r.RootDir != dir {
		t.Errorf("RootDir = %q, want %q", r.RootDir, dir)
	}
}

func TestOpenNotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	if !errors.Is(err, ErrNotRepository) {
		t.Fatalf("err = %v, want ErrNotRepository", err)
	}
}

func TestDetached(t *testing.T) {
	r, dir := newTestRepo(t)
	h := commitFile(t, r, dir, "f.txt", "one\n", "initial")

	detached, err := r.Detached()
	if err != nil {
		t.Fatalf("Detached: %v", err)
	}
	if detached {
		t.Fatal("fresh repo should be on a branch")
	}

	checkout(t, r, string(h))
	detached, err = r.Detached()
	if err != nil {
		t.Fatalf("Detached after hash checkout: %v", err)
	}
	if !detached {
		t.Fatal("checkout of a raw hash should detach HEAD")
	}
}
