package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grit-vcs/grit/pkg/object"
)

// CreateBranch creates a new branch pointing at the given target hash.
// It writes the hash to .grit/refs/heads/<name>. Returns an error if the
// branch already exists.
func (r *Repo) CreateBranch(name string, target object.Hash) error {
	refName := "refs/heads/" + name
	if err := r.UpdateRefCAS(refName, target, ""); err != nil {
		if errors.Is(err, ErrRefCASMismatch) {
			return fmt.Errorf("create branch: branch %q already exists", name)
		}
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// DeleteBranch removes the branch ref .grit/refs/heads/<name>.
// Returns an error if the branch is the current branch or does not exist.
func (r *Repo) DeleteBranch(name string) error {
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}

	if err := r.DeleteRef("refs/heads/" + name); err != nil {
		if errors.Is(err, ErrRefNotFound) {
			return fmt.Errorf("delete branch %q: %w", name, ErrBranchNotFound)
		}
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	return nil
}

// ListBranches returns the branch names under refs/heads/, sorted
// alphabetically.
func (r *Repo) ListBranches() ([]string, error) {
	refs, err := r.ListRefs("refs/heads")
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, strings.TrimPrefix(ref.Name, "refs/heads/"))
	}
	return names, nil
}
