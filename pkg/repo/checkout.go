package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grit-vcs/grit/pkg/object"
)

// Checkout switches the working directory to the state of the target.
// The target can be a branch name or a revision expression.
//
// Algorithm:
//  1. Check for uncommitted changes — refuse if any exist.
//  2. Resolve target: branch name first, then revision expression.
//  3. Flatten the target commit's tree and materialize it.
//  4. Update HEAD (symbolic ref for branch, raw hash for detached).
func (r *Repo) Checkout(target string) error {
	if err := r.ensureClean(); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	release, err := r.lockMutation()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	defer release()

	isBranch := false
	var targetHash object.Hash

	branchHash, err := r.ResolveRef("refs/heads/" + target)
	if err == nil {
		targetHash = branchHash
		isBranch = true
	} else {
		targetHash, err = r.RevParseCommit(target)
		if err != nil {
			return fmt.Errorf("checkout %q: %w", target, err)
		}
	}

	files, err := r.flattenCommitTree(targetHash)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.materializeWorktree(files); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	if isBranch {
		if err := r.setHeadSymbolic("refs/heads/" + target); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	} else {
		if err := r.setHeadDetached(targetHash); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	}

	return nil
}

// materializeWorktree replaces tracked working-tree content with the given
// file set and rebuilds the staging index to match. Untracked files are left
// alone.
func (r *Repo) materializeWorktree(files map[string]TreeFileEntry) error {
	// Remove tracked files not present in the target.
	for path := range r.trackedFiles() {
		if _, keep := files[path]; keep {
			continue
		}
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %q: %w", path, err)
		}
		removeEmptyParents(filepath.Dir(absPath), r.RootDir)
	}

	// Write target files and rebuild the index from fresh stat data.
	stg := &Staging{Entries: make(map[string]*StagingEntry, len(files))}
	for path, f := range files {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return fmt.Errorf("mkdir for %q: %w", path, err)
		}

		blob, err := r.Store.ReadBlob(f.BlobHash)
		if err != nil {
			return fmt.Errorf("read blob for %q: %w", path, err)
		}
		if err := os.WriteFile(absPath, blob.Data, filePermFromMode(f.Mode)); err != nil {
			return fmt.Errorf("write %q: %w", path, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("stat %q: %w", path, err)
		}
		stg.Entries[path] = &StagingEntry{
			Path:     path,
			BlobHash: f.BlobHash,
			Mode:     normalizeFileMode(f.Mode),
			ModTime:  info.ModTime().UnixNano(),
			Size:     info.Size(),
		}
	}
	return r.WriteStaging(stg)
}

// ensureClean checks that the working tree has no uncommitted changes.
func (r *Repo) ensureClean() error {
	report, err := r.Status()
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}
	for _, e := range report.Entries {
		if e.IndexStatus != StatusClean || e.WorkStatus != StatusClean {
			return fmt.Errorf("%w (file %q)", ErrWorktreeNotClean, e.Path)
		}
	}
	return nil
}

// trackedFiles returns a set of all currently tracked file paths. It merges
// paths from the HEAD tree and the staging index.
func (r *Repo) trackedFiles() map[string]bool {
	files := make(map[string]bool)

	for path := range r.headTreeEntries() {
		files[path] = true
	}

	stg, err := r.ReadStaging()
	if err == nil {
		for path := range stg.Entries {
			files[path] = true
		}
	}

	return files
}
