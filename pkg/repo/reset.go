package repo

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grit-vcs/grit/pkg/object"
)

// ResetMode selects how far a full reset reaches.
type ResetMode string

const (
	ResetSoft  ResetMode = "soft"  // move HEAD only
	ResetMixed ResetMode = "mixed" // move HEAD and rebuild the index
	ResetHard  ResetMode = "hard"  // move HEAD, rebuild index and working tree
)

// ResetOptions control a reset. When Paths is non-empty the reset is
// path-scoped: it restores the matched index entries from the target commit
// and never moves HEAD or touches the working tree, regardless of Mode.
type ResetOptions struct {
	Mode   ResetMode
	Target string // revision expression; defaults to "HEAD"
	Paths  []string
}

// ResetReport describes what a reset did.
type ResetReport struct {
	Mode   ResetMode
	Target object.Hash
	Paths  []string // matched paths for a path-scoped reset
}

// Reset moves the repository to the target commit according to the mode.
//
// Soft moves HEAD (or the branch HEAD is on) only. Mixed additionally
// rebuilds the index from the target tree, leaving the working tree alone.
// Hard also materializes the target tree on disk, discarding local changes.
// Mixed and hard resets abandon any merge in progress.
func (r *Repo) Reset(opts ResetOptions) (*ResetReport, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ResetMixed
	}
	switch mode {
	case ResetSoft, ResetMixed, ResetHard:
	default:
		return nil, fmt.Errorf("reset: unknown mode %q", opts.Mode)
	}

	target := opts.Target
	if target == "" {
		target = "HEAD"
	}
	targetHash, err := r.RevParseCommit(target)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	release, err := r.lockMutation()
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	defer release()

	if len(opts.Paths) > 0 {
		matched, err := r.resetPaths(targetHash, opts.Paths)
		if err != nil {
			return nil, fmt.Errorf("reset: %w", err)
		}
		return &ResetReport{Mode: mode, Target: targetHash, Paths: matched}, nil
	}

	if err := r.moveHead(targetHash, "reset: moving to "+targetHash.Short()); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	if mode == ResetSoft {
		return &ResetReport{Mode: mode, Target: targetHash}, nil
	}

	files, err := r.flattenCommitTree(targetHash)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	if mode == ResetHard {
		if err := r.materializeWorktree(files); err != nil {
			return nil, fmt.Errorf("reset: %w", err)
		}
	} else {
		// Mixed: index from target tree with stat fields forcing a content
		// check so status hash-compares against the untouched worktree.
		stg := &Staging{Entries: make(map[string]*StagingEntry, len(files))}
		for p, f := range files {
			stg.Entries[p] = &StagingEntry{
				Path:     p,
				BlobHash: f.BlobHash,
				Mode:     normalizeFileMode(f.Mode),
				ModTime:  0,
				Size:     -1,
			}
		}
		if err := r.WriteStaging(stg); err != nil {
			return nil, fmt.Errorf("reset: %w", err)
		}
	}

	// A full mixed or hard reset abandons any merge in progress.
	if err := r.clearMergeState(); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	return &ResetReport{Mode: mode, Target: targetHash}, nil
}

// moveHead points the current branch (or HEAD itself when detached) at the
// target commit.
func (r *Repo) moveHead(target object.Hash, reason string) error {
	head, err := r.Head()
	if err != nil {
		return err
	}
	if strings.HasPrefix(head, "refs/") {
		return r.updateRefCAS(head, target, reason)
	}
	if err := r.setHeadDetached(target); err != nil {
		return err
	}
	return r.appendReflog("HEAD", object.Hash(head), target, reason)
}

// resetPaths restores the matched index entries from the target commit's
// tree. Paths present in the target are restored; paths absent from it are
// removed from the index. The working tree is untouched.
func (r *Repo) resetPaths(targetHash object.Hash, paths []string) ([]string, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, err
	}
	targetFiles, err := r.flattenCommitTree(targetHash)
	if err != nil {
		return nil, err
	}

	matched, err := r.matchResetPaths(paths, stg, targetFiles)
	if err != nil {
		return nil, err
	}

	for _, p := range matched {
		if f, ok := targetFiles[p]; ok {
			// Zero stat fields force status to hash-check this path, so a
			// differing worktree shows up immediately.
			stg.Entries[p] = &StagingEntry{
				Path:     p,
				BlobHash: f.BlobHash,
				Mode:     normalizeFileMode(f.Mode),
				ModTime:  0,
				Size:     -1,
			}
			continue
		}
		delete(stg.Entries, p)
	}

	if err := r.WriteStaging(stg); err != nil {
		return nil, err
	}
	return matched, nil
}

// matchResetPaths expands the given path specs against the union of index
// and target-tree paths. A spec matches exactly, as a directory prefix, or
// as a glob pattern.
func (r *Repo) matchResetPaths(paths []string, stg *Staging, target map[string]TreeFileEntry) ([]string, error) {
	all := make(map[string]struct{}, len(stg.Entries)+len(target))
	for p := range stg.Entries {
		all[p] = struct{}{}
	}
	for p := range target {
		all[p] = struct{}{}
	}

	matched := make(map[string]struct{})
	for _, raw := range paths {
		rel, err := r.repoRelPath(raw)
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(path.Clean(strings.TrimSpace(rel)))
		if rel == "" || rel == "." {
			for p := range all {
				matched[p] = struct{}{}
			}
			continue
		}

		found := false
		if _, ok := all[rel]; ok {
			matched[rel] = struct{}{}
			found = true
		}
		prefix := rel + "/"
		for p := range all {
			if strings.HasPrefix(p, prefix) {
				matched[p] = struct{}{}
				found = true
				continue
			}
			if ok, _ := path.Match(rel, p); ok {
				matched[p] = struct{}{}
				found = true
			}
		}

		if !found {
			return nil, fmt.Errorf("pathspec %q did not match any index or target entries", raw)
		}
	}

	return sortedPathSet(matched), nil
}

func sortedPathSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
