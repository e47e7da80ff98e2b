package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/grit-vcs/grit/pkg/object"
)

// ConflictSide is one of the three versions participating in a conflict.
// A nil side means the file was absent there.
type ConflictSide struct {
	BlobHash object.Hash
	Mode     string
}

// ConflictEntry describes one conflicted path with its ancestor, ours, and
// theirs versions.
type ConflictEntry struct {
	Path     string
	Ancestor *ConflictSide
	Ours     *ConflictSide
	Theirs   *ConflictSide
}

// ResolutionStrategy selects how a conflicted path is resolved.
type ResolutionStrategy string

const (
	ResolveOurs   ResolutionStrategy = "ours"
	ResolveTheirs ResolutionStrategy = "theirs"
	ResolveCustom ResolutionStrategy = "custom"
)

// ListConflicts returns the conflicted index entries, sorted by path. The
// list is empty outside a merge.
func (r *Repo) ListConflicts() ([]ConflictEntry, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}

	var out []ConflictEntry
	for path, se := range stg.Entries {
		if !se.Conflict {
			continue
		}
		entry := ConflictEntry{Path: path}
		if se.BaseBlobHash != "" {
			entry.Ancestor = &ConflictSide{BlobHash: se.BaseBlobHash, Mode: normalizeFileMode(se.Mode)}
		}
		if se.OursBlobHash != "" {
			entry.Ours = &ConflictSide{BlobHash: se.OursBlobHash, Mode: normalizeFileMode(se.OursMode)}
		}
		if se.TheirsBlobHash != "" {
			entry.Theirs = &ConflictSide{BlobHash: se.TheirsBlobHash, Mode: normalizeFileMode(se.TheirsMode)}
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// ResolveConflict settles one conflicted path. "ours" and "theirs" take the
// corresponding side's content; "custom" takes the supplied content. The
// worktree file and the index entry are updated together, so a follow-up
// commit sees the path as resolved. Taking a side that deleted the file
// removes it.
func (r *Repo) ResolveConflict(path string, strategy ResolutionStrategy, content []byte) error {
	release, err := r.lockMutation()
	if err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}
	defer release()

	relPath, err := r.repoRelPath(path)
	if err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}
	se, ok := stg.Entries[relPath]
	if !ok || !se.Conflict {
		return fmt.Errorf("resolve conflict %q: %w", relPath, ErrPathNotConflicted)
	}

	var blobHash object.Hash
	var mode string
	switch strategy {
	case ResolveOurs:
		blobHash = se.OursBlobHash
		mode = normalizeFileMode(se.OursMode)
	case ResolveTheirs:
		blobHash = se.TheirsBlobHash
		mode = normalizeFileMode(se.TheirsMode)
	case ResolveCustom:
		h, err := r.Store.WriteBlob(&object.Blob{Data: content})
		if err != nil {
			return fmt.Errorf("resolve conflict %q: write blob: %w", relPath, err)
		}
		blobHash = h
		mode = normalizeFileMode(se.Mode)
	default:
		return fmt.Errorf("resolve conflict %q: unknown strategy %q", relPath, strategy)
	}

	absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))

	// Side absent: the resolution is a delete.
	if blobHash == "" {
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("resolve conflict %q: remove: %w", relPath, err)
		}
		removeEmptyParents(filepath.Dir(absPath), r.RootDir)
		delete(stg.Entries, relPath)
		return r.WriteStaging(stg)
	}

	blob, err := r.Store.ReadBlob(blobHash)
	if err != nil {
		return fmt.Errorf("resolve conflict %q: read blob: %w", relPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("resolve conflict %q: mkdir: %w", relPath, err)
	}
	if err := os.WriteFile(absPath, blob.Data, filePermFromMode(mode)); err != nil {
		return fmt.Errorf("resolve conflict %q: write: %w", relPath, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("resolve conflict %q: stat: %w", relPath, err)
	}

	stg.Entries[relPath] = &StagingEntry{
		Path:     relPath,
		BlobHash: blobHash,
		Mode:     mode,
		ModTime:  info.ModTime().UnixNano(),
		Size:     info.Size(),
	}
	return r.WriteStaging(stg)
}
