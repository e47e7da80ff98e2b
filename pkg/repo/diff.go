package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/textdiff"
)

// DeltaStatus classifies a single changed path in a diff.
type DeltaStatus string

const (
	DeltaAdded      DeltaStatus = "added"
	DeltaDeleted    DeltaStatus = "deleted"
	DeltaModified   DeltaStatus = "modified"
	DeltaRenamed    DeltaStatus = "renamed"
	DeltaTypeChange DeltaStatus = "typechange" // content same, file mode changed
	DeltaConflicted DeltaStatus = "conflicted"
	DeltaUnreadable DeltaStatus = "unreadable"
)

// DiffDelta describes one changed path, with per-line hunks for text files.
// Binary deltas carry byte sizes of both sides instead of hunks.
type DiffDelta struct {
	Path      string // new path (or old path for deletions)
	OldPath   string // set for renames
	Status    DeltaStatus
	Binary    bool
	OldSize   int // bytes on the old side; binary deltas only
	NewSize   int // bytes on the new side; binary deltas only
	Additions int
	Deletions int
	Hunks     []textdiff.Hunk
}

// DiffResult aggregates the deltas of one comparison.
type DiffResult struct {
	Deltas       []DiffDelta
	FilesChanged int
	Additions    int
	Deletions    int
}

// DiffOptions select the two sides to compare.
//
// Staged compares HEAD against the index. Otherwise From/To name trees (any
// revision expression): both set compares the two trees; only From set
// compares that tree against the working directory; neither set compares
// HEAD against the working directory. An unborn HEAD stands in as the empty
// tree.
type DiffOptions struct {
	From         string
	To           string
	Staged       bool
	PathFilter   string // path prefix; empty means everything
	ContextLines int    // context per hunk; defaults to 3
}

const diffDefaultContext = 3

// diffFile is one side's version of a path, with lazily loaded content.
type diffFile struct {
	blobHash   object.Hash
	mode       string
	conflicted bool
	load       func() ([]byte, error)
}

// Diff compares two snapshots of the repository and returns per-file deltas
// with line hunks. Swapping the two sides yields the mirror image: additions
// and deletions trade places.
func (r *Repo) Diff(opts DiffOptions) (*DiffResult, error) {
	if opts.Staged && (opts.From != "" || opts.To != "") {
		return nil, fmt.Errorf("diff: staged cannot be combined with explicit revisions")
	}
	context := opts.ContextLines
	if context <= 0 {
		context = diffDefaultContext
	}

	var fromFiles, toFiles map[string]diffFile
	var err error
	switch {
	case opts.Staged:
		fromFiles, err = r.diffTreeSide("HEAD", true)
		if err != nil {
			return nil, err
		}
		toFiles, err = r.diffIndexSide()
		if err != nil {
			return nil, err
		}
	case opts.From != "" && opts.To != "":
		fromFiles, err = r.diffTreeSide(opts.From, false)
		if err != nil {
			return nil, err
		}
		toFiles, err = r.diffTreeSide(opts.To, false)
		if err != nil {
			return nil, err
		}
	case opts.From != "":
		fromFiles, err = r.diffTreeSide(opts.From, false)
		if err != nil {
			return nil, err
		}
		toFiles, err = r.diffWorktreeSide()
		if err != nil {
			return nil, err
		}
	case opts.To != "":
		return nil, fmt.Errorf("diff: To requires From")
	default:
		fromFiles, err = r.diffTreeSide("HEAD", true)
		if err != nil {
			return nil, err
		}
		toFiles, err = r.diffWorktreeSide()
		if err != nil {
			return nil, err
		}
	}

	return r.computeDeltas(fromFiles, toFiles, opts.PathFilter, context)
}

// diffTreeSide flattens a revision's tree into diff files. With
// allowMissing, an unresolvable revision (unborn HEAD) yields the empty
// tree.
func (r *Repo) diffTreeSide(expr string, allowMissing bool) (map[string]diffFile, error) {
	treeHash, err := r.RevParseTree(expr)
	if err != nil {
		if allowMissing {
			return map[string]diffFile{}, nil
		}
		return nil, fmt.Errorf("diff: %w", err)
	}
	entries, err := r.FlattenTree(treeHash)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	files := make(map[string]diffFile, len(entries))
	for _, e := range entries {
		blobHash := e.BlobHash
		files[e.Path] = diffFile{
			blobHash: blobHash,
			mode:     normalizeFileMode(e.Mode),
			load:     func() ([]byte, error) { return r.readBlobData(blobHash) },
		}
	}
	return files, nil
}

// diffIndexSide exposes the staging area as diff files. Conflicted entries
// are flagged so the delta can carry DeltaConflicted.
func (r *Repo) diffIndexSide() (map[string]diffFile, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	files := make(map[string]diffFile, len(stg.Entries))
	for path, se := range stg.Entries {
		blobHash := se.BlobHash
		files[path] = diffFile{
			blobHash:   blobHash,
			mode:       normalizeFileMode(se.Mode),
			conflicted: se.Conflict,
			load:       func() ([]byte, error) { return r.readBlobData(blobHash) },
		}
	}
	return files, nil
}

// diffWorktreeSide enumerates working-directory files. Content hashes are
// computed up front so rename and equality checks work uniformly; unreadable
// files surface later when content is needed.
func (r *Repo) diffWorktreeSide() (map[string]diffFile, error) {
	report, err := r.worktreePaths()
	if err != nil {
		return nil, err
	}

	files := make(map[string]diffFile, len(report))
	for _, rel := range report {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(rel))
		info, err := os.Stat(absPath)
		if err != nil {
			files[rel] = diffFile{
				mode: object.TreeModeFile,
				load: func() ([]byte, error) { return nil, err },
			}
			continue
		}
		data, readErr := os.ReadFile(absPath)
		if readErr != nil {
			files[rel] = diffFile{
				mode: modeFromFileInfo(info),
				load: func() ([]byte, error) { return nil, readErr },
			}
			continue
		}
		content := data
		files[rel] = diffFile{
			blobHash: object.HashObject(object.TypeBlob, content),
			mode:     modeFromFileInfo(info),
			load:     func() ([]byte, error) { return content, nil },
		}
	}
	return files, nil
}

// worktreePaths lists the non-ignored files under the repository root.
func (r *Repo) worktreePaths() ([]string, error) {
	ic := NewIgnoreChecker(r.RootDir)
	var paths []string
	err := filepath.Walk(r.RootDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ic.IsIgnored(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("diff: walk worktree: %w", err)
	}
	return paths, nil
}

func (r *Repo) computeDeltas(from, to map[string]diffFile, pathFilter string, context int) (*DiffResult, error) {
	paths := make([]string, 0, len(from)+len(to))
	seen := make(map[string]bool)
	for p := range from {
		if !seen[p] && matchDiffFilter(p, pathFilter) {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for p := range to {
		if !seen[p] && matchDiffFilter(p, pathFilter) {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	// First pass: classify.
	type candidate struct {
		path   string
		status DeltaStatus
		oldF   diffFile
		newF   diffFile
	}
	var candidates []candidate
	for _, p := range paths {
		oldF, inFrom := from[p]
		newF, inTo := to[p]

		switch {
		case inFrom && inTo:
			if newF.conflicted {
				candidates = append(candidates, candidate{p, DeltaConflicted, oldF, newF})
				continue
			}
			if oldF.blobHash == newF.blobHash {
				if oldF.mode != newF.mode {
					candidates = append(candidates, candidate{p, DeltaTypeChange, oldF, newF})
				}
				continue
			}
			candidates = append(candidates, candidate{p, DeltaModified, oldF, newF})
		case inFrom:
			candidates = append(candidates, candidate{p, DeltaDeleted, oldF, diffFile{}})
		default:
			status := DeltaAdded
			if newF.conflicted {
				status = DeltaConflicted
			}
			candidates = append(candidates, candidate{p, status, diffFile{}, newF})
		}
	}

	// Rename pass: pair additions and deletions with identical content.
	addedByHash := make(map[object.Hash][]int)
	deletedByHash := make(map[object.Hash][]int)
	for i, c := range candidates {
		if c.status == DeltaAdded && c.newF.blobHash != "" {
			addedByHash[c.newF.blobHash] = append(addedByHash[c.newF.blobHash], i)
		}
		if c.status == DeltaDeleted && c.oldF.blobHash != "" {
			deletedByHash[c.oldF.blobHash] = append(deletedByHash[c.oldF.blobHash], i)
		}
	}
	renamed := make(map[int]int) // added index -> deleted index
	consumed := make(map[int]bool)
	for h, addIdxs := range addedByHash {
		delIdxs := deletedByHash[h]
		n := len(addIdxs)
		if len(delIdxs) < n {
			n = len(delIdxs)
		}
		for i := 0; i < n; i++ {
			renamed[addIdxs[i]] = delIdxs[i]
			consumed[delIdxs[i]] = true
		}
	}

	result := &DiffResult{}
	for i, c := range candidates {
		if consumed[i] {
			continue
		}

		delta := DiffDelta{Path: c.path, Status: c.status}
		if delIdx, ok := renamed[i]; ok {
			delta.Status = DeltaRenamed
			delta.OldPath = candidates[delIdx].path
			result.Deltas = append(result.Deltas, delta)
			result.FilesChanged++
			continue
		}

		if c.status != DeltaTypeChange {
			if err := r.fillDeltaContent(&delta, c.oldF, c.newF, context); err != nil {
				return nil, err
			}
		}
		result.Deltas = append(result.Deltas, delta)
		result.FilesChanged++
		result.Additions += delta.Additions
		result.Deletions += delta.Deletions
	}

	return result, nil
}

// fillDeltaContent loads both sides, probes for binary content, and computes
// hunks and line counts for text files.
func (r *Repo) fillDeltaContent(delta *DiffDelta, oldF, newF diffFile, context int) error {
	var oldData, newData []byte
	var err error
	if oldF.load != nil {
		oldData, err = oldF.load()
		if err != nil {
			delta.Status = DeltaUnreadable
			return nil
		}
	}
	if newF.load != nil {
		newData, err = newF.load()
		if err != nil {
			delta.Status = DeltaUnreadable
			return nil
		}
	}

	if isBinaryData(oldData) || isBinaryData(newData) {
		delta.Binary = true
		delta.OldSize = len(oldData)
		delta.NewSize = len(newData)
		return nil
	}

	hunks := textdiff.Hunks(textdiff.Lines(string(oldData)), textdiff.Lines(string(newData)), context)
	delta.Hunks = hunks
	delta.Additions, delta.Deletions = textdiff.Counts(hunks)
	return nil
}

// isBinaryData probes the first 8KB for a NUL byte or invalid UTF-8.
func isBinaryData(data []byte) bool {
	probe := data
	truncated := false
	if len(probe) > 8192 {
		probe = probe[:8192]
		truncated = true
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return true
	}
	if truncated {
		// Drop a rune cut in half at the probe boundary.
		for len(probe) > 0 && !utf8.RuneStart(probe[len(probe)-1]) {
			probe = probe[:len(probe)-1]
		}
		if len(probe) > 0 && probe[len(probe)-1] >= utf8.RuneSelf {
			probe = probe[:len(probe)-1]
		}
	}
	return !utf8.Valid(probe)
}

func matchDiffFilter(path, filter string) bool {
	if filter == "" {
		return true
	}
	filter = strings.TrimSuffix(filepath.ToSlash(filter), "/")
	return path == filter || strings.HasPrefix(path, filter+"/") || strings.HasPrefix(path, filter)
}
