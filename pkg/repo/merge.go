package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/textdiff"
)

// MergeKind identifies how a merge concluded.
type MergeKind string

const (
	MergeUpToDate    MergeKind = "up-to-date"   // theirs already reachable from HEAD
	MergeFastForward MergeKind = "fast-forward" // HEAD moved to theirs, no new commit
	MergeCommitted   MergeKind = "merged"       // clean merge, two-parent commit created
	MergeStaged      MergeKind = "staged"       // clean merge left uncommitted (no-commit)
	MergeConflicted  MergeKind = "conflicts"    // merge stopped on conflicts
)

// MergeOptions tune merge behavior.
type MergeOptions struct {
	Message  string // merge commit message; defaults to "Merge branch '<name>'"
	NoCommit bool   // stop before the merge commit even when clean
	NoFF     bool   // always create a merge commit, never fast-forward
}

// FileMergeReport records the merge outcome for a single file.
type FileMergeReport struct {
	Path          string
	Status        string // "clean", "conflict", "added", "deleted"
	ConflictCount int
}

// MergeReport is the overall result of a repository-level merge.
type MergeReport struct {
	Kind           MergeKind
	Branch         string
	Files          []FileMergeReport
	HasConflicts   bool
	TotalConflicts int
	MergeCommit    object.Hash // set when a merge commit was created
}

type mergeConflictState struct {
	path       string
	baseHash   object.Hash
	oursHash   object.Hash
	theirsHash object.Hash
	oursMode   string
	theirsMode string
	mode       string
}

type mergedFile struct {
	path    string
	content []byte
	mode    string
}

// Merge merges the named branch into the current HEAD.
//
// Preconditions: HEAD must be on a branch with at least one commit, the
// branch must exist, and no merge may already be in progress.
//
// If theirs is already reachable from HEAD the merge is a no-op. If HEAD is
// the merge base (and NoFF is unset) the branch ref fast-forwards. Otherwise
// a three-way merge runs file by file against the merge base; a clean result
// is committed with two parents (unless NoCommit), and conflicts leave the
// repository in merge-in-progress state with conflict markers on disk and
// three-way entries in the index.
func (r *Repo) Merge(branchName string, opts MergeOptions) (*MergeReport, error) {
	release, err := r.lockMutation()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	defer release()

	// Preconditions are checked under the mutation lock so a merge racing
	// with another cannot both pass the in-progress check and then clobber
	// the loser's MERGE_HEAD and conflict staging.
	detached, err := r.Detached()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if detached {
		return nil, fmt.Errorf("merge: %w", ErrDetachedHead)
	}

	if _, inProgress, err := r.MergeHead(); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	} else if inProgress {
		return nil, fmt.Errorf("merge: %w", ErrMergeInProgress)
	}

	branchHash, err := r.ResolveRef("refs/heads/" + branchName)
	if err != nil {
		return nil, fmt.Errorf("merge %q: %w", branchName, ErrBranchNotFound)
	}
	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return nil, fmt.Errorf("merge: current branch has no commits: %w", err)
	}

	baseHash, err := r.FindMergeBase(headHash, branchHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if baseHash == "" {
		return nil, fmt.Errorf("merge %q: %w", branchName, ErrUnrelatedHistories)
	}

	if baseHash == branchHash {
		return &MergeReport{Kind: MergeUpToDate, Branch: branchName}, nil
	}

	message := opts.Message
	if message == "" {
		message = fmt.Sprintf("Merge branch '%s'", branchName)
	}

	if baseHash == headHash && !opts.NoFF {
		if err := r.fastForward(branchHash, headHash); err != nil {
			return nil, fmt.Errorf("merge: fast-forward: %w", err)
		}
		return &MergeReport{
			Kind:        MergeFastForward,
			Branch:      branchName,
			MergeCommit: branchHash,
		}, nil
	}

	report, mergedFiles, conflictedFiles, deletedPaths, err := r.mergeTrees(baseHash, headHash, branchHash)
	if err != nil {
		return nil, err
	}
	report.Branch = branchName

	// Materialize merge results in the working directory.
	for _, mf := range mergedFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(mf.path))
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("merge: mkdir for %q: %w", mf.path, err)
		}
		if err := os.WriteFile(absPath, mf.content, filePermFromMode(mf.mode)); err != nil {
			return nil, fmt.Errorf("merge: write %q: %w", mf.path, err)
		}
	}
	for _, path := range deletedPaths {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("merge: remove %q: %w", path, err)
		}
		removeEmptyParents(filepath.Dir(absPath), r.RootDir)
	}

	if err := r.stageMergeResult(mergedFiles, conflictedFiles, deletedPaths); err != nil {
		return nil, fmt.Errorf("merge: stage: %w", err)
	}

	if report.HasConflicts {
		if err := r.writeMergeState(branchHash, message); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		report.Kind = MergeConflicted
		return report, nil
	}

	if opts.NoCommit {
		if err := r.writeMergeState(branchHash, message); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		report.Kind = MergeStaged
		return report, nil
	}

	mergeHash, err := r.commitMerge(message, headHash, branchHash)
	if err != nil {
		return nil, fmt.Errorf("merge: commit: %w", err)
	}
	report.Kind = MergeCommitted
	report.MergeCommit = mergeHash
	return report, nil
}

// fastForward moves the current branch ref to target and materializes the
// target tree.
func (r *Repo) fastForward(target, expectedOld object.Hash) error {
	files, err := r.flattenCommitTree(target)
	if err != nil {
		return err
	}
	if err := r.materializeWorktree(files); err != nil {
		return err
	}

	head, err := r.Head()
	if err != nil {
		return err
	}
	return r.updateRefCAS(head, target, "merge: fast-forward", expectedOld)
}

// mergeTrees runs the per-file three-way decision table over the union of
// paths in base, ours, and theirs.
func (r *Repo) mergeTrees(baseHash, oursHash, theirsHash object.Hash) (*MergeReport, []mergedFile, []mergeConflictState, []string, error) {
	oursMap, err := r.flattenCommitTree(oursHash)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("merge: flatten ours: %w", err)
	}
	theirsMap, err := r.flattenCommitTree(theirsHash)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("merge: flatten theirs: %w", err)
	}
	baseMap, err := r.flattenCommitTree(baseHash)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("merge: flatten base: %w", err)
	}

	allPaths := collectAllPaths(baseMap, oursMap, theirsMap)

	report := &MergeReport{}
	var mergedFiles []mergedFile
	var conflictedFiles []mergeConflictState
	var deletedPaths []string

	recordConflict := func(cs mergeConflictState, count int) {
		report.HasConflicts = true
		report.TotalConflicts += count
		conflictedFiles = append(conflictedFiles, cs)
	}

	for _, path := range allPaths {
		base, inBase := baseMap[path]
		ours, inOurs := oursMap[path]
		theirs, inTheirs := theirsMap[path]

		switch {
		case inBase && inOurs && inTheirs:
			fr, content, err := r.mergeThreeWay(path, base, ours, theirs)
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("merge file %q: %w", path, err)
			}
			report.Files = append(report.Files, fr)
			if fr.Status == "conflict" {
				recordConflict(mergeConflictState{
					path:       path,
					baseHash:   base.BlobHash,
					oursHash:   ours.BlobHash,
					theirsHash: theirs.BlobHash,
					oursMode:   normalizeFileMode(ours.Mode),
					theirsMode: normalizeFileMode(theirs.Mode),
					mode:       normalizeFileMode(ours.Mode),
				}, fr.ConflictCount)
			}
			mergedFiles = append(mergedFiles, mergedFile{
				path:    path,
				content: content,
				mode:    normalizeFileMode(ours.Mode),
			})

		case !inBase && inOurs && inTheirs:
			// Added on both sides.
			if ours.BlobHash == theirs.BlobHash {
				content, err := r.readBlobData(ours.BlobHash)
				if err != nil {
					return nil, nil, nil, nil, fmt.Errorf("merge read %q: %w", path, err)
				}
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "clean"})
				mergedFiles = append(mergedFiles, mergedFile{
					path:    path,
					content: content,
					mode:    normalizeFileMode(ours.Mode),
				})
				continue
			}
			oursData, err := r.readBlobData(ours.BlobHash)
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("merge read ours %q: %w", path, err)
			}
			theirsData, err := r.readBlobData(theirs.BlobHash)
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("merge read theirs %q: %w", path, err)
			}
			fr, content := mergeFileContents(path, nil, oursData, theirsData)
			report.Files = append(report.Files, fr)
			if fr.Status == "conflict" {
				recordConflict(mergeConflictState{
					path:       path,
					oursHash:   ours.BlobHash,
					theirsHash: theirs.BlobHash,
					oursMode:   normalizeFileMode(ours.Mode),
					theirsMode: normalizeFileMode(theirs.Mode),
					mode:       normalizeFileMode(ours.Mode),
				}, fr.ConflictCount)
			}
			mergedFiles = append(mergedFiles, mergedFile{
				path:    path,
				content: content,
				mode:    normalizeFileMode(ours.Mode),
			})

		case inBase && inOurs && !inTheirs:
			// Deleted by theirs.
			if ours.BlobHash == base.BlobHash {
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "deleted"})
				deletedPaths = append(deletedPaths, path)
				continue
			}
			// Delete-vs-modify must surface as a conflict to avoid silent
			// data loss.
			oursData, err := r.readBlobData(ours.BlobHash)
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("merge read ours %q: %w", path, err)
			}
			report.Files = append(report.Files, FileMergeReport{Path: path, Status: "conflict", ConflictCount: 1})
			recordConflict(mergeConflictState{
				path:     path,
				baseHash: base.BlobHash,
				oursHash: ours.BlobHash,
				oursMode: normalizeFileMode(ours.Mode),
				mode:     normalizeFileMode(ours.Mode),
			}, 1)
			mergedFiles = append(mergedFiles, mergedFile{
				path:    path,
				content: renderFileConflict(oursData, nil),
				mode:    normalizeFileMode(ours.Mode),
			})

		case inBase && !inOurs && inTheirs:
			// Deleted by ours.
			if theirs.BlobHash == base.BlobHash {
				report.Files = append(report.Files, FileMergeReport{Path: path, Status: "deleted"})
				deletedPaths = append(deletedPaths, path)
				continue
			}
			theirsData, err := r.readBlobData(theirs.BlobHash)
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("merge read theirs %q: %w", path, err)
			}
			report.Files = append(report.Files, FileMergeReport{Path: path, Status: "conflict", ConflictCount: 1})
			recordConflict(mergeConflictState{
				path:       path,
				baseHash:   base.BlobHash,
				theirsHash: theirs.BlobHash,
				theirsMode: normalizeFileMode(theirs.Mode),
				mode:       normalizeFileMode(theirs.Mode),
			}, 1)
			mergedFiles = append(mergedFiles, mergedFile{
				path:    path,
				content: renderFileConflict(nil, theirsData),
				mode:    normalizeFileMode(theirs.Mode),
			})

		case !inBase && inOurs && !inTheirs:
			// New on our side only: keep as-is.
			content, err := r.readBlobData(ours.BlobHash)
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("merge read %q: %w", path, err)
			}
			report.Files = append(report.Files, FileMergeReport{Path: path, Status: "added"})
			mergedFiles = append(mergedFiles, mergedFile{
				path:    path,
				content: content,
				mode:    normalizeFileMode(ours.Mode),
			})

		case !inBase && !inOurs && inTheirs:
			// New on their side only: bring it in.
			content, err := r.readBlobData(theirs.BlobHash)
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("merge read %q: %w", path, err)
			}
			report.Files = append(report.Files, FileMergeReport{Path: path, Status: "added"})
			mergedFiles = append(mergedFiles, mergedFile{
				path:    path,
				content: content,
				mode:    normalizeFileMode(theirs.Mode),
			})

		case inBase && !inOurs && !inTheirs:
			// Deleted on both sides.
			report.Files = append(report.Files, FileMergeReport{Path: path, Status: "deleted"})
			deletedPaths = append(deletedPaths, path)
		}
	}

	return report, mergedFiles, conflictedFiles, deletedPaths, nil
}

// stageMergeResult rewrites the index after merge materialization: clean
// files get ordinary entries, conflicted paths carry their three-way sides,
// and deleted paths drop out.
func (r *Repo) stageMergeResult(merged []mergedFile, conflicted []mergeConflictState, deletedPaths []string) error {
	stg, err := r.ReadStaging()
	if err != nil {
		return err
	}

	conflictedPaths := make(map[string]mergeConflictState, len(conflicted))
	for _, cf := range conflicted {
		conflictedPaths[cf.path] = cf
	}

	for _, p := range deletedPaths {
		delete(stg.Entries, p)
	}

	for _, mf := range merged {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(mf.path))
		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("stat merged file %q: %w", mf.path, err)
		}
		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: mf.content})
		if err != nil {
			return fmt.Errorf("write merged blob %q: %w", mf.path, err)
		}

		entry := &StagingEntry{
			Path:     mf.path,
			BlobHash: blobHash,
			Mode:     normalizeFileMode(mf.mode),
			ModTime:  info.ModTime().UnixNano(),
			Size:     info.Size(),
		}
		if cf, ok := conflictedPaths[mf.path]; ok {
			entry.Conflict = true
			entry.BaseBlobHash = cf.baseHash
			entry.OursBlobHash = cf.oursHash
			entry.TheirsBlobHash = cf.theirsHash
			entry.OursMode = cf.oursMode
			entry.TheirsMode = cf.theirsMode
		}
		stg.Entries[mf.path] = entry
	}

	return r.WriteStaging(stg)
}

func renderFileConflict(ours, theirs []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<<<<<< ours\n")
	buf.Write(ours)
	if len(ours) > 0 && ours[len(ours)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString("=======\n")
	buf.Write(theirs)
	if len(theirs) > 0 && theirs[len(theirs)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(">>>>>>> theirs\n")
	return buf.Bytes()
}

// commitMerge creates a commit with two parents from the current index.
func (r *Repo) commitMerge(message string, parent1, parent2 object.Hash) (object.Hash, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return "", fmt.Errorf("merge commit: %w", err)
	}
	if len(stg.Entries) == 0 {
		return "", fmt.Errorf("merge commit: %w", ErrNothingToCommit)
	}

	treeHash, err := r.BuildTree(stg)
	if err != nil {
		return "", fmt.Errorf("merge commit: %w", err)
	}

	author, err := r.commitAuthor("")
	if err != nil {
		return "", fmt.Errorf("merge commit: %w", err)
	}

	commitHash, err := r.writeCommitObject(treeHash, []object.Hash{parent1, parent2}, author, message, nil)
	if err != nil {
		return "", fmt.Errorf("merge commit: write: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("merge commit: read HEAD: %w", err)
	}
	if err := r.updateRefCAS(head, commitHash, "merge", parent1); err != nil {
		return "", fmt.Errorf("merge commit: update ref %q: %w", head, err)
	}

	if err := r.clearMergeState(); err != nil {
		return "", err
	}
	return commitHash, nil
}

// mergeThreeWay performs a three-way merge of a file that exists in base,
// ours, and theirs.
func (r *Repo) mergeThreeWay(path string, base, ours, theirs TreeFileEntry) (FileMergeReport, []byte, error) {
	// Same blob on both sides: nothing to merge.
	if ours.BlobHash == theirs.BlobHash {
		content, err := r.readBlobData(ours.BlobHash)
		if err != nil {
			return FileMergeReport{}, nil, err
		}
		return FileMergeReport{Path: path, Status: "clean"}, content, nil
	}

	// Only one side changed from base: take that side.
	if ours.BlobHash == base.BlobHash {
		content, err := r.readBlobData(theirs.BlobHash)
		if err != nil {
			return FileMergeReport{}, nil, err
		}
		return FileMergeReport{Path: path, Status: "clean"}, content, nil
	}
	if theirs.BlobHash == base.BlobHash {
		content, err := r.readBlobData(ours.BlobHash)
		if err != nil {
			return FileMergeReport{}, nil, err
		}
		return FileMergeReport{Path: path, Status: "clean"}, content, nil
	}

	baseData, err := r.readBlobData(base.BlobHash)
	if err != nil {
		return FileMergeReport{}, nil, err
	}
	oursData, err := r.readBlobData(ours.BlobHash)
	if err != nil {
		return FileMergeReport{}, nil, err
	}
	theirsData, err := r.readBlobData(theirs.BlobHash)
	if err != nil {
		return FileMergeReport{}, nil, err
	}

	fr, content := mergeFileContents(path, baseData, oursData, theirsData)
	return fr, content, nil
}

// mergeFileContents runs the line-level three-way merge on raw contents.
func mergeFileContents(path string, base, ours, theirs []byte) (FileMergeReport, []byte) {
	result := textdiff.Merge(base, ours, theirs)

	fr := FileMergeReport{
		Path:          path,
		ConflictCount: result.Conflicts,
	}
	if result.HasConflicts {
		fr.Status = "conflict"
	} else {
		fr.Status = "clean"
	}
	return fr, result.Merged
}

// readBlobData reads a blob from the store and returns its raw data.
func (r *Repo) readBlobData(h object.Hash) ([]byte, error) {
	blob, err := r.Store.ReadBlob(h)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", h, err)
	}
	return blob.Data, nil
}

// collectAllPaths returns a sorted, deduplicated list of all file paths
// across three file maps.
func collectAllPaths(base, ours, theirs map[string]TreeFileEntry) []string {
	seen := make(map[string]bool)
	for p := range base {
		seen[p] = true
	}
	for p := range ours {
		seen[p] = true
	}
	for p := range theirs {
		seen[p] = true
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
