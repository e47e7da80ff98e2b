package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/textdiff"
)

// ErrPathNotTracked is returned when blame targets a path that does not
// exist in the tree of the blamed revision.
var ErrPathNotTracked = errors.New("path not tracked at revision")

// BlameLine attributes one line of the blamed file to the commit that
// introduced it.
type BlameLine struct {
	Line    int // 1-based position in the file at the blamed revision
	Content string
	Commit  object.Hash
	Author  string
	Summary string
}

// BlameResult holds per-line attribution for a file at a revision.
type BlameResult struct {
	Path  string
	Rev   object.Hash
	Lines []BlameLine
}

// Blame attributes every line of the file at the given revision to the
// commit that introduced it, walking first-parent history. A line survives
// into an older commit as long as the line diff keeps it intact; the first
// commit where it appears as an insertion (or where the file itself
// appears) owns it. An empty rev means HEAD.
//
// Renames are not followed: a file that exists under a different name in an
// ancestor is treated as newly introduced at the commit that created the
// current name.
func (r *Repo) Blame(pathSpec, rev string) (*BlameResult, error) {
	relPath, err := r.repoRelPath(pathSpec)
	if err != nil {
		return nil, fmt.Errorf("blame: resolve path %q: %w", pathSpec, err)
	}
	if relPath == "." || strings.TrimSpace(relPath) == "" {
		return nil, fmt.Errorf("blame: path is required")
	}

	if rev == "" {
		rev = "HEAD"
	}
	startHash, err := r.RevParseCommit(rev)
	if err != nil {
		return nil, fmt.Errorf("blame: %w", err)
	}

	commit, err := r.Store.ReadCommit(startHash)
	if err != nil {
		return nil, fmt.Errorf("blame: read commit %s: %w", startHash, err)
	}
	entry, ok, err := r.treeEntryAtPath(commit.TreeHash, relPath)
	if err != nil {
		return nil, fmt.Errorf("blame: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("blame %q at %s: %w", relPath, startHash.Short(), ErrPathNotTracked)
	}
	blob, err := r.Store.ReadBlob(entry.BlobHash)
	if err != nil {
		return nil, fmt.Errorf("blame: read blob %s: %w", entry.BlobHash, err)
	}
	if isBinaryData(blob.Data) {
		return nil, fmt.Errorf("blame %q: cannot blame a binary file", relPath)
	}

	lines := textdiff.Lines(string(blob.Data))
	result := &BlameResult{
		Path:  relPath,
		Rev:   startHash,
		Lines: make([]BlameLine, len(lines)),
	}
	for i, content := range lines {
		result.Lines[i] = BlameLine{Line: i + 1, Content: content}
	}

	// origAt maps each line position of the file as it exists at the
	// commit under examination back to its position at the blamed
	// revision; -1 marks lines the blamed revision does not contain.
	origAt := make([]int, len(lines))
	for i := range origAt {
		origAt[i] = i
	}
	remaining := len(lines)

	curHash := startHash
	curCommit := commit
	curBlob := entry.BlobHash
	curLines := lines

	for remaining > 0 {
		parentHash := firstParent(curCommit)

		parentBlob := object.Hash("")
		var parentCommit *object.CommitObj
		var parentLines []string
		fileInParent := false

		if parentHash != "" {
			parentCommit, err = r.Store.ReadCommit(parentHash)
			if err != nil {
				return nil, fmt.Errorf("blame: read commit %s: %w", parentHash, err)
			}
			pEntry, ok, err := r.treeEntryAtPath(parentCommit.TreeHash, relPath)
			if err != nil {
				return nil, fmt.Errorf("blame: %w", err)
			}
			if ok {
				pBlob, err := r.Store.ReadBlob(pEntry.BlobHash)
				if err != nil {
					return nil, fmt.Errorf("blame: read blob %s: %w", pEntry.BlobHash, err)
				}
				if !isBinaryData(pBlob.Data) {
					fileInParent = true
					parentBlob = pEntry.BlobHash
					parentLines = textdiff.Lines(string(pBlob.Data))
				}
			}
		}

		if !fileInParent {
			// The file first appears (as text) at this commit; every
			// still-unattributed line belongs to it.
			for _, orig := range origAt {
				if orig >= 0 {
					result.attribute(orig, curHash, curCommit)
				}
			}
			return result, nil
		}

		if parentBlob != curBlob {
			ops := textdiff.Diff(parentLines, curLines)
			nextOrig := make([]int, len(parentLines))
			for i := range nextOrig {
				nextOrig[i] = -1
			}
			ai, bi := 0, 0
			for _, op := range ops {
				switch op.Kind {
				case textdiff.Equal:
					nextOrig[ai] = origAt[bi]
					ai++
					bi++
				case textdiff.Insert:
					if orig := origAt[bi]; orig >= 0 {
						result.attribute(orig, curHash, curCommit)
						remaining--
					}
					bi++
				case textdiff.Delete:
					ai++
				}
			}
			origAt = nextOrig
			curLines = parentLines
		}

		curHash = parentHash
		curCommit = parentCommit
		curBlob = parentBlob
	}

	return result, nil
}

func (res *BlameResult) attribute(orig int, h object.Hash, c *object.CommitObj) {
	res.Lines[orig].Commit = h
	res.Lines[orig].Author = c.Author
	res.Lines[orig].Summary = messageSummary(c.Message)
}

func firstParent(c *object.CommitObj) object.Hash {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

func messageSummary(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}
