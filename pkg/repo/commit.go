package repo

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/grit-vcs/grit/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// CommitOptions control commit construction.
type CommitOptions struct {
	Message string
	Author  string // "Name <email>"; falls back to configured identity
	Amend   bool   // replace the HEAD commit, reusing its parents
	Signer  CommitSigner
}

// CommitResult reports a created commit.
type CommitResult struct {
	Hash    object.Hash
	Branch  string // "" when detached
	Parents []object.Hash
}

// CommitIndex creates a commit from the current staging area.
//
// Parent selection: a pending merge yields [HEAD, MERGE_HEAD]; amend reuses
// the parents of the commit being replaced; otherwise the single parent is
// HEAD (or none for a root commit). The commit is rejected when conflicts
// remain, when no author identity is available, or when the staged tree is
// identical to HEAD with nothing else pending.
func (r *Repo) CommitIndex(opts CommitOptions) (*CommitResult, error) {
	release, err := r.lockMutation()
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	defer release()

	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if stg.HasConflicts() {
		return nil, fmt.Errorf("commit: %w", ErrUnresolvedConflicts)
	}

	author, err := r.commitAuthor(opts.Author)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	mergeHead, merging, err := r.MergeHead()
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	headHash, headErr := r.ResolveRef("HEAD")
	hasHead := headErr == nil && headHash != ""

	if opts.Amend && !hasHead {
		return nil, fmt.Errorf("commit: amend: %w", ErrRevisionNotFound)
	}
	if merging && !hasHead {
		return nil, fmt.Errorf("commit: %w", ErrNoMergeInProgress)
	}

	if len(stg.Entries) == 0 && !hasHead {
		return nil, fmt.Errorf("commit: %w", ErrNothingToCommit)
	}

	treeHash, err := r.BuildTree(stg)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	var parents []object.Hash
	var expectedOld object.Hash
	switch {
	case merging:
		parents = []object.Hash{headHash, mergeHead}
		expectedOld = headHash
	case opts.Amend:
		headCommit, err := r.Store.ReadCommit(headHash)
		if err != nil {
			return nil, fmt.Errorf("commit: amend: read HEAD commit: %w", err)
		}
		parents = headCommit.Parents
		expectedOld = headHash
	case hasHead:
		headCommit, err := r.Store.ReadCommit(headHash)
		if err != nil {
			return nil, fmt.Errorf("commit: read HEAD commit: %w", err)
		}
		if treeHash == headCommit.TreeHash {
			return nil, fmt.Errorf("commit: %w", ErrNothingToCommit)
		}
		parents = []object.Hash{headHash}
		expectedOld = headHash
	}

	message := opts.Message
	if message == "" && merging {
		message = r.mergeMessage()
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("commit: message is required")
	}

	commitHash, err := r.writeCommitObject(treeHash, parents, author, message, opts.Signer)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	reason := "commit"
	switch {
	case merging:
		reason = "commit (merge)"
	case opts.Amend:
		reason = "commit (amend)"
	}

	head, err := r.Head()
	if err != nil {
		return nil, fmt.Errorf("commit: read HEAD: %w", err)
	}
	refName := head
	if !strings.HasPrefix(head, "refs/") {
		refName = "HEAD"
	}
	if expectedOld == "" {
		err = r.updateRefCAS(refName, commitHash, reason)
	} else {
		err = r.updateRefCAS(refName, commitHash, reason, expectedOld)
	}
	if err != nil {
		return nil, fmt.Errorf("commit: update ref %q: %w", refName, err)
	}

	if merging {
		if err := r.clearMergeState(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
	}

	branch, _ := r.CurrentBranch()
	return &CommitResult{Hash: commitHash, Branch: branch, Parents: parents}, nil
}

// commitAuthor resolves the commit author: the explicit value wins, then the
// configured identity.
func (r *Repo) commitAuthor(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return strings.TrimSpace(explicit), nil
	}
	id, err := r.UserIdentity()
	if err != nil {
		return "", err
	}
	if id.String() == "" {
		return "", ErrNoAuthorIdentity
	}
	return id.String(), nil
}

// writeCommitObject assembles a CommitObj with current timestamps, signs it
// when a signer is given, and writes it to the store.
func (r *Repo) writeCommitObject(treeHash object.Hash, parents []object.Hash, author, message string, signer CommitSigner) (object.Hash, error) {
	now := time.Now()
	tz := tzOffsetString(now)
	commitObj := &object.CommitObj{
		TreeHash:           treeHash,
		Parents:            parents,
		Author:             author,
		Timestamp:          now.Unix(),
		AuthorTimezone:     tz,
		Committer:          author,
		CommitterTimestamp: now.Unix(),
		CommitterTimezone:  tz,
		Message:            message,
	}
	if signer != nil {
		payload := object.CommitSigningPayload(commitObj)
		signature, err := signer(payload)
		if err != nil {
			return "", fmt.Errorf("sign commit: %w", err)
		}
		commitObj.Signature = signature
	}
	return r.Store.WriteCommit(commitObj)
}

// tzOffsetString renders the local UTC offset as "+hhmm"/"-hhmm".
func tzOffsetString(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d%02d", sign, offset/3600, (offset%3600)/60)
}

// LogEntry pairs a commit with its hash for history listings.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Log walks the commit history starting from the given hash, following
// first-parent links, returning up to limit commits in reverse-chronological
// order (newest first). A limit of zero means no limit.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var commits []LogEntry
	current := start

	for limit <= 0 || len(commits) < limit {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				break
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		commits = append(commits, LogEntry{Hash: current, Commit: c})

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}

	return commits, nil
}
