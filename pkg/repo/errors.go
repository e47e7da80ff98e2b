package repo

import "errors"

// Sentinel errors surfaced by porcelain operations. Callers classify
// failures with errors.Is rather than string matching.
var (
	// ErrNotRepository is returned when no .grit directory is found at or
	// above the requested path.
	ErrNotRepository = errors.New("not a grit repository")

	// ErrRefNotFound is returned when a named ref does not exist.
	ErrRefNotFound = errors.New("ref not found")

	// ErrBranchNotFound is returned when a branch named in an operation
	// does not exist under refs/heads.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrRevisionNotFound is returned when a revision expression resolves
	// to nothing.
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrDetachedHead is returned by operations that require HEAD to be on
	// a branch.
	ErrDetachedHead = errors.New("HEAD is detached")

	// ErrMergeInProgress is returned when a new merge is requested while
	// MERGE_HEAD still exists.
	ErrMergeInProgress = errors.New("merge already in progress")

	// ErrNoMergeInProgress is returned when a merge finalization step runs
	// without a merge in progress.
	ErrNoMergeInProgress = errors.New("no merge in progress")

	// ErrUnresolvedConflicts is returned when a commit is attempted while
	// the index still holds conflict entries.
	ErrUnresolvedConflicts = errors.New("unresolved merge conflicts")

	// ErrNothingToCommit is returned when the staged tree matches HEAD and
	// no merge or amend is pending.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrNoAuthorIdentity is returned when a commit is attempted without an
	// author and no identity is configured.
	ErrNoAuthorIdentity = errors.New("author identity not configured")

	// ErrPathNotConflicted is returned when conflict resolution targets a
	// path that has no conflict entry.
	ErrPathNotConflicted = errors.New("path is not conflicted")

	// ErrWorktreeNotClean is returned by checkout when local modifications
	// would be overwritten.
	ErrWorktreeNotClean = errors.New("working tree has uncommitted changes")

	// ErrUnrelatedHistories is returned when a merge target shares no
	// common ancestor with HEAD.
	ErrUnrelatedHistories = errors.New("refusing to merge unrelated histories")
)
