package porcelain

import (
	"errors"
	"os"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/repo"
)

// ErrorKind is the coarse failure taxonomy surfaced to clients. Callers
// branch on the kind; Detail is for humans.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindInvalidState        ErrorKind = "invalid_state"
	KindConflict            ErrorKind = "conflict"
	KindPreconditionFailed  ErrorKind = "precondition_failed"
	KindExternalToolFailure ErrorKind = "external_tool_failure"
	KindStoreError          ErrorKind = "store_error"
)

// ErrorInfo is the serialized failure attached to a Result.
type ErrorInfo struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail"`
}

// Classify maps an engine error to its taxonomy kind.
//
// Retry guidance: store_error covers recoverable store/ref failures
// (including a lost compare-and-set race) and may be retried with bounded
// attempts; invalid_state and conflict reproduce until the repository state
// changes, so callers must never auto-retry them.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, repo.ErrNotRepository),
		errors.Is(err, repo.ErrRefNotFound),
		errors.Is(err, repo.ErrBranchNotFound),
		errors.Is(err, repo.ErrRevisionNotFound),
		errors.Is(err, repo.ErrPathNotConflicted),
		errors.Is(err, repo.ErrPathNotTracked),
		errors.Is(err, object.ErrAmbiguousPrefix),
		errors.Is(err, os.ErrNotExist):
		return KindNotFound

	case errors.Is(err, repo.ErrMergeInProgress),
		errors.Is(err, repo.ErrNoMergeInProgress):
		return KindInvalidState

	case errors.Is(err, repo.ErrUnresolvedConflicts),
		errors.Is(err, repo.ErrWorktreeNotClean):
		return KindConflict

	case errors.Is(err, repo.ErrDetachedHead),
		errors.Is(err, repo.ErrNoAuthorIdentity),
		errors.Is(err, repo.ErrNothingToCommit),
		errors.Is(err, repo.ErrUnrelatedHistories):
		return KindPreconditionFailed

	case errors.Is(err, repo.ErrRefCASMismatch),
		errors.Is(err, repo.ErrRefUpdatedButReflogAppendFailed):
		return KindStoreError
	}
	return KindStoreError
}
