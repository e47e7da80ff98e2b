package repo

import (
	"sync"

	"github.com/grit-vcs/grit/pkg/object"
)

// Repo represents an opened grit repository: the working directory root,
// the .grit metadata directory, and the object store handle. All porcelain
// operations hang off Repo so callers never reopen the repository.
type Repo struct {
	RootDir string       // working directory root
	GritDir string       // .grit/ directory
	Store   object.Store // content-addressed object store

	// Mutating operations (merge, reset, commit, conflict resolution)
	// serialize on mu plus an on-disk lockfile, so concurrent processes
	// are excluded as well.
	mu sync.Mutex

	mergeTraversalStateOnce sync.Once
	mergeTraversalState     *mergeBaseTraversalState
}

func (r *Repo) getMergeTraversalState() *mergeBaseTraversalState {
	r.mergeTraversalStateOnce.Do(func() {
		r.mergeTraversalState = newMergeBaseTraversalState()
	})
	return r.mergeTraversalState
}
