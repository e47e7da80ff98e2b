package porcelain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grit-vcs/grit/pkg/object"
	"github.com/grit-vcs/grit/pkg/repo"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	dir := t.TempDir()
	r, err := repo.Init(dir)
	require.NoError(t, err)
	require.NoError(t, r.SetUserIdentity("Test User", "test@example.com"))
	return NewService(r, nil), dir
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()

	abs := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func commitAll(t *testing.T, svc *Service, dir, name, content, msg string) {
	t.Helper()

	write(t, dir, name, content)
	require.NoError(t, svc.Repo().Add([]string{name}))
	res := svc.Commit(context.Background(), repo.CommitOptions{Message: msg})
	require.True(t, res.Success, "commit: %s", res.Message)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{repo.ErrNotRepository, KindNotFound},
		{repo.ErrBranchNotFound, KindNotFound},
		{repo.ErrRevisionNotFound, KindNotFound},
		{repo.ErrPathNotConflicted, KindNotFound},
		{repo.ErrPathNotTracked, KindNotFound},
		{object.ErrAmbiguousPrefix, KindNotFound},
		{os.ErrNotExist, KindNotFound},
		{repo.ErrMergeInProgress, KindInvalidState},
		{repo.ErrNoMergeInProgress, KindInvalidState},
		{repo.ErrUnresolvedConflicts, KindConflict},
		{repo.ErrWorktreeNotClean, KindConflict},
		{repo.ErrDetachedHead, KindPreconditionFailed},
		{repo.ErrNoAuthorIdentity, KindPreconditionFailed},
		{repo.ErrNothingToCommit, KindPreconditionFailed},
		{repo.ErrRefCASMismatch, KindStoreError},
		{repo.ErrRefUpdatedButReflogAppendFailed, KindStoreError},
		{errors.New("disk on fire"), KindStoreError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err), "error %v", tc.err)
	}

	// Wrapped errors classify the same as their cause.
	wrapped := errors.Join(errors.New("outer"), repo.ErrRevisionNotFound)
	assert.Equal(t, KindNotFound, Classify(wrapped))
}

func TestStatusEnvelope(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	commitAll(t, svc, dir, "a.txt", "one\n", "c1")

	res := svc.Status(ctx)
	require.True(t, res.Success)
	assert.Equal(t, "working tree clean", res.Message)
	data := res.Data.(*StatusData)
	assert.Equal(t, "main", data.Branch)
	assert.True(t, data.Clean)

	// Dirty the tree and look again.
	write(t, dir, "a.txt", "changed\n")
	write(t, dir, "b.txt", "new\n")

	res = svc.Status(ctx)
	require.True(t, res.Success)
	data = res.Data.(*StatusData)
	assert.False(t, data.Clean)
	assert.Equal(t, 1, data.Unstaged)
	assert.Equal(t, 1, data.Untracked)
	require.NotEmpty(t, data.Files)
}

func TestCommitEnvelope(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	write(t, dir, "a.txt", "one\n")
	require.NoError(t, svc.Repo().Add([]string{"a.txt"}))

	res := svc.Commit(ctx, repo.CommitOptions{Message: "first"})
	require.True(t, res.Success)
	data := res.Data.(*CommitData)
	assert.Equal(t, "main", data.Branch)
	assert.Len(t, data.Hash, 64)
	assert.Empty(t, data.Parents)

	// Committing again with nothing staged fails as a missed precondition.
	res = svc.Commit(ctx, repo.CommitOptions{Message: "empty"})
	require.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, KindPreconditionFailed, res.Error.Kind)
}

func TestDiffEnvelope(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	commitAll(t, svc, dir, "a.txt", "one\ntwo\n", "c1")
	write(t, dir, "a.txt", "one\nTWO\n")

	res := svc.Diff(ctx, repo.DiffOptions{})
	require.True(t, res.Success)
	data := res.Data.(*DiffData)
	assert.Equal(t, 1, data.FilesChanged)
	require.Len(t, data.Files, 1)
	f := data.Files[0]
	assert.Equal(t, "a.txt", f.Path)
	assert.Equal(t, "modified", f.Status)
	require.NotEmpty(t, f.Hunks)

	origins := map[string]bool{}
	for _, line := range f.Hunks[0].Lines {
		origins[line.Origin] = true
	}
	assert.True(t, origins["+"] && origins["-"])
}

func TestMergeEnvelopeFastForward(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()
	r := svc.Repo()

	commitAll(t, svc, dir, "a.txt", "one\n", "c1")
	head, err := r.ResolveRef("main")
	require.NoError(t, err)
	require.NoError(t, r.CreateBranch("feature", head))
	require.NoError(t, r.Checkout("feature"))
	commitAll(t, svc, dir, "a.txt", "two\n", "c2")
	require.NoError(t, r.Checkout("main"))

	res := svc.Merge(ctx, "feature", repo.MergeOptions{})
	require.True(t, res.Success)
	data := res.Data.(*MergeData)
	assert.Equal(t, string(repo.MergeFastForward), data.Kind)
	assert.Zero(t, data.Conflicts)
}

func TestMergeEnvelopeConflict(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()
	r := svc.Repo()

	commitAll(t, svc, dir, "a.txt", "base\n", "c1")
	head, err := r.ResolveRef("main")
	require.NoError(t, err)
	require.NoError(t, r.CreateBranch("feature", head))
	commitAll(t, svc, dir, "a.txt", "main side\n", "on main")
	require.NoError(t, r.Checkout("feature"))
	commitAll(t, svc, dir, "a.txt", "feature side\n", "on feature")
	require.NoError(t, r.Checkout("main"))

	res := svc.Merge(ctx, "feature", repo.MergeOptions{})
	require.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, KindConflict, res.Error.Kind)
	data := res.Data.(*MergeData)
	assert.Equal(t, string(repo.MergeConflicted), data.Kind)
	assert.Equal(t, []string{"a.txt"}, data.Conflicted)

	// The conflict listing and resolution flow through the same façade.
	res = svc.Conflicts(ctx)
	require.True(t, res.Success)
	conflicts := res.Data.([]ConflictData)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "a.txt", conflicts[0].Path)
	require.NotNil(t, conflicts[0].Ours)
	require.NotNil(t, conflicts[0].Theirs)

	res = svc.Resolve(ctx, "a.txt", repo.ResolveTheirs, nil)
	require.True(t, res.Success)

	res = svc.Conflicts(ctx)
	require.True(t, res.Success)
	assert.Empty(t, res.Data.([]ConflictData))
}

func TestResetEnvelope(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	commitAll(t, svc, dir, "a.txt", "one\n", "c1")
	commitAll(t, svc, dir, "a.txt", "two\n", "c2")

	res := svc.Reset(ctx, repo.ResetOptions{Mode: repo.ResetHard, Target: "HEAD~1"})
	require.True(t, res.Success)
	data := res.Data.(*ResetData)
	assert.Equal(t, "hard", data.Mode)
	assert.Len(t, data.Target, 64)

	res = svc.Reset(ctx, repo.ResetOptions{Target: "nope"})
	require.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Error.Kind)
}

func TestGitDelegationRejectsNativeCommands(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Git(context.Background(), "merge", "feature")
	require.False(t, res.Success)
	assert.Contains(t, res.Error.Detail, "not delegated")

	res = svc.Git(context.Background())
	require.False(t, res.Success)
}

func TestOpenServiceFailsOutsideRepo(t *testing.T) {
	_, err := OpenService(t.TempDir(), nil)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, Classify(err))
}
