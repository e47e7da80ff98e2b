package porcelain

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/grit-vcs/grit/pkg/gittool"
	"github.com/grit-vcs/grit/pkg/repo"
	"github.com/grit-vcs/grit/pkg/textdiff"
)

// Service is the high-level porcelain façade: it owns an open repository,
// translates engine results into Result envelopes, and logs each operation.
type Service struct {
	repo *repo.Repo
	git  gittool.Tool
	log  *zap.Logger
}

// NewService wraps an already-open repository.
func NewService(r *repo.Repo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: r, git: &gittool.ExecTool{}, log: logger}
}

// OpenService opens the repository containing path and wraps it.
func OpenService(path string, logger *zap.Logger) (*Service, error) {
	r, err := repo.Open(path)
	if err != nil {
		return nil, err
	}
	return NewService(r, logger), nil
}

// Repo exposes the underlying repository for callers that need engine-level
// access.
func (s *Service) Repo() *repo.Repo { return s.repo }

// --- status ---

// StatusFile is one path's status in the report payload.
type StatusFile struct {
	Path        string `json:"path"`
	RenamedFrom string `json:"renamed_from,omitempty"`
	Staged      string `json:"staged"`
	Worktree    string `json:"worktree"`
}

// StatusData is the status payload.
type StatusData struct {
	Branch    string       `json:"branch,omitempty"`
	Detached  bool         `json:"detached"`
	Clean     bool         `json:"is_clean"`
	Staged    int          `json:"staged"`
	Unstaged  int          `json:"unstaged"`
	Untracked int          `json:"untracked"`
	Conflicts int          `json:"conflicts"`
	IgnoredN  int          `json:"ignored"`
	Files     []StatusFile `json:"files,omitempty"`
	Ignored   []string     `json:"ignored_paths,omitempty"`
}

// Status reports the repository status.
func (s *Service) Status(ctx context.Context) *Result {
	report, err := s.repo.Status()
	if err != nil {
		s.log.Warn("status failed", zap.Error(err))
		return fail("status failed", err)
	}

	data := &StatusData{
		Branch:    report.Branch,
		Detached:  report.Detached,
		Clean:     report.Clean,
		Staged:    report.Staged,
		Unstaged:  report.Unstaged,
		Untracked: report.Untracked,
		Conflicts: report.Conflicts,
		IgnoredN:  len(report.Ignored),
		Ignored:   report.Ignored,
	}
	for _, e := range report.Entries {
		data.Files = append(data.Files, StatusFile{
			Path:        e.Path,
			RenamedFrom: e.RenamedFrom,
			Staged:      statusLabel(e.IndexStatus),
			Worktree:    statusLabel(e.WorkStatus),
		})
	}

	msg := "working tree clean"
	if !report.Clean {
		msg = fmt.Sprintf("%d staged, %d unstaged, %d untracked", report.Staged, report.Unstaged, report.Untracked)
		if report.Conflicts > 0 {
			msg += fmt.Sprintf(", %d conflicted", report.Conflicts)
		}
	}
	s.log.Debug("status",
		zap.String("branch", report.Branch),
		zap.Bool("clean", report.Clean),
		zap.Int("entries", len(report.Entries)),
	)
	return ok(msg, data)
}

func statusLabel(st repo.FileStatus) string {
	switch st {
	case repo.StatusClean:
		return "clean"
	case repo.StatusNew:
		return "new"
	case repo.StatusModified:
		return "modified"
	case repo.StatusRenamed:
		return "renamed"
	case repo.StatusConflict:
		return "conflict"
	case repo.StatusDeleted:
		return "deleted"
	case repo.StatusUntracked:
		return "untracked"
	case repo.StatusDirty:
		return "dirty"
	}
	return "unknown"
}

// --- diff ---

// DiffLine is one rendered diff line.
type DiffLine struct {
	Origin  string `json:"origin"` // " ", "+", "-"
	Content string `json:"content"`
}

// DiffHunkData is one hunk in the payload.
type DiffHunkData struct {
	OldStart int        `json:"old_start"`
	OldLines int        `json:"old_lines"`
	NewStart int        `json:"new_start"`
	NewLines int        `json:"new_lines"`
	Lines    []DiffLine `json:"lines"`
}

// DiffFileData is one delta in the payload.
type DiffFileData struct {
	Path      string         `json:"path"`
	OldPath   string         `json:"old_path,omitempty"`
	Status    string         `json:"status"`
	Binary    bool           `json:"binary,omitempty"`
	OldSize   int            `json:"old_size,omitempty"`
	NewSize   int            `json:"new_size,omitempty"`
	Additions int            `json:"additions"`
	Deletions int            `json:"deletions"`
	Hunks     []DiffHunkData `json:"hunks,omitempty"`
}

// DiffData is the diff payload.
type DiffData struct {
	Files        []DiffFileData `json:"files"`
	FilesChanged int            `json:"files_changed"`
	Additions    int            `json:"additions"`
	Deletions    int            `json:"deletions"`
}

// Diff compares two snapshots per the options.
func (s *Service) Diff(ctx context.Context, opts repo.DiffOptions) *Result {
	result, err := s.repo.Diff(opts)
	if err != nil {
		s.log.Warn("diff failed", zap.Error(err))
		return fail("diff failed", err)
	}

	data := &DiffData{
		FilesChanged: result.FilesChanged,
		Additions:    result.Additions,
		Deletions:    result.Deletions,
	}
	for _, d := range result.Deltas {
		fd := DiffFileData{
			Path:      d.Path,
			OldPath:   d.OldPath,
			Status:    string(d.Status),
			Binary:    d.Binary,
			OldSize:   d.OldSize,
			NewSize:   d.NewSize,
			Additions: d.Additions,
			Deletions: d.Deletions,
		}
		for _, h := range d.Hunks {
			hd := DiffHunkData{
				OldStart: h.OldStart,
				OldLines: h.OldLines,
				NewStart: h.NewStart,
				NewLines: h.NewLines,
			}
			for _, line := range h.Lines {
				hd.Lines = append(hd.Lines, DiffLine{
					Origin:  lineOrigin(line.Kind),
					Content: line.Content,
				})
			}
			fd.Hunks = append(fd.Hunks, hd)
		}
		data.Files = append(data.Files, fd)
	}

	s.log.Debug("diff",
		zap.Int("files", result.FilesChanged),
		zap.Int("additions", result.Additions),
		zap.Int("deletions", result.Deletions),
	)
	return ok(fmt.Sprintf("%d files changed, +%d -%d", result.FilesChanged, result.Additions, result.Deletions), data)
}

func lineOrigin(kind textdiff.LineKind) string {
	switch kind {
	case textdiff.Addition:
		return "+"
	case textdiff.Deletion:
		return "-"
	}
	return " "
}

// --- merge ---

// MergeData is the merge payload.
type MergeData struct {
	Kind        string   `json:"kind"`
	Branch      string   `json:"branch"`
	MergeCommit string   `json:"merge_commit,omitempty"`
	Conflicts   int      `json:"conflicts"`
	Conflicted  []string `json:"conflicted_paths,omitempty"`
}

// Merge merges the named branch into HEAD.
func (s *Service) Merge(ctx context.Context, branch string, opts repo.MergeOptions) *Result {
	report, err := s.repo.Merge(branch, opts)
	if err != nil {
		s.log.Warn("merge failed", zap.String("branch", branch), zap.Error(err))
		return fail(fmt.Sprintf("merge of %q failed", branch), err)
	}

	data := &MergeData{
		Kind:        string(report.Kind),
		Branch:      report.Branch,
		MergeCommit: string(report.MergeCommit),
		Conflicts:   report.TotalConflicts,
	}
	for _, f := range report.Files {
		if f.Status == "conflict" {
			data.Conflicted = append(data.Conflicted, f.Path)
		}
	}

	var msg string
	switch report.Kind {
	case repo.MergeUpToDate:
		msg = "already up to date"
	case repo.MergeFastForward:
		msg = fmt.Sprintf("fast-forwarded to %s", report.MergeCommit.Short())
	case repo.MergeCommitted:
		msg = fmt.Sprintf("merged %q (%s)", branch, report.MergeCommit.Short())
	case repo.MergeStaged:
		msg = fmt.Sprintf("merged %q, stopped before commit", branch)
	case repo.MergeConflicted:
		msg = fmt.Sprintf("merge of %q stopped on %d conflicts", branch, report.TotalConflicts)
	}
	s.log.Info("merge",
		zap.String("branch", branch),
		zap.String("kind", string(report.Kind)),
		zap.Int("conflicts", report.TotalConflicts),
	)
	res := ok(msg, data)
	if report.Kind == repo.MergeConflicted {
		// Conflicts are reported, not hidden behind an error, but the envelope
		// still flags the stop.
		res.Success = false
		res.Error = &ErrorInfo{Kind: KindConflict, Detail: msg}
	}
	return res
}

// --- reset ---

// ResetData is the reset payload.
type ResetData struct {
	Mode   string   `json:"mode"`
	Target string   `json:"target"`
	Paths  []string `json:"paths,omitempty"`
}

// Reset moves HEAD/index/worktree per the options.
func (s *Service) Reset(ctx context.Context, opts repo.ResetOptions) *Result {
	report, err := s.repo.Reset(opts)
	if err != nil {
		s.log.Warn("reset failed", zap.Error(err))
		return fail("reset failed", err)
	}
	s.log.Info("reset",
		zap.String("mode", string(report.Mode)),
		zap.String("target", report.Target.Short()),
		zap.Int("paths", len(report.Paths)),
	)
	msg := fmt.Sprintf("reset (%s) to %s", report.Mode, report.Target.Short())
	if len(report.Paths) > 0 {
		msg = fmt.Sprintf("reset %d paths to %s", len(report.Paths), report.Target.Short())
	}
	return ok(msg, &ResetData{
		Mode:   string(report.Mode),
		Target: string(report.Target),
		Paths:  report.Paths,
	})
}

// --- commit ---

// CommitData is the commit payload.
type CommitData struct {
	Hash    string   `json:"hash"`
	Branch  string   `json:"branch,omitempty"`
	Parents []string `json:"parents,omitempty"`
}

// Commit creates a commit from the index.
func (s *Service) Commit(ctx context.Context, opts repo.CommitOptions) *Result {
	result, err := s.repo.CommitIndex(opts)
	if err != nil {
		s.log.Warn("commit failed", zap.Error(err))
		return fail("commit failed", err)
	}
	data := &CommitData{Hash: string(result.Hash), Branch: result.Branch}
	for _, p := range result.Parents {
		data.Parents = append(data.Parents, string(p))
	}
	s.log.Info("commit", zap.String("hash", result.Hash.Short()), zap.String("branch", result.Branch))
	return ok(fmt.Sprintf("committed %s", result.Hash.Short()), data)
}

// --- conflicts ---

// ConflictSideData is one side of a conflict in the payload.
type ConflictSideData struct {
	Blob string `json:"blob"`
	Mode string `json:"mode"`
}

// ConflictData is one conflicted path in the payload.
type ConflictData struct {
	Path     string            `json:"path"`
	Ancestor *ConflictSideData `json:"ancestor,omitempty"`
	Ours     *ConflictSideData `json:"ours,omitempty"`
	Theirs   *ConflictSideData `json:"theirs,omitempty"`
}

// Conflicts lists the conflicted index entries.
func (s *Service) Conflicts(ctx context.Context) *Result {
	entries, err := s.repo.ListConflicts()
	if err != nil {
		s.log.Warn("list conflicts failed", zap.Error(err))
		return fail("list conflicts failed", err)
	}

	side := func(cs *repo.ConflictSide) *ConflictSideData {
		if cs == nil {
			return nil
		}
		return &ConflictSideData{Blob: string(cs.BlobHash), Mode: cs.Mode}
	}
	data := make([]ConflictData, 0, len(entries))
	for _, e := range entries {
		data = append(data, ConflictData{
			Path:     e.Path,
			Ancestor: side(e.Ancestor),
			Ours:     side(e.Ours),
			Theirs:   side(e.Theirs),
		})
	}
	return ok(fmt.Sprintf("%d conflicted paths", len(data)), data)
}

// Resolve settles a conflicted path.
func (s *Service) Resolve(ctx context.Context, path string, strategy repo.ResolutionStrategy, content []byte) *Result {
	if err := s.repo.ResolveConflict(path, strategy, content); err != nil {
		s.log.Warn("resolve failed", zap.String("path", path), zap.Error(err))
		return fail(fmt.Sprintf("resolve %q failed", path), err)
	}
	s.log.Info("conflict resolved", zap.String("path", path), zap.String("strategy", string(strategy)))
	return ok(fmt.Sprintf("resolved %q (%s)", path, strategy), nil)
}

// --- delegation ---

// Git forwards a delegated subcommand to the external git binary, running in
// the repository root.
func (s *Service) Git(ctx context.Context, args ...string) *Result {
	if len(args) == 0 {
		return fail("git delegation", fmt.Errorf("no subcommand given"))
	}
	if !gittool.Delegated[args[0]] {
		return fail("git delegation", fmt.Errorf("subcommand %q is not delegated", args[0]))
	}

	out, err := s.git.Capture(ctx, s.repo.RootDir, args...)
	if err != nil {
		s.log.Warn("git delegation failed", zap.Strings("args", args), zap.Error(err))
		res := fail(fmt.Sprintf("git %s failed", args[0]), err)
		res.Error.Kind = KindExternalToolFailure
		return res
	}
	s.log.Debug("git delegated", zap.Strings("args", args))
	return ok(fmt.Sprintf("git %s", args[0]), strings.TrimRight(string(out), "\n"))
}
