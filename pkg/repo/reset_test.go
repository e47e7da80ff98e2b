package repo

import (
	"testing"
)

func TestResetSoftMovesHeadOnly(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")
	commitFile(t, r, dir, "a.txt", "two\n", "c2")

	report, err := r.Reset(ResetOptions{Mode: ResetSoft, Target: string(c1)})
	if err != nil {
		t.Fatalf("Reset --soft: %v", err)
	}
	if report.Target != c1 {
		t.Errorf("target = %s, want %s", report.Target, c1)
	}
	if got := mustResolve(t, r, "main"); got != c1 {
		t.Errorf("main = %s, want %s", got, c1)
	}

	// Index still holds the c2 content: a.txt shows as staged-modified.
	status, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	e := findEntry(status, "a.txt")
	if e == nil || e.IndexStatus != StatusModified {
		t.Errorf("a.txt after soft reset = %+v", e)
	}
	// Worktree still matches the index.
	if e != nil && e.WorkStatus != StatusClean {
		t.Errorf("worktree should match index after soft reset: %+v", e)
	}
}

func TestResetMixedRebuildsIndex(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")
	commitFile(t, r, dir, "a.txt", "two\n", "c2")

	if _, err := r.Reset(ResetOptions{Mode: ResetMixed, Target: string(c1)}); err != nil {
		t.Fatalf("Reset --mixed: %v", err)
	}
	if got := mustResolve(t, r, "main"); got != c1 {
		t.Errorf("main = %s, want %s", got, c1)
	}

	// Index now matches c1, worktree still has the c2 content → dirty.
	if got := readWorktreeFile(t, dir, "a.txt"); got != "two\n" {
		t.Errorf("mixed reset touched the worktree: %q", got)
	}
	status, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	e := findEntry(status, "a.txt")
	if e == nil || e.IndexStatus != StatusClean || e.WorkStatus != StatusDirty {
		t.Errorf("a.txt after mixed reset = %+v", e)
	}
}

func TestResetHardRewritesWorktree(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")
	commitFile(t, r, dir, "extra.txt", "x\n", "c2")

	if _, err := r.Reset(ResetOptions{Mode: ResetHard, Target: string(c1)}); err != nil {
		t.Fatalf("Reset --hard: %v", err)
	}

	if got := readWorktreeFile(t, dir, "a.txt"); got != "one\n" {
		t.Errorf("a.txt = %q, want c1 content", got)
	}
	status, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Clean {
		t.Errorf("tree not clean after hard reset: %+v", status.Entries)
	}
	if e := findEntry(status, "extra.txt"); e != nil {
		t.Errorf("extra.txt survived hard reset: %+v", e)
	}
}

func TestResetDefaultsMixedToHead(t *testing.T) {
	r, dir := newTestRepo(t)
	head := commitFile(t, r, dir, "a.txt", "one\n", "c1")

	// Stage a change, then reset with all defaults: the staged change is
	// dropped back to HEAD.
	writeFile(t, dir, "a.txt", "staged\n")
	stage(t, r, "a.txt")

	report, err := r.Reset(ResetOptions{})
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if report.Mode != ResetMixed || report.Target != head {
		t.Errorf("report = %+v", report)
	}

	status, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	e := findEntry(status, "a.txt")
	if e == nil || e.IndexStatus != StatusClean || e.WorkStatus != StatusDirty {
		t.Errorf("a.txt = %+v, want unstaged-only change", e)
	}
}

func TestResetPathScoped(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "a.txt", "one\n", "c1")
	writeFile(t, dir, "b.txt", "b\n")
	stage(t, r, "b.txt")
	commit(t, r, "c2")

	// Stage changes to both files, then reset only a.txt.
	writeFile(t, dir, "a.txt", "staged-a\n")
	writeFile(t, dir, "b.txt", "staged-b\n")
	stage(t, r, "a.txt", "b.txt")

	report, err := r.Reset(ResetOptions{Paths: []string{"a.txt"}})
	if err != nil {
		t.Fatalf("Reset paths: %v", err)
	}
	if len(report.Paths) != 1 || report.Paths[0] != "a.txt" {
		t.Errorf("matched = %v", report.Paths)
	}

	status, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	a := findEntry(status, "a.txt")
	if a == nil || a.IndexStatus != StatusClean || a.WorkStatus != StatusDirty {
		t.Errorf("a.txt = %+v, want index restored + dirty worktree", a)
	}
	b := findEntry(status, "b.txt")
	if b == nil || b.IndexStatus != StatusModified {
		t.Errorf("b.txt = %+v, want still staged", b)
	}

	// Worktree files are untouched by a path-scoped reset.
	if got := readWorktreeFile(t, dir, "a.txt"); got != "staged-a\n" {
		t.Errorf("a.txt worktree = %q", got)
	}
}

func TestResetPathGlob(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "src/a.go", "package a\n", "c1")
	writeFile(t, dir, "src/b.go", "package b\n")
	writeFile(t, dir, "doc.md", "d\n")
	stage(t, r, "src/b.go", "doc.md")
	commit(t, r, "c2")

	writeFile(t, dir, "src/a.go", "package a // edited\n")
	writeFile(t, dir, "src/b.go", "package b // edited\n")
	writeFile(t, dir, "doc.md", "d edited\n")
	stage(t, r, "src/a.go", "src/b.go", "doc.md")

	// Directory prefix matches everything under src/.
	report, err := r.Reset(ResetOptions{Paths: []string{"src"}})
	if err != nil {
		t.Fatalf("Reset src: %v", err)
	}
	if len(report.Paths) != 2 {
		t.Errorf("matched = %v, want both src files", report.Paths)
	}

	// Glob patterns work too.
	if _, err := r.Reset(ResetOptions{Paths: []string{"*.md"}}); err != nil {
		t.Fatalf("Reset *.md: %v", err)
	}

	status, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, p := range []string{"src/a.go", "src/b.go", "doc.md"} {
		e := findEntry(status, p)
		if e == nil || e.IndexStatus != StatusClean {
			t.Errorf("%s = %+v, want restored index", p, e)
		}
	}
}

func TestResetPathRemovesEntryAbsentFromTarget(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")

	// new.txt is staged but absent from c1: resetting it to c1 unstages it.
	writeFile(t, dir, "new.txt", "n\n")
	stage(t, r, "new.txt")

	if _, err := r.Reset(ResetOptions{Target: string(c1), Paths: []string{"new.txt"}}); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	if _, ok := stg.Entries["new.txt"]; ok {
		t.Error("new.txt still staged")
	}
}

func TestResetPathspecNoMatch(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "a.txt", "one\n", "c1")

	if _, err := r.Reset(ResetOptions{Paths: []string{"nope.txt"}}); err == nil {
		t.Fatal("unmatched pathspec should fail")
	}
}

func TestResetHardAbandonsMerge(t *testing.T) {
	r, _ := conflictedRepo(t)

	if _, err := r.Reset(ResetOptions{Mode: ResetHard}); err != nil {
		t.Fatalf("Reset --hard: %v", err)
	}
	if _, merging, _ := r.MergeHead(); merging {
		t.Error("hard reset left MERGE_HEAD behind")
	}

	status, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Conflicts != 0 {
		t.Errorf("conflicts remain: %+v", status.Entries)
	}
}

func TestResetSoftKeepsMergeState(t *testing.T) {
	r, _ := conflictedRepo(t)

	// Soft reset to HEAD moves nothing and must not clear merge state.
	if _, err := r.Reset(ResetOptions{Mode: ResetSoft}); err != nil {
		t.Fatalf("Reset --soft: %v", err)
	}
	if _, merging, _ := r.MergeHead(); !merging {
		t.Error("soft reset cleared MERGE_HEAD")
	}
}
