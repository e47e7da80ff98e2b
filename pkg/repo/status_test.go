package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func findEntry(report *StatusReport, path string) *StatusEntry {
	for i := range report.Entries {
		if report.Entries[i].Path == path {
			return &report.Entries[i]
		}
	}
	return nil
}

func TestStatusCleanAfterCommit(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "f.txt", "one\n", "initial")

	report, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !report.Clean {
		t.Errorf("expected clean tree, got %+v", report)
	}
	if report.Branch != "main" {
		t.Errorf("branch = %q", report.Branch)
	}
}

func TestStatusUntracked(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "f.txt", "one\n", "initial")
	writeFile(t, dir, "new.txt", "n\n")

	report, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.Untracked != 1 {
		t.Errorf("untracked = %d, want 1", report.Untracked)
	}
	if report.Clean {
		t.Error("tree with untracked file reported clean")
	}

	e := findEntry(report, "new.txt")
	if e == nil || e.IndexStatus != StatusUntracked {
		t.Errorf("new.txt entry = %+v", e)
	}
}

func TestStatusStagedAndUnstaged(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "f.txt", "one\n", "initial")

	// Stage a modification, then dirty the worktree again on top.
	writeFile(t, dir, "f.txt", "two\n")
	stage(t, r, "f.txt")
	writeFile(t, dir, "f.txt", "three\n")

	writeFile(t, dir, "added.txt", "a\n")
	stage(t, r, "added.txt")

	report, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.Staged != 2 {
		t.Errorf("staged = %d, want 2 (modified f.txt + new added.txt)", report.Staged)
	}
	if report.Unstaged != 1 {
		t.Errorf("unstaged = %d, want 1 (dirty f.txt)", report.Unstaged)
	}

	f := findEntry(report, "f.txt")
	if f == nil || f.IndexStatus != StatusModified || f.WorkStatus != StatusDirty {
		t.Errorf("f.txt entry = %+v", f)
	}
	a := findEntry(report, "added.txt")
	if a == nil || a.IndexStatus != StatusNew {
		t.Errorf("added.txt entry = %+v", a)
	}
}

func TestStatusDeletedFromWorktree(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "f.txt", "one\n", "initial")

	if err := os.Remove(filepath.Join(dir, "f.txt")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	report, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	e := findEntry(report, "f.txt")
	if e == nil || e.WorkStatus != StatusDeleted {
		t.Errorf("f.txt entry = %+v", e)
	}
	if report.Unstaged != 1 {
		t.Errorf("unstaged = %d, want 1", report.Unstaged)
	}
}

func TestStatusIgnoredPaths(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "f.txt", "one\n", "initial")

	writeFile(t, dir, ".gritignore", "*.log\nbuild/\n")
	writeFile(t, dir, "debug.log", "x\n")
	writeFile(t, dir, "build/out.bin", "y\n")

	report, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	ignored := map[string]bool{}
	for _, p := range report.Ignored {
		ignored[p] = true
	}
	if !ignored["debug.log"] {
		t.Errorf("debug.log not ignored: %v", report.Ignored)
	}
	if !ignored["build"] && !ignored["build/out.bin"] {
		t.Errorf("build dir not ignored: %v", report.Ignored)
	}
	if e := findEntry(report, "debug.log"); e != nil {
		t.Errorf("ignored file shows up as an entry: %+v", e)
	}
	// .gritignore itself is a normal untracked file.
	if e := findEntry(report, ".gritignore"); e == nil {
		t.Error(".gritignore missing from entries")
	}
}

func TestStatusConflictCountsSeparately(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "f.txt", "one\n", "initial")

	stg, err := r.ReadStaging()
	if err != nil {
		t.Fatalf("ReadStaging: %v", err)
	}
	stg.Entries["f.txt"].Conflict = true
	if err := r.WriteStaging(stg); err != nil {
		t.Fatalf("WriteStaging: %v", err)
	}

	report, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.Conflicts != 1 {
		t.Errorf("conflicts = %d, want 1", report.Conflicts)
	}
	if report.Clean {
		t.Error("conflicted tree reported clean")
	}
}

func TestStatusRenameDetection(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "old.txt", "stable content for rename detection\n", "initial")

	// Move the file on disk without restaging.
	if err := os.Rename(filepath.Join(dir, "old.txt"), filepath.Join(dir, "new.txt")); err != nil {
		t.Fatalf("rename: %v", err)
	}

	report, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	e := findEntry(report, "new.txt")
	if e == nil {
		t.Fatalf("new.txt entry missing: %+v", report.Entries)
	}
	if e.WorkStatus != StatusRenamed || e.RenamedFrom != "old.txt" {
		t.Errorf("rename not detected: %+v", e)
	}
}
