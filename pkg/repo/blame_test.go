package repo

import (
	"errors"
	"strings"
	"testing"
)

func TestBlameAttributesLinesToIntroducingCommit(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "notes.txt", "one\ntwo\nthree\n", "first")
	c2 := commitFile(t, r, dir, "notes.txt", "one\nTWO\nthree\nfour\n", "second")

	result, err := r.Blame("notes.txt", "")
	if err != nil {
		t.Fatalf("Blame: %v", err)
	}
	if result.Path != "notes.txt" || result.Rev != c2 {
		t.Errorf("result = %q @ %s, want notes.txt @ %s", result.Path, result.Rev, c2)
	}
	if len(result.Lines) != 4 {
		t.Fatalf("len(Lines) = %d, want 4", len(result.Lines))
	}

	want := []struct {
		content string
		commit  string
		summary string
	}{
		{"one", string(c1), "first"},
		{"TWO", string(c2), "second"},
		{"three", string(c1), "first"},
		{"four", string(c2), "second"},
	}
	for i, w := range want {
		got := result.Lines[i]
		if got.Line != i+1 {
			t.Errorf("Lines[%d].Line = %d, want %d", i, got.Line, i+1)
		}
		if got.Content != w.content {
			t.Errorf("Lines[%d].Content = %q, want %q", i, got.Content, w.content)
		}
		if string(got.Commit) != w.commit {
			t.Errorf("Lines[%d].Commit = %s, want %s", i, got.Commit, w.commit)
		}
		if got.Summary != w.summary {
			t.Errorf("Lines[%d].Summary = %q, want %q", i, got.Summary, w.summary)
		}
		if got.Author == "" {
			t.Errorf("Lines[%d].Author is empty", i)
		}
	}
}

func TestBlameAtOlderRevision(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "notes.txt", "one\ntwo\n", "first")
	commitFile(t, r, dir, "notes.txt", "one\nTWO\n", "second")

	result, err := r.Blame("notes.txt", string(c1))
	if err != nil {
		t.Fatalf("Blame: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("len(Lines) = %d, want 2", len(result.Lines))
	}
	for i, line := range result.Lines {
		if line.Commit != c1 {
			t.Errorf("Lines[%d].Commit = %s, want %s", i, line.Commit, c1)
		}
	}
}

func TestBlameFileIntroducedMidHistory(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "a.txt", "base\n", "first")
	c2 := commitFile(t, r, dir, "b.txt", "alpha\nbeta\n", "add b")

	result, err := r.Blame("b.txt", "")
	if err != nil {
		t.Fatalf("Blame: %v", err)
	}
	for i, line := range result.Lines {
		if line.Commit != c2 {
			t.Errorf("Lines[%d].Commit = %s, want %s", i, line.Commit, c2)
		}
	}
}

func TestBlameUnchangedFileSkipsIntermediateCommits(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "stable.txt", "keep\n", "first")
	commitFile(t, r, dir, "other.txt", "noise\n", "second")
	commitFile(t, r, dir, "other.txt", "more noise\n", "third")

	result, err := r.Blame("stable.txt", "")
	if err != nil {
		t.Fatalf("Blame: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0].Commit != c1 {
		t.Errorf("Lines = %+v, want single line owned by %s", result.Lines, c1)
	}
}

func TestBlameErrors(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "notes.txt", "one\n", "first")
	commitFile(t, r, dir, "bin.dat", "data\x00more", "binary")

	if _, err := r.Blame("missing.txt", ""); !errors.Is(err, ErrPathNotTracked) {
		t.Errorf("missing path: err = %v, want ErrPathNotTracked", err)
	}
	if _, err := r.Blame("notes.txt", "no-such-rev"); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("bad rev: err = %v, want ErrRevisionNotFound", err)
	}
	if _, err := r.Blame("bin.dat", ""); err == nil || !strings.Contains(err.Error(), "binary") {
		t.Errorf("binary file: err = %v, want binary file error", err)
	}
}
