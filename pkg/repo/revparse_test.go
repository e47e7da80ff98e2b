package repo

import (
	"errors"
	"testing"

	"github.com/grit-vcs/grit/pkg/object"
)

func TestRevParseBases(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")

	for _, expr := range []string{
		"HEAD",
		"main",
		"refs/heads/main",
		string(c1),
		string(c1)[:8],
	} {
		h, err := r.RevParse(expr)
		if err != nil {
			t.Errorf("RevParse(%q): %v", expr, err)
			continue
		}
		if h != c1 {
			t.Errorf("RevParse(%q) = %s, want %s", expr, h, c1)
		}
	}
}

func TestRevParseAncestry(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")
	c2 := commitFile(t, r, dir, "a.txt", "two\n", "c2")
	commitFile(t, r, dir, "a.txt", "three\n", "c3")

	cases := map[string]object.Hash{
		"HEAD~":    c2,
		"HEAD~1":   c2,
		"HEAD~2":   c1,
		"HEAD^":    c2,
		"HEAD^1":   c2,
		"HEAD^^":   c1,
		"HEAD~1^1": c1,
		"main~2":   c1,
	}
	for expr, want := range cases {
		h, err := r.RevParse(expr)
		if err != nil {
			t.Errorf("RevParse(%q): %v", expr, err)
			continue
		}
		if h != want {
			t.Errorf("RevParse(%q) = %s, want %s", expr, h, want)
		}
	}

	// Walking past the root commit fails.
	if _, err := r.RevParse("HEAD~3"); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("HEAD~3 err = %v", err)
	}
}

func TestRevParseSecondParent(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "a.txt", "one\n", "c1")
	if err := r.CreateBranch("feature", mustResolve(t, r, "main")); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	mainTip := commitFile(t, r, dir, "main.txt", "m\n", "on main")
	checkout(t, r, "feature")
	featureTip := commitFile(t, r, dir, "feature.txt", "f\n", "on feature")
	checkout(t, r, "main")

	res, err := r.Merge("feature", MergeOptions{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Kind != MergeCommitted {
		t.Fatalf("kind = %s", res.Kind)
	}

	if h, err := r.RevParse("HEAD^1"); err != nil || h != mainTip {
		t.Errorf("HEAD^1 = %s, %v; want %s", h, err, mainTip)
	}
	if h, err := r.RevParse("HEAD^2"); err != nil || h != featureTip {
		t.Errorf("HEAD^2 = %s, %v; want %s", h, err, featureTip)
	}
	if _, err := r.RevParse("HEAD^3"); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("HEAD^3 err = %v", err)
	}
}

func TestRevParsePeel(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")

	commit, err := r.Store.ReadCommit(c1)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}

	if h, err := r.RevParse("HEAD^{tree}"); err != nil || h != commit.TreeHash {
		t.Errorf("HEAD^{tree} = %s, %v; want %s", h, err, commit.TreeHash)
	}
	if h, err := r.RevParse("HEAD^{commit}"); err != nil || h != c1 {
		t.Errorf("HEAD^{commit} = %s, %v", h, err)
	}
	if h, err := r.RevParseTree("HEAD"); err != nil || h != commit.TreeHash {
		t.Errorf("RevParseTree(HEAD) = %s, %v", h, err)
	}
	// Peeling a tree to a commit fails.
	if _, err := r.RevParseCommit("HEAD^{tree}"); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("commit-peel of tree err = %v", err)
	}
}

func TestRevParseAnnotatedTagPeels(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")

	if _, err := r.CreateAnnotatedTag("v1", c1, "Test User <test@example.com>", "release", false); err != nil {
		t.Fatalf("CreateAnnotatedTag: %v", err)
	}

	raw, err := r.RevParse("v1")
	if err != nil {
		t.Fatalf("RevParse(v1): %v", err)
	}
	if raw == c1 {
		t.Fatal("annotated tag ref should point at the tag object")
	}
	if h, err := r.RevParseCommit("v1"); err != nil || h != c1 {
		t.Errorf("RevParseCommit(v1) = %s, %v; want %s", h, err, c1)
	}
	// v1~ peels the tag to c1 and walks to its parent; c1 is the root.
	if _, err := r.RevParse("v1~"); !errors.Is(err, ErrRevisionNotFound) {
		t.Errorf("v1~ err = %v", err)
	}
}

func TestRevParseErrors(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "a.txt", "one\n", "c1")

	for _, expr := range []string{"", "nope", "deadbeef", "HEAD^{blob}", "HEAD^{tree"} {
		if _, err := r.RevParse(expr); !errors.Is(err, ErrRevisionNotFound) {
			t.Errorf("RevParse(%q) err = %v, want ErrRevisionNotFound", expr, err)
		}
	}
}

func TestRevParseAmbiguousPrefix(t *testing.T) {
	r, _ := newTestRepo(t)

	// Write blobs until two share a 4-character prefix, then rev-parse it.
	seen := make(map[string]object.Hash)
	var prefix string
	for i := 0; i < 4096 && prefix == ""; i++ {
		h, err := r.Store.WriteBlob(&object.Blob{Data: []byte{byte(i), byte(i >> 8)}})
		if err != nil {
			t.Fatalf("WriteBlob: %v", err)
		}
		p := string(h)[:4]
		if _, ok := seen[p]; ok {
			prefix = p
		}
		seen[p] = h
	}
	if prefix == "" {
		t.Fatal("no colliding prefix found")
	}

	if _, err := r.RevParse(prefix); !errors.Is(err, object.ErrAmbiguousPrefix) {
		t.Errorf("ambiguous prefix err = %v", err)
	}
}
