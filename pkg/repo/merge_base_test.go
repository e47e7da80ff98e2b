package repo

import (
	"strings"
	"testing"
)

func TestFindMergeBaseLinear(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")
	c2 := commitFile(t, r, dir, "a.txt", "two\n", "c2")

	// On a linear chain the base of tip and ancestor is the ancestor,
	// whichever way round the pair is asked.
	base, err := r.FindMergeBase(c2, c1)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if base != c1 {
		t.Errorf("base = %s, want %s", base, c1)
	}
	base, err = r.FindMergeBase(c1, c2)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if base != c1 {
		t.Errorf("reversed base = %s, want %s", base, c1)
	}

	if base, _ := r.FindMergeBase(c1, c1); base != c1 {
		t.Errorf("self base = %s", base)
	}
}

func TestFindMergeBaseFork(t *testing.T) {
	r, dir := newTestRepo(t)
	fork := commitFile(t, r, dir, "a.txt", "one\n", "fork point")
	if err := r.CreateBranch("feature", fork); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	mainTip := commitFile(t, r, dir, "main.txt", "m\n", "on main")
	checkout(t, r, "feature")
	f1 := commitFile(t, r, dir, "f1.txt", "f\n", "feature 1")
	featureTip := commitFile(t, r, dir, "f2.txt", "f\n", "feature 2")
	checkout(t, r, "main")

	base, err := r.FindMergeBase(mainTip, featureTip)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if base != fork {
		t.Errorf("base = %s, want fork point %s", base, fork)
	}

	// The intermediate feature commit shares the same base with main.
	base, err = r.FindMergeBase(mainTip, f1)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if base != fork {
		t.Errorf("base = %s, want %s", base, fork)
	}
}

func TestFindMergeBaseAfterMerge(t *testing.T) {
	r, dir := newTestRepo(t)
	commitFile(t, r, dir, "a.txt", "one\n", "c1")
	if err := r.CreateBranch("feature", mustResolve(t, r, "main")); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	commitFile(t, r, dir, "main.txt", "m\n", "on main")
	checkout(t, r, "feature")
	featureTip := commitFile(t, r, dir, "f.txt", "f\n", "on feature")
	checkout(t, r, "main")

	res, err := r.Merge("feature", MergeOptions{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	// After the merge commit, the feature tip is an ancestor of main.
	base, err := r.FindMergeBase(res.MergeCommit, featureTip)
	if err != nil {
		t.Fatalf("FindMergeBase: %v", err)
	}
	if base != featureTip {
		t.Errorf("base = %s, want %s", base, featureTip)
	}
}

func TestIsAncestor(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")
	c2 := commitFile(t, r, dir, "a.txt", "two\n", "c2")

	ok, err := r.IsAncestor(c1, c2)
	if err != nil {
		t.Fatalf("IsAncestor: %v", err)
	}
	if !ok {
		t.Error("c1 should be an ancestor of c2")
	}

	ok, err = r.IsAncestor(c2, c1)
	if err != nil {
		t.Fatalf("IsAncestor: %v", err)
	}
	if ok {
		t.Error("c2 must not be an ancestor of c1")
	}

	if ok, _ := r.IsAncestor(c1, c1); !ok {
		t.Error("a commit is its own ancestor")
	}
	if ok, _ := r.IsAncestor("", c1); ok {
		t.Error("empty hash is never an ancestor")
	}
}

func TestMergeBaseStepsLimit(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")
	for i := 0; i < 8; i++ {
		commitFile(t, r, dir, "a.txt", strings.Repeat("x", i+2)+"\n", "grow")
	}
	head := mustResolve(t, r, "HEAD")

	oldSteps := mergeBaseBFSStepsLimit
	mergeBaseBFSStepsLimit = 2
	defer func() { mergeBaseBFSStepsLimit = oldSteps }()

	_, err := r.IsAncestor(c1, head)
	if err == nil || !strings.Contains(err.Error(), "maximum steps") {
		t.Errorf("err = %v, want steps-limit failure", err)
	}
}

func TestMergeBaseDepthLimit(t *testing.T) {
	r, dir := newTestRepo(t)
	c1 := commitFile(t, r, dir, "a.txt", "one\n", "c1")
	for i := 0; i < 8; i++ {
		commitFile(t, r, dir, "a.txt", strings.Repeat("x", i+2)+"\n", "grow")
	}
	head := mustResolve(t, r, "HEAD")

	oldDepth := mergeBaseBFSDepthLimit
	mergeBaseBFSDepthLimit = 2
	defer func() { mergeBaseBFSDepthLimit = oldDepth }()

	_, err := r.IsAncestor(c1, head)
	if err == nil || !strings.Contains(err.Error(), "maximum depth") {
		t.Errorf("err = %v, want depth-limit failure", err)
	}
}
