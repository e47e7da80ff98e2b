package textdiff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	assert.Nil(t, Lines(""))
	assert.Equal(t, []string{"a"}, Lines("a"))
	assert.Equal(t, []string{"a", "b"}, Lines("a\nb\n"))
	assert.Equal(t, []string{"a", "", "b"}, Lines("a\n\nb"))
}

func TestDiffEqualInputs(t *testing.T) {
	out := Diff([]string{"x", "y"}, []string{"x", "y"})
	require.Len(t, out, 2)
	for _, op := range out {
		assert.Equal(t, Equal, op.Kind)
	}
}

func TestDiffInsertDelete(t *testing.T) {
	a := []string{"one", "two", "three"}
	b := []string{"one", "three", "four"}

	var inserts, deletes, equals int
	for _, op := range Diff(a, b) {
		switch op.Kind {
		case Insert:
			inserts++
		case Delete:
			deletes++
		case Equal:
			equals++
		}
	}
	assert.Equal(t, 1, inserts, "four added")
	assert.Equal(t, 1, deletes, "two removed")
	assert.Equal(t, 2, equals)
}

func TestHunksNoChanges(t *testing.T) {
	assert.Nil(t, Hunks([]string{"a", "b"}, []string{"a", "b"}, 3))
}

func TestHunksSingleChange(t *testing.T) {
	a := []string{"1", "2", "3", "4", "5"}
	b := []string{"1", "2", "X", "4", "5"}

	hunks := Hunks(a, b, 1)
	require.Len(t, hunks, 1)

	h := hunks[0]
	assert.Equal(t, 2, h.OldStart)
	assert.Equal(t, 3, h.OldLines) // context 2, deleted 3, context 4
	assert.Equal(t, 2, h.NewStart)
	assert.Equal(t, 3, h.NewLines)

	adds, dels := Counts(hunks)
	assert.Equal(t, 1, adds)
	assert.Equal(t, 1, dels)
}

func TestHunksFoldsAdjacentChanges(t *testing.T) {
	a := []string{"1", "2", "3", "4", "5"}
	b := []string{"1", "X", "3", "Y", "5"}

	// Context 1 around each change touches line 3: one folded hunk.
	hunks := Hunks(a, b, 1)
	require.Len(t, hunks, 1)

	// Context 0 keeps them separate.
	hunks = Hunks(a, b, 0)
	require.Len(t, hunks, 2)
}

func TestHunksPureAddition(t *testing.T) {
	hunks := Hunks(nil, []string{"a", "b"}, 3)
	require.Len(t, hunks, 1)
	assert.Equal(t, 0, hunks[0].OldStart)
	assert.Equal(t, 0, hunks[0].OldLines)
	assert.Equal(t, 1, hunks[0].NewStart)
	assert.Equal(t, 2, hunks[0].NewLines)
}

func TestMergeBothSidesUnchanged(t *testing.T) {
	base := []byte("a\nb\nc\n")
	res := Merge(base, base, base)
	assert.False(t, res.HasConflicts)
	assert.Equal(t, string(base), string(res.Merged))
}

func TestMergeNonOverlappingEdits(t *testing.T) {
	base := []byte("a\nb\nc\nd\ne\n")
	ours := []byte("A\nb\nc\nd\ne\n")
	theirs := []byte("a\nb\nc\nd\nE\n")

	res := Merge(base, ours, theirs)
	require.False(t, res.HasConflicts, "merged: %s", res.Merged)
	assert.Equal(t, "A\nb\nc\nd\nE\n", string(res.Merged))
}

func TestMergeSameChangeBothSides(t *testing.T) {
	base := []byte("a\nb\nc\n")
	edit := []byte("a\nB\nc\n")

	res := Merge(base, edit, edit)
	assert.False(t, res.HasConflicts)
	assert.Equal(t, string(edit), string(res.Merged))
}

func TestMergeConflictMarkers(t *testing.T) {
	base := []byte("a\nb\nc\n")
	ours := []byte("a\nOURS\nc\n")
	theirs := []byte("a\nTHEIRS\nc\n")

	res := Merge(base, ours, theirs)
	require.True(t, res.HasConflicts)
	assert.Equal(t, 1, res.Conflicts)

	merged := string(res.Merged)
	assert.Contains(t, merged, "<<<<<<< ours\nOURS\n")
	assert.Contains(t, merged, "=======\nTHEIRS\n")
	assert.Contains(t, merged, ">>>>>>> theirs\n")
	assert.True(t, strings.HasPrefix(merged, "a\n"))
	assert.True(t, strings.HasSuffix(merged, "c\n"))
}

func TestMergeOneSideOnly(t *testing.T) {
	base := []byte("a\nb\nc\n")
	ours := []byte("a\nb2\nc\n")

	res := Merge(base, ours, base)
	require.False(t, res.HasConflicts)
	assert.Equal(t, string(ours), string(res.Merged))

	res = Merge(base, base, ours)
	require.False(t, res.HasConflicts)
	assert.Equal(t, string(ours), string(res.Merged))
}

func TestMergeBothAppend(t *testing.T) {
	base := []byte("a\n")
	ours := []byte("a\nours-tail\n")
	theirs := []byte("a\ntheirs-tail\n")

	res := Merge(base, ours, theirs)
	require.True(t, res.HasConflicts)
	assert.Contains(t, string(res.Merged), "ours-tail")
	assert.Contains(t, string(res.Merged), "theirs-tail")
}
