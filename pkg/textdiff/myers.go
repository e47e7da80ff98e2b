// Package textdiff implements line-based diffing and merging: a Myers
// shortest-edit-script diff, unified hunk assembly, and a three-way merge
// with conflict markers.
package textdiff

import "strings"

// OpKind classifies a line in an edit script.
type OpKind int

const (
	Equal  OpKind = iota // line is unchanged between a and b
	Insert               // line was inserted (present in b only)
	Delete               // line was deleted (present in a only)
)

// Op is a single operation in an edit script produced by Diff.
type Op struct {
	Kind OpKind
	Line string
}

// Lines splits s into lines. A trailing newline does not produce an extra
// empty element, matching standard text file conventions.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Diff computes the shortest edit script transforming a into b using the
// Myers algorithm on whole lines. It runs in O((N+M)*D) time where D is the
// size of the minimum edit script.
func Diff(a, b []string) []Op {
	n := len(a)
	m := len(b)

	if n == 0 && m == 0 {
		return nil
	}
	if n == 0 {
		ops := make([]Op, m)
		for i, line := range b {
			ops[i] = Op{Kind: Insert, Line: line}
		}
		return ops
	}
	if m == 0 {
		ops := make([]Op, n)
		for i, line := range a {
			ops[i] = Op{Kind: Delete, Line: line}
		}
		return ops
	}

	max := n + m
	size := 2*max + 1
	v := make([]int, size)

	// trace[d] holds a snapshot of v after processing edit distance d.
	var trace [][]int

	for d := 0; d <= max; d++ {
		for k := -d; k <= d; k += 2 {
			idx := k + max
			var x int
			if k == -d || (k != d && v[idx-1] < v[idx+1]) {
				x = v[idx+1] // move down (insert)
			} else {
				x = v[idx-1] + 1 // move right (delete)
			}
			y := x - k

			// Follow the diagonal of equal lines.
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}

			v[idx] = x

			if x >= n && y >= m {
				snap := make([]int, size)
				copy(snap, v)
				trace = append(trace, snap)
				return backtrack(trace, a, b, d)
			}
		}

		snap := make([]int, size)
		copy(snap, v)
		trace = append(trace, snap)
	}

	// Unreachable for valid inputs.
	return nil
}

// backtrack reconstructs the edit script from the trace of v snapshots.
func backtrack(trace [][]int, a, b []string, dFinal int) []Op {
	n := len(a)
	m := len(b)
	max := n + m

	x := n
	y := m

	var ops []Op

	for d := dFinal; d > 0; d-- {
		k := x - y
		idx := k + max

		vPrev := trace[d-1]

		var prevK int
		if k == -d || (k != d && vPrev[idx-1] < vPrev[idx+1]) {
			prevK = k + 1 // came from an insert (down move)
		} else {
			prevK = k - 1 // came from a delete (right move)
		}

		prevX := vPrev[prevK+max]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			ops = append(ops, Op{Kind: Equal, Line: a[x]})
		}

		if k == prevK+1 {
			x--
			ops = append(ops, Op{Kind: Delete, Line: a[x]})
		} else {
			y--
			ops = append(ops, Op{Kind: Insert, Line: b[y]})
		}
	}

	// Remaining diagonal at d=0.
	for x > 0 && y > 0 {
		x--
		y--
		ops = append(ops, Op{Kind: Equal, Line: a[x]})
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}
