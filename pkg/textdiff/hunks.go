package textdiff

// LineKind classifies a line inside a unified hunk.
type LineKind int

const (
	Context  LineKind = iota // unchanged line shown for context
	Addition                 // line present only on the new side
	Deletion                 // line present only on the old side
)

// Line is a single line of a unified hunk.
type Line struct {
	Kind    LineKind
	Content string
}

// Hunk is one unified-diff hunk: the classic "@@ -o,n +o,n @@" region.
// Start positions are 1-based; a side with zero lines uses the position
// after which the change applies, matching unified diff conventions.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// Hunks assembles the edit script between a and b into unified hunks with
// the requested number of context lines. Adjacent changes whose context
// regions touch are folded into a single hunk.
func Hunks(a, b []string, context int) []Hunk {
	if context < 0 {
		context = 0
	}
	ops := Diff(a, b)

	// Locate changed regions as [start, end) index ranges over ops.
	type region struct{ start, end int }
	var regions []region
	for i := 0; i < len(ops); {
		if ops[i].Kind == Equal {
			i++
			continue
		}
		start := i
		for i < len(ops) && ops[i].Kind != Equal {
			i++
		}
		regions = append(regions, region{start: start, end: i})
	}
	if len(regions) == 0 {
		return nil
	}

	// Widen each region by context and merge overlapping ones.
	var groups []region
	for _, r := range regions {
		start := r.start - context
		if start < 0 {
			start = 0
		}
		end := r.end + context
		if end > len(ops) {
			end = len(ops)
		}
		if len(groups) > 0 && start <= groups[len(groups)-1].end {
			groups[len(groups)-1].end = end
			continue
		}
		groups = append(groups, region{start: start, end: end})
	}

	// Precompute old/new line counts before each op index.
	oldBefore := make([]int, len(ops)+1)
	newBefore := make([]int, len(ops)+1)
	for i, op := range ops {
		oldBefore[i+1] = oldBefore[i]
		newBefore[i+1] = newBefore[i]
		switch op.Kind {
		case Equal:
			oldBefore[i+1]++
			newBefore[i+1]++
		case Delete:
			oldBefore[i+1]++
		case Insert:
			newBefore[i+1]++
		}
	}

	hunks := make([]Hunk, 0, len(groups))
	for _, g := range groups {
		h := Hunk{}
		for _, op := range ops[g.start:g.end] {
			switch op.Kind {
			case Equal:
				h.Lines = append(h.Lines, Line{Kind: Context, Content: op.Line})
				h.OldLines++
				h.NewLines++
			case Delete:
				h.Lines = append(h.Lines, Line{Kind: Deletion, Content: op.Line})
				h.OldLines++
			case Insert:
				h.Lines = append(h.Lines, Line{Kind: Addition, Content: op.Line})
				h.NewLines++
			}
		}
		h.OldStart = oldBefore[g.start] + 1
		if h.OldLines == 0 {
			h.OldStart = oldBefore[g.start]
		}
		h.NewStart = newBefore[g.start] + 1
		if h.NewLines == 0 {
			h.NewStart = newBefore[g.start]
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// Counts sums the additions and deletions across hunks.
func Counts(hunks []Hunk) (additions, deletions int) {
	for _, h := range hunks {
		for _, l := range h.Lines {
			switch l.Kind {
			case Addition:
				additions++
			case Deletion:
				deletions++
			}
		}
	}
	return additions, deletions
}
