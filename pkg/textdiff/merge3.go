package textdiff

import "bytes"

// MergeResult holds the outcome of a three-way merge.
type MergeResult struct {
	Merged       []byte // full merged content, with conflict markers if any
	HasConflicts bool
	Conflicts    int // number of conflicted regions
}

// Merge performs a three-way merge of base, ours, and theirs.
//
// Algorithm:
//  1. Split all three inputs into lines.
//  2. Compute diff(base, ours) and diff(base, theirs).
//  3. Convert each diff into chunks: contiguous runs of unchanged or
//     changed regions relative to the base.
//  4. Walk through base positions, consulting both chunk sequences.
//  5. When both sides change the same base region differently, emit a
//     conflict with markers.
func Merge(base, ours, theirs []byte) MergeResult {
	baseLines := Lines(string(base))
	oursChunks := buildChunks(baseLines, Lines(string(ours)))
	theirsChunks := buildChunks(baseLines, Lines(string(theirs)))
	return mergeChunks(baseLines, oursChunks, theirsChunks)
}

// chunk represents a contiguous region relative to the base.
type chunk struct {
	baseStart, baseEnd int      // range [baseStart, baseEnd) in base
	lines              []string // replacement lines for this region
	changed            bool     // true if this region differs from base
}

// buildChunks converts a two-way diff (base → side) into chunks. Each chunk
// covers a contiguous range of base lines and carries the corresponding
// replacement lines from the side.
func buildChunks(base, side []string) []chunk {
	ops := Diff(base, side)

	var chunks []chunk
	baseIdx := 0

	i := 0
	for i < len(ops) {
		op := ops[i]

		if op.Kind == Equal {
			chunks = append(chunks, chunk{
				baseStart: baseIdx,
				baseEnd:   baseIdx + 1,
				lines:     []string{op.Line},
			})
			baseIdx++
			i++
			continue
		}

		// Accumulate a contiguous changed region (deletes and/or inserts).
		chunkStart := baseIdx
		var sideLines []string
		for i < len(ops) && ops[i].Kind != Equal {
			if ops[i].Kind == Delete {
				baseIdx++
			} else {
				sideLines = append(sideLines, ops[i].Line)
			}
			i++
		}

		chunks = append(chunks, chunk{
			baseStart: chunkStart,
			baseEnd:   baseIdx,
			lines:     sideLines,
			changed:   true,
		})
	}
	return chunks
}

// mergeChunks walks the two chunk sequences in parallel, aligned by
// base-line positions.
func mergeChunks(baseLines []string, oursChunks, theirsChunks []chunk) MergeResult {
	var merged bytes.Buffer
	res := MergeResult{}

	oi := 0
	ti := 0

	for oi < len(oursChunks) || ti < len(theirsChunks) {
		var oc, tc *chunk
		if oi < len(oursChunks) {
			oc = &oursChunks[oi]
		}
		if ti < len(theirsChunks) {
			tc = &theirsChunks[ti]
		}

		if oc == nil {
			writeLines(&merged, tc.lines)
			ti++
			continue
		}
		if tc == nil {
			writeLines(&merged, oc.lines)
			oi++
			continue
		}

		if oc.baseStart == tc.baseStart && oc.baseEnd == tc.baseEnd {
			// Aligned chunks covering the same base region.
			switch {
			case !oc.changed && !tc.changed:
				writeLines(&merged, oc.lines)
			case oc.changed && !tc.changed:
				writeLines(&merged, oc.lines)
			case !oc.changed && tc.changed:
				writeLines(&merged, tc.lines)
			default:
				if linesEqual(oc.lines, tc.lines) {
					writeLines(&merged, oc.lines)
				} else {
					res.HasConflicts = true
					res.Conflicts++
					writeConflict(&merged, oc.lines, tc.lines)
				}
			}
			oi++
			ti++
			continue
		}

		// Misaligned: one side's change spans multiple base-aligned chunks
		// on the other side. Collect every overlapping chunk from both
		// sides into one region and decide on the region as a whole.
		regionEnd := maxInt(oc.baseEnd, tc.baseEnd)

		var oursRegion, theirsRegion []chunk
		for oi < len(oursChunks) && oursChunks[oi].baseStart < regionEnd {
			oursRegion = append(oursRegion, oursChunks[oi])
			if oursChunks[oi].baseEnd > regionEnd {
				regionEnd = oursChunks[oi].baseEnd
			}
			oi++
		}
		for ti < len(theirsChunks) && theirsChunks[ti].baseStart < regionEnd {
			theirsRegion = append(theirsRegion, theirsChunks[ti])
			if theirsChunks[ti].baseEnd > regionEnd {
				regionEnd = theirsChunks[ti].baseEnd
			}
			ti++
		}

		oursOut := assembleRegion(oursRegion)
		theirsOut := assembleRegion(theirsRegion)

		switch {
		case !anyChanged(oursRegion) && !anyChanged(theirsRegion):
			writeLines(&merged, oursOut)
		case anyChanged(oursRegion) && !anyChanged(theirsRegion):
			writeLines(&merged, oursOut)
		case !anyChanged(oursRegion) && anyChanged(theirsRegion):
			writeLines(&merged, theirsOut)
		default:
			if linesEqual(oursOut, theirsOut) {
				writeLines(&merged, oursOut)
			} else {
				res.HasConflicts = true
				res.Conflicts++
				writeConflict(&merged, oursOut, theirsOut)
			}
		}
	}

	res.Merged = merged.Bytes()
	return res
}

func writeLines(buf *bytes.Buffer, lines []string) {
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
}

func writeConflict(buf *bytes.Buffer, oursLines, theirsLines []string) {
	buf.WriteString("<<<<<<< ours\n")
	writeLines(buf, oursLines)
	buf.WriteString("=======\n")
	writeLines(buf, theirsLines)
	buf.WriteString(">>>>>>> theirs\n")
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func assembleRegion(chunks []chunk) []string {
	var lines []string
	for _, c := range chunks {
		lines = append(lines, c.lines...)
	}
	return lines
}

func anyChanged(chunks []chunk) bool {
	for _, c := range chunks {
		if c.changed {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
