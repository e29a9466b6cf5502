// Package merge implements SegmentMerger: the byte-level overlap
// compression pass that collapses a shared suffix/prefix run between
// two adjacent segments. Several ELF structures end and begin with runs
// of zero; merging a trailing zero of one header with a leading zero of
// the next reclaims one byte per overlap while keeping every carried
// label addressable.
package merge

import "github.com/xyproto/dnload/internal/asmvar"

// Pair attempts to merge segment b into segment a: it finds the longest
// k <= min(len(tail_a), len(head_b)) such that the last k bytes of a's
// deconstructed tail are pairwise mergable with the first k bytes of b's
// deconstructed head, merges that overlap's metadata into a's tail,
// drops the consumed bytes from b's head, and reconstructs both
// segments. It reports whether any bytes were merged.
func Pair(a, b *asmvar.Segment) bool {
	tail := a.TailBytes()
	head := b.HeadBytes()

	limit := len(tail)
	if len(head) < limit {
		limit = len(head)
	}

	best := 0
	for k := 1; k <= limit; k++ {
		if pairwiseMergable(tail[len(tail)-k:], head[:k]) {
			best = k
		}
	}
	if best == 0 {
		return false
	}

	mergedTail := append([]*asmvar.Variable{}, tail[:len(tail)-best]...)
	for i := 0; i < best; i++ {
		mergedTail = append(mergedTail, tail[len(tail)-best+i].Merge(head[i]))
	}
	a.ReplaceTail(mergedTail)
	b.ReplaceHead(head[best:])
	return true
}

func pairwiseMergable(x, y []*asmvar.Variable) bool {
	for i := range x {
		if !x[i].Mergable(y[i]) {
			return false
		}
	}
	return true
}

// List runs the merge loop over an ordered list of segments: attempts
// Pair on each adjacent pair in turn, removing any segment that becomes
// empty as a result.
func List(segments []*asmvar.Segment) []*asmvar.Segment {
	i := 0
	for {
		j := i + 1
		if j >= len(segments) {
			return segments
		}
		if Pair(segments[i], segments[j]) {
			if segments[j].Empty() {
				segments = append(segments[:j], segments[j+1:]...)
				continue
			}
		}
		i++
	}
}
