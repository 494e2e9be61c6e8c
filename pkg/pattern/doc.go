// Package pattern implements the pure arithmetic behind interleaved stream
// pagination.
//
// A page is described by a unit pattern of stream names (e.g. A,A,B,A,B,B)
// repeated a fixed number of times. From that sequence the package derives:
//
//   - the page sequence (Expand)
//   - the contiguous runs of one stream, called blocks (DetectBlocks)
//   - the number of slots each stream occupies per page (StreamTotals)
//   - the absolute fetch offset of a block for a page number (ComputeOffset)
//
// Example:
//
//	seq, err := pattern.Expand([]string{"A", "A", "B", "A", "B", "B"}, 1)
//	blocks := pattern.DetectBlocks(seq)
//	totals := pattern.StreamTotals(seq)
//	for _, b := range blocks {
//		offset, _ := pattern.ComputeOffset(2, totals[b.Stream], b)
//		// A: 3 (limit 2), B: 3 (limit 1), A: 5 (limit 1), B: 4 (limit 2)
//	}
//
// Each stream's items form one ordered sequence. A page consumes exactly
// StreamTotals[stream] of them, and a block starts PriorCount items past the
// start of that page's slice, so consecutive pages never skip or repeat
// items and non-adjacent blocks of one stream get disjoint windows.
//
// The accounting assumes the pattern and repetitions are identical on every
// page. Changing either between pages is unsupported.
package pattern
