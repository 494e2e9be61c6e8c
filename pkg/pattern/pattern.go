package pattern

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned for malformed patterns, non-positive
// repetitions and non-positive page numbers.
var ErrInvalidConfig = errors.New("invalid config")

// Block is a maximal contiguous run of one stream within a page sequence.
type Block struct {
	// Stream is the stream name occupying every slot of the block.
	Stream string `json:"stream"`

	// Start is the index of the block's first slot in the page sequence.
	Start int `json:"start"`

	// RunLength is the number of slots in the block.
	RunLength int `json:"run_length"`

	// PriorCount is the number of slots of the same stream that occur
	// earlier in the page sequence, across block boundaries.
	PriorCount int `json:"prior_count"`
}

// Expand repeats the unit pattern repetitions times.
func Expand(unit []string, repetitions int) ([]string, error) {
	if len(unit) == 0 {
		return nil, fmt.Errorf("%w: unit pattern is empty", ErrInvalidConfig)
	}
	if repetitions < 1 {
		return nil, fmt.Errorf("%w: repetitions must be >= 1 (got %d)", ErrInvalidConfig, repetitions)
	}

	seq := make([]string, 0, len(unit)*repetitions)
	for i := 0; i < repetitions; i++ {
		seq = append(seq, unit...)
	}
	return seq, nil
}

// DetectBlocks partitions seq into blocks in slot order. A new block starts
// whenever a slot's stream differs from the previous slot's stream.
func DetectBlocks(seq []string) []Block {
	blocks := make([]Block, 0)
	seen := make(map[string]int)

	for i, name := range seq {
		if i == 0 || name != seq[i-1] {
			blocks = append(blocks, Block{
				Stream:     name,
				Start:      i,
				PriorCount: seen[name],
			})
		}
		blocks[len(blocks)-1].RunLength++
		seen[name]++
	}

	return blocks
}

// StreamTotals returns the number of slots each stream occupies in seq.
// This is the stream's paging stride.
func StreamTotals(seq []string) map[string]int {
	totals := make(map[string]int)
	for _, name := range seq {
		totals[name]++
	}
	return totals
}

// ComputeOffset returns the absolute offset of block b on a 1-based page:
//
//	(page-1)*streamTotal + b.PriorCount
func ComputeOffset(page, streamTotal int, b Block) (int, error) {
	if page < 1 {
		return 0, fmt.Errorf("%w: page number must be >= 1 (got %d)", ErrInvalidConfig, page)
	}
	if streamTotal < 1 || streamTotal < b.PriorCount+b.RunLength {
		return 0, fmt.Errorf("%w: stream %q total %d smaller than block end %d",
			ErrInvalidConfig, b.Stream, streamTotal, b.PriorCount+b.RunLength)
	}
	if page-1 > (math.MaxInt-b.PriorCount)/streamTotal {
		return 0, fmt.Errorf("%w: page number %d out of range for stream %q", ErrInvalidConfig, page, b.Stream)
	}
	return (page-1)*streamTotal + b.PriorCount, nil
}
