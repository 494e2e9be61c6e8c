package scheduler

import (
	"fmt"

	"github.com/Sternrassler/loop-pattern/pkg/pattern"
)

// BuildFetchSpec builds the query instruction for block b.
//
// Deterministic streams get Limit = b.RunLength and the absolute offset for
// page. Random streams get no offset at all; instead ExcludeIDs lists the
// items already shown for the stream earlier on this page. This only
// prevents duplicates within one render and needs the stream to hold more
// than total items to fill every slot.
func BuildFetchSpec(b pattern.Block, mode OrderingMode, page, total int, shown ShownSet) (FetchSpec, error) {
	spec := FetchSpec{
		Stream: b.Stream,
		Limit:  b.RunLength,
	}

	switch mode {
	case Deterministic:
		offset, err := pattern.ComputeOffset(page, total, b)
		if err != nil {
			return FetchSpec{}, err
		}
		spec.Offset = &offset
	case Random:
		spec.ExcludeIDs = shown.IDs(b.Stream)
	default:
		return FetchSpec{}, fmt.Errorf("%w: stream %q has unknown ordering mode %d", ErrInvalidConfig, b.Stream, int(mode))
	}

	return spec, nil
}
