// Package scheduler renders pages composed of several interleaved content
// streams, keeping each stream's pagination continuous across pages.
package scheduler

import (
	"context"
	"fmt"
	"sort"

	"github.com/Sternrassler/loop-pattern/pkg/pattern"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultPerFetch is the baseline items-per-fetch for a stream that does not
// set one.
const DefaultPerFetch = 10

// FailurePolicy decides what RenderPage does after a block fails to fetch.
type FailurePolicy int

const (
	// SkipFailedBlock omits the failed block and continues with the rest of
	// the page. Failures are collected in the Report.
	SkipFailedBlock FailurePolicy = iota

	// AbortOnFailure stops the render at the first failed block.
	AbortOnFailure
)

// String returns the configuration name of the policy.
func (p FailurePolicy) String() string {
	switch p {
	case SkipFailedBlock:
		return "skip"
	case AbortOnFailure:
		return "abort"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy converts "skip" (or "") and "abort" to a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "skip", "continue":
		return SkipFailedBlock, nil
	case "abort":
		return AbortOnFailure, nil
	default:
		return SkipFailedBlock, fmt.Errorf("%w: unknown failure policy %q", ErrInvalidConfig, s)
	}
}

// Config holds the scheduler configuration.
type Config struct {
	// Streams maps stream name to stream definition.
	Streams map[string]Stream

	// UnitPattern is the repeating sequence of stream names.
	UnitPattern []string

	// RepetitionsPerPage is how many times UnitPattern repeats on a page.
	RepetitionsPerPage int

	// FailurePolicy controls behavior after a failed block fetch.
	FailurePolicy FailurePolicy
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// Scheduler plans and renders interleaved stream pages. It holds only
// immutable configuration, so one Scheduler may serve concurrent renders.
type Scheduler struct {
	streams     map[string]Stream
	names       []string
	unit        []string
	repetitions int
	policy      FailurePolicy
	executor    QueryExecutor
	logger      zerolog.Logger
}

// New validates cfg and creates a Scheduler that fetches through executor.
func New(cfg Config, executor QueryExecutor, opts ...Option) (*Scheduler, error) {
	if executor == nil {
		return nil, fmt.Errorf("query executor is required")
	}
	if len(cfg.Streams) == 0 {
		return nil, fmt.Errorf("%w: no streams configured", ErrInvalidConfig)
	}
	if len(cfg.UnitPattern) == 0 {
		return nil, fmt.Errorf("%w: unit pattern is empty", ErrInvalidConfig)
	}
	if cfg.RepetitionsPerPage < 1 {
		return nil, fmt.Errorf("%w: repetitions must be >= 1 (got %d)", ErrInvalidConfig, cfg.RepetitionsPerPage)
	}
	if cfg.FailurePolicy != SkipFailedBlock && cfg.FailurePolicy != AbortOnFailure {
		return nil, fmt.Errorf("%w: unknown failure policy %d", ErrInvalidConfig, int(cfg.FailurePolicy))
	}

	streams := make(map[string]Stream, len(cfg.Streams))
	names := make([]string, 0, len(cfg.Streams))
	for key, st := range cfg.Streams {
		if st.Name == "" {
			st.Name = key
		}
		if st.Name != key {
			return nil, fmt.Errorf("%w: stream key %q does not match name %q", ErrInvalidConfig, key, st.Name)
		}
		if st.TemplateRef == "" {
			return nil, fmt.Errorf("%w: stream %q has no template", ErrInvalidConfig, key)
		}
		if st.Ordering != Deterministic && st.Ordering != Random {
			return nil, fmt.Errorf("%w: stream %q has unknown ordering mode %d", ErrInvalidConfig, key, int(st.Ordering))
		}
		if st.PerFetch < 0 {
			return nil, fmt.Errorf("%w: stream %q per_fetch must be >= 0 (got %d)", ErrInvalidConfig, key, st.PerFetch)
		}
		if st.PerFetch == 0 {
			st.PerFetch = DefaultPerFetch
		}
		streams[key] = st
		names = append(names, key)
	}
	sort.Strings(names)

	for i, name := range cfg.UnitPattern {
		if _, ok := streams[name]; !ok {
			return nil, fmt.Errorf("%w: pattern slot %d references unknown stream %q", ErrInvalidConfig, i, name)
		}
	}

	unit := make([]string, len(cfg.UnitPattern))
	copy(unit, cfg.UnitPattern)

	s := &Scheduler{
		streams:     streams,
		names:       names,
		unit:        unit,
		repetitions: cfg.RepetitionsPerPage,
		policy:      cfg.FailurePolicy,
		executor:    executor,
		logger:      log.With().Str("component", "loop-scheduler").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Stream returns the configured stream with the given name.
func (s *Scheduler) Stream(name string) (Stream, bool) {
	st, ok := s.streams[name]
	return st, ok
}

// StreamNames returns the configured stream names in sorted order.
func (s *Scheduler) StreamNames() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// Plan is the fetch plan for one page.
type Plan struct {
	Page     int             `json:"page"`
	Sequence []string        `json:"sequence"`
	Blocks   []pattern.Block `json:"blocks"`
	Totals   map[string]int  `json:"totals"`

	// Specs holds one FetchSpec per block. Random-mode specs carry an empty
	// exclusion list here; the real list is only known while rendering.
	Specs []FetchSpec `json:"specs"`
}

// Plan computes the page sequence, blocks, stream totals and fetch specs for
// page without querying anything.
func (s *Scheduler) Plan(page int) (*Plan, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page number must be >= 1 (got %d)", ErrInvalidConfig, page)
	}

	seq, err := pattern.Expand(s.unit, s.repetitions)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Page:     page,
		Sequence: seq,
		Blocks:   pattern.DetectBlocks(seq),
		Totals:   pattern.StreamTotals(seq),
	}

	shown := NewShownSet(s.names...)
	plan.Specs = make([]FetchSpec, 0, len(plan.Blocks))
	for _, b := range plan.Blocks {
		spec, err := s.buildSpec(b, page, plan.Totals[b.Stream], shown)
		if err != nil {
			return nil, err
		}
		plan.Specs = append(plan.Specs, spec)
	}

	return plan, nil
}

// buildSpec applies the stream's ordering mode and query parameters.
func (s *Scheduler) buildSpec(b pattern.Block, page, total int, shown ShownSet) (FetchSpec, error) {
	st := s.streams[b.Stream]
	spec, err := BuildFetchSpec(b, st.Ordering, page, total, shown)
	if err != nil {
		return FetchSpec{}, err
	}
	spec.Query = st.Query
	return spec, nil
}

// FetchStream queries a single stream outside the page pattern, using the
// stream's PerFetch as page size. Random streams are fetched without
// offset or exclusions.
func (s *Scheduler) FetchStream(ctx context.Context, name string, page int) ([]Item, error) {
	st, ok := s.streams[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown stream %q", ErrInvalidConfig, name)
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: page number must be >= 1 (got %d)", ErrInvalidConfig, page)
	}

	spec := FetchSpec{
		Stream: name,
		Limit:  st.PerFetch,
		Query:  st.Query,
	}
	if st.Ordering == Random {
		spec.ExcludeIDs = []string{}
	} else {
		offset := (page - 1) * st.PerFetch
		spec.Offset = &offset
	}

	items, err := s.executor.Fetch(ctx, spec)
	if err != nil {
		return nil, &FetchError{Stream: name, BlockIndex: -1, Err: err}
	}
	if len(items) > spec.Limit {
		items = items[:spec.Limit]
	}
	return items, nil
}
