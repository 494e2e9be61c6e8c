package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Item is a single content item returned by a QueryExecutor.
type Item struct {
	// ID is the item's identity, used for random-order deduplication.
	ID string `json:"id"`

	// Fields carries the item payload handed to the template.
	Fields map[string]any `json:"fields,omitempty"`
}

// OrderingMode tells the scheduler whether a stream's result order is stable.
type OrderingMode int

const (
	// Deterministic streams are paged by absolute offset.
	Deterministic OrderingMode = iota

	// Random streams are deduplicated by excluding items already shown on
	// the current page. Offsets are never sent for them.
	Random
)

// String returns the configuration name of the mode.
func (m OrderingMode) String() string {
	switch m {
	case Deterministic:
		return "deterministic"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("OrderingMode(%d)", int(m))
	}
}

// ParseOrderingMode converts a configuration string to an OrderingMode.
// An empty string means Deterministic; "rand" is accepted for Random.
func ParseOrderingMode(s string) (OrderingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deterministic", "fixed":
		return Deterministic, nil
	case "random", "rand":
		return Random, nil
	default:
		return Deterministic, fmt.Errorf("%w: unknown ordering mode %q", ErrInvalidConfig, s)
	}
}

// Stream is a named, independently paginated content source.
type Stream struct {
	// Name is the stream's unique key. When a stream is configured through
	// Config.Streams an empty Name is filled from the map key.
	Name string

	// TemplateRef is passed unchanged to the TemplateRenderer.
	TemplateRef string

	// Ordering selects offset paging or exclusion-based deduplication.
	Ordering OrderingMode

	// PerFetch is the baseline number of items fetched when the stream is
	// queried on its own (see Scheduler.FetchStream). Defaults to 10.
	PerFetch int

	// Query holds opaque store parameters sent with every fetch.
	Query map[string]string
}

// FetchSpec is the query instruction for one block. Exactly one of Offset and
// ExcludeIDs is set: Offset for deterministic streams, ExcludeIDs (possibly
// empty) for random streams.
type FetchSpec struct {
	Stream     string            `json:"stream"`
	Limit      int               `json:"limit"`
	Offset     *int              `json:"offset,omitempty"`
	ExcludeIDs []string          `json:"exclude_ids,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
}

// IsRandom reports whether the spec uses exclusion instead of an offset.
func (f FetchSpec) IsRandom() bool {
	return f.Offset == nil
}

// MarshalJSON adds the ordering mode. Random specs always carry
// exclude_ids, even when empty, and never an offset.
func (f FetchSpec) MarshalJSON() ([]byte, error) {
	type plain FetchSpec
	out := struct {
		plain
		Mode       string    `json:"mode"`
		ExcludeIDs *[]string `json:"exclude_ids,omitempty"`
	}{plain: plain(f), Mode: Deterministic.String()}

	if f.IsRandom() {
		ids := f.ExcludeIDs
		if ids == nil {
			ids = []string{}
		}
		out.Mode = Random.String()
		out.ExcludeIDs = &ids
	}
	return json.Marshal(out)
}

// ShownSet records, per stream, the identities rendered so far on the
// current page, in render order. It is created for each render and never
// shared between renders.
type ShownSet map[string][]string

// NewShownSet returns a ShownSet with an empty entry for every stream.
func NewShownSet(streams ...string) ShownSet {
	s := make(ShownSet, len(streams))
	for _, name := range streams {
		s[name] = []string{}
	}
	return s
}

// Add records id for stream. Duplicate ids are ignored.
func (s ShownSet) Add(stream, id string) {
	if s.Contains(stream, id) {
		return
	}
	s[stream] = append(s[stream], id)
}

// Contains reports whether id was already shown for stream.
func (s ShownSet) Contains(stream, id string) bool {
	for _, shown := range s[stream] {
		if shown == id {
			return true
		}
	}
	return false
}

// IDs returns a copy of the identities shown for stream. The result is never
// nil.
func (s ShownSet) IDs(stream string) []string {
	ids := make([]string, len(s[stream]))
	copy(ids, s[stream])
	return ids
}

// QueryExecutor fetches items for one block. It returns fewer than
// spec.Limit items when the stream is exhausted; that is not an error.
type QueryExecutor interface {
	Fetch(ctx context.Context, spec FetchSpec) ([]Item, error)
}

// TemplateRenderer writes one item using the stream's template.
type TemplateRenderer interface {
	Render(ctx context.Context, templateRef string, item Item) error
}

// PageNumberProvider supplies the current 1-based page number.
type PageNumberProvider interface {
	PageNumber() int
}
