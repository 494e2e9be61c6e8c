// Package testutil provides testing utilities for the loop scheduler.
package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
)

// MockStore is a configurable in-memory QueryExecutor that records every
// fetch it receives.
type MockStore struct {
	mu      sync.RWMutex
	streams map[string][]scheduler.Item
	errors  map[string]error
	rng     *rand.Rand

	// Tracking
	Calls []scheduler.FetchSpec
}

// NewMockStore creates an empty mock store. Random-mode fetches are shuffled
// with a fixed seed so tests are repeatable.
func NewMockStore() *MockStore {
	return &MockStore{
		streams: make(map[string][]scheduler.Item),
		errors:  make(map[string]error),
		rng:     rand.New(rand.NewSource(42)),
	}
}

// SetItems replaces the ordered items of stream.
func (m *MockStore) SetItems(stream string, items []scheduler.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams[stream] = items
}

// Populate fills stream with n items whose IDs are "<stream>-<index>".
func (m *MockStore) Populate(stream string, n int) {
	items := make([]scheduler.Item, n)
	for i := range items {
		items[i] = NewItem(fmt.Sprintf("%s-%d", stream, i))
	}
	m.SetItems(stream, items)
}

// SetError makes every fetch of stream fail with err. A nil err clears it.
func (m *MockStore) SetError(stream string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, stream)
		return
	}
	m.errors[stream] = err
}

// Fetch implements scheduler.QueryExecutor.
func (m *MockStore) Fetch(ctx context.Context, spec scheduler.FetchSpec) ([]scheduler.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := spec
	if spec.ExcludeIDs != nil {
		recorded.ExcludeIDs = append([]string{}, spec.ExcludeIDs...)
	}
	m.Calls = append(m.Calls, recorded)

	if err := m.errors[spec.Stream]; err != nil {
		return nil, err
	}

	items := m.streams[spec.Stream]

	if spec.Offset != nil {
		start := *spec.Offset
		if start < 0 || start >= len(items) {
			return []scheduler.Item{}, nil
		}
		end := start + spec.Limit
		if end > len(items) {
			end = len(items)
		}
		return append([]scheduler.Item{}, items[start:end]...), nil
	}

	excluded := make(map[string]bool, len(spec.ExcludeIDs))
	for _, id := range spec.ExcludeIDs {
		excluded[id] = true
	}
	candidates := make([]scheduler.Item, 0, len(items))
	for _, item := range items {
		if !excluded[item.ID] {
			candidates = append(candidates, item)
		}
	}
	m.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > spec.Limit {
		candidates = candidates[:spec.Limit]
	}
	return candidates, nil
}

// GetCalls returns a copy of the recorded fetch specs.
func (m *MockStore) GetCalls() []scheduler.FetchSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]scheduler.FetchSpec, len(m.Calls))
	copy(calls, m.Calls)
	return calls
}

// Reset clears recorded calls.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// Rendered is one recorded TemplateRenderer call.
type Rendered struct {
	TemplateRef string
	ItemID      string
}

// MockRenderer records renders and can fail for selected item IDs.
type MockRenderer struct {
	mu       sync.Mutex
	failures map[string]error

	Renders []Rendered
}

// NewMockRenderer creates a renderer that succeeds for every item.
func NewMockRenderer() *MockRenderer {
	return &MockRenderer{failures: make(map[string]error)}
}

// FailOn makes rendering itemID fail with err.
func (r *MockRenderer) FailOn(itemID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[itemID] = err
}

// Render implements scheduler.TemplateRenderer.
func (r *MockRenderer) Render(ctx context.Context, templateRef string, item scheduler.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failures[item.ID]; err != nil {
		return err
	}
	r.Renders = append(r.Renders, Rendered{TemplateRef: templateRef, ItemID: item.ID})
	return nil
}

// ItemIDs returns the rendered item IDs in render order.
func (r *MockRenderer) ItemIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.Renders))
	for i, rd := range r.Renders {
		ids[i] = rd.ItemID
	}
	return ids
}

// NewItem creates an item with a title field derived from id.
func NewItem(id string) scheduler.Item {
	return scheduler.Item{
		ID:     id,
		Fields: map[string]any{"title": "Item " + id},
	}
}
