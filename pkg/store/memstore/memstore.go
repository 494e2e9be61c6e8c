// Package memstore is an in-process content store that keeps each
// collection ordered in a B-tree.
package memstore

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
	"github.com/Sternrassler/loop-pattern/pkg/store"
	"github.com/tidwall/btree"
)

const storeName = "memory"

// entry orders items by rank, then ID.
type entry struct {
	Rank int64
	Item scheduler.Item
}

func less(a, b entry) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.Item.ID < b.Item.ID
}

// collection is one ordered item set plus an ID index for updates.
type collection struct {
	tree  *btree.BTreeG[entry]
	ranks map[string]int64
}

// Store implements scheduler.QueryExecutor over in-memory collections.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	rng         *rand.Rand
}

// New creates an empty store whose random fetches are seeded from the clock.
func New() *Store {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand creates an empty store using rng for random fetches.
func NewWithRand(rng *rand.Rand) *Store {
	return &Store{
		collections: make(map[string]*collection),
		rng:         rng,
	}
}

// Put inserts or replaces item in the named collection at rank. Lower ranks
// come first in offset order.
func (s *Store) Put(name string, rank int64, item scheduler.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &collection{
			tree:  btree.NewBTreeG(less),
			ranks: make(map[string]int64),
		}
		s.collections[name] = c
	}

	if old, ok := c.ranks[item.ID]; ok {
		c.tree.Delete(entry{Rank: old, Item: scheduler.Item{ID: item.ID}})
	}
	c.tree.Set(entry{Rank: rank, Item: item})
	c.ranks[item.ID] = rank
	store.Observe(storeName, "put", nil)
}

// Delete removes an item from the named collection.
func (s *Store) Delete(name, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return
	}
	if rank, ok := c.ranks[id]; ok {
		c.tree.Delete(entry{Rank: rank, Item: scheduler.Item{ID: id}})
		delete(c.ranks, id)
	}
	store.Observe(storeName, "delete", nil)
}

// Len returns the number of items in the named collection.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return c.tree.Len()
	}
	return 0
}

// Fetch implements scheduler.QueryExecutor.
func (s *Store) Fetch(ctx context.Context, spec scheduler.FetchSpec) ([]scheduler.Item, error) {
	if err := ctx.Err(); err != nil {
		store.Observe(storeName, "fetch", err)
		return nil, err
	}
	if spec.Limit <= 0 {
		store.Observe(storeName, "fetch", nil)
		return []scheduler.Item{}, nil
	}

	var items []scheduler.Item
	if spec.Offset != nil {
		items = s.window(store.Source(spec), *spec.Offset, spec.Limit)
	} else {
		items = s.random(store.Source(spec), spec.Limit, spec.ExcludeIDs)
	}
	store.Observe(storeName, "fetch", nil)
	return items, nil
}

// window returns up to limit items starting at offset in rank order. Each
// position is looked up by index, so deep pages cost O(limit log n).
func (s *Store) window(name string, offset, limit int) []scheduler.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok || offset < 0 || offset >= c.tree.Len() {
		return []scheduler.Item{}
	}

	end := c.tree.Len()
	if limit < end-offset {
		end = offset + limit
	}

	items := make([]scheduler.Item, 0, end-offset)
	for i := offset; i < end; i++ {
		e, ok := c.tree.GetAt(i)
		if !ok {
			break
		}
		items = append(items, e.Item)
	}
	return items
}

// random returns up to limit items not in exclude, in random order.
func (s *Store) random(name string, limit int, exclude []string) []scheduler.Item {
	// rng is not safe for concurrent use.
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return []scheduler.Item{}
	}

	skip := store.Exclusions(exclude)
	candidates := make([]scheduler.Item, 0, c.tree.Len())
	c.tree.Scan(func(e entry) bool {
		if _, ok := skip[e.Item.ID]; !ok {
			candidates = append(candidates, e.Item)
		}
		return true
	})

	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
