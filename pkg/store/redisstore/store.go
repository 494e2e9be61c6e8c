// Package redisstore is a content store backed by Redis.
//
// Each collection is a sorted set of item IDs scored by rank plus a hash of
// JSON item payloads. Offset fetches use ZRANGE; random fetches use
// ZRANDMEMBER and drop excluded IDs.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
	"github.com/Sternrassler/loop-pattern/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const storeName = "redis"

// ErrInvalidItem indicates a stored payload could not be decoded.
var ErrInvalidItem = errors.New("invalid stored item")

// Store implements scheduler.QueryExecutor on Redis.
type Store struct {
	redis  *redis.Client
	prefix string
	logger zerolog.Logger
}

// New creates a store using redisClient and key prefix (DefaultPrefix when
// empty).
func New(redisClient *redis.Client, prefix string) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
		logger: log.With().Str("component", "redis-store").Logger(),
	}
}

func (s *Store) key(collection string) Key {
	return Key{Prefix: s.prefix, Collection: collection}
}

// Put stores item in collection at rank. Lower ranks come first.
func (s *Store) Put(ctx context.Context, collection string, rank float64, item scheduler.Item) error {
	if item.ID == "" {
		return fmt.Errorf("item id cannot be empty")
	}

	data, err := json.Marshal(item)
	if err != nil {
		store.Observe(storeName, "put", err)
		return fmt.Errorf("marshal item: %w", err)
	}

	k := s.key(collection)
	pipe := s.redis.TxPipeline()
	pipe.ZAdd(ctx, k.Order(), redis.Z{Score: rank, Member: item.ID})
	pipe.HSet(ctx, k.Items(), item.ID, data)
	_, err = pipe.Exec(ctx)
	store.Observe(storeName, "put", err)
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

// Delete removes an item from collection.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	k := s.key(collection)
	pipe := s.redis.TxPipeline()
	pipe.ZRem(ctx, k.Order(), id)
	pipe.HDel(ctx, k.Items(), id)
	_, err := pipe.Exec(ctx)
	store.Observe(storeName, "delete", err)
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Len returns the number of items in collection.
func (s *Store) Len(ctx context.Context, collection string) (int64, error) {
	n, err := s.redis.ZCard(ctx, s.key(collection).Order()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcard: %w", err)
	}
	return n, nil
}

// Fetch implements scheduler.QueryExecutor.
func (s *Store) Fetch(ctx context.Context, spec scheduler.FetchSpec) ([]scheduler.Item, error) {
	if spec.Limit <= 0 {
		return []scheduler.Item{}, nil
	}

	k := s.key(store.Source(spec))

	var ids []string
	var err error
	if spec.Offset != nil {
		ids, err = s.windowIDs(ctx, k, *spec.Offset, spec.Limit)
	} else {
		ids, err = s.randomIDs(ctx, k, spec.Limit, spec.ExcludeIDs)
	}
	if err != nil {
		store.Observe(storeName, "fetch", err)
		return nil, err
	}

	items, err := s.load(ctx, k, ids)
	store.Observe(storeName, "fetch", err)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("stream", spec.Stream).
		Str("collection", k.Collection).
		Int("limit", spec.Limit).
		Int("returned", len(items)).
		Bool("random", spec.IsRandom()).
		Msg("Fetched items")

	return items, nil
}

func (s *Store) windowIDs(ctx context.Context, k Key, offset, limit int) ([]string, error) {
	if offset < 0 {
		return []string{}, nil
	}
	start := int64(offset)
	stop := start + int64(limit) - 1
	ids, err := s.redis.ZRange(ctx, k.Order(), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange: %w", err)
	}
	return ids, nil
}

// randomIDs asks for limit+len(exclude) distinct members so that, after
// dropping excluded ones, limit remain whenever the collection is large
// enough.
func (s *Store) randomIDs(ctx context.Context, k Key, limit int, exclude []string) ([]string, error) {
	candidates, err := s.redis.ZRandMember(ctx, k.Order(), limit+len(exclude)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrandmember: %w", err)
	}

	skip := store.Exclusions(exclude)
	ids := make([]string, 0, limit)
	for _, id := range candidates {
		if _, ok := skip[id]; ok {
			continue
		}
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

// load fetches payloads for ids, preserving order. IDs without a payload
// are skipped.
func (s *Store) load(ctx context.Context, k Key, ids []string) ([]scheduler.Item, error) {
	items := make([]scheduler.Item, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	values, err := s.redis.HMGet(ctx, k.Items(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget: %w", err)
	}

	for i, val := range values {
		str, ok := val.(string)
		if !ok || str == "" {
			s.logger.Warn().
				Str("collection", k.Collection).
				Str("item_id", ids[i]).
				Msg("Item payload missing, skipping")
			continue
		}

		var item scheduler.Item
		if err := json.Unmarshal([]byte(str), &item); err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrInvalidItem, ids[i], err)
		}
		items = append(items, item)
	}

	return items, nil
}
