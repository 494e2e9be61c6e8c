package redisstore

import (
	"strings"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "loop"

// Key identifies the Redis keys of one collection.
type Key struct {
	// Prefix namespaces all keys (e.g., "loop")
	Prefix string

	// Collection is the collection name (e.g., "featured")
	Collection string
}

// Order returns the sorted-set key holding item IDs scored by rank.
//
// Example:
//
//	loop:featured:order
func (k Key) Order() string {
	return k.join("order")
}

// Items returns the hash key mapping item ID to its JSON payload.
//
// Example:
//
//	loop:featured:items
func (k Key) Items() string {
	return k.join("items")
}

func (k Key) join(suffix string) string {
	parts := make([]string, 0, 3)

	prefix := strings.Trim(k.Prefix, ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	parts = append(parts, prefix)

	if c := strings.Trim(k.Collection, ":"); c != "" {
		parts = append(parts, c)
	}

	parts = append(parts, suffix)
	return strings.Join(parts, ":")
}
