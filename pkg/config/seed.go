package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedItem is one item in a seed file. Rank orders items within their
// collection; items without a rank keep file order.
type SeedItem struct {
	ID     string         `yaml:"id"`
	Rank   *float64       `yaml:"rank"`
	Fields map[string]any `yaml:"fields"`
}

// Seed maps collection names to their items.
type Seed struct {
	Collections map[string][]SeedItem `yaml:"collections"`
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed YAML and assigns ranks to items that omit one.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}

	for name, items := range seed.Collections {
		seen := make(map[string]struct{}, len(items))
		for i := range items {
			if items[i].ID == "" {
				return Seed{}, fmt.Errorf("collection %q: item %d has no id", name, i)
			}
			if _, dup := seen[items[i].ID]; dup {
				return Seed{}, fmt.Errorf("collection %q: duplicate id %q", name, items[i].ID)
			}
			seen[items[i].ID] = struct{}{}
			if items[i].Rank == nil {
				r := float64(i)
				items[i].Rank = &r
			}
		}
	}
	return seed, nil
}
