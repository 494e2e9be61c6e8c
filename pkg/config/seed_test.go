package config

import (
	"testing"
)

func TestParseSeed(t *testing.T) {
	data := []byte(`
collections:
  posts:
    - id: p1
      fields:
        title: First
    - id: p2
      rank: 10
      fields:
        title: Second
`)
	seed, err := ParseSeed(data)
	if err != nil {
		t.Fatalf("ParseSeed() failed: %v", err)
	}

	items := seed.Collections["posts"]
	if len(items) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(items))
	}
	if *items[0].Rank != 0 || *items[1].Rank != 10 {
		t.Errorf("ranks = %v, %v", *items[0].Rank, *items[1].Rank)
	}
	if items[1].Fields["title"] != "Second" {
		t.Errorf("fields = %v", items[1].Fields)
	}
}

func TestParseSeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing id", "collections:\n  a:\n    - fields: {x: 1}\n"},
		{"duplicate id", "collections:\n  a:\n    - id: x\n    - id: x\n"},
		{"bad yaml", "collections: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSeed([]byte(tt.data)); err == nil {
				t.Error("ParseSeed() should fail")
			}
		})
	}
}
