package memstore

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
	"github.com/rs/zerolog"
)

func seeded(t *testing.T, name string, n int) *Store {
	t.Helper()
	s := NewWithRand(rand.New(rand.NewSource(1)))
	for i := 0; i < n; i++ {
		s.Put(name, int64(i), scheduler.Item{ID: fmt.Sprintf("%s-%d", name, i)})
	}
	return s
}

func ids(items []scheduler.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func offset(v int) *int {
	return &v
}

func TestStore_FetchWindow(t *testing.T) {
	s := seeded(t, "A", 10)
	ctx := context.Background()

	tests := []struct {
		name   string
		offset int
		limit  int
		want   []string
	}{
		{name: "first window", offset: 0, limit: 3, want: []string{"A-0", "A-1", "A-2"}},
		{name: "middle window", offset: 5, limit: 2, want: []string{"A-5", "A-6"}},
		{name: "short tail", offset: 8, limit: 5, want: []string{"A-8", "A-9"}},
		{name: "past end", offset: 12, limit: 2, want: []string{}},
		{name: "zero limit", offset: 0, limit: 0, want: []string{}},
		{name: "last item", offset: 9, limit: 3, want: []string{"A-9"}},
		{name: "negative offset", offset: -1, limit: 2, want: []string{}},
		{name: "huge offset", offset: math.MaxInt - 1, limit: 5, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := s.Fetch(ctx, scheduler.FetchSpec{Stream: "A", Limit: tt.limit, Offset: offset(tt.offset)})
			if err != nil {
				t.Fatalf("Fetch() unexpected error: %v", err)
			}
			if got := ids(items); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Fetch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_FetchDeepWindow(t *testing.T) {
	s := NewWithRand(rand.New(rand.NewSource(1)))
	for i := 999; i >= 0; i-- {
		s.Put("A", int64(i), scheduler.Item{ID: fmt.Sprintf("A-%04d", i)})
	}

	items, err := s.Fetch(context.Background(), scheduler.FetchSpec{Stream: "A", Limit: 4, Offset: offset(997)})
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	if got, want := ids(items), []string{"A-0997", "A-0998", "A-0999"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Fetch() = %v, want %v", got, want)
	}
}

func TestStore_RankOrder(t *testing.T) {
	s := New()
	s.Put("news", 30, scheduler.Item{ID: "c"})
	s.Put("news", 10, scheduler.Item{ID: "a"})
	s.Put("news", 20, scheduler.Item{ID: "b"})
	s.Put("news", 20, scheduler.Item{ID: "ab"})

	items, err := s.Fetch(context.Background(), scheduler.FetchSpec{Stream: "news", Limit: 10, Offset: offset(0)})
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	if got, want := ids(items), []string{"a", "ab", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestStore_PutReplacesRank(t *testing.T) {
	s := New()
	s.Put("news", 1, scheduler.Item{ID: "x"})
	s.Put("news", 2, scheduler.Item{ID: "y"})
	s.Put("news", 3, scheduler.Item{ID: "x", Fields: map[string]any{"v": 2}})

	if s.Len("news") != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len("news"))
	}
	items, _ := s.Fetch(context.Background(), scheduler.FetchSpec{Stream: "news", Limit: 10, Offset: offset(0)})
	if got := ids(items); !reflect.DeepEqual(got, []string{"y", "x"}) {
		t.Errorf("order = %v, want [y x]", got)
	}
	if items[1].Fields["v"] != 2 {
		t.Errorf("replaced item fields = %v", items[1].Fields)
	}

	s.Delete("news", "y")
	if s.Len("news") != 1 {
		t.Errorf("Len() after Delete = %d, want 1", s.Len("news"))
	}
}

func TestStore_FetchRandomExcludes(t *testing.T) {
	s := seeded(t, "C", 8)
	ctx := context.Background()

	exclude := []string{"C-0", "C-1", "C-2", "C-3", "C-4"}
	items, err := s.Fetch(ctx, scheduler.FetchSpec{Stream: "C", Limit: 5, ExcludeIDs: exclude})
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3 (short result)", len(items))
	}
	for _, item := range items {
		for _, ex := range exclude {
			if item.ID == ex {
				t.Errorf("excluded item %s returned", ex)
			}
		}
	}
}

func TestStore_FetchSourceOverride(t *testing.T) {
	s := seeded(t, "posts", 4)
	spec := scheduler.FetchSpec{Stream: "featured", Limit: 2, Offset: offset(1), Query: map[string]string{"source": "posts"}}

	items, err := s.Fetch(context.Background(), spec)
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	if got := ids(items); !reflect.DeepEqual(got, []string{"posts-1", "posts-2"}) {
		t.Errorf("Fetch() = %v", got)
	}
}

func TestStore_FetchCancelled(t *testing.T) {
	s := seeded(t, "A", 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Fetch(ctx, scheduler.FetchSpec{Stream: "A", Limit: 1, Offset: offset(0)}); err == nil {
		t.Error("Fetch() with cancelled context should fail")
	}
}

func TestStore_WithScheduler(t *testing.T) {
	s := seeded(t, "A", 30)
	for i := 0; i < 30; i++ {
		s.Put("R", int64(i), scheduler.Item{ID: fmt.Sprintf("R-%d", i)})
	}

	sched, err := scheduler.New(scheduler.Config{
		Streams: map[string]scheduler.Stream{
			"A": {TemplateRef: "a"},
			"R": {TemplateRef: "r", Ordering: scheduler.Random},
		},
		UnitPattern:        []string{"R", "A", "R", "R", "A"},
		RepetitionsPerPage: 2,
	}, s, scheduler.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("scheduler.New() unexpected error: %v", err)
	}

	report, err := sched.RenderPage(context.Background(), 2, nopRenderer{})
	if err != nil {
		t.Fatalf("RenderPage() unexpected error: %v", err)
	}

	if got, want := report.Shown.IDs("A"), []string{"A-4", "A-5", "A-6", "A-7"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Shown[A] = %v, want %v", got, want)
	}
	if n := len(report.Shown.IDs("R")); n != 6 {
		t.Errorf("len(Shown[R]) = %d, want 6 distinct", n)
	}
}

type nopRenderer struct{}

func (nopRenderer) Render(ctx context.Context, templateRef string, item scheduler.Item) error {
	return nil
}
