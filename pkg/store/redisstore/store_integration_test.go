//go:build integration

package redisstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestStore_Integration_Fetch(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	s := New(client, "it")
	seed(t, s, "A", 10)
	seed(t, s, "C", 8)

	t.Run("window", func(t *testing.T) { checkFetchWindow(t, s) })
	t.Run("random", func(t *testing.T) { checkFetchRandom(t, s) })
}

func TestStore_Integration_RenderPages(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	s := New(client, "it")
	seed(t, s, "A", 40)
	seed(t, s, "B", 40)
	seed(t, s, "C", 40)

	sched, err := scheduler.New(scheduler.Config{
		Streams: map[string]scheduler.Stream{
			"A": {TemplateRef: "a"},
			"B": {TemplateRef: "b"},
			"C": {TemplateRef: "c", Ordering: scheduler.Random},
		},
		UnitPattern:        []string{"A", "A", "B", "C", "A", "B", "B", "C"},
		RepetitionsPerPage: 1,
	}, s, scheduler.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("scheduler.New() failed: %v", err)
	}

	var seenA []string
	for page := 1; page <= 3; page++ {
		report, err := sched.RenderPage(context.Background(), page, nopRenderer{})
		if err != nil {
			t.Fatalf("RenderPage(%d) failed: %v", page, err)
		}
		if len(report.Failures) != 0 {
			t.Fatalf("RenderPage(%d) failures: %v", page, report.Err())
		}
		seenA = append(seenA, report.Shown.IDs("A")...)

		c := report.Shown.IDs("C")
		if len(c) != 2 {
			t.Errorf("page %d: stream C shown %d, want 2", page, len(c))
		}
	}

	for i, id := range seenA {
		if want := fmt.Sprintf("A-%d", i); id != want {
			t.Errorf("A position %d = %s, want %s", i, id, want)
		}
	}
}

type nopRenderer struct{}

func (nopRenderer) Render(ctx context.Context, templateRef string, item scheduler.Item) error {
	return nil
}
