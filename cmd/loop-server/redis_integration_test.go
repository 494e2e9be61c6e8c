//go:build integration

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/loop-pattern/pkg/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisContainer(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return host + ":" + port.Port(), func() { redisC.Terminate(ctx) }
}

func TestRedisBackend_SeedAndRender(t *testing.T) {
	addr, cleanup := setupRedisContainer(t)
	defer cleanup()

	dir := t.TempDir()
	for name, body := range map[string]string{
		"a.html": `<a>{{.ID}}</a>`,
		"b.html": `<b>{{.ID}}</b>`,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write view: %v", err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Log.Level = "error"
	cfg.Store.Backend = config.BackendRedis
	cfg.Store.Redis.Addr = addr
	cfg.Store.Redis.Prefix = "it"
	cfg.ViewsDir = dir
	cfg.Pattern = []string{"a", "b", "a"}
	cfg.Streams = map[string]config.StreamConfig{
		"a": {Template: "a.html"},
		"b": {Template: "b.html", Ordering: "random"},
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		t.Fatalf("newApp() failed: %v", err)
	}
	defer a.Close()

	var seedYAML strings.Builder
	seedYAML.WriteString("collections:\n  a:\n")
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&seedYAML, "    - id: a%d\n", i)
	}
	seedYAML.WriteString("  b:\n    - id: b0\n    - id: b1\n")

	s, err := config.ParseSeed([]byte(seedYAML.String()))
	if err != nil {
		t.Fatalf("ParseSeed() failed: %v", err)
	}
	if _, err := a.seed(ctx, s); err != nil {
		t.Fatalf("seed() failed: %v", err)
	}

	mux := routes(a)

	resp, body := get(t, mux, "/ready")
	if resp.StatusCode != 200 {
		t.Fatalf("ready = %d %q", resp.StatusCode, body)
	}

	_, body = get(t, mux, "/page/2")
	if !strings.HasPrefix(body, "<a>a2</a><b>") || !strings.HasSuffix(body, "<a>a3</a>") {
		t.Errorf("page 2 body = %q", body)
	}

	_, body = get(t, mux, "/page/4")
	if body != "<b>b0</b>" && body != "<b>b1</b>" {
		t.Errorf("page 4 body = %q, want a single random b item", body)
	}
}
