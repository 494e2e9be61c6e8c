package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/loop-pattern/pkg/metrics"
	"github.com/Sternrassler/loop-pattern/pkg/pagenum"
	"github.com/Sternrassler/loop-pattern/pkg/render"
	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// HeaderFailedBlocks lists the indexes of blocks that failed on a rendered
// page, comma separated.
const HeaderFailedBlocks = "X-Loop-Failed-Blocks"

const renderTimeout = 30 * time.Second

// routes registers all HTTP handlers.
func routes(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(a.redis))
	mux.HandleFunc("/plan", planHandler(a.sched))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/", pageHandler(a.sched, a.views, a.logger))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler checks the Redis connection. The memory backend is always
// ready.
func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				http.Error(w, "Redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// pageHandler renders the requested page. The page is buffered so a failed
// render never sends partial markup with a 200 status.
func pageHandler(sched *scheduler.Scheduler, views *render.Views, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && !strings.HasPrefix(r.URL.Path, "/page/") {
			http.NotFound(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		page := pagenum.FromRequest(r).PageNumber()
		start := time.Now()

		var buf bytes.Buffer
		report, err := sched.RenderPage(ctx, page, views.Writer(&buf))
		if report != nil {
			if failed := report.FailedBlocks(); len(failed) > 0 {
				w.Header().Set(HeaderFailedBlocks, joinInts(failed))
				logger.Warn().
					Int("page", page).
					Ints("blocks", failed).
					Err(report.Err()).
					Msg("Page rendered with failed blocks")
			}
		}
		if err != nil {
			http.Error(w, fmt.Sprintf("render page %d failed", page), renderStatus(err))
			logger.Error().Err(err).Int("page", page).Msg("Page render failed")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := buf.WriteTo(w); err != nil {
			logger.Error().Err(err).Int("page", page).Msg("Failed to write response")
			return
		}
		logger.Debug().Int("page", page).Dur("duration", time.Since(start)).Msg("Page served")
	}
}

func planHandler(sched *scheduler.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagenum.FromRequest(r).PageNumber()
		plan, err := sched.Plan(page)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(plan)
	}
}

// renderStatus maps a render error to an HTTP status.
func renderStatus(err error) int {
	var fetchErr *scheduler.FetchError
	switch {
	case errors.Is(err, scheduler.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, render.ErrTemplateNotFound):
		return http.StatusInternalServerError
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
