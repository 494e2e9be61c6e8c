package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/loop-pattern/pkg/pattern"
)

// BlockReport describes what happened to one block during a render.
type BlockReport struct {
	Block    pattern.Block `json:"block"`
	Spec     FetchSpec     `json:"spec"`
	Fetched  int           `json:"fetched"`
	Rendered int           `json:"rendered"`
	Short    bool          `json:"short"`
	Err      error         `json:"-"`
}

// Report is the outcome of one page render.
type Report struct {
	Page   int           `json:"page"`
	Blocks []BlockReport `json:"blocks"`

	// Shown holds the identities rendered per stream on this page.
	Shown ShownSet `json:"shown"`

	// Failures collects every FetchError and RenderError, in render order.
	Failures []error `json:"-"`
}

// Err joins all failures, or returns nil when the render was clean.
func (r *Report) Err() error {
	return errors.Join(r.Failures...)
}

// FailedBlocks returns the indexes of blocks whose fetch failed.
func (r *Report) FailedBlocks() []int {
	var failed []int
	for i, b := range r.Blocks {
		if b.Err != nil {
			failed = append(failed, i)
		}
	}
	return failed
}

// RenderPage renders page through renderer.
//
// Blocks are processed in page order. For each block the fetch spec is built
// from the shown set as it stands at that point, the executor is queried,
// and every returned item is rendered and then recorded as shown. A failed
// fetch is handled according to the configured FailurePolicy; a failed item
// render is collected and the item is not recorded as shown.
//
// The returned error is non-nil only for an invalid page, a cancelled
// context, or an aborted render. The Report is returned whenever rendering
// started.
func (s *Scheduler) RenderPage(ctx context.Context, page int, renderer TemplateRenderer) (*Report, error) {
	if renderer == nil {
		return nil, fmt.Errorf("template renderer is required")
	}

	plan, err := s.Plan(page)
	if err != nil {
		pageRendersTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	start := time.Now()
	report := &Report{
		Page:   page,
		Blocks: make([]BlockReport, 0, len(plan.Blocks)),
		Shown:  NewShownSet(s.names...),
	}

	s.logger.Debug().
		Int("page", page).
		Int("slots", len(plan.Sequence)).
		Int("blocks", len(plan.Blocks)).
		Msg("Rendering page")

	for i, b := range plan.Blocks {
		if err := ctx.Err(); err != nil {
			pageRendersTotal.WithLabelValues("aborted").Inc()
			return report, fmt.Errorf("render page %d: %w", page, err)
		}

		spec, err := s.buildSpec(b, page, plan.Totals[b.Stream], report.Shown)
		if err != nil {
			pageRendersTotal.WithLabelValues("invalid").Inc()
			return report, err
		}

		br := s.renderBlock(ctx, i, b, spec, report, renderer)
		report.Blocks = append(report.Blocks, br)

		if br.Err != nil && s.policy == AbortOnFailure {
			pageRendersTotal.WithLabelValues("aborted").Inc()
			s.logger.Warn().
				Int("page", page).
				Int("block", i).
				Str("stream", b.Stream).
				Msg("Aborting page render after failed block")
			return report, br.Err
		}
	}

	status := "ok"
	if len(report.Failures) > 0 {
		status = "partial"
	}
	pageRendersTotal.WithLabelValues(status).Inc()

	s.logger.Info().
		Int("page", page).
		Int("blocks", len(report.Blocks)).
		Int("failures", len(report.Failures)).
		Dur("duration", time.Since(start)).
		Msg("Page rendered")

	return report, nil
}

// renderBlock fetches and renders one block, updating report.Shown and
// report.Failures.
func (s *Scheduler) renderBlock(ctx context.Context, index int, b pattern.Block, spec FetchSpec, report *Report, renderer TemplateRenderer) BlockReport {
	st := s.streams[b.Stream]
	br := BlockReport{Block: b, Spec: spec}

	fetchStart := time.Now()
	items, err := s.executor.Fetch(ctx, spec)
	blockFetchDuration.WithLabelValues(b.Stream).Observe(time.Since(fetchStart).Seconds())

	if err != nil {
		fe := &FetchError{Stream: b.Stream, BlockIndex: index, Err: err}
		br.Err = fe
		report.Failures = append(report.Failures, fe)
		blockFetchFailuresTotal.WithLabelValues(b.Stream).Inc()
		s.logger.Warn().
			Err(err).
			Int("page", report.Page).
			Int("block", index).
			Str("stream", b.Stream).
			Msg("Block fetch failed")
		return br
	}

	if len(items) > spec.Limit {
		s.logger.Debug().
			Str("stream", b.Stream).
			Int("limit", spec.Limit).
			Int("returned", len(items)).
			Msg("Executor returned more items than requested, truncating")
		items = items[:spec.Limit]
	}

	br.Fetched = len(items)
	if br.Fetched < spec.Limit {
		br.Short = true
		shortResultsTotal.WithLabelValues(b.Stream).Inc()
		s.logger.Debug().
			Str("stream", b.Stream).
			Int("block", index).
			Int("limit", spec.Limit).
			Int("returned", br.Fetched).
			Msg("Short result")
	}

	for _, item := range items {
		if err := renderer.Render(ctx, st.TemplateRef, item); err != nil {
			re := &RenderError{Stream: b.Stream, BlockIndex: index, ItemID: item.ID, Err: err}
			report.Failures = append(report.Failures, re)
			s.logger.Warn().
				Err(err).
				Str("stream", b.Stream).
				Str("item_id", item.ID).
				Str("template", st.TemplateRef).
				Msg("Item render failed")
			continue
		}
		report.Shown.Add(b.Stream, item.ID)
		br.Rendered++
		itemsRenderedTotal.WithLabelValues(b.Stream).Inc()
	}

	return br
}
