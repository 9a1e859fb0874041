package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ferroscan/ferroscan/internal/rasterize"
)

// OrderResult aggregates the page results of one order run.
type OrderResult struct {
	RunID   string        `json:"run_id"`
	OrderID string        `json:"order_id"`
	Pages   []*PageResult `json:"pages"` // indexed by page-1, nil for failed pages
}

// PagesWithTable counts the pages on which a table was found.
func (o *OrderResult) PagesWithTable() int {
	n := 0
	for _, p := range o.Pages {
		if p != nil && p.Found {
			n++
		}
	}
	return n
}

type pageJob struct {
	page int
}

type pageOutcome struct {
	page   int
	result *PageResult
	err    error
}

// ProcessOrder runs the page pipeline over every page of a document
// using a worker pool. Results come back in page order; the first page
// error is returned after all workers drain, with the remaining pages
// still processed. rowLines may be nil, or bind specific pages to
// explicit row-to-line mappings.
func (r *Runner) ProcessOrder(ctx context.Context, orderID string, src rasterize.PageSource, rowLines map[int]RowLineMap) (*OrderResult, error) {
	if src == nil {
		return nil, errors.New("pipeline: nil page source")
	}
	total := src.PageCount()
	if total == 0 {
		return nil, errors.New("pipeline: document has no pages")
	}
	if err := r.store.CreateOrder(orderID); err != nil {
		return nil, err
	}

	out := &OrderResult{
		RunID:   uuid.NewString(),
		OrderID: orderID,
		Pages:   make([]*PageResult, total),
	}
	r.log.Info("order run started", "order", orderID, "run", out.RunID,
		"pages", total, "workers", r.cfg.Workers)

	r.progress.OnStart(total)
	defer r.progress.OnComplete()

	workers := r.cfg.Workers
	if workers > total {
		workers = total
	}
	if total == 1 || workers == 1 {
		return out, r.processSequential(ctx, orderID, src, rowLines, out)
	}

	jobs := make(chan pageJob, total)
	results := make(chan pageOutcome, total)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go r.pageWorker(ctx, orderID, src, rowLines, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for page := 1; page <= total; page++ {
			select {
			case jobs <- pageJob{page: page}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	done := 0
	for outcome := range results {
		done++
		r.progress.OnProgress(done, total)
		if outcome.err != nil {
			r.progress.OnError(outcome.page, outcome.err)
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", outcome.page, outcome.err)
			}
			continue
		}
		out.Pages[outcome.page-1] = outcome.result
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, firstErr
}

// pageWorker pulls page numbers off the jobs channel and runs the page
// pipeline for each.
func (r *Runner) pageWorker(
	ctx context.Context,
	orderID string,
	src rasterize.PageSource,
	rowLines map[int]RowLineMap,
	jobs <-chan pageJob,
	results chan<- pageOutcome,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			result, err := r.processSourcePage(ctx, orderID, src, job.page, rowLines)
			select {
			case results <- pageOutcome{page: job.page, result: result, err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// processSequential handles single-worker runs without the pool,
// checking for cancellation between pages.
func (r *Runner) processSequential(ctx context.Context, orderID string, src rasterize.PageSource, rowLines map[int]RowLineMap, out *OrderResult) error {
	total := src.PageCount()
	var firstErr error
	for page := 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := r.processSourcePage(ctx, orderID, src, page, rowLines)
		r.progress.OnProgress(page, total)
		if err != nil {
			r.progress.OnError(page, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", page, err)
			}
			continue
		}
		out.Pages[page-1] = result
	}
	return firstErr
}

func (r *Runner) processSourcePage(ctx context.Context, orderID string, src rasterize.PageSource, page int, rowLines map[int]RowLineMap) (*PageResult, error) {
	img, err := src.Page(page)
	if err != nil {
		return nil, err
	}
	return r.ProcessPage(ctx, orderID, page, img, rowLines[page])
}
