// Package pipeline orchestrates the page decomposition stages: boundary
// detection, grid recovery, region segmentation, shape-cell extraction,
// and ingestion into the order record store. Manually drawn regions
// take precedence over detector output at every stage that has one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ferroscan/ferroscan/internal/boundary"
	"github.com/ferroscan/ferroscan/internal/cells"
	"github.com/ferroscan/ferroscan/internal/geometry"
	"github.com/ferroscan/ferroscan/internal/grid"
	"github.com/ferroscan/ferroscan/internal/labels"
	"github.com/ferroscan/ferroscan/internal/manual"
	"github.com/ferroscan/ferroscan/internal/record"
	"github.com/ferroscan/ferroscan/internal/segment"
)

// Config holds the tunables of a pipeline run.
type Config struct {
	Boundary boundary.Config
	Grid     grid.Config
	Cells    cells.Config

	// Workers is the page worker pool size for order runs. Zero means
	// one worker per CPU.
	Workers int

	// ArtifactDir is where shape-cell crops are written, one
	// subdirectory per order. Empty disables artifact output.
	ArtifactDir string
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Boundary: boundary.DefaultConfig(),
		Grid:     grid.DefaultConfig(),
		Cells:    cells.DefaultConfig(),
		Workers:  runtime.NumCPU(),
	}
}

// Runner executes the decomposition pipeline against a record store.
type Runner struct {
	cfg Config

	detector  *boundary.Detector
	recoverer *grid.Recoverer
	segmenter *segment.Segmenter
	extractor *cells.Extractor

	store    *record.Store
	manual   *manual.Adapter
	aliases  *labels.Table
	progress ProgressCallback
	log      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithProgress installs a progress callback for order runs.
func WithProgress(cb ProgressCallback) Option {
	return func(r *Runner) { r.progress = cb }
}

// WithAliasTable replaces the built-in header label alias table.
func WithAliasTable(t *labels.Table) Option {
	return func(r *Runner) { r.aliases = t }
}

// NewRunner builds a pipeline runner over the given store.
func NewRunner(cfg Config, store *record.Store, opts ...Option) (*Runner, error) {
	if store == nil {
		return nil, errors.New("pipeline: nil record store")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	r := &Runner{
		cfg:       cfg,
		detector:  boundary.NewDetector(cfg.Boundary),
		recoverer: grid.NewRecoverer(cfg.Grid),
		segmenter: segment.NewSegmenter(),
		extractor: cells.NewExtractor(cfg.Cells),
		store:     store,
		manual:    manual.NewAdapter(store),
		aliases:   labels.DefaultTable(),
		progress:  NoOpProgress{},
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// PageResult is the decomposition outcome of one page.
type PageResult struct {
	Page     int                  `json:"page"`
	Found    bool                 `json:"found"`
	Method   string               `json:"method,omitempty"` // marker, morphology, manual
	Region   segment.Result       `json:"region"`
	ShapeCol segment.ColumnRegion `json:"shape_column"`
	HasShape bool                 `json:"has_shape_column"`
	Cells    []cells.ShapeCell    `json:"cells"`
	Duration time.Duration        `json:"duration_ns"`
}

// ProcessPage runs the full page decomposition and ingests the results
// into the order record. A page without a detectable table is a normal
// outcome: Found is false and nothing is ingested. rowLine may be nil
// for the identity mapping.
func (r *Runner) ProcessPage(ctx context.Context, orderID string, page int, img image.Image, rowLine RowLineMap) (*PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errors.New("pipeline: nil page image")
	}
	start := time.Now()
	res := &PageResult{Page: page}

	box, method, found, err := r.locateBoundary(orderID, page, img)
	if err != nil {
		pagesProcessedTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if !found {
		r.log.Debug("no table boundary", "order", orderID, "page", page)
		pagesProcessedTotal.WithLabelValues("no_table").Inc()
		res.Duration = time.Since(start)
		return res, nil
	}
	res.Found = true
	res.Method = method
	boundaryDetections.WithLabelValues(method).Inc()

	gridStart := time.Now()
	lines, err := r.recoverer.Recover(img, box)
	stageDuration.WithLabelValues("grid").Observe(time.Since(gridStart).Seconds())
	if err != nil {
		pagesProcessedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("recover grid: %w", err)
	}
	r.log.Debug("grid recovered", "order", orderID, "page", page,
		"horizontal", len(lines.Horizontal), "vertical", len(lines.Vertical))

	segStart := time.Now()
	region, err := r.segmenter.Segment(box, lines)
	stageDuration.WithLabelValues("segment").Observe(time.Since(segStart).Seconds())
	if err != nil {
		pagesProcessedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("segment table: %w", err)
	}
	res.Region = region

	col, hasCol := r.locateShapeColumn(orderID, page, img, region)
	res.ShapeCol = col
	res.HasShape = hasCol

	if hasCol {
		cellStart := time.Now()
		extracted, err := r.extractor.Extract(img, region.Table, col, page)
		stageDuration.WithLabelValues("cells").Observe(time.Since(cellStart).Seconds())
		if err != nil {
			pagesProcessedTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("extract shape cells: %w", err)
		}
		if r.cfg.ArtifactDir != "" {
			if err := cells.SaveCells(filepath.Join(r.cfg.ArtifactDir, orderID), extracted); err != nil {
				pagesProcessedTotal.WithLabelValues("error").Inc()
				return nil, fmt.Errorf("save shape cells: %w", err)
			}
		}
		res.Cells = extracted
		cellsExtracted.Observe(float64(len(extracted)))

		ingestStart := time.Now()
		err = r.ingestCells(orderID, page, extracted, rowLine)
		stageDuration.WithLabelValues("ingest").Observe(time.Since(ingestStart).Seconds())
		if err != nil {
			pagesProcessedTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("ingest shape cells: %w", err)
		}
	}

	res.Duration = time.Since(start)
	pagesProcessedTotal.WithLabelValues("ok").Inc()
	r.log.Debug("page processed", "order", orderID, "page", page,
		"method", method, "cells", len(res.Cells), "duration", res.Duration)
	return res, nil
}

// locateBoundary returns the table boundary for a page, preferring a
// manually drawn table_area section over the detector.
func (r *Runner) locateBoundary(orderID string, page int, img image.Image) (geometry.BoundingBox, string, bool, error) {
	b := img.Bounds()
	if ovr, ok := r.manual.Override(orderID, record.SectionTableArea, page, b.Dx(), b.Dy()); ok {
		return ovr, "manual", true, nil
	}
	detStart := time.Now()
	det, err := r.detector.Detect(img)
	stageDuration.WithLabelValues("boundary").Observe(time.Since(detStart).Seconds())
	if err != nil {
		return geometry.BoundingBox{}, "", false, fmt.Errorf("detect boundary: %w", err)
	}
	return det.Box, det.Method, det.Found, nil
}

// locateShapeColumn returns the shape column, preferring a manually
// drawn shape_column section over the widest-gap heuristic.
func (r *Runner) locateShapeColumn(orderID string, page int, img image.Image, region segment.Result) (segment.ColumnRegion, bool) {
	b := img.Bounds()
	if ovr, ok := r.manual.Override(orderID, record.SectionShapeColumn, page, b.Dx(), b.Dy()); ok {
		return segment.ColumnRegion{
			Index:       -1, // not derived from the grid
			XStart:      ovr.X,
			XEnd:        ovr.Right(),
			Description: "shape",
		}, true
	}
	return segment.ShapeColumn(region.Columns)
}
