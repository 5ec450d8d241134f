// Package exporter runs one export: list products, fetch their custom
// fields, list pages and template associations, merge and write the CSV.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/storefront-export/pkg/catalog"
	"github.com/Sternrassler/storefront-export/pkg/export"
	"github.com/Sternrassler/storefront-export/pkg/merge"
	"github.com/Sternrassler/storefront-export/pkg/metadata"
	"github.com/Sternrassler/storefront-export/pkg/pagination"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_export_runs_total",
		Help: "Export runs by outcome",
	}, []string{"outcome"})

	rowsWritten = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_export_rows",
		Help: "Rows written by the last export run",
	})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_export_stage_duration_seconds",
		Help:    "Duration of each export stage",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"stage"})
)

// Config holds exporter configuration.
type Config struct {
	// PageSize is sent as limit on every listing request.
	PageSize int

	// Metadata configures the custom-field batch fetcher.
	Metadata metadata.Config

	// OutputDir receives export.FileName. It must exist.
	OutputDir string
}

// DefaultConfig returns a configuration writing to outputDir.
func DefaultConfig(outputDir string) Config {
	return Config{
		PageSize:  pagination.DefaultPageSize,
		Metadata:  metadata.DefaultConfig(),
		OutputDir: outputDir,
	}
}

// Result summarizes a finished run.
type Result struct {
	RunID    string
	Path     string
	Rows     int
	Duration time.Duration

	// Truncated lists the listings that stopped early. Their rows are
	// still part of the export.
	Truncated []*pagination.TruncatedError
}

// Exporter runs exports against one store.
type Exporter struct {
	getter pagination.Getter
	config Config
	logger zerolog.Logger
}

// New creates an Exporter. getter is usually a *client.Client.
func New(getter pagination.Getter, cfg Config, logger zerolog.Logger) (*Exporter, error) {
	if getter == nil {
		return nil, errors.New("getter is required")
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("page_size must be >= 1 (got %d)", cfg.PageSize)
	}
	if cfg.Metadata.BatchSize < 1 {
		return nil, fmt.Errorf("batch_size must be >= 1 (got %d)", cfg.Metadata.BatchSize)
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("output dir is required")
	}

	return &Exporter{getter: getter, config: cfg, logger: logger}, nil
}

// Run performs one export. Any error other than a truncated listing aborts
// the run before the output file is touched.
func (e *Exporter) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	logger := e.logger.With().Str("run_id", res.RunID).Logger()
	start := time.Now()

	logger.Info().Str("output_dir", e.config.OutputDir).Msg("Export started")

	path, err := e.run(ctx, logger, res)
	res.Duration = time.Since(start)
	if err != nil {
		runsTotal.WithLabelValues("failed").Inc()
		logger.Error().Err(err).Dur("duration", res.Duration).Msg("Export failed")
		return res, err
	}

	res.Path = path
	outcome := "complete"
	if len(res.Truncated) > 0 {
		outcome = "partial"
	}
	runsTotal.WithLabelValues(outcome).Inc()
	rowsWritten.Set(float64(res.Rows))

	logger.Info().
		Str("path", path).
		Int("rows", res.Rows).
		Int("truncated_listings", len(res.Truncated)).
		Dur("duration", res.Duration).
		Msgf("CSV file saved at %s", path)

	return res, nil
}

func (e *Exporter) run(ctx context.Context, logger zerolog.Logger, res *Result) (string, error) {
	stage := stageTimer(logger)

	done := stage("products")
	products, err := catalog.ListProducts(ctx, e.getter, e.config.PageSize)
	products, err = keepTruncated(logger, res, products, err)
	if err != nil {
		return "", fmt.Errorf("list products: %w", err)
	}
	done(len(products))

	done = stage("custom_fields")
	fields, err := metadata.NewBatchFetcher(e.getter, e.config.Metadata).FetchAll(ctx, products)
	if err != nil {
		return "", fmt.Errorf("fetch custom fields: %w", err)
	}
	done(len(fields))

	done = stage("pages")
	pages, err := catalog.ListPages(ctx, e.getter, e.config.PageSize)
	pages, err = keepTruncated(logger, res, pages, err)
	if err != nil {
		return "", fmt.Errorf("list pages: %w", err)
	}
	done(len(pages))

	done = stage("template_associations")
	templates, err := catalog.ListTemplateAssociations(ctx, e.getter, e.config.PageSize)
	templates, err = keepTruncated(logger, res, templates, err)
	if err != nil {
		return "", fmt.Errorf("list template associations: %w", err)
	}
	done(len(templates))

	rows := merge.Reconcile(products, pages, fields, templates)
	res.Rows = len(rows)

	path, err := export.WriteFile(e.config.OutputDir, rows)
	if err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// keepTruncated turns a truncated listing into a warning and keeps its
// partial results. Other errors pass through.
func keepTruncated[T any](logger zerolog.Logger, res *Result, items []T, err error) ([]T, error) {
	var te *pagination.TruncatedError
	if errors.As(err, &te) {
		res.Truncated = append(res.Truncated, te)
		logger.Warn().
			Str("listing", te.Listing).
			Int("page", te.Page).
			Int("status", te.StatusCode).
			Int("kept", len(items)).
			Msg("Continuing with partial listing")
		return items, nil
	}
	return items, err
}

func stageTimer(logger zerolog.Logger) func(name string) func(n int) {
	return func(name string) func(n int) {
		start := time.Now()
		return func(n int) {
			d := time.Since(start)
			stageDuration.WithLabelValues(name).Observe(d.Seconds())
			logger.Debug().Str("stage", name).Int("count", n).Dur("duration", d).Msg("Stage complete")
		}
	}
}
