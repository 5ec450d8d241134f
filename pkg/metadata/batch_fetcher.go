package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Sternrassler/storefront-export/pkg/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var (
	customFieldsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_custom_fields_total",
		Help: "Custom field lookups by outcome (found, not_found, failed)",
	}, []string{"outcome"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_custom_fields_batch_duration_seconds",
		Help:    "Duration of one custom-fields batch",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
)

// Getter is the single-request interface the store client satisfies.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) (*http.Response, error)
}

// Config holds batch fetcher configuration
type Config struct {
	// BatchSize is the number of concurrent requests per batch.
	// Batches run one after another to stay clear of the store's rate limit.
	BatchSize int

	// FieldNames are the custom field names that make up a Record.
	FieldNames []string
}

// DefaultConfig returns the default batch fetcher configuration
func DefaultConfig() Config {
	return Config{
		BatchSize:  20,
		FieldNames: DefaultFieldNames,
	}
}

// BatchFetcher looks up custom fields for many products
type BatchFetcher struct {
	getter Getter
	config Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher(getter Getter, config Config) *BatchFetcher {
	if config.BatchSize <= 0 {
		config.BatchSize = 20
	}
	if len(config.FieldNames) == 0 {
		config.FieldNames = DefaultFieldNames
	}

	return &BatchFetcher{
		getter: getter,
		config: config,
	}
}

// CustomFieldsPath returns the custom-fields sub-resource of a product.
func CustomFieldsPath(productID int) string {
	return fmt.Sprintf("%s/%d/custom-fields", catalog.ProductsPath, productID)
}

// FetchAll returns a record for every product, keyed by product ID.
//
// Products are split into consecutive batches of BatchSize. The requests of
// one batch run concurrently and all of them finish before the next batch
// starts. A product whose lookup fails gets the Sentinel record.
//
// The error is non-nil only if ctx ends; the map then holds the batches
// completed so far.
func (bf *BatchFetcher) FetchAll(ctx context.Context, products []catalog.Product) (map[int]Record, error) {
	start := time.Now()
	batches := partition(products, bf.config.BatchSize)

	results := make(map[int]Record, len(products))
	var resultsMutex sync.Mutex

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			log.Warn().
				Int("batch", i+1).
				Int("total_batches", len(batches)).
				Msg("Custom field fetch stopped (context cancelled)")
			return results, err
		}

		log.Info().
			Int("batch", i+1).
			Int("total_batches", len(batches)).
			Int("size", len(batch)).
			Msgf("Calling API for custom fields: batch %d of %d", i+1, len(batches))

		batchStart := time.Now()
		var wg sync.WaitGroup
		for _, p := range batch {
			wg.Add(1)
			go func(productID int) {
				defer wg.Done()
				rec := bf.Fetch(ctx, productID)

				resultsMutex.Lock()
				results[productID] = rec
				resultsMutex.Unlock()
			}(p.ID)
		}
		wg.Wait()
		batchDuration.Observe(time.Since(batchStart).Seconds())
	}

	log.Info().
		Int("products", len(products)).
		Int("batches", len(batches)).
		Dur("duration", time.Since(start)).
		Msg("Custom field fetch complete")

	return results, nil
}

type customFieldsResponse struct {
	Data []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"data"`
}

// Fetch looks up one product's custom fields. The first field in response
// order whose name is recognized wins; otherwise, and on any failure, the
// Sentinel record is returned.
func (bf *BatchFetcher) Fetch(ctx context.Context, productID int) Record {
	resp, err := bf.getter.Get(ctx, CustomFieldsPath(productID), nil)
	if err != nil {
		return bf.fail(productID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return bf.fail(productID, fmt.Errorf("status %d", resp.StatusCode))
	}

	var body customFieldsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return bf.fail(productID, fmt.Errorf("decode custom fields: %w", err))
	}

	for _, field := range body.Data {
		for _, name := range bf.config.FieldNames {
			if field.Name == name {
				customFieldsTotal.WithLabelValues("found").Inc()
				return Record{field.Name: field.Value}
			}
		}
	}

	customFieldsTotal.WithLabelValues("not_found").Inc()
	return Sentinel()
}

func (bf *BatchFetcher) fail(productID int, err error) Record {
	customFieldsTotal.WithLabelValues("failed").Inc()
	log.Debug().
		Err(err).
		Int("product_id", productID).
		Msg("Custom field lookup failed, using sentinel")
	return Sentinel()
}

// partition splits items into consecutive chunks of size; the last may be shorter.
func partition[T any](items []T, size int) [][]T {
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
