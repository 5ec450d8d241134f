package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/storefront-export/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_listing_pages_total",
		Help: "Total listing pages fetched by listing",
	}, []string{"listing"})

	listingTruncatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_listing_truncated_total",
		Help: "Total listings cut short by a non-200 page",
	}, []string{"listing"})
)

// DefaultPageSize is the page size used by every listing in a run.
const DefaultPageSize = 250

// Getter is the single-request interface the store client satisfies.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) (*http.Response, error)
}

// Listing describes one paginated endpoint and how its records are kept.
// R is the wire record, T the projected result.
type Listing[R, T any] struct {
	// Name labels logs and metrics ("products", "pages", ...).
	Name string

	// Path is the endpoint path relative to the store base URL.
	Path string

	// Query holds fixed parameters; limit and page are added per request.
	Query url.Values

	// PageSize is sent as limit. Must be positive.
	PageSize int

	// Keep filters records; nil keeps every record.
	Keep func(R) bool

	// Project converts a kept record. An error aborts the walk.
	Project func(R) (T, error)
}

// TruncatedError reports a listing that stopped on a non-200 page.
// Results gathered before that page are still returned alongside it.
type TruncatedError struct {
	Listing    string
	Page       int
	StatusCode int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("listing %s truncated at page %d: status %d", e.Listing, e.Page, e.StatusCode)
}

type envelope[R any] struct {
	Data []R `json:"data"`
	Meta struct {
		Pagination struct {
			TotalPages  int `json:"total_pages"`
			CurrentPage int `json:"current_page"`
		} `json:"pagination"`
	} `json:"meta"`
}

// Fetch walks the listing page by page, starting at 1, until the page index
// reaches the reported total_pages.
//
// A non-200 page ends the walk with the partial results and a
// *TruncatedError. Transport failures, undecodable bodies and projection
// errors return a nil slice and the error.
func Fetch[R, T any](ctx context.Context, getter Getter, l Listing[R, T]) ([]T, error) {
	if l.PageSize <= 0 {
		return nil, fmt.Errorf("listing %s: page size must be positive (got %d)", l.Name, l.PageSize)
	}
	if l.Project == nil {
		return nil, fmt.Errorf("listing %s: project function is required", l.Name)
	}

	start := time.Now()
	results := make([]T, 0)

	for page := 1; ; page++ {
		query := url.Values{}
		for k, v := range l.Query {
			query[k] = append([]string(nil), v...)
		}
		query.Set("limit", strconv.Itoa(l.PageSize))
		query.Set("page", strconv.Itoa(page))

		resp, err := getter.Get(ctx, l.Path, query)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
				return results, truncated(l.Name, page, apiErr.StatusCode, len(results))
			}
			return nil, fmt.Errorf("listing %s page %d: %w", l.Name, page, err)
		}

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return results, truncated(l.Name, page, resp.StatusCode, len(results))
		}

		var env envelope[R]
		err = json.NewDecoder(resp.Body).Decode(&env)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("listing %s page %d: decode body: %w", l.Name, page, err)
		}

		for _, rec := range env.Data {
			if l.Keep != nil && !l.Keep(rec) {
				continue
			}
			item, err := l.Project(rec)
			if err != nil {
				return nil, fmt.Errorf("listing %s page %d: %w", l.Name, page, err)
			}
			results = append(results, item)
		}

		pagesFetchedTotal.WithLabelValues(l.Name).Inc()
		totalPages := env.Meta.Pagination.TotalPages
		log.Info().
			Str("listing", l.Name).
			Int("page", page).
			Int("total_pages", totalPages).
			Msgf("Page %d of %d filtered", page, totalPages)

		if page >= totalPages {
			break
		}
	}

	log.Info().
		Str("listing", l.Name).
		Int("records", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Listing complete")

	return results, nil
}

func truncated(listing string, page, status, kept int) error {
	listingTruncatedTotal.WithLabelValues(listing).Inc()
	log.Warn().
		Str("listing", listing).
		Int("page", page).
		Int("status", status).
		Int("records_kept", kept).
		Msg("Listing stopped on non-200 response")
	return &TruncatedError{Listing: listing, Page: page, StatusCode: status}
}
