// Package metrics documents the Prometheus metrics recorded during an export
// run and writes them out when the run ends.
// The metrics themselves are defined in their packages (client, ratelimit,
// pagination, metadata, exporter) and registered via promauto.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Gatherer collects the metrics promauto registers by default.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes the metrics gathered from g to path in the Prometheus
// text format, replacing the file atomically. A nil g means Gatherer.
// The output suits node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = Gatherer
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - storefront_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - storefront_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - storefront_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - storefront_retries_total{error_class} (Counter): 429 retries
//   - storefront_retry_wait_seconds{error_class} (Histogram): Wait before each retry
//   - storefront_retry_exhausted_total{error_class} (Counter): Requests that used every attempt
//
// Quota Metrics (pkg/ratelimit):
//   - storefront_quota_requests_left (Gauge): Requests left in the current quota window
//   - storefront_quota_waits_total{reason} (Counter): Pauses before a request (exhausted, throttle)
//
// Listing Metrics (pkg/pagination):
//   - storefront_listing_pages_total{listing} (Counter): Listing pages fetched
//   - storefront_listing_truncated_total{listing} (Counter): Listings cut short by a non-200 page
//
// Custom Field Metrics (pkg/metadata):
//   - storefront_custom_fields_total{outcome} (Counter): Lookups by outcome (found, not_found, failed)
//   - storefront_custom_fields_batch_duration_seconds (Histogram): Duration of one batch
//
// Run Metrics (pkg/exporter):
//   - storefront_export_runs_total{outcome} (Counter): Runs by outcome (complete, partial, failed)
//   - storefront_export_rows (Gauge): Rows written by the last run
//   - storefront_export_stage_duration_seconds{stage} (Histogram): Duration of each stage
//
// Example Prometheus Queries:
//
//   # Share of custom field lookups that fell back to the sentinel
//   sum(storefront_custom_fields_total{outcome!="found"}) /
//   sum(storefront_custom_fields_total)
//
//   # Runs that exported partial listings
//   storefront_export_runs_total{outcome="partial"}
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(storefront_request_duration_seconds_bucket[1h]))
