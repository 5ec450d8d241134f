// Package pagination walks page-numbered store API listings.
//
// Listing endpoints answer `?limit=N&page=P` with
//
//	{ "data": [...], "meta": { "pagination": { "total_pages": int } } }
//
// Fetch requests pages 1, 2, ... in order until the page index reaches
// total_pages, filtering and projecting each record on the way.
//
// Example usage:
//
//	products, err := pagination.Fetch(ctx, storeClient, pagination.Listing[productRecord, Product]{
//		Name:     "products",
//		Path:     "/v3/catalog/products",
//		Query:    url.Values{"is_visible": {"true"}},
//		PageSize: pagination.DefaultPageSize,
//		Keep:     keepProduct,
//		Project:  projectProduct,
//	})
//
// A non-200 page is not retried: the walk stops and returns what it has
// together with a *TruncatedError, so callers can tell a cut-short listing
// from the end of the data.
package pagination
