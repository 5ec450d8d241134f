// Package testutil provides testing utilities for the store API client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// CustomField is a custom-fields entry as the store API returns it.
type CustomField struct {
	ID    int    `json:"id,omitempty"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MockStore is a configurable mock of the store API for testing.
type MockStore struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requestCount      int
	requests          []string
	lastRequestHeader http.Header
}

// NewMockStore creates a new mock store API server.
func NewMockStore() *MockStore {
	mock := &MockStore{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.requests = append(mock.requests, r.URL.RequestURI())
		mock.lastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		writeJSON(w, http.StatusNotFound, nil, `{"status": 404, "title": "Not Found"}`)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockStore) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockStore) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockStore) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockStore) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		serve(w, resp)
	})
}

// SetSequence serves resps in order; the last one repeats once the
// sequence is used up.
func (m *MockStore) SetSequence(path string, resps ...MockResponse) {
	var (
		mu   sync.Mutex
		next int
	)
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := resps[min(next, len(resps)-1)]
		next++
		mu.Unlock()
		serve(w, resp)
	})
}

// SetListing serves a paginated listing at path. pages[i] holds the records
// of page i+1; the reported total_pages is len(pages).
func (m *MockStore) SetListing(path string, pages ...[]any) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		data := []any{}
		if page <= len(pages) && pages[page-1] != nil {
			data = pages[page-1]
		}

		body, _ := json.Marshal(map[string]any{
			"data": data,
			"meta": map[string]any{
				"pagination": map[string]any{
					"total_pages":  len(pages),
					"current_page": page,
					"count":        len(data),
				},
			},
		})
		writeJSON(w, http.StatusOK, nil, string(body))
	})
}

// SetCustomFields serves the custom-fields sub-resource of a product.
func (m *MockStore) SetCustomFields(productID int, fields ...CustomField) {
	if fields == nil {
		fields = []CustomField{}
	}
	body, _ := json.Marshal(map[string]any{"data": fields})
	m.SetResponse(CustomFieldsPath(productID), NewOKResponse(string(body)))
}

// CustomFieldsPath returns the custom-fields path of a product.
func CustomFieldsPath(productID int) string {
	return fmt.Sprintf("/v3/catalog/products/%d/custom-fields", productID)
}

// RequestCount returns the number of requests made to the server.
func (m *MockStore) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// Requests returns the request URIs received so far, in arrival order.
func (m *MockStore) Requests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requests...)
}

// RequestsTo returns the received request URIs whose path equals path.
func (m *MockStore) RequestsTo(path string) []string {
	var out []string
	for _, uri := range m.Requests() {
		p, _, _ := strings.Cut(uri, "?")
		if p == path {
			out = append(out, uri)
		}
	}
	return out
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockStore) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// NewOKResponse creates a 200 OK JSON response.
func NewOKResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

// NewRateLimitResponse creates a 429 response. An empty retryAfter omits the header.
func NewRateLimitResponse(retryAfter string) MockResponse {
	resp := MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status": 429, "title": "Too Many Requests"}`,
		Headers:    map[string]string{},
	}
	if retryAfter != "" {
		resp.Headers["Retry-After"] = retryAfter
	}
	return resp
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"status": 500, "title": "Internal Server Error"}`,
	}
}

func serve(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	writeJSON(w, resp.StatusCode, resp.Headers, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, headers map[string]string, body string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != "" {
		_, _ = w.Write([]byte(body))
	}
}
