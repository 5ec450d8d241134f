package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/storefront-export/internal/testutil"
	"github.com/Sternrassler/storefront-export/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcluded(t *testing.T) {
	tests := []struct {
		name     string
		excluded bool
	}{
		{"Discontinued Widget", true},
		{"Widget Pro", false},
		{"TEST product", true},
		{"Contest Winner Desk", true}, // substring match
		{"Standing Desk Bundle", true},
		{"Copy of Oak Desk", true},
		{"I agree to the Terms and Conditions", true},
		{"Yes, send me information to book a Tasker", true},
		{"Please DELETE me", true},
		{"Walnut Desk", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.excluded, Excluded(tt.name))
		})
	}
}

func TestTemplateAssociation_Matches(t *testing.T) {
	a := TemplateAssociation{EntityType: TypeProduct, EntityID: 5, FileName: "a.html"}

	assert.True(t, a.Matches(TypeProduct, 5))
	assert.False(t, a.Matches(TypePage, 5))
	assert.False(t, a.Matches(TypeProduct, 6))
}

func newClient(t *testing.T, mock *testutil.MockStore) *client.Client {
	t.Helper()
	cfg := client.DefaultConfig(mock.URL(), "token")
	cfg.Retry.RetryAfterUnit = time.Millisecond
	c, err := client.New(cfg)
	require.NoError(t, err)
	return c
}

func product(id int, name string, visible bool) map[string]any {
	return map[string]any{
		"id":         id,
		"name":       name,
		"sku":        "SKU-" + name,
		"is_visible": visible,
		"custom_url": map[string]any{"url": "/" + name + "/", "is_customized": false},
	}
}

func TestListProducts(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()
	mock.SetListing(ProductsPath,
		[]any{product(1, "oak-desk", true), product(2, "test-desk", true)},
		[]any{product(3, "hidden-desk", false), product(4, "walnut-desk", true)},
	)

	got, err := ListProducts(context.Background(), newClient(t, mock), 2)
	require.NoError(t, err)
	assert.Equal(t, []Product{
		{ID: 1, Name: "oak-desk", URL: "/oak-desk/", SKU: "SKU-oak-desk"},
		{ID: 4, Name: "walnut-desk", URL: "/walnut-desk/", SKU: "SKU-walnut-desk"},
	}, got)

	for _, uri := range mock.RequestsTo(ProductsPath) {
		assert.Contains(t, uri, "is_visible=true")
		assert.Contains(t, uri, "limit=2")
	}
}

func TestListProducts_MissingCustomURLIsFatal(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()
	mock.SetListing(ProductsPath, []any{map[string]any{"id": 9, "name": "Desk", "is_visible": true}})

	got, err := ListProducts(context.Background(), newClient(t, mock), 250)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.ErrorContains(t, err, "product 9")
	assert.Nil(t, got)
}

func TestListProducts_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		field  string
	}{
		{
			name:   "empty custom_url",
			record: map[string]any{"id": 2, "name": "Oak", "sku": "OAK", "is_visible": true, "custom_url": map[string]any{}},
			field:  "custom_url.url",
		},
		{
			name:   "no sku",
			record: map[string]any{"id": 2, "name": "Oak", "is_visible": true, "custom_url": map[string]any{"url": "/oak/"}},
			field:  "sku",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockStore()
			defer mock.Close()
			mock.SetListing(ProductsPath, []any{tt.record})

			got, err := ListProducts(context.Background(), newClient(t, mock), 250)
			assert.ErrorIs(t, err, ErrMissingField)
			assert.ErrorContains(t, err, "product 2")
			assert.ErrorContains(t, err, tt.field)
			assert.Nil(t, got)
		})
	}
}

func TestListProducts_EmptySKUIsKept(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()
	mock.SetListing(ProductsPath, []any{
		map[string]any{"id": 2, "name": "Oak", "sku": "", "is_visible": true, "custom_url": map[string]any{"url": "/oak/"}},
	})

	got, err := ListProducts(context.Background(), newClient(t, mock), 250)
	require.NoError(t, err)
	assert.Equal(t, []Product{{ID: 2, Name: "Oak", URL: "/oak/"}}, got)
}

func TestListPages_MissingURLIsFatal(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()
	mock.SetListing(PagesPath, []any{
		map[string]any{"id": 1, "name": "About", "type": "page", "is_visible": true},
	})

	got, err := ListPages(context.Background(), newClient(t, mock), 250)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.ErrorContains(t, err, `page 1: missing required field "url"`)
	assert.Nil(t, got)
}

func TestListPages(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()
	mock.SetListing(PagesPath, []any{
		map[string]any{"id": 1, "name": "About", "url": "/about/", "type": "page", "is_visible": true},
		map[string]any{"id": 2, "name": "Blog", "url": "/blog/", "type": "blog", "is_visible": true},
		map[string]any{"id": 3, "name": "Draft", "url": "/draft/", "type": "page", "is_visible": false},
		map[string]any{"id": 4, "name": "Contact", "url": "/contact/", "type": "page", "is_visible": true},
	})

	got, err := ListPages(context.Background(), newClient(t, mock), 250)
	require.NoError(t, err)
	assert.Equal(t, []Page{
		{ID: 1, Name: "About", URL: "/about/"},
		{ID: 4, Name: "Contact", URL: "/contact/"},
	}, got)
	assert.Equal(t, TypePage, got[0].Type())
}

func TestListTemplateAssociations(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()
	mock.SetListing(TemplateAssociationsPath,
		[]any{map[string]any{"id": 1, "channel_id": 1, "entity_type": "product", "entity_id": 5, "file_name": "a.html", "is_valid": true}},
		[]any{map[string]any{"id": 2, "channel_id": 1, "entity_type": "page", "entity_id": 5, "file_name": "b.html", "is_valid": false}},
	)

	got, err := ListTemplateAssociations(context.Background(), newClient(t, mock), 250)
	require.NoError(t, err)
	assert.Equal(t, []TemplateAssociation{
		{EntityType: "product", EntityID: 5, FileName: "a.html"},
		{EntityType: "page", EntityID: 5, FileName: "b.html"},
	}, got)
}
