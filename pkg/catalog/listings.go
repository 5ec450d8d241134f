package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Sternrassler/storefront-export/pkg/pagination"
)

// Endpoint paths, relative to the store base URL.
const (
	ProductsPath             = "/v3/catalog/products"
	PagesPath                = "/v3/content/pages"
	TemplateAssociationsPath = "/v3/storefront/custom-template-associations"
)

// ErrMissingField is returned when a listed record lacks a required field.
var ErrMissingField = errors.New("missing required field")

func missing(kind string, id *int, field string) error {
	if id != nil {
		return fmt.Errorf("%s %d: %w %q", kind, *id, ErrMissingField, field)
	}
	return fmt.Errorf("%s: %w %q", kind, ErrMissingField, field)
}

// ListProducts returns visible products whose names pass the keyword filter.
func ListProducts(ctx context.Context, getter pagination.Getter, pageSize int) ([]Product, error) {
	return pagination.Fetch(ctx, getter, pagination.Listing[productRecord, Product]{
		Name:     "products",
		Path:     ProductsPath,
		Query:    url.Values{"is_visible": {"true"}},
		PageSize: pageSize,
		Keep:     keepProduct,
		Project: func(r productRecord) (Product, error) {
			switch {
			case r.ID == nil:
				return Product{}, missing("product", nil, "id")
			case r.Name == nil:
				return Product{}, missing("product", r.ID, "name")
			case r.CustomURL == nil:
				return Product{}, missing("product", r.ID, "custom_url")
			case r.CustomURL.URL == nil:
				return Product{}, missing("product", r.ID, "custom_url.url")
			case r.SKU == nil:
				return Product{}, missing("product", r.ID, "sku")
			}
			return Product{
				ID:   *r.ID,
				Name: *r.Name,
				URL:  *r.CustomURL.URL,
				SKU:  *r.SKU,
			}, nil
		},
	})
}

// ListPages returns visible content pages of type "page".
func ListPages(ctx context.Context, getter pagination.Getter, pageSize int) ([]Page, error) {
	return pagination.Fetch(ctx, getter, pagination.Listing[pageRecord, Page]{
		Name:     "pages",
		Path:     PagesPath,
		PageSize: pageSize,
		Keep:     keepPage,
		Project: func(r pageRecord) (Page, error) {
			switch {
			case r.ID == nil:
				return Page{}, missing("page", nil, "id")
			case r.Name == nil:
				return Page{}, missing("page", r.ID, "name")
			case r.URL == nil:
				return Page{}, missing("page", r.ID, "url")
			}
			return Page{ID: *r.ID, Name: *r.Name, URL: *r.URL}, nil
		},
	})
}

// ListTemplateAssociations returns every custom template association in API order.
func ListTemplateAssociations(ctx context.Context, getter pagination.Getter, pageSize int) ([]TemplateAssociation, error) {
	return pagination.Fetch(ctx, getter, pagination.Listing[associationRecord, TemplateAssociation]{
		Name:     "template_associations",
		Path:     TemplateAssociationsPath,
		PageSize: pageSize,
		Project: func(r associationRecord) (TemplateAssociation, error) {
			switch {
			case r.EntityID == nil:
				return TemplateAssociation{}, missing("template association", nil, "entity_id")
			case r.EntityType == nil:
				return TemplateAssociation{}, missing("template association", r.EntityID, "entity_type")
			case r.FileName == nil:
				return TemplateAssociation{}, missing("template association", r.EntityID, "file_name")
			}
			return TemplateAssociation{
				EntityType: *r.EntityType,
				EntityID:   *r.EntityID,
				FileName:   *r.FileName,
			}, nil
		},
	})
}
