// Package catalog models the store records exported in a run and the
// listings that produce them.
package catalog

// Entity type tags, as used by template associations.
const (
	TypeProduct = "product"
	TypePage    = "page"
)

// Product is a visible catalog product.
type Product struct {
	ID   int
	Name string
	URL  string
	SKU  string
}

// Type returns TypeProduct.
func (Product) Type() string { return TypeProduct }

// Page is a visible content page of type "page".
type Page struct {
	ID   int
	Name string
	URL  string
}

// Type returns TypePage.
func (Page) Type() string { return TypePage }

// TemplateAssociation binds an entity to a custom template file.
type TemplateAssociation struct {
	EntityType string
	EntityID   int
	FileName   string
}

// Matches reports whether the association applies to the given entity.
func (a TemplateAssociation) Matches(entityType string, id int) bool {
	return a.EntityID == id && a.EntityType == entityType
}

// Wire records. Pointer fields are required: a missing one fails the run.

type productRecord struct {
	ID        *int    `json:"id"`
	Name      *string `json:"name"`
	SKU       *string `json:"sku"`
	IsVisible bool    `json:"is_visible"`
	CustomURL *struct {
		URL *string `json:"url"`
	} `json:"custom_url"`
}

type pageRecord struct {
	ID        *int    `json:"id"`
	Name      *string `json:"name"`
	URL       *string `json:"url"`
	Type      string  `json:"type"`
	IsVisible bool    `json:"is_visible"`
}

type associationRecord struct {
	EntityType *string `json:"entity_type"`
	EntityID   *int    `json:"entity_id"`
	FileName   *string `json:"file_name"`
}
