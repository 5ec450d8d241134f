// Package merge joins products and pages into export rows.
package merge

import (
	"github.com/Sternrassler/storefront-export/pkg/catalog"
	"github.com/Sternrassler/storefront-export/pkg/metadata"
)

// Placeholders written when a row has no data for a column.
const (
	NoCustomField = "No custom field"
	NoTemplate    = "No template found"
)

// Row is one line of the export.
type Row struct {
	ID   int
	Name string
	URL  string
	SKU  string
	Type string

	// CustomFields is nil when no record was fetched for the row.
	CustomFields metadata.Record

	TemplateFileName string
}

// CustomFieldsText renders CustomFields, or NoCustomField when absent.
func (r Row) CustomFieldsText() string {
	if r.CustomFields == nil {
		return NoCustomField
	}
	return r.CustomFields.String()
}

// Reconcile builds the export rows: products first, then pages, each in the
// order given. Custom fields are looked up by product ID; pages never get
// any. The template is the first association matching the row's ID and type.
// A row whose (ID, type) pair was already emitted is dropped.
func Reconcile(products []catalog.Product, pages []catalog.Page, fields map[int]metadata.Record, templates []catalog.TemplateAssociation) []Row {
	rows := make([]Row, 0, len(products)+len(pages))
	seen := make(map[key]struct{}, len(products)+len(pages))

	add := func(r Row) {
		k := key{id: r.ID, typ: r.Type}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		r.TemplateFileName = templateFor(templates, r.Type, r.ID)
		rows = append(rows, r)
	}

	for _, p := range products {
		row := Row{ID: p.ID, Name: p.Name, URL: p.URL, SKU: p.SKU, Type: p.Type()}
		if rec, ok := fields[p.ID]; ok {
			row.CustomFields = rec
		}
		add(row)
	}

	for _, p := range pages {
		add(Row{ID: p.ID, Name: p.Name, URL: p.URL, Type: p.Type()})
	}

	return rows
}

type key struct {
	id  int
	typ string
}

func templateFor(templates []catalog.TemplateAssociation, entityType string, id int) string {
	for _, t := range templates {
		if t.Matches(entityType, id) {
			return t.FileName
		}
	}
	return NoTemplate
}
