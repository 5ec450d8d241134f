// Package metadata fetches the custom-fields sub-resource of catalog
// products in bounded concurrent batches.
package metadata

import (
	"sort"
	"strings"
)

// Recognized custom field names and the fallback record.
const (
	FieldBuilderType = "builder_type"
	FieldDeskBuilder = "Desk Builder"

	// SentinelValue replaces the builder when no recognized field could be read.
	SentinelValue = "BUILDER NOT FOUND"
)

// DefaultFieldNames are the custom field names looked for. When several are
// present, response order decides which one is kept.
var DefaultFieldNames = []string{FieldBuilderType, FieldDeskBuilder}

// Record maps a recognized custom field name to its value.
// A fetched record holds exactly one entry.
type Record map[string]string

// Sentinel returns the record used when no recognized field is available.
func Sentinel() Record {
	return Record{FieldBuilderType: SentinelValue}
}

// IsSentinel reports whether r is the fallback record.
func (r Record) IsSentinel() bool {
	return len(r) == 1 && r[FieldBuilderType] == SentinelValue
}

// String renders r as a dict literal, e.g. {'builder_type': 'Corner'}.
// Keys are sorted so the output is stable.
func (r Record) String() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(k))
		b.WriteString(": ")
		b.WriteString(quote(r[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// quote wraps s in single quotes, switching to double quotes when s holds
// a single quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.WriteByte(q)
	for _, c := range s {
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == rune(q):
			b.WriteByte('\\')
			b.WriteRune(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte(q)
	return b.String()
}
