package catalog

import "strings"

// ExcludedKeywords drops products whose name contains any of these,
// compared case-insensitively.
var ExcludedKeywords = []string{
	"i agree to the terms and conditions",
	"yes, send me information to book a tasker",
	"test",
	"tests",
	"delete",
	"discontinued",
	"bundle",
	"copy",
}

// Excluded reports whether a product name matches an excluded keyword.
func Excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range ExcludedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func keepProduct(r productRecord) bool {
	// a nameless record is kept so projection reports it
	if r.Name == nil {
		return r.IsVisible
	}
	return r.IsVisible && !Excluded(*r.Name)
}

func keepPage(r pageRecord) bool {
	return r.IsVisible && r.Type == TypePage
}
