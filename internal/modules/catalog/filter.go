package catalog

import "strings"

// Filter returns the products whose name contains query (case-insensitive)
// and whose category matches categoryID. An empty or "all" category matches
// everything.
func Filter(products []Product, query, categoryID string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		if categoryID != "" && categoryID != AllCategoryID && p.Category != categoryID {
			continue
		}
		out = append(out, p)
	}
	return out
}

// withAll prepends AllCategory unless the list already carries it.
func withAll(categories []Category) []Category {
	for _, c := range categories {
		if c.ID == AllCategoryID {
			return categories
		}
	}
	return append([]Category{AllCategory}, categories...)
}
