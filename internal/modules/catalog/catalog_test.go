package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestStaticProviderScopes(t *testing.T) {
	ctx := context.Background()
	p := NewStaticProvider()

	products, err := p.ProductsFor(ctx, "daily-dope", "deparo")
	if err != nil || len(products) != 3 {
		t.Fatalf("products: %v len=%d", err, len(products))
	}
	if products[0].ID != "menthol-ice-30ml" {
		t.Fatalf("unexpected first product %s", products[0].ID)
	}

	// A branch of another store is not part of this store's catalog.
	products, err = p.ProductsFor(ctx, "daily-dope", "uptown")
	if err != nil || len(products) != 0 {
		t.Fatalf("expected empty for cross-store branch, got %v len=%d", err, len(products))
	}

	categories, err := p.CategoriesFor(ctx, "unknown-store")
	if err != nil || len(categories) != 1 || categories[0].ID != AllCategoryID {
		t.Fatalf("expected only the wildcard category, got %v %+v", err, categories)
	}
	categories, _ = p.CategoriesFor(ctx, "moto-masters")
	if categories[0] != AllCategory {
		t.Fatalf("wildcard must come first, got %+v", categories[0])
	}
}

func TestFilter(t *testing.T) {
	products, _ := NewStaticProvider().ProductsFor(context.Background(), "daily-dope", "north-mall")

	t.Run("query is case-insensitive", func(t *testing.T) {
		got := Filter(products, "  GRAPE ", "")
		if len(got) != 1 || got[0].ID != "grape-burst-60ml" {
			t.Fatalf("unexpected result %+v", got)
		}
	})

	t.Run("category narrows", func(t *testing.T) {
		got := Filter(products, "", "coils")
		if len(got) != 1 || got[0].ID != "standard-coil-12" {
			t.Fatalf("unexpected result %+v", got)
		}
	})

	t.Run("all matches everything", func(t *testing.T) {
		if got := Filter(products, "", AllCategoryID); len(got) != len(products) {
			t.Fatalf("expected %d, got %d", len(products), len(got))
		}
	})

	t.Run("query and category combine", func(t *testing.T) {
		if got := Filter(products, "kit", "coils"); len(got) != 0 {
			t.Fatalf("expected none, got %+v", got)
		}
	})
}

func TestLowStock(t *testing.T) {
	if !(Product{Stock: 10}).LowStock() {
		t.Fatal("stock at threshold is low")
	}
	if (Product{Stock: 11}).LowStock() {
		t.Fatal("stock above threshold is not low")
	}
}

func TestWithAll(t *testing.T) {
	got := withAll([]Category{{ID: "coils", Label: "Coils"}})
	if len(got) != 2 || got[0] != AllCategory {
		t.Fatalf("wildcard not prepended: %+v", got)
	}
	if got := withAll(got); len(got) != 2 {
		t.Fatalf("wildcard duplicated: %+v", got)
	}
}

func TestHandlerListProducts(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(NewStaticProvider()).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/stores/moto-masters/branches/uptown/products?category=filters", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var products []Product
	if err := json.NewDecoder(rec.Body).Decode(&products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 1 || products[0].ID != "air-filter-perf" || !products[0].LowStock() {
		t.Fatalf("unexpected products: %+v", products)
	}
}
