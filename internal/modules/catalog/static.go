package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

type staticProvider struct {
	products   map[string]map[string][]Product // store -> branch -> products
	categories map[string][]Category
}

// NewStaticProvider serves the built-in seed catalog for the default stores.
func NewStaticProvider() Provider {
	price := decimal.RequireFromString
	return &staticProvider{
		categories: map[string][]Category{
			"daily-dope": {
				AllCategory,
				{ID: "e-liquids", Label: "E-Liquids"},
				{ID: "coils", Label: "Coils"},
				{ID: "devices", Label: "Devices"},
			},
			"moto-masters": {
				AllCategory,
				{ID: "lubricants", Label: "Lubricants"},
				{ID: "brake-parts", Label: "Brake Parts"},
				{ID: "filters", Label: "Filters"},
			},
		},
		products: map[string]map[string][]Product{
			"daily-dope": {
				"vicas": {
					{ID: "blue-razz-60ml", Name: "Blue Razz E-Liquid 60ml", Price: price("24.99"), Stock: 45, Category: "e-liquids"},
					{ID: "strawberry-dream-60ml", Name: "Strawberry Dream 60ml", Price: price("24.99"), Stock: 32, Category: "e-liquids"},
					{ID: "mesh-coil-015", Name: "Mesh Coil 0.15Ω (5-pack)", Price: price("19.99"), Stock: 67, Category: "coils"},
				},
				"deparo": {
					{ID: "menthol-ice-30ml", Name: "Menthol Ice 30ml", Price: price("14.99"), Stock: 28, Category: "e-liquids"},
					{ID: "tropical-punch-60ml", Name: "Tropical Punch 60ml", Price: price("24.99"), Stock: 19, Category: "e-liquids"},
					{ID: "ceramic-coil-04", Name: "Ceramic Coil 0.4Ω (5-pack)", Price: price("22.99"), Stock: 8, Category: "coils"},
				},
				"north-mall": {
					{ID: "grape-burst-60ml", Name: "Grape Burst 60ml", Price: price("24.99"), Stock: 52, Category: "e-liquids"},
					{ID: "standard-coil-12", Name: "Standard Coil 1.2Ω (5-pack)", Price: price("16.99"), Stock: 41, Category: "coils"},
					{ID: "pod-system-starter", Name: "Pod System Starter Kit", Price: price("49.99"), Stock: 15, Category: "devices"},
				},
			},
			"moto-masters": {
				"westside": {
					{ID: "engine-oil-10w40", Name: "Engine Oil 10W-40 (1L)", Price: price("12.99"), Stock: 120, Category: "lubricants"},
					{ID: "brake-pads-front", Name: "Front Brake Pads", Price: price("34.99"), Stock: 25, Category: "brake-parts"},
					{ID: "oil-filter-std", Name: "Standard Oil Filter", Price: price("8.99"), Stock: 65, Category: "filters"},
				},
				"uptown": {
					{ID: "chain-lube", Name: "Chain Lubricant Spray", Price: price("9.99"), Stock: 48, Category: "lubricants"},
					{ID: "brake-disc-rear", Name: "Rear Brake Disc", Price: price("54.99"), Stock: 12, Category: "brake-parts"},
					{ID: "air-filter-perf", Name: "Performance Air Filter", Price: price("18.99"), Stock: 7, Category: "filters"},
				},
			},
		},
	}
}

func (p *staticProvider) ProductsFor(ctx context.Context, storeID, branchID string) ([]Product, error) {
	src := p.products[storeID][branchID]
	out := make([]Product, len(src))
	copy(out, src)
	return out, nil
}

func (p *staticProvider) CategoriesFor(ctx context.Context, storeID string) ([]Category, error) {
	src, ok := p.categories[storeID]
	if !ok {
		return []Category{AllCategory}, nil
	}
	out := make([]Category, len(src))
	copy(out, src)
	return out, nil
}
