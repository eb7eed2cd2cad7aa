package tenant

import "context"

// DefaultStores is the seed directory used when no database is configured.
func DefaultStores() []Store {
	return []Store{
		{
			ID:    "daily-dope",
			Label: "Daily Dope Vape Shop",
			Branches: []Branch{
				{ID: "vicas", Label: "Vicas"},
				{ID: "deparo", Label: "Deparo"},
				{ID: "north-mall", Label: "North Mall"},
			},
		},
		{
			ID:    "moto-masters",
			Label: "Moto Masters Shop",
			Branches: []Branch{
				{ID: "westside", Label: "Westside"},
				{ID: "uptown", Label: "Uptown"},
			},
		},
	}
}

type staticDirectory struct{ stores []Store }

// NewStaticDirectory serves a fixed list of stores, in the given order.
func NewStaticDirectory(stores ...Store) Directory {
	return &staticDirectory{stores: stores}
}

func (d *staticDirectory) Stores(ctx context.Context) ([]Store, error) {
	out := make([]Store, len(d.stores))
	copy(out, d.stores)
	return out, nil
}

func (d *staticDirectory) Store(ctx context.Context, id string) (Store, error) {
	for _, s := range d.stores {
		if s.ID == id {
			return s, nil
		}
	}
	return Store{}, ErrStoreNotFound
}
