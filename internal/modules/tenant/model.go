package tenant

import "errors"

// Branch is one physical location of a store. Each branch holds its own
// catalog and stock counts.
type Branch struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Store is a tenant of the chain and the branches it operates.
type Store struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Branches []Branch `json:"branches"`
}

// HasBranch reports whether id names one of the store's branches.
func (s Store) HasBranch(id string) bool {
	for _, b := range s.Branches {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Scope is the active (store, branch) pair. Branch always belongs to Store.
type Scope struct {
	Store  Store  `json:"store"`
	Branch Branch `json:"branch"`
}

var (
	ErrStoreNotFound      = errors.New("store not found")
	ErrStoreHasNoBranches = errors.New("store has no branches")
	ErrBranchNotInStore   = errors.New("branch does not belong to the selected store")
)
