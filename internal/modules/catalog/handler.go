package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes catalog lookups over HTTP.
type Handler struct{ provider Provider }

func NewHandler(provider Provider) *Handler { return &Handler{provider: provider} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/catalog/stores/{store_id}", func(r chi.Router) {
		r.Get("/categories", h.listCategories)                  // GET /api/v1/catalog/stores/{store_id}/categories
		r.Get("/branches/{branch_id}/products", h.listProducts) // GET /api/v1/catalog/stores/{store_id}/branches/{branch_id}/products?q=&category=
	})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.provider.CategoriesFor(r.Context(), chi.URLParam(r, "store_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, categories)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.provider.ProductsFor(r.Context(), chi.URLParam(r, "store_id"), chi.URLParam(r, "branch_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	q := r.URL.Query()
	respond(w, http.StatusOK, Filter(products, q.Get("q"), q.Get("category")))
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
