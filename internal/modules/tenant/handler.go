package tenant

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the store directory over HTTP.
type Handler struct{ directory Directory }

func NewHandler(directory Directory) *Handler { return &Handler{directory: directory} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/stores", func(r chi.Router) {
		r.Get("/", h.listStores)         // GET /api/v1/stores
		r.Get("/{store_id}", h.getStore) // GET /api/v1/stores/{store_id}
	})
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.directory.Stores(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if stores == nil {
		stores = []Store{}
	}
	respond(w, http.StatusOK, stores)
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	store, err := h.directory.Store(r.Context(), chi.URLParam(r, "store_id"))
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrStoreNotFound) {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, store)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
