package pos

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the transaction store over HTTP.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/transactions", func(r chi.Router) {
		r.Get("/", h.listTransactions)      // GET   /api/transactions?storeId=&branchId=
		r.Post("/", h.createTransaction)    // POST  /api/transactions
		r.Patch("/{id}", h.voidTransaction) // PATCH /api/transactions/{id}
	})
}

type listResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type createResponse struct {
	Transaction Transaction `json:"transaction"`
}

type voidRequest struct {
	Reason string `json:"reason,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txs, err := h.service.ListTransactions(r.Context(), Filter{
		StoreID:  q.Get("storeId"),
		BranchID: q.Get("branchId"),
	})
	if err != nil {
		respond(w, http.StatusInternalServerError, errorResponse{"Failed to fetch transactions"})
		return
	}
	if txs == nil {
		txs = []Transaction{}
	}
	respond(w, http.StatusOK, listResponse{Transactions: txs})
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var d Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respond(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	t, err := h.service.CreateTransaction(r.Context(), d)
	if err != nil {
		if errors.Is(err, ErrInvalidCheckout) {
			respond(w, http.StatusBadRequest, errorResponse{err.Error()})
			return
		}
		respond(w, http.StatusInternalServerError, errorResponse{"Failed to create transaction"})
		return
	}
	respond(w, http.StatusCreated, createResponse{Transaction: t})
}

func (h *Handler) voidTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req voidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	if err := h.service.VoidTransaction(r.Context(), id, req.Reason); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond(w, http.StatusNotFound, errorResponse{"Transaction not found"})
			return
		}
		respond(w, http.StatusInternalServerError, errorResponse{"Failed to void transaction"})
		return
	}
	respond(w, http.StatusOK, map[string]bool{"success": true})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
