package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eadshop/ecommerce-services/internal/product"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	svc product.Service
}

func NewProductHandler(svc product.Service) *ProductHandler {
	return &ProductHandler{svc: svc}
}

type createProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	StockCount  int             `json:"stock_count"`
}

type decrementStockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := &product.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		StockCount:  req.StockCount,
	}

	created, err := h.svc.CreateProduct(r.Context(), p)
	if err != nil {
		respondWithError(w, mapProductErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetProductByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapProductErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		respondWithError(w, mapProductErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, products)
}

// DecrementStock is the endpoint the order boundary calls after a successful
// placement commit.
func (h *ProductHandler) DecrementStock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var req decrementStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < 1 {
		respondWithError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	if err := h.svc.DecrementStock(r.Context(), id, req.Quantity); err != nil {
		respondWithError(w, mapProductErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func mapProductErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, product.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
