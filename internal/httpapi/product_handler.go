package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Definkle/skinet-cart/internal/catalog"
	"github.com/Definkle/skinet-cart/internal/domain"
)

type ProductHandler struct {
	catalog catalog.Catalog
	timeout time.Duration
}

func NewProductHandler(cat catalog.Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: cat,
		timeout: timeout,
	}
}

type ProductsResponse struct {
	Products []*domain.Product `json:"products"`
}

type DeliveryMethodsResponse struct {
	DeliveryMethods []*domain.DeliveryMethod `json:"deliveryMethods"`
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	brand := r.URL.Query().Get("brand")
	productType := r.URL.Query().Get("type")

	products, err := h.catalog.GetProducts(ctx, brand, productType)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "catalog lookup failed")
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

func (h *ProductHandler) GetOne(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}

	product, err := h.catalog.GetProduct(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "catalog lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) GetDeliveryMethods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	methods, err := h.catalog.GetDeliveryMethods(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "catalog lookup failed")
		return
	}
	if methods == nil {
		methods = []*domain.DeliveryMethod{}
	}

	respondJSON(w, http.StatusOK, &DeliveryMethodsResponse{DeliveryMethods: methods})
}
