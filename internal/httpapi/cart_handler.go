package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Definkle/skinet-cart/internal/cart"
	"github.com/Definkle/skinet-cart/internal/catalog"
	"github.com/Definkle/skinet-cart/internal/domain"
)

type CartHandler struct {
	sessions *Sessions
	catalog  catalog.Catalog
	timeout  time.Duration
}

func NewCartHandler(sessions *Sessions, cat catalog.Catalog, timeout time.Duration) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  cat,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type SelectDeliveryRequestDTO struct {
	DeliveryMethodID int64 `json:"delivery_method_id"`
}

type ApplyVoucherRequestDTO struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

// CartResponseDTO is the cart state plus derived totals, recomputed on
// every read.
type CartResponseDTO struct {
	Cart           domain.Cart            `json:"cart"`
	Summary        domain.OrderSummary    `json:"summary"`
	DeliveryMethod *domain.DeliveryMethod `json:"deliveryMethod,omitempty"`
	ItemCount      int                    `json:"itemCount"`
	Saving         bool                   `json:"saving"`
}

func (h *CartHandler) engine(w http.ResponseWriter, r *http.Request) (*cart.Engine, context.Context, context.CancelFunc, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		cancel()
		respondError(w, http.StatusBadRequest, "missing_session", "missing session id")
		return nil, nil, nil, false
	}
	return h.sessions.Get(ctx, sessionID), ctx, cancel, true
}

func (h *CartHandler) respondCart(w http.ResponseWriter, status int, eng *cart.Engine) {
	snap := eng.Snapshot()
	respondJSON(w, status, CartResponseDTO{
		Cart:           snap.Cart,
		Summary:        eng.Summary(),
		DeliveryMethod: snap.DeliveryMethod,
		ItemCount:      snap.ItemCount,
		Saving:         snap.Saving,
	})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	eng, _, cancel, ok := h.engine(w, r)
	if !ok {
		return
	}
	defer cancel()

	h.respondCart(w, http.StatusOK, eng)
}

func (h *CartHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	eng, _, cancel, ok := h.engine(w, r)
	if !ok {
		return
	}
	defer cancel()

	respondJSON(w, http.StatusOK, eng.Summary())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	eng, ctx, cancel, ok := h.engine(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "catalog lookup failed")
		return
	}

	if err := eng.AddItem(*product, req.Quantity); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product", err.Error())
		return
	}

	h.respondCart(w, http.StatusCreated, eng)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	eng, _, cancel, ok := h.engine(w, r)
	if !ok {
		return
	}
	defer cancel()

	productID, err := parseProductID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not exceed 99")
		return
	}

	// Zero or negative quantity removes the item.
	eng.UpdateQuantity(productID, req.Quantity)
	h.respondCart(w, http.StatusOK, eng)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	eng, _, cancel, ok := h.engine(w, r)
	if !ok {
		return
	}
	defer cancel()

	productID, err := parseProductID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	eng.RemoveItem(productID)
	h.respondCart(w, http.StatusOK, eng)
}

func (h *CartHandler) SelectDelivery(w http.ResponseWriter, r *http.Request) {
	eng, ctx, cancel, ok := h.engine(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req SelectDeliveryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	method, err := h.catalog.GetDeliveryMethod(ctx, req.DeliveryMethodID)
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, http.StatusBadRequest, "invalid_delivery_method", "unknown delivery method")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "catalog lookup failed")
		return
	}

	eng.SelectDeliveryMethod(*method)
	h.respondCart(w, http.StatusOK, eng)
}

func (h *CartHandler) ApplyVoucher(w http.ResponseWriter, r *http.Request) {
	eng, _, cancel, ok := h.engine(w, r)
	if !ok {
		return
	}
	defer cancel()

	var req ApplyVoucherRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := eng.ApplyVoucher(domain.Voucher{Code: req.Code, Discount: req.Discount})
	if errors.Is(err, cart.ErrDuplicateVoucher) {
		respondError(w, http.StatusConflict, "already_exists", "voucher already applied")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_voucher", err.Error())
		return
	}

	h.respondCart(w, http.StatusOK, eng)
}

func (h *CartHandler) RemoveVoucher(w http.ResponseWriter, r *http.Request) {
	eng, _, cancel, ok := h.engine(w, r)
	if !ok {
		return
	}
	defer cancel()

	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "voucher code is required")
		return
	}

	eng.RemoveVoucher(code)
	h.respondCart(w, http.StatusOK, eng)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	eng, ctx, cancel, ok := h.engine(w, r)
	if !ok {
		return
	}
	defer cancel()

	eng.Clear(ctx)
	h.respondCart(w, http.StatusOK, eng)
}

func parseProductID(r *http.Request) (int64, error) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		return 0, errors.New("invalid product id")
	}
	return productID, nil
}
