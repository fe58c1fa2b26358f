package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Definkle/skinet-cart/internal/domain"
)

func TestGet_Success(t *testing.T) {
	cart := domain.Cart{
		ID: "cart-1",
		Items: []domain.LineItem{
			{ProductID: 1, ProductName: "Board", UnitPrice: 100, Quantity: 2},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "cart-1", r.URL.Query().Get("id"))
		json.NewEncoder(w).Encode(cart)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, srv.Client())
	got, err := gw.Get(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", got.ID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestGet_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, srv.Client())
	got, err := gw.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, got)
}

func TestReplace_ReturnsAuthoritativeEcho(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var payload domain.Cart
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		// Backend assigns payment fields on the echo.
		payload.PaymentIntentID = "pi_123"
		payload.ClientSecret = "secret_123"
		json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, srv.Client())
	cart := &domain.Cart{
		ID:    "cart-2",
		Items: []domain.LineItem{{ProductID: 3, UnitPrice: 50, Quantity: 1}},
	}

	echo, err := gw.Replace(context.Background(), cart)
	require.NoError(t, err)
	assert.Equal(t, "cart-2", echo.ID)
	assert.Equal(t, "pi_123", echo.PaymentIntentID)
	assert.Equal(t, "secret_123", echo.ClientSecret)
}

func TestReplace_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, srv.Client())
	_, err := gw.Replace(context.Background(), &domain.Cart{ID: "cart-3"})
	require.ErrorContains(t, err, "unexpected status 500")
}

func TestDelete_Success(t *testing.T) {
	var deletedID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deletedID = r.URL.Query().Get("id")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, srv.Client())
	require.NoError(t, gw.Delete(context.Background(), "cart-4"))
	assert.Equal(t, "cart-4", deletedID)
}

func TestDelete_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, srv.Client())
	err := gw.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, srv.Client())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := gw.Get(ctx, "cart-5")
		require.Error(t, err)
	}

	// Breaker is open now; the request never reaches the backend.
	_, err := gw.Get(ctx, "cart-5")
	require.ErrorContains(t, err, "circuit breaker is open")
}

func TestBreaker_StaysClosedOnNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, srv.Client())
	ctx := context.Background()

	// A burst of stale-id lookups answers not-found every time; the
	// backend is healthy and syncs must keep flowing.
	for i := 0; i < 10; i++ {
		_, err := gw.Get(ctx, "stale")
		require.ErrorIs(t, err, ErrCartNotFound)
	}
}
