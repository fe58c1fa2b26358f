package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Definkle/skinet-cart/internal/domain"
)

// HTTPGateway talks to the remote cart API over JSON. All calls go
// through a circuit breaker so a dead backend fails fast instead of
// tying up every sync in transport timeouts.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.Cart]
}

func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker[*domain.Cart](gobreaker.Settings{
		Name:    "cart-gateway",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// Not-found is a healthy backend answering; stale-id lookups
		// must not open the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCartNotFound)
		},
	})

	return &HTTPGateway{
		baseURL: baseURL,
		client:  client,
		breaker: breaker,
	}
}

func (g *HTTPGateway) Get(ctx context.Context, id string) (*domain.Cart, error) {
	return g.breaker.Execute(func() (*domain.Cart, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cartURL(id), nil)
		if err != nil {
			return nil, fmt.Errorf("build get request: %w", err)
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("cart gateway get failed: %w", err)
		}
		defer drain(resp.Body)

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrCartNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("cart gateway get: unexpected status %d", resp.StatusCode)
		}

		var cart domain.Cart
		if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
			return nil, fmt.Errorf("decode cart failed: %w", err)
		}
		return &cart, nil
	})
}

func (g *HTTPGateway) Replace(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	return g.breaker.Execute(func() (*domain.Cart, error) {
		body, err := json.Marshal(cart)
		if err != nil {
			return nil, fmt.Errorf("marshal cart failed: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/cart", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build update request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("cart gateway update failed: %w", err)
		}
		defer drain(resp.Body)

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("cart gateway update: unexpected status %d", resp.StatusCode)
		}

		var echo domain.Cart
		if err := json.NewDecoder(resp.Body).Decode(&echo); err != nil {
			return nil, fmt.Errorf("decode cart failed: %w", err)
		}
		return &echo, nil
	})
}

func (g *HTTPGateway) Delete(ctx context.Context, id string) error {
	_, err := g.breaker.Execute(func() (*domain.Cart, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.cartURL(id), nil)
		if err != nil {
			return nil, fmt.Errorf("build delete request: %w", err)
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("cart gateway delete failed: %w", err)
		}
		defer drain(resp.Body)

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrCartNotFound
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			return nil, fmt.Errorf("cart gateway delete: unexpected status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

func (g *HTTPGateway) cartURL(id string) string {
	return fmt.Sprintf("%s/api/cart?id=%s", g.baseURL, url.QueryEscape(id))
}

// drain keeps the underlying connection reusable.
func drain(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
