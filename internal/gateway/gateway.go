package gateway

import (
	"context"
	"errors"

	"github.com/Definkle/skinet-cart/internal/domain"
)

// CartGateway is the remote cart API the engine syncs against. The
// backend owns persistence; Replace returns the authoritative echo with
// server-assigned fields.
type CartGateway interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Replace(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
	Delete(ctx context.Context, id string) error
}

var ErrCartNotFound = errors.New("cart not found")
