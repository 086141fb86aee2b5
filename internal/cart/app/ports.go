package app

import (
	"context"

	"github.com/dwikikusuma/storefront-sync/internal/cart/domain"
)

// LocalStore persists the guest cart on this device. Implementations absorb
// their own failures; the cart flow never stops on local storage.
type LocalStore interface {
	Load() []domain.LineItem
	Save(items []domain.LineItem)
}

// RemoteCart is the authenticated cart as the backend holds it.
type RemoteCart interface {
	Fetch(ctx context.Context) ([]domain.LineItem, error)
	Add(ctx context.Context, item domain.LineItem) (domain.LineItem, error)
	UpdateQty(ctx context.Context, line domain.LineItem, newQty int) (domain.LineItem, error)
	Remove(ctx context.Context, sku string) error
	Clear(ctx context.Context) error
}
