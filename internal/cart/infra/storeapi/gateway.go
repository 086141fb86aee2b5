// Package storeapi is the typed client over the backend cart endpoints. It
// normalizes the backend's heterogeneous payloads into canonical line items
// and hides the asymmetric write model: the backend adds by increment,
// decrements through a dedicated reduce call, and has no reliable absolute
// set.
package storeapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dwikikusuma/storefront-sync/internal/cart/domain"
	"github.com/dwikikusuma/storefront-sync/pkg/errs"
	"github.com/dwikikusuma/storefront-sync/pkg/httpx"
)

const (
	cartPath   = "/v1/orders/cart/"
	reducePath = "/v1/orders/cart/reduce/"
	removePath = "/v1/orders/cart/remove/"
)

type Gateway struct {
	c   *httpx.Client
	log *slog.Logger
}

func NewGateway(c *httpx.Client, log *slog.Logger) *Gateway {
	return &Gateway{c: c, log: log}
}

// Fetch lists the remote cart in canonical form.
func (g *Gateway) Fetch(ctx context.Context) ([]domain.LineItem, error) {
	var raw rawBody
	if err := g.c.Get(ctx, cartPath, &raw); err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}

	lines, err := decodeCartPayload(raw)
	if err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}

	items := make([]domain.LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, line.toLineItem())
	}
	return domain.Normalize(items), nil
}

// Add pushes a line to the remote cart. The backend acknowledges with a
// detail message only, so the authoritative added line comes from a
// re-read; when the re-read does not contain it yet, a line synthesized
// from the input is returned as a stopgap.
func (g *Gateway) Add(ctx context.Context, item domain.LineItem) (domain.LineItem, error) {
	variationID, err := numericSKU(item.SKU)
	if err != nil {
		return domain.LineItem{}, err
	}
	qty := domain.ClampQty(item.Qty)

	body := map[string]any{
		"items": []map[string]int{{"item_id": variationID, "quantity": qty}},
	}
	if err := g.c.Post(ctx, cartPath, body, nil); err != nil {
		return domain.LineItem{}, fmt.Errorf("add item %s: %w", item.SKU, err)
	}

	items, err := g.Fetch(ctx)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("add item %s: %w", item.SKU, err)
	}
	if added, ok := (domain.Cart{Items: items}).Find(item.SKU); ok {
		return added, nil
	}

	g.log.Warn("added item missing from cart re-read, returning local copy",
		slog.String("sku", item.SKU))
	item.Qty = qty
	item.RemoteID = "temp-" + item.SKU
	if item.Image == "" {
		item.Image = PlaceholderImage
	}
	return item, nil
}

// UpdateQty moves a line to newQty. Decreases go through the reduce
// endpoint (decrement semantics); increases try the absolute-set PATCH and,
// if the backend does not offer it, fall back to re-reading authoritative
// state rather than guessing.
func (g *Gateway) UpdateQty(ctx context.Context, line domain.LineItem, newQty int) (domain.LineItem, error) {
	newQty = domain.ClampQty(newQty)
	if newQty == line.Qty {
		return line, nil
	}

	if newQty < line.Qty {
		variationID, err := numericSKU(line.SKU)
		if err != nil {
			return domain.LineItem{}, err
		}
		body := map[string]int{"item_id": variationID, "quantity": line.Qty - newQty}
		if err := g.c.Do(ctx, http.MethodPut, reducePath, body, nil); err != nil {
			return domain.LineItem{}, fmt.Errorf("reduce item %s: %w", line.SKU, err)
		}
		return g.refreshLine(ctx, line.SKU)
	}

	// Increase path. The PATCH endpoint addresses the backend cart line, not
	// the variation.
	if line.RemoteID == "" {
		return domain.LineItem{}, errs.New(errs.CategoryValidation,
			fmt.Sprintf("item %s has no remote line id", line.SKU))
	}
	patchPath := fmt.Sprintf("%s%s/", cartPath, line.RemoteID)
	err := g.c.Do(ctx, http.MethodPatch, patchPath, map[string]int{"quantity": newQty}, nil)
	if err != nil {
		var st *httpx.StatusError
		if errors.As(err, &st) && (st.Code == http.StatusNotFound || st.Code == http.StatusMethodNotAllowed) {
			g.log.Debug("absolute-set unsupported, re-reading cart",
				slog.String("sku", line.SKU), slog.Int("status", st.Code))
			return g.refreshLine(ctx, line.SKU)
		}
		return domain.LineItem{}, fmt.Errorf("update item %s: %w", line.SKU, err)
	}
	return g.refreshLine(ctx, line.SKU)
}

// Remove deletes a line by variation id.
func (g *Gateway) Remove(ctx context.Context, sku string) error {
	variationID, err := numericSKU(sku)
	if err != nil {
		return err
	}
	body := map[string]int{"item_id": variationID}
	if err := g.c.Do(ctx, http.MethodDelete, removePath, body, nil); err != nil {
		return fmt.Errorf("remove item %s: %w", sku, err)
	}
	return nil
}

// Clear empties the remote cart.
func (g *Gateway) Clear(ctx context.Context) error {
	if err := g.c.Do(ctx, http.MethodDelete, removePath, nil, nil); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// refreshLine re-reads the cart and returns the line for sku as the backend
// now sees it. A line the backend no longer has comes back zero-valued.
func (g *Gateway) refreshLine(ctx context.Context, sku string) (domain.LineItem, error) {
	items, err := g.Fetch(ctx)
	if err != nil {
		return domain.LineItem{}, err
	}
	li, _ := domain.Cart{Items: items}.Find(sku)
	return li, nil
}

func numericSKU(sku string) (int, error) {
	n, err := strconv.Atoi(sku)
	if err != nil || n <= 0 {
		return 0, errs.New(errs.CategoryValidation, fmt.Sprintf("invalid variation id %q", sku))
	}
	return n, nil
}

// rawBody defers envelope interpretation to decodeCartPayload.
type rawBody []byte

func (r *rawBody) UnmarshalJSON(b []byte) error {
	*r = append((*r)[:0], b...)
	return nil
}
