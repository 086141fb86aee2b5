// Package storeapi is the client over the backend address endpoints. The
// backend keeps a flattened form of the address, so creation composes the
// single-line full_address and listing is read mostly for the backend ids.
package storeapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dwikikusuma/storefront-sync/internal/address/domain"
	"github.com/dwikikusuma/storefront-sync/pkg/errs"
	"github.com/dwikikusuma/storefront-sync/pkg/httpx"
)

const addressPath = "/v1/addresses/"

type Book struct {
	c *httpx.Client
}

func NewBook(c *httpx.Client) *Book {
	return &Book{c: c}
}

type wireAddress struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	FullName    string          `json:"full_name"`
	Phone       string          `json:"phone"`
	FullAddress string          `json:"full_address"`
	District    string          `json:"district"`
	City        string          `json:"city"`
	Label       string          `json:"label"`
	IsDefault   bool            `json:"is_default"`
}

// List returns the backend's addresses. Local fields the backend does not
// keep (line2, zip, country, email) come back empty.
func (b *Book) List(ctx context.Context) ([]domain.Address, error) {
	var resp struct {
		Addresses []wireAddress `json:"addresses"`
	}
	if err := b.c.Get(ctx, addressPath, &resp); err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	out := make([]domain.Address, 0, len(resp.Addresses))
	for _, w := range resp.Addresses {
		name := w.FullName
		if name == "" {
			name = w.Name
		}
		out = append(out, domain.Address{
			BackendID: scalarID(w.ID),
			FullName:  name,
			Phone:     w.Phone,
			Line1:     w.FullAddress,
			City:      w.City,
			District:  w.District,
			IsDefault: w.IsDefault,
		})
	}
	return out, nil
}

// Create registers a locally-held address and returns the backend id.
func (b *Book) Create(ctx context.Context, a domain.Address) (string, error) {
	body := map[string]string{
		"name":         a.FullName,
		"phone":        a.Phone,
		"full_address": a.FullAddress(),
		"district":     a.District,
		"city":         a.City,
		"label":        "Home",
	}

	var resp struct {
		Address wireAddress     `json:"address"`
		ID      json.RawMessage `json:"id"`
	}
	if err := b.c.Post(ctx, addressPath, body, &resp); err != nil {
		return "", fmt.Errorf("create address: %w", err)
	}

	if id := scalarID(resp.Address.ID); id != "" {
		return id, nil
	}
	if id := scalarID(resp.ID); id != "" {
		return id, nil
	}
	return "", errs.New(errs.CategoryServer, "address created without an id")
}

// scalarID reads an id the backend serializes as a string or a number.
func scalarID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%d", n)
	}
	return ""
}
