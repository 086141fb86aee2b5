package storeapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dwikikusuma/storefront-sync/internal/cart/domain"
	"github.com/dwikikusuma/storefront-sync/pkg/errs"
)

// PlaceholderImage is substituted for any line the backend returns without
// a usable image reference.
const PlaceholderImage = "/images/NO_IMG.png"

const fallbackTitle = "Unknown Product"

// decodeCartPayload accepts the closed set of envelopes the backend is known
// to emit for cart listings: a bare array, or an object wrapping the array
// under "data", "results", or "items". Anything else is a typed server
// error; we do not probe unknown shapes.
func decodeCartPayload(raw []byte) ([]wireLine, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var lines []wireLine
	if err := json.Unmarshal(raw, &lines); err == nil {
		return lines, nil
	}

	var envelope struct {
		Data    []wireLine `json:"data"`
		Results []wireLine `json:"results"`
		Items   []wireLine `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errs.Wrap(err, errs.CategoryServer, "unrecognized cart payload")
	}

	switch {
	case envelope.Data != nil:
		return envelope.Data, nil
	case envelope.Results != nil:
		return envelope.Results, nil
	case envelope.Items != nil:
		return envelope.Items, nil
	}

	// An object without any of the known keys is as unrecognized as
	// garbage; an empty cart arrives as an empty list, never as {}.
	return nil, errs.New(errs.CategoryServer, "unrecognized cart payload shape")
}

// wireLine is one cart entry as the backend serializes it. Entries are
// either flat or carry the product variation nested under one of three
// keys, with product data nested again inside that.
type wireLine struct {
	ID         json.RawMessage `json:"id"`
	CartItemID json.RawMessage `json:"cart_item_id"`

	Item             *wireVariation `json:"item"`
	ProductVariation *wireVariation `json:"product_variation"`
	Variation        *wireVariation `json:"variation"`
	Product          *wireProduct   `json:"product"`

	ItemID json.RawMessage `json:"item_id"`
	SKU    json.RawMessage `json:"sku"`

	ProductName string `json:"product_name"`
	Title       string `json:"title"`
	Name        string `json:"name"`

	Price        json.RawMessage `json:"price"`
	ProductPrice json.RawMessage `json:"product_price"`

	Quantity json.RawMessage `json:"quantity"`
	Qty      json.RawMessage `json:"qty"`

	Image        string `json:"image"`
	ProductImage string `json:"product_image"`
	Thumbnail    string `json:"thumbnail"`
}

type wireVariation struct {
	ID            json.RawMessage `json:"id"`
	Product       *wireProduct    `json:"product"`
	ProductName   string          `json:"product_name"`
	ProductImages []wireImage     `json:"product_images"`

	// Either a number, or an object holding final_price.
	GetDiscountedPrice json.RawMessage `json:"get_discounted_price"`
	ProductPrice       json.RawMessage `json:"product_price"`
	Price              json.RawMessage `json:"price"`
}

type wireProduct struct {
	ProductName string          `json:"product_name"`
	Image       string          `json:"image"`
	Price       json.RawMessage `json:"price"`
}

type wireImage struct {
	ProductImage string `json:"product_image"`
	Image        string `json:"image"`
}

// toLineItem maps one wire entry into the canonical line, defaulting every
// field the backend may omit.
func (w wireLine) toLineItem() domain.LineItem {
	variation := w.Item
	if variation == nil {
		variation = w.ProductVariation
	}
	if variation == nil {
		variation = w.Variation
	}

	var product *wireProduct
	if variation != nil && variation.Product != nil {
		product = variation.Product
	} else {
		product = w.Product
	}

	li := domain.LineItem{
		RemoteID: firstScalar(w.ID, w.CartItemID),
		SKU:      resolveSKU(w, variation),
		Title:    resolveTitle(w, variation, product),
		Image:    resolveImage(w, variation, product),
		Qty:      resolveQty(w),
	}
	li.UnitAmount = resolvePrice(w, variation, product)
	return li
}

func resolveSKU(w wireLine, variation *wireVariation) string {
	if variation != nil {
		if id := scalarString(variation.ID); id != "" {
			return id
		}
	}
	return firstScalar(w.ItemID, w.SKU, w.ID)
}

func resolveTitle(w wireLine, variation *wireVariation, product *wireProduct) string {
	candidates := []string{w.ProductName, w.Title, w.Name}
	if product != nil {
		candidates = append([]string{product.ProductName}, candidates...)
	}
	if variation != nil {
		candidates = append(candidates, variation.ProductName)
	}
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return fallbackTitle
}

func resolveImage(w wireLine, variation *wireVariation, product *wireProduct) string {
	if variation != nil && len(variation.ProductImages) > 0 {
		img := variation.ProductImages[0]
		if img.ProductImage != "" {
			return img.ProductImage
		}
		if img.Image != "" {
			return img.Image
		}
	}
	for _, c := range []string{w.Image, w.ProductImage} {
		if c != "" {
			return c
		}
	}
	if product != nil && product.Image != "" {
		return product.Image
	}
	if w.Thumbnail != "" {
		return w.Thumbnail
	}
	return PlaceholderImage
}

func resolveQty(w wireLine) int {
	for _, raw := range []json.RawMessage{w.Quantity, w.Qty} {
		if n, ok := scalarInt(raw); ok {
			return domain.ClampQty(n)
		}
	}
	return 1
}

func resolvePrice(w wireLine, variation *wireVariation, product *wireProduct) int64 {
	if variation != nil {
		if cents, ok := discountedPrice(variation.GetDiscountedPrice); ok {
			return cents
		}
		for _, raw := range []json.RawMessage{variation.ProductPrice, variation.Price} {
			if cents, ok := priceCents(raw); ok {
				return cents
			}
		}
	}
	for _, raw := range []json.RawMessage{w.Price, w.ProductPrice} {
		if cents, ok := priceCents(raw); ok {
			return cents
		}
	}
	if product != nil {
		if cents, ok := priceCents(product.Price); ok {
			return cents
		}
	}
	return 0
}

// discountedPrice reads the backend's computed discount field, which is
// serialized either as a plain number or as {"final_price": N}.
func discountedPrice(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	if cents, ok := priceCents(raw); ok {
		return cents, true
	}
	var obj struct {
		FinalPrice json.RawMessage `json:"final_price"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return priceCents(obj.FinalPrice)
	}
	return 0, false
}

// priceCents converts a decimal price (JSON number or numeric string) into
// integer minor units.
func priceCents(raw json.RawMessage) (int64, bool) {
	s := scalarString(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int64(math.Round(f * 100)), true
}

func firstScalar(raws ...json.RawMessage) string {
	for _, raw := range raws {
		if s := scalarString(raw); s != "" {
			return s
		}
	}
	return ""
}

// scalarString reads a JSON value that may arrive as a string or a number.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f == math.Trunc(f) {
			return strconv.FormatInt(int64(f), 10)
		}
		return fmt.Sprintf("%v", f)
	}
	return ""
}

func scalarInt(raw json.RawMessage) (int, bool) {
	s := scalarString(raw)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
