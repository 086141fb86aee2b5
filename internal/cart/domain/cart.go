package domain

import "strings"

const (
	MinQty = 1
	MaxQty = 99
)

// LineItem is the canonical cart line. SKU is the stable product-variation
// identifier and the uniqueness key within a cart. RemoteID exists only for
// lines known to the remote store; backend updates and removals need it,
// guest-mode lines leave it empty.
type LineItem struct {
	SKU        string
	Title      string
	UnitAmount int64 // minor units
	Qty        int
	Image      string
	RemoteID   string
}

func (li LineItem) LineTotal() int64 {
	return li.UnitAmount * int64(li.Qty)
}

type Mode string

const (
	ModeGuest         Mode = "guest"
	ModeAuthenticated Mode = "authenticated"
)

// Cart is a set of line items keyed by SKU plus the mode it was derived in.
// Count and Total are derived, never stored.
type Cart struct {
	Mode  Mode
	Items []LineItem
}

func (c Cart) Count() int {
	sum := 0
	for _, li := range c.Items {
		sum += li.Qty
	}
	return sum
}

func (c Cart) Total() int64 {
	var sum int64
	for _, li := range c.Items {
		sum += li.LineTotal()
	}
	return sum
}

func (c Cart) Find(sku string) (LineItem, bool) {
	for _, li := range c.Items {
		if li.SKU == sku {
			return li, true
		}
	}
	return LineItem{}, false
}

// ClampQty forces a quantity into [MinQty, MaxQty].
func ClampQty(qty int) int {
	if qty < MinQty {
		return MinQty
	}
	if qty > MaxQty {
		return MaxQty
	}
	return qty
}

// Normalize trims identifiers, clamps quantities, and collapses duplicate
// SKUs by summing their quantities (capped). Every cart leaving a store or
// gateway passes through here, which keeps the two cart invariants: unique
// SKUs and quantities in range.
func Normalize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))

	for _, li := range items {
		li.SKU = strings.TrimSpace(li.SKU)
		if li.SKU == "" {
			continue
		}
		li.Qty = ClampQty(li.Qty)

		if at, ok := index[li.SKU]; ok {
			out[at].Qty = ClampQty(out[at].Qty + li.Qty)
			continue
		}
		index[li.SKU] = len(out)
		out = append(out, li)
	}
	return out
}

// Upsert adds item, summing quantities when the SKU already exists. The
// existing line keeps its descriptive fields; only quantity is additive.
func Upsert(items []LineItem, item LineItem) []LineItem {
	item.Qty = ClampQty(item.Qty)
	for i, li := range items {
		if li.SKU == item.SKU {
			items[i].Qty = ClampQty(li.Qty + item.Qty)
			return items
		}
	}
	return append(items, item)
}

// Remove drops the line with the given SKU, if present.
func Remove(items []LineItem, sku string) []LineItem {
	out := items[:0]
	for _, li := range items {
		if li.SKU != sku {
			out = append(out, li)
		}
	}
	return out
}

// SetQty sets an absolute quantity on the line with the given SKU and
// reports whether the line was found.
func SetQty(items []LineItem, sku string, qty int) ([]LineItem, bool) {
	for i, li := range items {
		if li.SKU == sku {
			items[i].Qty = ClampQty(qty)
			return items, true
		}
	}
	return items, false
}
