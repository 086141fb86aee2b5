package sqlite

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dwikikusuma/storefront-sync/internal/cart/domain"
	"github.com/dwikikusuma/storefront-sync/pkg/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "storefront.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, slog.Default())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	s.Save([]domain.LineItem{
		{SKU: "A", Title: "Earbuds", UnitAmount: 12999, Qty: 2, Image: "/img/a.webp"},
		{SKU: "B", Title: "Charger", UnitAmount: 6000, Qty: 1},
	})

	items := s.Load()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	got, ok := domain.Cart{Items: items}.Find("A")
	if !ok || got.Qty != 2 || got.UnitAmount != 12999 || got.Title != "Earbuds" {
		t.Fatalf("unexpected item A: %+v", got)
	}
}

func TestSaveReplacesPreviousState(t *testing.T) {
	s := newTestStore(t)

	s.Save([]domain.LineItem{{SKU: "A", Qty: 2}, {SKU: "B", Qty: 1}})
	s.Save([]domain.LineItem{{SKU: "C", Qty: 3}})

	items := s.Load()
	if len(items) != 1 || items[0].SKU != "C" {
		t.Fatalf("expected only C after replace, got %+v", items)
	}
}

func TestSaveEmptyClears(t *testing.T) {
	s := newTestStore(t)

	s.Save([]domain.LineItem{{SKU: "A", Qty: 2}})
	s.Save(nil)

	if items := s.Load(); len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}
}

func TestLoadEmptyDatabase(t *testing.T) {
	s := newTestStore(t)
	if items := s.Load(); len(items) != 0 {
		t.Fatalf("fresh store should read empty, got %+v", items)
	}
}

func TestLoadNormalizesStoredState(t *testing.T) {
	s := newTestStore(t)

	// Write an out-of-range row directly, simulating tampered storage.
	if _, err := s.db.Exec(`INSERT INTO cart_items (sku, qty) VALUES ('A', 500)`); err != nil {
		t.Fatalf("seed row: %v", err)
	}

	items := s.Load()
	if len(items) != 1 || items[0].Qty != domain.MaxQty {
		t.Fatalf("expected qty clamped to %d, got %+v", domain.MaxQty, items)
	}
}

func TestLoadUnavailableStorageIsEmpty(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "gone.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.Close() // store now points at a closed handle

	s := NewStore(db, slog.Default())
	if items := s.Load(); items != nil {
		t.Fatalf("expected nil items from unavailable storage, got %+v", items)
	}
	// Save must not panic either.
	s.Save([]domain.LineItem{{SKU: "A", Qty: 1}})
}
