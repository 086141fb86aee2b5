// Package sqlite persists the guest cart in the local database. The store is
// deliberately forgiving: a corrupt or unavailable database reads as an
// empty cart, and failures are logged rather than surfaced, because local
// persistence must never break the shopping flow.
package sqlite

import (
	"database/sql"
	"log/slog"

	"github.com/dwikikusuma/storefront-sync/internal/cart/domain"
)

type Store struct {
	db  *sql.DB
	log *slog.Logger
}

func NewStore(db *sql.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Load returns the persisted guest cart. Any read failure degrades to an
// empty cart.
func (s *Store) Load() []domain.LineItem {
	rows, err := s.db.Query(`SELECT sku, title, unit_amount, qty, image FROM cart_items`)
	if err != nil {
		s.log.Warn("local cart unreadable, treating as empty", slog.Any("err", err))
		return nil
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var li domain.LineItem
		if err := rows.Scan(&li.SKU, &li.Title, &li.UnitAmount, &li.Qty, &li.Image); err != nil {
			s.log.Warn("skipping unreadable cart row", slog.Any("err", err))
			continue
		}
		items = append(items, li)
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("local cart read interrupted", slog.Any("err", err))
	}

	return domain.Normalize(items)
}

// Save replaces the persisted guest cart with items.
func (s *Store) Save(items []domain.LineItem) {
	items = domain.Normalize(items)

	tx, err := s.db.Begin()
	if err != nil {
		s.log.Warn("local cart save failed", slog.Any("err", err))
		return
	}

	if _, err := tx.Exec(`DELETE FROM cart_items`); err != nil {
		tx.Rollback()
		s.log.Warn("local cart save failed", slog.Any("err", err))
		return
	}
	for _, li := range items {
		_, err := tx.Exec(
			`INSERT INTO cart_items (sku, title, unit_amount, qty, image) VALUES (?, ?, ?, ?, ?)`,
			li.SKU, li.Title, li.UnitAmount, li.Qty, li.Image,
		)
		if err != nil {
			tx.Rollback()
			s.log.Warn("local cart save failed", slog.String("sku", li.SKU), slog.Any("err", err))
			return
		}
	}

	if err := tx.Commit(); err != nil {
		s.log.Warn("local cart save failed", slog.Any("err", err))
	}
}
