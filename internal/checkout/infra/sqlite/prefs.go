// Package sqlite persists the small set of checkout preferences that
// survive a restart: country, shipping type, and the selected address.
// Reads degrade to absent values; preferences are never worth failing a
// checkout over.
package sqlite

import (
	"database/sql"
	"errors"
	"log/slog"
)

const (
	keyCountry         = "country"
	keyShippingType    = "shipping_type"
	keySelectedAddress = "selected_address_id"
)

type Prefs struct {
	db  *sql.DB
	log *slog.Logger
}

func NewPrefs(db *sql.DB, log *slog.Logger) *Prefs {
	return &Prefs{db: db, log: log}
}

func (p *Prefs) get(key string) (string, bool) {
	var v string
	err := p.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		p.log.Warn("preference unreadable", slog.String("key", key), slog.Any("err", err))
		return "", false
	}
	return v, v != ""
}

func (p *Prefs) set(key, value string) {
	_, err := p.db.Exec(
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		p.log.Warn("preference not saved", slog.String("key", key), slog.Any("err", err))
	}
}

func (p *Prefs) Country() (string, bool)   { return p.get(keyCountry) }
func (p *Prefs) SetCountry(country string) { p.set(keyCountry, country) }

func (p *Prefs) ShippingType() (string, bool) { return p.get(keyShippingType) }
func (p *Prefs) SetShippingType(t string)     { p.set(keyShippingType, t) }

func (p *Prefs) SelectedAddress() (string, bool) { return p.get(keySelectedAddress) }
func (p *Prefs) SetSelectedAddress(id string)    { p.set(keySelectedAddress, id) }
