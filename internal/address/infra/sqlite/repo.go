// Package sqlite persists the address book in the local database. Unlike
// the guest cart, address storage failures surface as storage errors:
// checkout cannot proceed on a silently-lost address.
package sqlite

import (
	"database/sql"
	"errors"

	"github.com/dwikikusuma/storefront-sync/internal/address/domain"
	"github.com/dwikikusuma/storefront-sync/pkg/errs"
)

const addressColumns = `id, backend_id, full_name, phone, line1, line2, city, district, zip, country, email, is_default`

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) List() ([]domain.Address, error) {
	rows, err := r.db.Query(`SELECT ` + addressColumns + ` FROM addresses ORDER BY is_default DESC, id`)
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryStorage, "list addresses")
	}
	defer rows.Close()

	var out []domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, errs.Wrap(err, errs.CategoryStorage, "read address row")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CategoryStorage, "list addresses")
	}
	return out, nil
}

func (r *Repo) Get(id string) (domain.Address, error) {
	row := r.db.QueryRow(`SELECT `+addressColumns+` FROM addresses WHERE id = ?`, id)
	a, err := scanAddress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, errs.New(errs.CategoryValidation, "address not found")
	}
	if err != nil {
		return domain.Address{}, errs.Wrap(err, errs.CategoryStorage, "get address")
	}
	return a, nil
}

func (r *Repo) Save(a domain.Address) error {
	_, err := r.db.Exec(`
		INSERT INTO addresses (`+addressColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			backend_id = excluded.backend_id,
			full_name  = excluded.full_name,
			phone      = excluded.phone,
			line1      = excluded.line1,
			line2      = excluded.line2,
			city       = excluded.city,
			district   = excluded.district,
			zip        = excluded.zip,
			country    = excluded.country,
			email      = excluded.email,
			is_default = excluded.is_default`,
		a.ID, a.BackendID, a.FullName, a.Phone, a.Line1, a.Line2,
		a.City, a.District, a.Zip, a.Country, a.Email, boolInt(a.IsDefault),
	)
	if err != nil {
		return errs.Wrap(err, errs.CategoryStorage, "save address")
	}
	return nil
}

// SetBackendID records the promoted id. Write-once: an already promoted
// address is left untouched.
func (r *Repo) SetBackendID(id, backendID string) error {
	_, err := r.db.Exec(
		`UPDATE addresses SET backend_id = ? WHERE id = ? AND backend_id = ''`,
		backendID, id,
	)
	if err != nil {
		return errs.Wrap(err, errs.CategoryStorage, "promote address")
	}
	return nil
}

func (r *Repo) SetDefault(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errs.Wrap(err, errs.CategoryStorage, "set default address")
	}
	if _, err := tx.Exec(`UPDATE addresses SET is_default = 0`); err != nil {
		tx.Rollback()
		return errs.Wrap(err, errs.CategoryStorage, "set default address")
	}
	res, err := tx.Exec(`UPDATE addresses SET is_default = 1 WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return errs.Wrap(err, errs.CategoryStorage, "set default address")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback()
		return errs.New(errs.CategoryValidation, "address not found")
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, errs.CategoryStorage, "set default address")
	}
	return nil
}

func (r *Repo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM addresses WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(err, errs.CategoryStorage, "delete address")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAddress(row scanner) (domain.Address, error) {
	var a domain.Address
	var def int
	err := row.Scan(&a.ID, &a.BackendID, &a.FullName, &a.Phone, &a.Line1, &a.Line2,
		&a.City, &a.District, &a.Zip, &a.Country, &a.Email, &def)
	if err != nil {
		return domain.Address{}, err
	}
	a.IsDefault = def != 0
	return a, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
