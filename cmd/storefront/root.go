// Command storefront drives the cart and checkout engine against a
// storefront backend. Guest carts live in a local SQLite file; logging in
// merges them into the backend cart and unlocks checkout.
package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/spf13/cobra"

	addrapp "github.com/dwikikusuma/storefront-sync/internal/address/app"
	addrsqlite "github.com/dwikikusuma/storefront-sync/internal/address/infra/sqlite"
	addrapi "github.com/dwikikusuma/storefront-sync/internal/address/infra/storeapi"
	cartapp "github.com/dwikikusuma/storefront-sync/internal/cart/app"
	cartsqlite "github.com/dwikikusuma/storefront-sync/internal/cart/infra/sqlite"
	cartapi "github.com/dwikikusuma/storefront-sync/internal/cart/infra/storeapi"
	checkoutapp "github.com/dwikikusuma/storefront-sync/internal/checkout/app"
	checkoutdomain "github.com/dwikikusuma/storefront-sync/internal/checkout/domain"
	checkoutsqlite "github.com/dwikikusuma/storefront-sync/internal/checkout/infra/sqlite"
	checkoutapi "github.com/dwikikusuma/storefront-sync/internal/checkout/infra/storeapi"
	orderapp "github.com/dwikikusuma/storefront-sync/internal/order/app"
	"github.com/dwikikusuma/storefront-sync/pkg/config"
	"github.com/dwikikusuma/storefront-sync/pkg/errs"
	"github.com/dwikikusuma/storefront-sync/pkg/httpx"
	"github.com/dwikikusuma/storefront-sync/pkg/logger"
	"github.com/dwikikusuma/storefront-sync/pkg/retry"
	"github.com/dwikikusuma/storefront-sync/pkg/sqlite"
)

// app wires the engine once per invocation. The checkout session itself is
// process-scoped; selections and the order code re-derive from prefs and
// the backend on the next run.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	db    *sql.DB
	token string

	carts       *cartapp.Service
	addresses   *addrapp.Service
	addressBook *addrapi.Book
	prefs       *checkoutsqlite.Prefs
	checkout    *checkoutapp.Orchestrator
	confirmer   *orderapp.Coordinator
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Cart and checkout against a storefront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(configPath)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.db != nil {
				a.db.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	root.AddCommand(
		newCartCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newAddressCmd(a),
		newCheckoutCmd(a),
	)
	return root
}

func (a *app) init(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(logger.Options{
		Service: "storefront",
		Env:     cfg.AppEnv,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})

	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	a.db = db
	a.token = loadToken(db)

	client := httpx.New(httpx.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Rate:    cfg.API.Rate,
		Burst:   cfg.API.Burst,
		Token:   func() string { return a.token },
	})

	a.carts = cartapp.NewService(
		cartsqlite.NewStore(db, a.log),
		cartapi.NewGateway(client, a.log),
		a.log,
	)
	a.addressBook = addrapi.NewBook(client)
	a.addresses = addrapp.NewService(
		addrsqlite.NewRepo(db),
		a.addressBook,
		a.log,
	)
	a.prefs = checkoutsqlite.NewPrefs(db, a.log)

	orders := checkoutapi.NewClient(client)
	a.checkout = checkoutapp.NewOrchestrator(
		orders, orders, a.addresses, a.carts, a.prefs,
		retry.Config{
			MaxAttempts:   cfg.Retry.MaxAttempts,
			InitialDelay:  cfg.Retry.InitialDelay,
			MaxDelay:      cfg.Retry.MaxDelay,
			BackoffFactor: cfg.Retry.BackoffFactor,
			Jitter:        cfg.Retry.Jitter,
			Retryable:     errs.Retryable,
		},
		cfg.Checkout.Currency,
		a.log,
	)
	if a.checkout.Session().ShippingType == "" && cfg.Checkout.ShippingType != "" {
		if st, err := checkoutdomain.ParseShippingType(cfg.Checkout.ShippingType); err == nil {
			a.checkout.SelectShipping(st)
		}
	}

	a.confirmer = orderapp.NewCoordinator(a.carts, a.addresses, a.log)
	return nil
}

// enterSession switches the cart to authenticated mode when a token is
// stored, merging any guest cart. Merge failures are non-fatal; unmerged
// lines stay local for the next run.
func (a *app) enterSession(ctx context.Context) {
	if a.token == "" {
		return
	}
	if err := a.carts.OnSignIn(ctx); err != nil {
		a.log.Warn("cart merge incomplete", slog.Any("err", err))
	}
}

func loadToken(db *sql.DB) string {
	var v string
	db.QueryRow(`SELECT value FROM prefs WHERE key = 'auth_token'`).Scan(&v)
	return v
}

func saveToken(db *sql.DB, token string) error {
	_, err := db.Exec(
		`INSERT INTO prefs (key, value) VALUES ('auth_token', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		token,
	)
	return err
}

func deleteToken(db *sql.DB) error {
	_, err := db.Exec(`DELETE FROM prefs WHERE key = 'auth_token'`)
	return err
}
