package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dwikikusuma/storefront-sync/internal/cart/domain"
	checkoutapi "github.com/dwikikusuma/storefront-sync/internal/checkout/infra/storeapi"
)

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and mutate the cart",
	}
	cmd.AddCommand(
		newCartListCmd(a),
		newCartAddCmd(a),
		newCartSetQtyCmd(a),
		newCartRemoveCmd(a),
		newCartClearCmd(a),
	)
	return cmd
}

func newCartListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.enterSession(ctx)
			if err := a.carts.Refresh(ctx); err != nil {
				return err
			}
			printCart(cmd, a.carts.Cart())
			return nil
		},
	}
}

func newCartAddCmd(a *app) *cobra.Command {
	var qty int
	var title string
	var price string

	cmd := &cobra.Command{
		Use:   "add SKU",
		Short: "Add an item by variation id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.enterSession(ctx)

			item := domain.LineItem{SKU: args[0], Title: title, Qty: qty}
			if price != "" {
				f, err := strconv.ParseFloat(price, 64)
				if err != nil {
					return fmt.Errorf("invalid price %q", price)
				}
				item.UnitAmount = int64(f*100 + 0.5)
			}
			if err := a.carts.Add(ctx, item); err != nil {
				return err
			}
			printCart(cmd, a.carts.Cart())
			return nil
		},
	}
	cmd.Flags().IntVar(&qty, "qty", 1, "quantity")
	cmd.Flags().StringVar(&title, "title", "", "item title (guest mode)")
	cmd.Flags().StringVar(&price, "price", "", "unit price (guest mode)")
	return cmd
}

func newCartSetQtyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-qty SKU QTY",
		Short: "Set an item's quantity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			ctx := cmd.Context()
			a.enterSession(ctx)
			if err := a.carts.SetQty(ctx, args[0], qty); err != nil {
				return err
			}
			printCart(cmd, a.carts.Cart())
			return nil
		},
	}
}

func newCartRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove SKU",
		Short: "Remove an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.enterSession(ctx)
			if err := a.carts.Remove(ctx, args[0]); err != nil {
				return err
			}
			printCart(cmd, a.carts.Cart())
			return nil
		},
	}
}

func newCartClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.enterSession(ctx)
			return a.carts.Clear(ctx)
		},
	}
}

func printCart(cmd *cobra.Command, cart domain.Cart) {
	if len(cart.Items) == 0 {
		cmd.Printf("cart is empty (%s mode)\n", cart.Mode)
		return
	}
	for _, li := range cart.Items {
		cmd.Printf("%-12s x%-3d %10s  %s\n",
			li.SKU, li.Qty, checkoutapi.Amount(li.LineTotal()), li.Title)
	}
	cmd.Printf("%d items, total %s (%s mode)\n",
		cart.Count(), checkoutapi.Amount(cart.Total()), cart.Mode)
}
