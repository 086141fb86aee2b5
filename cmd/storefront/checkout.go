package main

import (
	"github.com/spf13/cobra"

	checkoutdomain "github.com/dwikikusuma/storefront-sync/internal/checkout/domain"
	checkoutapi "github.com/dwikikusuma/storefront-sync/internal/checkout/infra/storeapi"
)

func newCheckoutCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Walk the checkout: address, payment, confirmation",
	}
	cmd.AddCommand(
		newCheckoutStatusCmd(a),
		newCheckoutSelectAddressCmd(a),
		newCheckoutSelectShippingCmd(a),
		newCheckoutPayCmd(a),
		newCheckoutConfirmCmd(a),
	)
	return cmd
}

func newCheckoutStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the checkout session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.checkout.Session()
			cmd.Printf("step:     %s\n", s.Step)
			cmd.Printf("address:  %s\n", orDash(s.SelectedAddressID))
			cmd.Printf("shipping: %s\n", orDash(string(s.ShippingType)))
			cmd.Printf("order:    %s\n", orDash(s.OrderCode()))
			if s.Degraded {
				cmd.Println("warning: order code is provisional; the backend has not confirmed it")
			}
			return nil
		},
	}
}

func newCheckoutSelectAddressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select-address ID",
		Short: "Choose the delivery address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.checkout.SelectAddress(args[0])
		},
	}
}

func newCheckoutSelectShippingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select-shipping TYPE",
		Short: "Choose Normal or Express shipping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := checkoutdomain.ParseShippingType(args[0])
			if err != nil {
				return err
			}
			return a.checkout.SelectShipping(st)
		},
	}
}

func newCheckoutPayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pay",
		Short: "Resolve the order and request a payment reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.enterSession(ctx)
			if err := a.carts.Refresh(ctx); err != nil {
				return err
			}
			if err := a.checkout.ProceedToPayment(ctx); err != nil {
				return err
			}
			s := a.checkout.Session()
			cmd.Printf("order %s ready for payment, reference %s\n", s.OrderCode(), s.PaymentRef)
			if s.Degraded {
				cmd.Println("warning: order code is provisional; the backend has not confirmed it")
			}
			return nil
		},
	}
}

func newCheckoutConfirmCmd(a *app) *cobra.Command {
	var method string
	var providerRef string

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm payment, place the order, and print the receipt snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.enterSession(ctx)
			if err := a.carts.Refresh(ctx); err != nil {
				return err
			}

			// A fresh process starts at the address step; re-derive the
			// payment state before confirming.
			if a.checkout.Session().Step == checkoutdomain.StepAddress {
				if err := a.checkout.ProceedToPayment(ctx); err != nil {
					return err
				}
			}
			if err := a.checkout.ConfirmPayment(ctx, method, providerRef); err != nil {
				return err
			}

			res, err := a.confirmer.Confirm(ctx, a.checkout.Session())
			if err != nil {
				return err
			}

			cmd.Printf("order %s (%s) placed at %s\n",
				res.OrderCode, res.Status, res.PlacedAt.Format("2006-01-02 15:04:05"))
			for _, li := range res.Items {
				cmd.Printf("  %-12s x%-3d %10s  %s\n",
					li.SKU, li.Qty, checkoutapi.Amount(li.LineTotal()), li.Title)
			}
			cmd.Printf("total %s, paid via %s\n", checkoutapi.Amount(res.Total), res.PaymentMethod)
			if res.Address.FullName != "" {
				cmd.Printf("ship to %s, %s, %s\n",
					res.Address.FullName, res.Address.FullAddress(), res.Address.City)
			}
			if res.Degraded {
				cmd.Println("warning: order code is provisional; contact support if it does not appear in your orders")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "card", "payment method")
	cmd.Flags().StringVar(&providerRef, "ref", "", "provider confirmation reference")
	cmd.MarkFlagRequired("ref")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
