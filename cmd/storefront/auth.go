package main

import (
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a backend token and merge the guest cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := saveToken(a.db, token); err != nil {
				return err
			}
			a.token = token

			// Merge errors are surfaced but the login itself stands;
			// unmerged lines retry on the next command.
			err := a.carts.OnSignIn(cmd.Context())
			printCart(cmd, a.carts.Cart())
			return err
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.MarkFlagRequired("token")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the backend token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deleteToken(a.db); err != nil {
				return err
			}
			a.token = ""
			a.carts.OnSignOut()
			printCart(cmd, a.carts.Cart())
			return nil
		},
	}
}
