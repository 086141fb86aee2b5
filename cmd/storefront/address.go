package main

import (
	"github.com/spf13/cobra"

	"github.com/dwikikusuma/storefront-sync/internal/address/domain"
)

func newAddressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Manage the address book",
	}
	cmd.AddCommand(
		newAddressListCmd(a),
		newAddressAddCmd(a),
		newAddressDefaultCmd(a),
		newAddressRemoveCmd(a),
		newAddressCountryCmd(a),
	)
	return cmd
}

func newAddressCountryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "country [CODE]",
		Short: "Show or set the delivery country preference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.prefs.SetCountry(args[0])
				return nil
			}
			if c, ok := a.prefs.Country(); ok {
				cmd.Println(c)
			} else {
				cmd.Println("no country preference set")
			}
			return nil
		},
	}
}

func newAddressListCmd(a *app) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show saved addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				addrs []domain.Address
				err   error
			)
			if remote {
				addrs, err = a.addressBook.List(cmd.Context())
			} else {
				addrs, err = a.addresses.List()
			}
			if err != nil {
				return err
			}
			if len(addrs) == 0 {
				cmd.Println("no addresses saved")
				return nil
			}
			for _, addr := range addrs {
				printAddress(cmd, addr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "list the backend's addresses instead of local ones")
	return cmd
}

func newAddressAddCmd(a *app) *cobra.Command {
	var addr domain.Address

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a new address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := a.addresses.Add(addr)
			if err != nil {
				return err
			}
			printAddress(cmd, saved)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&addr.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&addr.Line1, "line1", "", "address line 1")
	cmd.Flags().StringVar(&addr.Line2, "line2", "", "address line 2")
	cmd.Flags().StringVar(&addr.City, "city", "", "city")
	cmd.Flags().StringVar(&addr.District, "district", "", "district or state")
	cmd.Flags().StringVar(&addr.Zip, "zip", "", "postal code")
	cmd.Flags().StringVar(&addr.Country, "country", "", "country")
	cmd.Flags().StringVar(&addr.Email, "email", "", "contact email")
	return cmd
}

func newAddressDefaultCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "default ID",
		Short: "Mark an address as the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.addresses.SetDefault(args[0])
		},
	}
}

func newAddressRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.addresses.Remove(args[0])
		},
	}
}

func printAddress(cmd *cobra.Command, a domain.Address) {
	marker := " "
	if a.IsDefault {
		marker = "*"
	}
	promoted := ""
	if a.Promoted() {
		promoted = " (synced)"
	}
	cmd.Printf("%s %s  %s, %s %s, %s%s\n",
		marker, a.ID, a.FullName, a.FullAddress(), a.City, a.District, promoted)
}
