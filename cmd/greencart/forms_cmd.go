package main

import (
	"context"
	"strings"

	"github.com/angelmondragon/greencart/internal/app"
	"github.com/angelmondragon/greencart/pkg/types"
	"github.com/spf13/cobra"
)

func (c *cli) addressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Manage delivery addresses",
	}
	var addr types.Address
	add := &cobra.Command{
		Use:   "add",
		Short: "Save a delivery address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Address.Submit(ctx, addr)
			})
		},
	}
	f := add.Flags()
	f.StringVar(&addr.FirstName, "first-name", "", "first name")
	f.StringVar(&addr.LastName, "last-name", "", "last name")
	f.StringVar(&addr.Email, "email", "", "contact email")
	f.StringVar(&addr.Street, "street", "", "street")
	f.StringVar(&addr.City, "city", "", "city")
	f.StringVar(&addr.State, "state", "", "state")
	f.StringVar(&addr.Zipcode, "zipcode", "", "zip code")
	f.StringVar(&addr.Country, "country", "", "country")
	f.StringVar(&addr.Phone, "phone", "", "phone number")
	cmd.AddCommand(add)
	return cmd
}

func (c *cli) contactCmd() *cobra.Command {
	var form types.ContactMessage
	cmd := &cobra.Command{
		Use:   "contact [message]",
		Short: "Send a message to the store",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				form.Message = strings.Join(args, " ")
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				_, err := a.Contact.Submit(ctx, form)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "your name")
	cmd.Flags().StringVar(&form.Email, "email", "", "your email")
	return cmd
}
