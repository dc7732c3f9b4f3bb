package main

import (
	"context"
	"errors"

	"github.com/angelmondragon/greencart/internal/app"
	"github.com/angelmondragon/greencart/pkg/env"
	"github.com/spf13/cobra"
)

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and persist the session token",
		Long: `Log in with email and password. The password is read from --password or
GREENCART_PASSWORD.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = env.Get("GREENCART_PASSWORD", "")
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res := a.Session.Login(ctx, args[0], password)
				if !res.Success {
					return errors.New(res.Message)
				}
				snap := a.Store.State()
				c.printf("Logged in as %s (%d items in cart)\n", snap.User.Name, snap.Cart.TotalCount())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				a.Session.Logout(ctx)
				return nil
			})
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				snap := a.Store.State()
				if !snap.Authenticated() {
					c.printf("Not logged in\n")
					return nil
				}
				c.printf("%s <%s>\n", snap.User.Name, snap.User.Email)
				return nil
			})
		},
	}
}

func (c *cli) sellerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seller",
		Short: "Check whether the seller session is valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if a.Session.CheckSeller(ctx) {
					c.printf("Seller session active\n")
				} else {
					c.printf("No seller session\n")
				}
				return nil
			})
		},
	}
}
