package main

import (
	"context"
	"fmt"
	"io"

	"github.com/angelmondragon/greencart/internal/app"
	"github.com/angelmondragon/greencart/internal/notify"
	"github.com/angelmondragon/greencart/pkg/config"
	"github.com/spf13/cobra"
)

// cli carries what every subcommand shares.
type cli struct {
	out        io.Writer
	loadConfig func() (*config.Config, error)
	cfg        *config.Config
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out, loadConfig: config.Load}

	root := &cobra.Command{
		Use:   "greencart",
		Short: "GreenCart storefront client",
		Long: `Browse the GreenCart catalog and manage a shopping cart from the terminal.

Configuration comes from GREENCART_* environment variables (a .env file is
honoured). The session token is kept under GREENCART_HOME by default.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationNoConfig] == "true" {
				return nil
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.sellerCmd(),
		c.productsCmd(),
		c.cartCmd(),
		c.addressCmd(),
		c.contactCmd(),
		c.fakeBackendCmd(),
	)
	return root
}

const annotationNoConfig = "greencart/no-config"

// withApp builds the client, restores the session, runs fn and waits for
// background cart pushes before returning.
func (c *cli) withApp(ctx context.Context, fn func(context.Context, *app.App) error) (err error) {
	console := notify.NewConsole(c.out)
	a, err := app.New(ctx, app.Params{Config: c.cfg, Notifier: console, Navigator: console})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing client: %w", cerr)
		}
	}()
	a.Bootstrap(ctx)
	return fn(ctx, a)
}

func (c *cli) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
