package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/greencart/internal/backend/backendtest"
	"github.com/angelmondragon/greencart/pkg/logger"
	"github.com/angelmondragon/greencart/pkg/security"
	"github.com/spf13/cobra"
)

func (c *cli) fakeBackendCmd() *cobra.Command {
	var (
		addr     string
		accounts []string
		seller   bool
	)
	cmd := &cobra.Command{
		Use:   "fakebackend",
		Short: "Serve an in-memory storefront backend for local runs",
		Long: `Serve an in-memory implementation of the storefront REST API.

Accounts are given as email:password pairs, for example
  greencart fakebackend --account ada@example.com:secret
A bare email gets a generated password, printed at startup.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []backendtest.Option{
				backendtest.WithSeller(seller),
				backendtest.WithLogger(logger.New(logger.Options{ServiceName: "fakebackend"})),
			}
			for i, raw := range accounts {
				email, password, _ := strings.Cut(raw, ":")
				if email == "" {
					return fmt.Errorf("account %q must be email[:password]", raw)
				}
				if password == "" {
					generated, err := security.GenerateTempPassword(12)
					if err != nil {
						return err
					}
					password = generated
					c.printf("account %s password %s\n", email, password)
				}
				name, _, _ := strings.Cut(email, "@")
				opts = append(opts, backendtest.WithAccount(backendtest.Account{
					ID:       fmt.Sprintf("user-%d", i+1),
					Name:     name,
					Email:    email,
					Password: password,
				}))
			}
			return c.serve(cmd.Context(), addr, backendtest.New(opts...).Handler())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:4000", "listen address")
	cmd.Flags().StringArrayVar(&accounts, "account", nil, "email[:password] account, repeatable")
	cmd.Flags().BoolVar(&seller, "seller", false, "report a valid seller session")
	return cmd
}

func (c *cli) serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	c.printf("fake backend listening on http://%s\n", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
