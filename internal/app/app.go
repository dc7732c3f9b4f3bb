// Package app wires the storefront client from configuration.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/angelmondragon/greencart/internal/address"
	"github.com/angelmondragon/greencart/internal/backend"
	"github.com/angelmondragon/greencart/internal/cart/engine"
	"github.com/angelmondragon/greencart/internal/catalog"
	"github.com/angelmondragon/greencart/internal/contact"
	"github.com/angelmondragon/greencart/internal/notify"
	"github.com/angelmondragon/greencart/internal/session"
	"github.com/angelmondragon/greencart/internal/state"
	"github.com/angelmondragon/greencart/pkg/auth/tokenstore"
	"github.com/angelmondragon/greencart/pkg/config"
	"github.com/angelmondragon/greencart/pkg/env"
	"github.com/angelmondragon/greencart/pkg/httpclient"
	"github.com/angelmondragon/greencart/pkg/logger"
	"github.com/angelmondragon/greencart/pkg/metrics"
	"github.com/angelmondragon/greencart/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Params are the runtime collaborators that do not come from config.
type Params struct {
	Config    *config.Config
	Logger    *logger.Logger
	Notifier  notify.Notifier
	Navigator notify.Navigator
	// Tokens overrides the configured token store.
	Tokens tokenstore.TokenStore
	// HTTPOptions are appended to the options derived from config.
	HTTPOptions []httpclient.Option
}

// App holds the wired client.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    *state.Store
	Catalog  *catalog.Catalog
	Tokens   tokenstore.TokenStore
	HTTP     *httpclient.Client
	API      *backend.API
	Session  *session.Manager
	Cart     *engine.Engine
	Address  *address.Flow
	Contact  *contact.Flow
	Registry *prometheus.Registry

	redis       *redis.Client
	watcherDone chan struct{}
}

// New builds the client. The session is not restored; call Bootstrap.
func New(ctx context.Context, p Params) (a *App, err error) {
	if p.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := p.Config
	logg := p.Logger
	if logg == nil {
		logg = logger.New(logger.Options{
			ServiceName: "greencart",
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
		})
	}
	a = &App{Config: cfg, Logger: logg}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	a.Catalog, err = catalog.Load(cfg.Catalog.File)
	if err != nil {
		return a, fmt.Errorf("loading catalog: %w", err)
	}

	a.Tokens = p.Tokens
	if a.Tokens == nil {
		if a.Tokens, err = a.tokenStore(ctx); err != nil {
			return a, err
		}
	}

	var clientMetrics *metrics.ClientMetrics
	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		clientMetrics = metrics.NewClientMetrics(a.Registry)
	}

	opts := []httpclient.Option{
		httpclient.WithTimeout(cfg.Backend.Timeout),
		httpclient.WithUserAgent(cfg.Backend.UserAgent),
		httpclient.WithTokenSource(a.Tokens.Load),
		httpclient.WithLogger(logg),
		httpclient.WithMetrics(clientMetrics),
	}
	a.HTTP, err = httpclient.New(cfg.Backend.URL, append(opts, p.HTTPOptions...)...)
	if err != nil {
		return a, fmt.Errorf("building http client: %w", err)
	}
	a.API = backend.New(a.HTTP)
	a.Store = state.New(logg)
	if clientMetrics != nil {
		a.watchCart(clientMetrics)
	}

	a.Session, err = session.NewManager(session.Deps{
		API:       a.API,
		Tokens:    a.Tokens,
		Store:     a.Store,
		Notifier:  p.Notifier,
		Navigator: p.Navigator,
		Logger:    logg,
		Metrics:   clientMetrics,
	})
	if err != nil {
		return a, err
	}
	a.HTTP.OnUnauthorized(a.Session.HandleUnauthorized)

	a.Cart, err = engine.New(engine.Deps{
		API:         a.API,
		Session:     a.Session,
		Store:       a.Store,
		Prices:      a.Catalog,
		Notifier:    p.Notifier,
		Logger:      logg,
		Metrics:     clientMetrics,
		PushTimeout: cfg.Cart.PushTimeout,
	})
	if err != nil {
		return a, err
	}

	a.Address, err = address.NewFlow(a.API, a.Store, p.Notifier, p.Navigator, logg)
	if err != nil {
		return a, err
	}
	a.Contact, err = contact.NewFlow(a.API, p.Notifier, logg)
	if err != nil {
		return a, err
	}
	return a, nil
}

func (a *App) tokenStore(ctx context.Context) (tokenstore.TokenStore, error) {
	cfg := a.Config
	switch cfg.Session.Store {
	case config.TokenStoreMemory:
		return tokenstore.NewMemory(""), nil
	case config.TokenStoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("bootstrapping redis: %w", err)
		}
		a.redis = client
		return tokenstore.NewRedis(client, cfg.Session.TokenKey)
	default:
		path := cfg.Session.TokenFile
		if path == "" {
			path = filepath.Join(env.StateDir(), cfg.Session.TokenKey)
		}
		return tokenstore.NewFile(path)
	}
}

// watchCart keeps the cart gauge in step with the store until it closes.
func (a *App) watchCart(m *metrics.ClientMetrics) {
	updates, _ := a.Store.Subscribe()
	a.watcherDone = make(chan struct{})
	go func() {
		defer close(a.watcherDone)
		for snap := range updates {
			m.SetCartItems(snap.Cart.TotalCount())
		}
	}()
}

// Bootstrap restores the persisted session and checks the seller session
// alongside it.
func (a *App) Bootstrap(ctx context.Context) state.Snapshot {
	var g errgroup.Group
	g.Go(func() error {
		a.Session.Bootstrap(ctx)
		return nil
	})
	g.Go(func() error {
		a.Session.CheckSeller(ctx)
		return nil
	})
	_ = g.Wait()
	return a.Store.State()
}

// Close waits for pending cart pushes and releases resources.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var err error
	if a.Cart != nil {
		a.Cart.Wait()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.watcherDone != nil {
		<-a.watcherDone
	}
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.Registry != nil && a.Config.Metrics.File != "" {
		err = multierr.Append(err, prometheus.WriteToTextfile(a.Config.Metrics.File, a.Registry))
	}
	return err
}
