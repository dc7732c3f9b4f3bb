// Package session manages who the client is logged in as: bootstrapping from
// the persisted token, login, logout, refetching the canonical user, and the
// forced logout that follows any unauthorized backend response.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/greencart/internal/backend"
	"github.com/angelmondragon/greencart/internal/notify"
	"github.com/angelmondragon/greencart/internal/state"
	"github.com/angelmondragon/greencart/pkg/auth"
	"github.com/angelmondragon/greencart/pkg/auth/tokenstore"
	"github.com/angelmondragon/greencart/pkg/httpclient"
	"github.com/angelmondragon/greencart/pkg/logger"
	"github.com/angelmondragon/greencart/pkg/metrics"
	"github.com/angelmondragon/greencart/pkg/types"
	"github.com/angelmondragon/greencart/pkg/validators"
	"golang.org/x/sync/singleflight"
)

const (
	MsgLoginFailed         = "Login failed"
	MsgCredentialsRequired = "Email and password are required"
	MsgLoggedOut           = "Logged out successfully"
	MsgLogoutFailed        = "Failed to logout"

	fetchUserKey = "is-auth"
)

// API is the slice of the backend the session manager calls.
type API interface {
	IsAuth(ctx context.Context) (*backend.AuthResponse, error)
	Login(ctx context.Context, req backend.LoginRequest) (*backend.AuthResponse, error)
	Logout(ctx context.Context) (*types.Envelope, error)
	SellerIsAuth(ctx context.Context) (*types.Envelope, error)
}

// LoginResult reports a login attempt. Failures never surface as errors.
type LoginResult struct {
	Success bool
	Message string
}

type Deps struct {
	API       API
	Tokens    tokenstore.TokenStore
	Store     *state.Store
	Notifier  notify.Notifier
	Navigator notify.Navigator
	Logger    *logger.Logger
	Metrics   *metrics.ClientMetrics
	Now       func() time.Time
}

type Manager struct {
	api     API
	tokens  tokenstore.TokenStore
	store   *state.Store
	notify  notify.Notifier
	nav     notify.Navigator
	logg    *logger.Logger
	metrics *metrics.ClientMetrics
	now     func() time.Time
	fetches singleflight.Group
}

func NewManager(deps Deps) (*Manager, error) {
	if deps.API == nil {
		return nil, errors.New("session api is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("token store is required")
	}
	if deps.Store == nil {
		return nil, errors.New("state store is required")
	}
	m := &Manager{
		api:     deps.API,
		tokens:  deps.Tokens,
		store:   deps.Store,
		notify:  deps.Notifier,
		nav:     deps.Navigator,
		logg:    deps.Logger,
		metrics: deps.Metrics,
		now:     deps.Now,
	}
	if m.logg == nil {
		m.logg = logger.Nop()
	}
	log := notify.NewLog(m.logg)
	if m.notify == nil {
		m.notify = log
	}
	if m.nav == nil {
		m.nav = log
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Bootstrap restores the session from the persisted token. Every failure
// leaves the client anonymous with the token removed.
func (m *Manager) Bootstrap(ctx context.Context) state.Snapshot {
	token, err := m.tokens.Load(ctx)
	if err != nil {
		m.logg.Error(ctx, "loading session token", err)
		m.store.Dispatch(state.ClearSession{})
		return m.store.State()
	}
	if token == "" {
		m.store.Dispatch(state.ClearSession{})
		return m.store.State()
	}

	if info, err := auth.Inspect(token); err == nil && info.Expired(m.now()) {
		m.logg.Info(m.logg.WithUserID(ctx, info.UserID), "persisted token expired, starting anonymous")
		m.clearToken(ctx)
		m.store.Dispatch(state.ClearSession{})
		return m.store.State()
	}

	return m.RefreshUser(ctx)
}

// RefreshUser refetches the current user and overwrites local user and cart
// with the server's view, unless the cart changed while the fetch was in
// flight. A failed fetch ends the session. Concurrent refreshes share one
// backend request.
func (m *Manager) RefreshUser(ctx context.Context) state.Snapshot {
	version := m.store.State().CartVersion

	token, err := m.tokens.Load(ctx)
	if err != nil || token == "" {
		if err != nil {
			m.logg.Error(ctx, "loading session token", err)
		}
		m.endStaleSession(ctx, version)
		return m.store.State()
	}

	resp, err := m.fetchUser(ctx)
	if err != nil || !resp.Authenticated() {
		if err != nil {
			m.logg.Warn(ctx, fmt.Sprintf("fetching user failed: %v", err))
		}
		m.endStaleSession(ctx, version)
		return m.store.State()
	}

	tr := m.store.Dispatch(state.ReconcileSession{User: resp.User, Version: version})
	if tr.Next.CartVersion != version {
		m.metrics.IncReconcile(metrics.ReconcileStale)
	} else {
		m.metrics.IncReconcile(metrics.ReconcileApplied)
	}
	return tr.Next
}

func (m *Manager) fetchUser(ctx context.Context) (*backend.AuthResponse, error) {
	ch := m.fetches.DoChan(fetchUserKey, func() (any, error) {
		return m.api.IsAuth(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*backend.AuthResponse), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// endStaleSession clears the session if nothing newer happened since version.
func (m *Manager) endStaleSession(ctx context.Context, version uint64) {
	tr := m.store.Dispatch(state.ReconcileSession{User: nil, Version: version})
	if tr.Prev.CartVersion != version {
		m.metrics.IncReconcile(metrics.ReconcileStale)
		return
	}
	m.clearToken(ctx)
	m.metrics.IncReconcile(metrics.ReconcileCleared)
}

// Login exchanges credentials for a session.
func (m *Manager) Login(ctx context.Context, email, password string) LoginResult {
	req := backend.LoginRequest{
		Email:    validators.SanitizeString(email, 254),
		Password: password,
	}
	if err := validators.Struct(req); err != nil {
		return LoginResult{Message: MsgCredentialsRequired}
	}

	resp, err := m.api.Login(ctx, req)
	if err != nil {
		m.logg.Warn(ctx, fmt.Sprintf("login request failed: %v", err))
		msg := httpclient.BackendMessage(err)
		if msg == "" {
			msg = MsgLoginFailed
		}
		return LoginResult{Message: msg}
	}
	if !resp.Authenticated() {
		msg := resp.Message
		if msg == "" {
			msg = MsgLoginFailed
		}
		return LoginResult{Message: msg}
	}

	if err := m.tokens.Save(ctx, resp.User.Token); err != nil {
		m.logg.Error(ctx, "persisting session token", err)
	}
	m.store.Dispatch(state.SetSession{User: resp.User})
	m.logg.Info(m.logg.WithUserID(ctx, resp.User.ID), "logged in")
	return LoginResult{Success: true}
}

// Logout clears the local session first and then tells the backend. The
// local state stays cleared whatever the backend answers.
func (m *Manager) Logout(ctx context.Context) {
	token, err := m.tokens.Load(ctx)
	if err != nil {
		m.logg.Warn(ctx, fmt.Sprintf("loading token for logout: %v", err))
	}
	m.store.Dispatch(state.ClearSession{})
	m.clearToken(ctx)

	if _, err := m.api.Logout(httpclient.WithToken(ctx, token)); err != nil {
		m.logg.Warn(ctx, fmt.Sprintf("logout request failed: %v", err))
		m.notify.Error(ctx, MsgLogoutFailed)
		return
	}
	m.notify.Success(ctx, MsgLoggedOut)
	m.nav.Navigate(ctx, notify.RouteHome)
}

// CheckSeller records whether the seller session is valid.
func (m *Manager) CheckSeller(ctx context.Context) bool {
	resp, err := m.api.SellerIsAuth(ctx)
	isSeller := err == nil && resp != nil && resp.Success
	m.store.Dispatch(state.SetSeller{IsSeller: isSeller})
	return isSeller
}

// HandleUnauthorized is the forced logout run for each unauthorized response.
// A rejection of a token that is no longer the stored one belongs to an
// earlier session and leaves the current session alone.
func (m *Manager) HandleUnauthorized(ctx context.Context, sentToken string) {
	current, err := m.tokens.Load(ctx)
	if err != nil {
		m.logg.Warn(ctx, fmt.Sprintf("loading token for forced logout: %v", err))
	} else if current != "" && current != sentToken {
		m.logg.Info(ctx, "ignoring unauthorized response from a previous session")
		return
	}
	m.clearToken(ctx)
	m.store.Dispatch(state.ClearSession{})
	m.nav.Navigate(ctx, notify.RouteLogin)
}

func (m *Manager) clearToken(ctx context.Context) {
	if err := m.tokens.Clear(ctx); err != nil {
		m.logg.Error(ctx, "clearing session token", err)
	}
}
