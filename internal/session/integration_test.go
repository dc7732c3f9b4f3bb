package session

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/greencart/internal/backend"
	"github.com/angelmondragon/greencart/internal/backend/backendtest"
	"github.com/angelmondragon/greencart/internal/notify"
	"github.com/angelmondragon/greencart/internal/state"
	"github.com/angelmondragon/greencart/pkg/auth/tokenstore"
	"github.com/angelmondragon/greencart/pkg/httpclient"
)

const (
	itEmail    = "grace@greencart.test"
	itPassword = "hopper"
)

func newWiredManager(t *testing.T, fake *backendtest.Server) (*Manager, *tokenstore.Memory, *state.Store, *notify.Recorder) {
	t.Helper()
	m, tokens, store, rec, _ := newWiredClient(t, fake)
	return m, tokens, store, rec
}

func newWiredClient(t *testing.T, fake *backendtest.Server) (*Manager, *tokenstore.Memory, *state.Store, *notify.Recorder, *backend.API) {
	t.Helper()
	url := fake.Start()
	t.Cleanup(fake.Close)

	tokens := tokenstore.NewMemory("")
	store := state.New(nil)
	t.Cleanup(store.Close)
	rec := &notify.Recorder{}

	client, err := httpclient.New(url, httpclient.WithTokenSource(tokens.Load))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	m, err := NewManager(Deps{
		API:       backend.New(client),
		Tokens:    tokens,
		Store:     store,
		Notifier:  rec,
		Navigator: rec,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	client.OnUnauthorized(m.HandleUnauthorized)
	return m, tokens, store, rec, backend.New(client)
}

func TestLoginLogoutAgainstBackend(t *testing.T) {
	fake := backendtest.New(backendtest.WithAccount(backendtest.Account{
		ID: "u-9", Name: "Grace", Email: itEmail, Password: itPassword,
		Cart: map[string]int{"gd46g23h": 2},
	}))
	m, tokens, store, rec := newWiredManager(t, fake)
	ctx := context.Background()

	if res := m.Login(ctx, itEmail, itPassword); !res.Success {
		t.Fatalf("login failed: %+v", res)
	}
	if store.State().Cart["gd46g23h"] != 2 {
		t.Fatalf("cart not hydrated from login")
	}

	// A fresh process with the same token store resumes the session.
	snap := m.Bootstrap(ctx)
	if !snap.Authenticated() || snap.User.ID != "u-9" {
		t.Fatalf("bootstrap did not resume session: %+v", snap)
	}

	m.Logout(ctx)
	if tok, _ := tokens.Load(ctx); tok != "" {
		t.Fatalf("token not cleared")
	}
	if rec.Count(notify.KindSuccess, MsgLoggedOut) != 1 {
		t.Fatalf("expected logout success using the pre-logout token, got %+v", rec.Events())
	}
	if rec.Count(notify.KindNavigate, notify.RouteLogin) != 0 {
		t.Fatalf("authenticated logout must not trigger a forced logout")
	}
}

func TestUnauthorizedResponseForcesLogoutOnce(t *testing.T) {
	fake := backendtest.New(backendtest.WithAccount(backendtest.Account{
		ID: "u-9", Email: itEmail, Password: itPassword,
	}))
	m, tokens, store, rec := newWiredManager(t, fake)
	ctx := context.Background()

	if res := m.Login(ctx, itEmail, itPassword); !res.Success {
		t.Fatalf("login failed: %+v", res)
	}
	fake.ForceUnauthorized(true)

	snap := m.RefreshUser(ctx)
	if snap.Authenticated() {
		t.Fatalf("expected session cleared after 401")
	}
	if tok, _ := tokens.Load(ctx); tok != "" {
		t.Fatalf("expected token cleared after 401")
	}
	if got := rec.Count(notify.KindNavigate, notify.RouteLogin); got != 1 {
		t.Fatalf("expected exactly one redirect to login, got %d", got)
	}
	if store.State().Authenticated() {
		t.Fatalf("store still authenticated")
	}
}

func TestUnauthorizedFromPreviousSessionKeepsCurrentOne(t *testing.T) {
	fake := backendtest.New(backendtest.WithAccount(backendtest.Account{
		ID: "u-9", Email: itEmail, Password: itPassword,
	}))
	m, tokens, store, rec, api := newWiredClient(t, fake)
	ctx := context.Background()

	if res := m.Login(ctx, itEmail, itPassword); !res.Success {
		t.Fatalf("login failed: %+v", res)
	}
	oldToken, _ := tokens.Load(ctx)

	m.Logout(ctx)
	fake.SetCart(itEmail, map[string]int{"x": 5})
	if res := m.Login(ctx, itEmail, itPassword); !res.Success {
		t.Fatalf("second login failed: %+v", res)
	}
	newToken, _ := tokens.Load(ctx)
	if newToken == "" || newToken == oldToken {
		t.Fatalf("expected a fresh token for the second session")
	}

	// A cart push sent before the logout comes back rejected.
	fake.ForceUnauthorized(true)
	if _, err := api.UpdateCart(httpclient.WithToken(ctx, oldToken), map[string]int{"y": 1}); err == nil {
		t.Fatalf("expected the old push to be rejected")
	}
	fake.ForceUnauthorized(false)

	if tok, _ := tokens.Load(ctx); tok != newToken {
		t.Fatalf("current token was replaced: %q", tok)
	}
	snap := store.State()
	if !snap.Authenticated() || snap.Cart["x"] != 5 {
		t.Fatalf("current session was torn down: %+v", snap)
	}
	if got := rec.Count(notify.KindNavigate, notify.RouteLogin); got != 0 {
		t.Fatalf("expected no redirect to login, got %d", got)
	}
}

func TestBootstrapDropsExpiredTokenWithoutNetwork(t *testing.T) {
	issued := time.Now().Add(-48 * time.Hour)
	fake := backendtest.New(
		backendtest.WithAccount(backendtest.Account{ID: "u-9", Email: itEmail, Password: itPassword}),
		backendtest.WithClock(func() time.Time { return issued }),
		backendtest.WithTokenTTL(time.Hour),
	)
	m, tokens, _, _ := newWiredManager(t, fake)
	ctx := context.Background()

	token, err := fake.Token(itEmail)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if err := tokens.Save(ctx, token); err != nil {
		t.Fatalf("save token: %v", err)
	}

	if snap := m.Bootstrap(ctx); snap.Authenticated() {
		t.Fatalf("expired token must not restore a session")
	}
	if hits := fake.Hits(backend.PathUserIsAuth); hits != 0 {
		t.Fatalf("expected no is-auth call, got %d", hits)
	}
	if tok, _ := tokens.Load(ctx); tok != "" {
		t.Fatalf("expired token not cleared")
	}
}
