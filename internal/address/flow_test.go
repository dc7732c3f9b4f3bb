package address

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/greencart/internal/backend"
	"github.com/angelmondragon/greencart/internal/notify"
	"github.com/angelmondragon/greencart/internal/state"
	pkgerrors "github.com/angelmondragon/greencart/pkg/errors"
	"github.com/angelmondragon/greencart/pkg/types"
)

type stubAPI struct {
	resp  *types.Envelope
	err   error
	calls []types.Address
}

func (s *stubAPI) AddAddress(_ context.Context, addr types.Address) (*types.Envelope, error) {
	s.calls = append(s.calls, addr)
	return s.resp, s.err
}

func validAddress() types.Address {
	return types.Address{
		FirstName: " Ada ", LastName: "Lovelace", Email: "ada@greencart.test",
		Street: "12 Analytical Way", City: "London", State: "LDN",
		Zipcode: "E1 6AN", Country: "UK", Phone: "+44 20 0000",
	}
}

func newTestFlow(t *testing.T, api *stubAPI, loggedIn bool) (*Flow, *notify.Recorder) {
	t.Helper()
	store := state.New(nil)
	t.Cleanup(store.Close)
	if loggedIn {
		store.Dispatch(state.SetSession{User: &backend.User{ID: "u-1"}})
	}
	rec := &notify.Recorder{}
	flow, err := NewFlow(api, store, rec, rec, nil)
	if err != nil {
		t.Fatalf("new flow: %v", err)
	}
	return flow, rec
}

func TestSubmitSuccess(t *testing.T) {
	api := &stubAPI{resp: &types.Envelope{Success: true, Message: "Address added successfully"}}
	flow, rec := newTestFlow(t, api, true)

	if err := flow.Submit(context.Background(), validAddress()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(api.calls) != 1 || api.calls[0].FirstName != "Ada" {
		t.Fatalf("expected sanitized address posted, got %+v", api.calls)
	}
	if rec.Count(notify.KindSuccess, "Address added successfully") != 1 {
		t.Fatalf("expected success notice, got %+v", rec.Events())
	}
	if rec.Count(notify.KindNavigate, notify.RouteCart) != 1 {
		t.Fatalf("expected navigation to cart")
	}
}

func TestSubmitMissingFieldSkipsNetwork(t *testing.T) {
	api := &stubAPI{}
	flow, rec := newTestFlow(t, api, true)
	addr := validAddress()
	addr.City = "   "

	err := flow.Submit(context.Background(), addr)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.calls) != 0 {
		t.Fatalf("validation failure must not call the backend")
	}
	if rec.Count(notify.KindError, MsgFillAllFields) != 1 {
		t.Fatalf("expected fill-all-fields notice, got %+v", rec.Events())
	}
}

func TestSubmitInvalidEmail(t *testing.T) {
	api := &stubAPI{}
	flow, rec := newTestFlow(t, api, true)
	addr := validAddress()
	addr.Email = "not-an-email"

	if err := flow.Submit(context.Background(), addr); err == nil {
		t.Fatalf("expected error")
	}
	if rec.Count(notify.KindError, MsgInvalidEmail) != 1 {
		t.Fatalf("expected invalid email notice, got %+v", rec.Events())
	}
}

func TestSubmitAnonymousRedirectsToCart(t *testing.T) {
	api := &stubAPI{}
	flow, rec := newTestFlow(t, api, false)

	err := flow.Submit(context.Background(), validAddress())
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if rec.Count(notify.KindNavigate, notify.RouteCart) != 1 || len(api.calls) != 0 {
		t.Fatalf("expected redirect without network call")
	}
}

func TestSubmitBackendFailures(t *testing.T) {
	t.Run("unsuccessful response", func(t *testing.T) {
		api := &stubAPI{resp: &types.Envelope{Message: "Address limit reached"}}
		flow, rec := newTestFlow(t, api, true)
		if err := flow.Submit(context.Background(), validAddress()); err == nil {
			t.Fatalf("expected error")
		}
		if rec.Count(notify.KindError, "Address limit reached") != 1 {
			t.Fatalf("expected backend message, got %+v", rec.Events())
		}
		if len(rec.Texts(notify.KindNavigate)) != 0 {
			t.Fatalf("failure must not navigate")
		}
	})
	t.Run("unsuccessful response without message", func(t *testing.T) {
		api := &stubAPI{resp: &types.Envelope{}}
		flow, rec := newTestFlow(t, api, true)
		err := flow.Submit(context.Background(), validAddress())
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if rec.Count(notify.KindError, MsgAddFailed) != 1 {
			t.Fatalf("expected fallback message, got %+v", rec.Events())
		}
		if rec.Count(notify.KindError, "") != 0 {
			t.Fatalf("empty notice must not be shown")
		}
	})
	t.Run("network error", func(t *testing.T) {
		api := &stubAPI{err: pkgerrors.New(pkgerrors.CodeDependency, "execute request")}
		flow, rec := newTestFlow(t, api, true)
		if err := flow.Submit(context.Background(), validAddress()); err == nil {
			t.Fatalf("expected error")
		}
		if rec.Count(notify.KindError, "execute request") != 1 {
			t.Fatalf("expected error message notice, got %+v", rec.Events())
		}
	})
}
