// Package address submits the delivery address form.
package address

import (
	"context"
	"errors"

	"github.com/angelmondragon/greencart/internal/notify"
	"github.com/angelmondragon/greencart/internal/state"
	pkgerrors "github.com/angelmondragon/greencart/pkg/errors"
	"github.com/angelmondragon/greencart/pkg/httpclient"
	"github.com/angelmondragon/greencart/pkg/logger"
	"github.com/angelmondragon/greencart/pkg/types"
	"github.com/angelmondragon/greencart/pkg/validators"
)

const (
	MsgFillAllFields = "Please fill in all fields."
	MsgInvalidEmail  = "Please enter a valid email address."
	MsgAddFailed     = "Failed to add address."

	maxFieldLen = 200
)

// ErrNoSession is returned when the form is submitted without a logged-in user.
var ErrNoSession = pkgerrors.New(pkgerrors.CodeUnauthorized, "login required to add an address")

type API interface {
	AddAddress(ctx context.Context, addr types.Address) (*types.Envelope, error)
}

type Flow struct {
	api    API
	store  *state.Store
	notify notify.Notifier
	nav    notify.Navigator
	logg   *logger.Logger
}

func NewFlow(api API, store *state.Store, n notify.Notifier, nav notify.Navigator, logg *logger.Logger) (*Flow, error) {
	if api == nil {
		return nil, errors.New("address api is required")
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	log := notify.NewLog(logg)
	if n == nil {
		n = log
	}
	if nav == nil {
		nav = log
	}
	return &Flow{api: api, store: store, notify: n, nav: nav, logg: logg}, nil
}

// Submit validates addr and posts it. Anonymous users are sent back to the
// cart; validation failures never reach the network.
func (f *Flow) Submit(ctx context.Context, addr types.Address) error {
	if !f.store.State().Authenticated() {
		f.nav.Navigate(ctx, notify.RouteCart)
		return ErrNoSession
	}

	addr = sanitize(addr)
	if err := validators.Struct(addr); err != nil {
		if validators.HasMissing(err) {
			f.notify.Error(ctx, MsgFillAllFields)
		} else {
			f.notify.Error(ctx, MsgInvalidEmail)
		}
		return err
	}

	resp, err := f.api.AddAddress(ctx, addr)
	if err != nil {
		f.logg.Warn(ctx, "address submission failed: "+err.Error())
		f.notify.Error(ctx, errorMessage(err))
		return err
	}
	if resp == nil || !resp.Success {
		msg := MsgAddFailed
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		f.notify.Error(ctx, msg)
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	}
	f.notify.Success(ctx, resp.Message)
	f.nav.Navigate(ctx, notify.RouteCart)
	return nil
}

func sanitize(a types.Address) types.Address {
	return types.Address{
		FirstName: validators.SanitizeString(a.FirstName, maxFieldLen),
		LastName:  validators.SanitizeString(a.LastName, maxFieldLen),
		Email:     validators.SanitizeString(a.Email, maxFieldLen),
		Street:    validators.SanitizeString(a.Street, maxFieldLen),
		City:      validators.SanitizeString(a.City, maxFieldLen),
		State:     validators.SanitizeString(a.State, maxFieldLen),
		Zipcode:   validators.SanitizeString(a.Zipcode, maxFieldLen),
		Country:   validators.SanitizeString(a.Country, maxFieldLen),
		Phone:     validators.SanitizeString(a.Phone, maxFieldLen),
	}
}

func errorMessage(err error) string {
	if msg := httpclient.BackendMessage(err); msg != "" {
		return msg
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}
