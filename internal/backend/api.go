// Package backend is the typed surface of the storefront REST contract.
package backend

import (
	"context"
	"net/http"

	"github.com/angelmondragon/greencart/pkg/types"
)

const (
	PathUserIsAuth   = "/api/user/is-auth"
	PathUserLogin    = "/api/user/login"
	PathUserLogout   = "/api/user/logout"
	PathSellerIsAuth = "/api/seller/is-auth"
	PathCartUpdate   = "/api/cart/update"
	PathAddressAdd   = "/api/address/add"
	PathContact      = "/api/contact"
)

// Doer is the transport the API needs; *httpclient.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any) (int, error)
}

// API exposes one method per backend endpoint.
type API struct {
	http Doer
}

func New(doer Doer) *API {
	return &API{http: doer}
}

// IsAuth asks the backend who the current token belongs to.
func (a *API) IsAuth(ctx context.Context) (*AuthResponse, error) {
	var out AuthResponse
	if _, err := a.http.Do(ctx, http.MethodGet, PathUserIsAuth, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a user carrying a session token.
func (a *API) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if _, err := a.http.Do(ctx, http.MethodPost, PathUserLogin, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Logout(ctx context.Context) (*types.Envelope, error) {
	var out types.Envelope
	if _, err := a.http.Do(ctx, http.MethodGet, PathUserLogout, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) SellerIsAuth(ctx context.Context) (*types.Envelope, error) {
	var out types.Envelope
	if _, err := a.http.Do(ctx, http.MethodGet, PathSellerIsAuth, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCart replaces the server-side cart with items.
func (a *API) UpdateCart(ctx context.Context, items map[string]int) (*CartResponse, error) {
	if items == nil {
		items = map[string]int{}
	}
	var out CartResponse
	if _, err := a.http.Do(ctx, http.MethodPost, PathCartUpdate, CartUpdateRequest{CartItems: items}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) AddAddress(ctx context.Context, addr types.Address) (*types.Envelope, error) {
	var out types.Envelope
	if _, err := a.http.Do(ctx, http.MethodPost, PathAddressAdd, AddressRequest{Address: addr}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitContact posts the contact form. The endpoint signals success through
// its status code, so the status is returned as-is.
func (a *API) SubmitContact(ctx context.Context, msg types.ContactMessage) (int, error) {
	return a.http.Do(ctx, http.MethodPost, PathContact, msg, nil)
}
