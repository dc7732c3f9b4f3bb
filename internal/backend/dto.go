package backend

import "github.com/angelmondragon/greencart/pkg/types"

// User is the account payload returned by is-auth and login.
type User struct {
	ID        string         `json:"_id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Token     string         `json:"token,omitempty"`
	CartItems map[string]int `json:"cartItems,omitempty"`
}

// Clone returns a copy that shares no maps with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.CartItems != nil {
		out.CartItems = make(map[string]int, len(u.CartItems))
		for id, qty := range u.CartItems {
			out.CartItems[id] = qty
		}
	}
	return &out
}

type AuthResponse struct {
	types.Envelope
	User *User `json:"user,omitempty"`
}

// Authenticated reports whether the response carries a usable user.
func (r *AuthResponse) Authenticated() bool {
	return r != nil && r.Success && r.User != nil
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CartUpdateRequest struct {
	CartItems map[string]int `json:"cartItems"`
}

type CartResponse struct {
	types.Envelope
	CartItems map[string]int `json:"cartItems,omitempty"`
}

type AddressRequest struct {
	Address types.Address `json:"address"`
}
