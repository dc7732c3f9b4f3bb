package backendtest

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/greencart/internal/backend"
	"github.com/angelmondragon/greencart/pkg/auth"
	"github.com/angelmondragon/greencart/pkg/security"
	"github.com/angelmondragon/greencart/pkg/types"
	"github.com/angelmondragon/greencart/pkg/validators"
)

type authBody struct {
	types.Envelope
	User *backend.User `json:"user,omitempty"`
}

type cartBody struct {
	types.Envelope
	CartItems map[string]int `json:"cartItems,omitempty"`
}

func (s *Server) userPayload(acct *Account, token string) *backend.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &backend.User{
		ID:        acct.ID,
		Name:      acct.Name,
		Email:     acct.Email,
		Token:     token,
		CartItems: copyCart(acct.Cart),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req backend.LoginRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusOK, types.Envelope{Message: "Email and password are required"})
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok || !passwordMatches(req.Password, acct.passwordHash) {
		writeJSON(w, http.StatusOK, types.Envelope{Message: "Invalid email or password"})
		return
	}

	token, err := auth.MintToken(s.secret, s.now(), s.tokenTTL, acct.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, types.Envelope{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, authBody{
		Envelope: types.Envelope{Success: true},
		User:     s.userPayload(acct, token),
	})
}

func (s *Server) handleIsAuth(w http.ResponseWriter, r *http.Request) {
	acct := accountFromContext(r.Context())
	writeJSON(w, http.StatusOK, authBody{
		Envelope: types.Envelope{Success: true},
		User:     s.userPayload(acct, ""),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Message: "Logged Out"})
}

func (s *Server) handleSellerIsAuth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	seller := s.seller
	s.mu.Unlock()
	if !seller {
		writeJSON(w, http.StatusOK, types.Envelope{Message: msgNotAuthorized})
		return
	}
	writeJSON(w, http.StatusOK, types.Envelope{Success: true})
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	acct := accountFromContext(r.Context())
	var req backend.CartUpdateRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.Envelope{Message: "invalid cart payload"})
		return
	}

	s.mu.Lock()
	reject := s.rejectCart
	hook := s.cartHook
	s.mu.Unlock()
	if reject != "" {
		writeJSON(w, http.StatusOK, types.Envelope{Message: reject})
		return
	}
	if hook != nil {
		hook(acct.ID, copyCart(req.CartItems))
	}

	s.mu.Lock()
	acct.Cart = copyCart(req.CartItems)
	stored := copyCart(acct.Cart)
	echo := s.echoCart
	s.mu.Unlock()

	body := cartBody{Envelope: types.Envelope{Success: true, Message: "Cart Updated"}}
	if echo {
		body.CartItems = stored
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleAddressAdd(w http.ResponseWriter, r *http.Request) {
	var req backend.AddressRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusOK, types.Envelope{Message: "Invalid address"})
		return
	}
	s.mu.Lock()
	s.addresses = append(s.addresses, req.Address)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Message: "Address added successfully"})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req types.ContactMessage
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.Envelope{Message: "name, email and message are required"})
		return
	}
	s.mu.Lock()
	s.contacts = append(s.contacts, req)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Message: "Message received"})
}

func passwordMatches(password, hash string) bool {
	if hash == "" {
		return false
	}
	ok, err := security.VerifyPassword(password, hash)
	return err == nil && ok
}
