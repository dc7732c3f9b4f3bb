// Package backendtest is an in-memory implementation of the storefront REST
// contract. Tests drive the client against it, and the CLI can serve it for
// local runs without the real backend.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/greencart/internal/backend"
	"github.com/angelmondragon/greencart/pkg/auth"
	"github.com/angelmondragon/greencart/pkg/logger"
	"github.com/angelmondragon/greencart/pkg/security"
	"github.com/angelmondragon/greencart/pkg/types"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	defaultSecret   = "greencart-test-secret"
	defaultTokenTTL = 7 * 24 * time.Hour

	msgNotAuthorized = "Not Authorized"
)

// Account is a user known to the fake backend.
type Account struct {
	ID       string
	Name     string
	Email    string
	Password string
	Cart     map[string]int

	passwordHash string
}

// Failure is a canned response served instead of the real handler.
type Failure struct {
	Status int
	Body   any
}

// Server is a fake storefront backend. All methods are safe for concurrent use.
type Server struct {
	secret   string
	tokenTTL time.Duration
	logg     *logger.Logger
	now      func() time.Time
	router   chi.Router
	http     *httptest.Server

	mu          sync.Mutex
	accounts    map[string]*Account
	seller      bool
	echoCart    bool
	rejectCart  string
	forceUnauth bool
	failures    map[string][]Failure
	hits        map[string]int
	addresses   []types.Address
	contacts    []types.ContactMessage
	cartHook    func(userID string, items map[string]int)
}

type Option func(*Server)

func WithSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.secret = secret
		}
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(s *Server) {
		if logg != nil {
			s.logg = logg
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAccount seeds a user.
func WithAccount(acct Account) Option {
	return func(s *Server) {
		s.addAccount(acct)
	}
}

// WithSeller makes /api/seller/is-auth report success.
func WithSeller(seller bool) Option {
	return func(s *Server) {
		s.seller = seller
	}
}

// WithCartEcho controls whether cart updates return the stored cartItems.
func WithCartEcho(echo bool) Option {
	return func(s *Server) {
		s.echoCart = echo
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		secret:   defaultSecret,
		tokenTTL: defaultTokenTTL,
		logg:     logger.Nop(),
		now:      time.Now,
		accounts: map[string]*Account{},
		echoCart: true,
		failures: map[string][]Failure{},
		hits:     map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.router = s.routes()
	return s
}

// Start serves the fake on a loopback listener and returns its base URL.
func (s *Server) Start() string {
	s.http = httptest.NewServer(s.router)
	return s.http.URL
}

func (s *Server) Close() {
	if s.http != nil {
		s.http.Close()
	}
}

// Handler exposes the router for callers that manage their own listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestID(s.logg))
	r.Use(logging(s.logg))
	r.Use(s.countAndFail)

	r.Post(backend.PathUserLogin, s.handleLogin)
	r.Post(backend.PathContact, s.handleContact)
	r.Get(backend.PathSellerIsAuth, s.handleSellerIsAuth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get(backend.PathUserIsAuth, s.handleIsAuth)
		r.Get(backend.PathUserLogout, s.handleLogout)
		r.Post(backend.PathCartUpdate, s.handleCartUpdate)
		r.Post(backend.PathAddressAdd, s.handleAddressAdd)
	})
	return r
}

func (s *Server) addAccount(acct Account) {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	acct.Email = strings.ToLower(strings.TrimSpace(acct.Email))
	if acct.Cart == nil {
		acct.Cart = map[string]int{}
	}
	// Accounts without a usable password exist but cannot log in.
	if hash, err := security.HashPassword(acct.Password, security.DefaultParams); err == nil {
		acct.passwordHash = hash
	}
	acct.Password = ""
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acct.Email] = &acct
}

// AddAccount seeds a user after construction.
func (s *Server) AddAccount(acct Account) {
	s.addAccount(acct)
}

// Token mints a valid session token for the seeded user with email.
func (s *Server) Token(email string) (string, error) {
	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return "", errUnknownAccount
	}
	return auth.MintToken(s.secret, s.now(), s.tokenTTL, acct.ID)
}

// Cart returns the server-side cart of the user with email.
func (s *Server) Cart(email string) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return nil
	}
	return copyCart(acct.Cart)
}

// SetCart overwrites the server-side cart, simulating another device.
func (s *Server) SetCart(email string, items map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[strings.ToLower(email)]; ok {
		acct.Cart = copyCart(items)
	}
}

// RejectCartUpdates makes cart updates answer {success:false, message}.
// An empty message restores normal behaviour.
func (s *Server) RejectCartUpdates(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectCart = message
}

// ForceUnauthorized makes every authenticated endpoint answer 401.
func (s *Server) ForceUnauthorized(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceUnauth = on
}

// FailNext queues a canned failure for the next request to path.
func (s *Server) FailNext(path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], f)
}

// OnCartUpdate registers a callback run inside every accepted cart update,
// before the response is written.
func (s *Server) OnCartUpdate(fn func(userID string, items map[string]int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartHook = fn
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) Addresses() []types.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Address(nil), s.addresses...)
}

func (s *Server) Contacts() []types.ContactMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ContactMessage(nil), s.contacts...)
}

func (s *Server) countAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		var failure *Failure
		if queue := s.failures[r.URL.Path]; len(queue) > 0 {
			failure = &queue[0]
			s.failures[r.URL.Path] = queue[1:]
		}
		s.mu.Unlock()

		if failure != nil {
			writeJSON(w, failure.Status, failure.Body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func copyCart(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
