// Package storefront is the shopper-side client of the API. It keeps the cart,
// wishlist and checkout state locally and mirrors cart and wishlist to the
// signed-in user's account.
package storefront

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"qayyim-backend/internal/models"
)

const (
	DefaultSyncDelay = 500 * time.Millisecond
	defaultTimeout   = 15 * time.Second
)

type Options struct {
	BaseURL string
	// Store defaults to a MemoryStore.
	Store Store
	// SyncDelay is the cart debounce window.
	SyncDelay  time.Duration
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	// OnError receives background cart sync failures after the rollback.
	OnError func(error)
}

// shared is the state every component reads and writes under mu.
type shared struct {
	mu      sync.Mutex
	state   State
	store   Store
	api     *api
	logger  *slog.Logger
	onError func(error)

	// lastOrder is the order submitted in this session.
	lastOrder *models.Order
}

func (s *shared) tokenLocked() string {
	if s.state.User == nil {
		return ""
	}
	return s.state.User.Token
}

func (s *shared) persistLocked() {
	if err := s.store.Save(cloneState(s.state)); err != nil {
		s.logger.Error("failed to persist storefront state", "err", err)
	}
}

func (s *shared) report(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

type Client struct {
	Session  *Session
	Cart     *Cart
	Wishlist *Wishlist
	Checkout *Checkout

	sh *shared
}

// New restores persisted state and wires the components. A restored session
// is trusted until the API rejects its token, and a cart change it had not
// pushed yet is scheduled again.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("storefront: base URL is required")
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.SyncDelay <= 0 {
		opts.SyncDelay = DefaultSyncDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	state, err := opts.Store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "storefront: load state")
	}

	sh := &shared{
		state:   state,
		store:   opts.Store,
		api:     newAPI(opts.BaseURL, opts.Timeout, opts.HTTPClient),
		logger:  opts.Logger,
		onError: opts.OnError,
	}
	cart := &Cart{sh: sh, delay: opts.SyncDelay}
	c := &Client{
		Cart:     cart,
		Wishlist: &Wishlist{sh: sh},
		Session:  &Session{sh: sh, cart: cart},
		sh:       sh,
	}
	c.Checkout = &Checkout{sh: sh, cart: cart}

	sh.mu.Lock()
	cart.restoreLocked()
	sh.mu.Unlock()
	return c, nil
}

// Products searches the catalog by keyword and applies f locally.
func (c *Client) Products(ctx context.Context, keyword string, f Filter) ([]models.Product, error) {
	products, err := c.sh.api.products(ctx, keyword)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, f), nil
}

// Close pushes any pending cart change.
func (c *Client) Close(ctx context.Context) error {
	return c.Cart.Flush(ctx)
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type Session struct {
	sh   *shared
	cart *Cart
}

// Login signs in and replaces the local cart and wishlist with the account's.
func (s *Session) Login(ctx context.Context, email, password string) (*UserInfo, error) {
	user, err := s.sh.api.login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, user)
}

func (s *Session) Register(ctx context.Context, in Registration) (*UserInfo, error) {
	user, err := s.sh.api.register(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, user)
}

// start fetches the account cart and wishlist before committing the session,
// so a failed fetch leaves the client signed out.
func (s *Session) start(ctx context.Context, user *UserInfo) (*UserInfo, error) {
	cart, err := s.sh.api.getCart(ctx, user.Token)
	if err != nil {
		return nil, errors.Wrap(err, "fetch cart")
	}
	wishlist, err := s.sh.api.getWishlist(ctx, user.Token)
	if err != nil {
		return nil, errors.Wrap(err, "fetch wishlist")
	}
	if cart == nil {
		cart = []models.CartItem{}
	}

	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	s.cart.resetLocked()
	s.sh.lastOrder = nil
	s.sh.state.User = user
	s.sh.state.Cart = cart
	s.sh.state.Wishlist = wishlist
	s.sh.persistLocked()
	s.sh.logger.Info("signed in", "userId", user.ID.Hex(), "cartItems", len(cart), "wishlist", len(wishlist))

	u := *user
	return &u, nil
}

// Logout drops the token and any pending sync. The local cart stays as a
// guest cart.
func (s *Session) Logout() {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	s.cart.resetLocked()
	s.sh.lastOrder = nil
	s.sh.state.User = nil
	s.sh.persistLocked()
}

func (s *Session) User() *UserInfo {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	if s.sh.state.User == nil {
		return nil
	}
	u := *s.sh.state.User
	return &u
}

func (s *Session) Authenticated() bool {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	return s.sh.tokenLocked() != ""
}
