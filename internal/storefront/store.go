package storefront

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/models"
)

// UserInfo is the signed-in user as returned by login and register.
type UserInfo struct {
	ID        primitive.ObjectID `json:"_id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Phone     string             `json:"phone,omitempty"`
	IsAdmin   bool               `json:"isAdmin"`
	Addresses []models.Address   `json:"addresses"`
	Token     string             `json:"token"`
}

// State is everything the client keeps between runs.
type State struct {
	User            *UserInfo              `json:"userInfo,omitempty"`
	Cart            []models.CartItem      `json:"cartItems"`
	Wishlist        []models.Product       `json:"wishlist"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	// CartDirty marks a signed-in cart change not yet accepted by the server.
	CartDirty bool `json:"cartDirty,omitempty"`
}

// Store persists client State. Load on an empty store returns the zero State.
type Store interface {
	Load() (State, error)
	Save(State) error
}

// MemoryStore keeps state in process.
type MemoryStore struct {
	mu    sync.Mutex
	state State
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state), nil
}

func (m *MemoryStore) Save(s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = cloneState(s)
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FileStore keeps state as a JSON document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (State, error) {
	var s State
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, errors.Wrap(err, "read state")
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, errors.Wrapf(err, "decode state %s", f.path)
	}
	return s, nil
}

// Save writes to a temp file and renames it over the old state.
func (f *FileStore) Save(s State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrap(err, "create state dir")
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "write state")
	}
	return errors.Wrap(os.Rename(tmp, f.path), "replace state")
}

func cloneState(s State) State {
	out := s
	out.Cart = cloneCart(s.Cart)
	out.Wishlist = append([]models.Product(nil), s.Wishlist...)
	if s.User != nil {
		u := *s.User
		u.Addresses = append([]models.Address(nil), s.User.Addresses...)
		out.User = &u
	}
	return out
}

func cloneCart(items []models.CartItem) []models.CartItem {
	if items == nil {
		return nil
	}
	return append(make([]models.CartItem, 0, len(items)), items...)
}
