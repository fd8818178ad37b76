// Package service holds the storefront business rules behind the HTTP handlers.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/apperr"
	"qayyim-backend/internal/auth"
	"qayyim-backend/internal/models"
	"qayyim-backend/internal/store"
)

const (
	msgUserNotFound    = "User not found"
	msgUserExists      = "User already exists"
	msgInvalidLogin    = "Invalid email or password"
	msgAddressNotFound = "Address not found"
)

// AuthResponse is returned by register, login and profile update.
type AuthResponse struct {
	ID        primitive.ObjectID `json:"_id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Phone     string             `json:"phone,omitempty"`
	IsAdmin   bool               `json:"isAdmin"`
	Addresses []models.Address   `json:"addresses"`
	Token     string             `json:"token,omitempty"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type ProfileInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type AddressInput struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  *bool  `json:"isDefault"`
}

type UserService struct {
	users    store.UserStore
	products store.ProductStore
	tokens   *auth.Tokens
	logger   *slog.Logger
}

func NewUserService(users store.UserStore, products store.ProductStore, tokens *auth.Tokens, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, products: products, tokens: tokens, logger: logger}
}

func (s *UserService) authResponse(u *models.User, withToken bool) (*AuthResponse, error) {
	resp := &AuthResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		IsAdmin:   u.IsAdmin,
		Addresses: u.Addresses,
	}
	if resp.Addresses == nil {
		resp.Addresses = []models.Address{}
	}
	if withToken {
		token, err := s.tokens.Generate(u.ID)
		if err != nil {
			return nil, apperr.Internal(err, "Failed to issue token")
		}
		resp.Token = token
	}
	return resp, nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("Invalid user data")
	}

	_, err := s.users.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, apperr.Validation(msgUserExists)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err, "Failed to look up user")
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "Invalid user data")
	}
	user := &models.User{Name: in.Name, Email: in.Email, Password: hashed, Phone: in.Phone}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, apperr.Validation(msgUserExists)
		}
		return nil, apperr.Internal(err, "Failed to create user")
	}

	s.logger.Info("user registered", "userId", user.ID.Hex())
	return s.authResponse(user, true)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized(msgInvalidLogin)
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to look up user")
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, apperr.Unauthorized(msgInvalidLogin)
	}
	return s.authResponse(user, true)
}

func (s *UserService) load(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to load user")
	}
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, id primitive.ObjectID) (*AuthResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.authResponse(user, false)
}

// UpdateProfile keeps the stored value for every empty field and issues a new token.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*AuthResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	update := store.ProfileUpdate{Name: in.Name, Email: in.Email, Phone: in.Phone}
	if in.Password != "" {
		if update.Password, err = auth.HashPassword(in.Password); err != nil {
			return nil, apperr.Internal(err, "Failed to update profile")
		}
	}
	if err := s.users.UpdateProfile(ctx, id, update); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, apperr.Validation(msgUserExists)
		}
		return nil, apperr.Internal(err, "Failed to update profile")
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(in.Email))
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	return s.authResponse(user, true)
}

// AddAddress appends an address. A default address clears the flag on the others.
func (s *UserService) AddAddress(ctx context.Context, id primitive.ObjectID, in AddressInput) ([]models.Address, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.City) == "" {
		return nil, apperr.Validation("Address and city are required")
	}

	isDefault := in.IsDefault != nil && *in.IsDefault
	if isDefault {
		clearDefault(user.Addresses)
	}
	addresses := append(user.Addresses, models.Address{
		ID:         primitive.NewObjectID(),
		Address:    in.Address,
		City:       in.City,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		IsDefault:  isDefault,
	})
	return s.saveAddresses(ctx, id, addresses)
}

func (s *UserService) UpdateAddress(ctx context.Context, id, addressID primitive.ObjectID, in AddressInput) ([]models.Address, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, a := range user.Addresses {
		if a.ID == addressID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.NotFound(msgAddressNotFound)
	}

	if in.IsDefault != nil && *in.IsDefault {
		clearDefault(user.Addresses)
	}
	a := &user.Addresses[idx]
	if in.Address != "" {
		a.Address = in.Address
	}
	if in.City != "" {
		a.City = in.City
	}
	if in.PostalCode != "" {
		a.PostalCode = in.PostalCode
	}
	if in.Country != "" {
		a.Country = in.Country
	}
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
	return s.saveAddresses(ctx, id, user.Addresses)
}

// RemoveAddress drops the address if present and returns the remaining ones.
func (s *UserService) RemoveAddress(ctx context.Context, id, addressID primitive.ObjectID) ([]models.Address, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	kept := make([]models.Address, 0, len(user.Addresses))
	for _, a := range user.Addresses {
		if a.ID != addressID {
			kept = append(kept, a)
		}
	}
	return s.saveAddresses(ctx, id, kept)
}

func (s *UserService) saveAddresses(ctx context.Context, id primitive.ObjectID, addresses []models.Address) ([]models.Address, error) {
	if err := s.users.SetAddresses(ctx, id, addresses); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal(err, "Failed to save addresses")
	}
	if addresses == nil {
		addresses = []models.Address{}
	}
	return addresses, nil
}

func clearDefault(addresses []models.Address) {
	for i := range addresses {
		addresses[i].IsDefault = false
	}
}

// Wishlist returns the wishlisted products in wishlist order. Products that no
// longer exist are skipped.
func (s *UserService) Wishlist(ctx context.Context, id primitive.ObjectID) ([]models.Product, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, user.Wishlist)
}

// ToggleWishlist removes productID when present and adds it otherwise.
func (s *UserService) ToggleWishlist(ctx context.Context, id, productID primitive.ObjectID) ([]models.Product, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	wishlist := make([]primitive.ObjectID, 0, len(user.Wishlist)+1)
	removed := false
	for _, pid := range user.Wishlist {
		if pid == productID {
			removed = true
			continue
		}
		wishlist = append(wishlist, pid)
	}
	if !removed {
		wishlist = append(wishlist, productID)
	}

	if err := s.users.SetWishlist(ctx, id, wishlist); err != nil {
		return nil, apperr.Internal(err, "Failed to update wishlist")
	}
	return s.populate(ctx, wishlist)
}

func (s *UserService) populate(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to load wishlist")
	}
	byID := make(map[primitive.ObjectID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	products := make([]models.Product, 0, len(ids))
	for _, pid := range ids {
		if p, ok := byID[pid]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (s *UserService) Cart(ctx context.Context, id primitive.ObjectID) ([]models.CartItem, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Cart == nil {
		return []models.CartItem{}, nil
	}
	return user.Cart, nil
}

// ReplaceCart overwrites the stored cart with items. Last writer wins.
func (s *UserService) ReplaceCart(ctx context.Context, id primitive.ObjectID, items []models.CartItem) ([]models.CartItem, error) {
	if items == nil {
		items = []models.CartItem{}
	}
	for _, it := range items {
		if it.Product.IsZero() || it.Qty < 1 {
			return nil, apperr.Validation("Invalid cart item")
		}
	}
	if err := s.users.SetCart(ctx, id, items); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal(err, "Failed to update cart")
	}
	return items, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to list users")
	}
	return users, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return apperr.Internal(err, "Failed to delete user")
	}
	s.logger.Info("user deleted", "userId", id.Hex())
	return nil
}
