package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/apperr"
	"qayyim-backend/internal/auth"
	"qayyim-backend/internal/mocks"
	"qayyim-backend/internal/models"
	"qayyim-backend/internal/store"
)

func newUserService() (*UserService, *mocks.MockUserStore, *mocks.MockProductStore) {
	users := new(mocks.MockUserStore)
	products := new(mocks.MockProductStore)
	return NewUserService(users, products, auth.NewTokens("test-secret", time.Hour), nil), users, products
}

func boolPtr(b bool) *bool { return &b }

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	existing := &models.User{ID: primitive.NewObjectID(), Email: "sara@example.com"}

	tests := []struct {
		name       string
		input      RegisterInput
		setupMocks func(*mocks.MockUserStore)
		wantKind   apperr.Kind
		wantErr    string
	}{
		{
			name:  "success",
			input: RegisterInput{Name: "Sara", Email: "sara@example.com", Password: "pw", Phone: "0100"},
			setupMocks: func(users *mocks.MockUserStore) {
				users.On("FindByEmail", ctx, "sara@example.com").Return(nil, store.ErrNotFound)
				users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Run(func(args mock.Arguments) {
					u := args.Get(1).(*models.User)
					u.ID = primitive.NewObjectID()
				})
			},
		},
		{
			name:  "duplicate email",
			input: RegisterInput{Name: "Sara", Email: "sara@example.com", Password: "pw"},
			setupMocks: func(users *mocks.MockUserStore) {
				users.On("FindByEmail", ctx, "sara@example.com").Return(existing, nil)
			},
			wantKind: apperr.KindValidation,
			wantErr:  "User already exists",
		},
		{
			name:  "duplicate email lost race",
			input: RegisterInput{Name: "Sara", Email: "sara@example.com", Password: "pw"},
			setupMocks: func(users *mocks.MockUserStore) {
				users.On("FindByEmail", ctx, "sara@example.com").Return(nil, store.ErrNotFound)
				users.On("Create", ctx, mock.Anything).Return(store.ErrDuplicateKey)
			},
			wantKind: apperr.KindValidation,
			wantErr:  "User already exists",
		},
		{
			name:       "missing fields",
			input:      RegisterInput{Email: "sara@example.com"},
			setupMocks: func(*mocks.MockUserStore) {},
			wantKind:   apperr.KindValidation,
			wantErr:    "Invalid user data",
		},
		{
			name:  "lookup failure",
			input: RegisterInput{Name: "Sara", Email: "sara@example.com", Password: "pw"},
			setupMocks: func(users *mocks.MockUserStore) {
				users.On("FindByEmail", ctx, "sara@example.com").Return(nil, errors.New("socket closed"))
			},
			wantKind: apperr.KindUnhandled,
			wantErr:  "Failed to look up user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, _ := newUserService()
			tt.setupMocks(users)

			resp, err := svc.Register(ctx, tt.input)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.EqualError(t, err, tt.wantErr)
				assert.Nil(t, resp)
				if tt.name == "duplicate email" {
					users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Sara", resp.Name)
			assert.NotEmpty(t, resp.Token)
			assert.NotNil(t, resp.Addresses)
			users.AssertExpectations(t)
		})
	}
}

func TestUserService_RegisterHashesPassword(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserService()
	var stored *models.User
	users.On("FindByEmail", ctx, "a@b.io").Return(nil, store.ErrNotFound)
	users.On("Create", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.User)
	})

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.io", Password: "plain"})
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.NotEqual(t, "plain", stored.Password)
	assert.True(t, auth.CheckPassword(stored.Password, "plain"))
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := auth.HashPassword("right")
	require.NoError(t, err)
	user := &models.User{ID: primitive.NewObjectID(), Name: "Sara", Email: "sara@example.com", Password: hash}

	t.Run("success", func(t *testing.T) {
		svc, users, _ := newUserService()
		users.On("FindByEmail", ctx, "sara@example.com").Return(user, nil)

		resp, err := svc.Login(ctx, "sara@example.com", "right")
		require.NoError(t, err)
		assert.Equal(t, user.ID, resp.ID)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, users, _ := newUserService()
		users.On("FindByEmail", ctx, "sara@example.com").Return(user, nil)

		_, err := svc.Login(ctx, "sara@example.com", "wrong")
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
		assert.EqualError(t, err, "Invalid email or password")
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, users, _ := newUserService()
		users.On("FindByEmail", ctx, "nobody@example.com").Return(nil, store.ErrNotFound)

		_, err := svc.Login(ctx, "nobody@example.com", "right")
		assert.EqualError(t, err, "Invalid email or password")
	})
}

func TestUserService_UpdateProfileKeepsEmptyFields(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserService()
	id := primitive.NewObjectID()
	users.On("FindByID", ctx, id).Return(&models.User{ID: id, Name: "Old", Email: "old@x.io", Phone: "1"}, nil)
	users.On("UpdateProfile", ctx, id, store.ProfileUpdate{Phone: "2"}).Return(nil)

	resp, err := svc.UpdateProfile(ctx, id, ProfileInput{Phone: "2"})
	require.NoError(t, err)

	assert.Equal(t, "Old", resp.Name)
	assert.Equal(t, "old@x.io", resp.Email)
	assert.Equal(t, "2", resp.Phone)
	assert.NotEmpty(t, resp.Token)
	users.AssertExpectations(t)
}

func TestUserService_Addresses(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()
	home := models.Address{ID: primitive.NewObjectID(), Address: "1 Nile St", City: "Cairo", IsDefault: true}

	t.Run("adding a default clears the others", func(t *testing.T) {
		svc, users, _ := newUserService()
		users.On("FindByID", ctx, id).Return(&models.User{ID: id, Addresses: []models.Address{home}}, nil)
		users.On("SetAddresses", ctx, id, mock.Anything).Return(nil)

		got, err := svc.AddAddress(ctx, id, AddressInput{Address: "2 Corniche", City: "Alexandria", IsDefault: boolPtr(true)})
		require.NoError(t, err)

		require.Len(t, got, 2)
		assert.False(t, got[0].IsDefault)
		assert.True(t, got[1].IsDefault)
		assert.False(t, got[1].ID.IsZero())
	})

	t.Run("add requires address and city", func(t *testing.T) {
		svc, users, _ := newUserService()
		users.On("FindByID", ctx, id).Return(&models.User{ID: id}, nil)

		_, err := svc.AddAddress(ctx, id, AddressInput{Address: "2 Corniche"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("partial update", func(t *testing.T) {
		svc, users, _ := newUserService()
		users.On("FindByID", ctx, id).Return(&models.User{ID: id, Addresses: []models.Address{home}}, nil)
		users.On("SetAddresses", ctx, id, mock.Anything).Return(nil)

		got, err := svc.UpdateAddress(ctx, id, home.ID, AddressInput{PostalCode: "11511"})
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Equal(t, "1 Nile St", got[0].Address)
		assert.Equal(t, "11511", got[0].PostalCode)
		assert.True(t, got[0].IsDefault)
	})

	t.Run("update missing address", func(t *testing.T) {
		svc, users, _ := newUserService()
		users.On("FindByID", ctx, id).Return(&models.User{ID: id, Addresses: []models.Address{home}}, nil)

		_, err := svc.UpdateAddress(ctx, id, primitive.NewObjectID(), AddressInput{City: "Giza"})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.EqualError(t, err, "Address not found")
	})

	t.Run("remove", func(t *testing.T) {
		svc, users, _ := newUserService()
		users.On("FindByID", ctx, id).Return(&models.User{ID: id, Addresses: []models.Address{home}}, nil)
		users.On("SetAddresses", ctx, id, []models.Address{}).Return(nil)

		got, err := svc.RemoveAddress(ctx, id, home.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestUserService_ToggleWishlistTwiceRestoresMembership(t *testing.T) {
	ctx := context.Background()
	svc, users, products := newUserService()
	id := primitive.NewObjectID()
	kept := primitive.NewObjectID()
	toggled := primitive.NewObjectID()
	user := &models.User{ID: id, Wishlist: []primitive.ObjectID{kept}}

	users.On("FindByID", ctx, id).Return(user, nil)
	users.On("SetWishlist", ctx, id, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		user.Wishlist = args.Get(2).([]primitive.ObjectID)
	})
	products.On("FindByIDs", ctx, mock.Anything).Return([]models.Product{{ID: kept}, {ID: toggled}}, nil)

	got, err := svc.ToggleWishlist(ctx, id, toggled)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{kept, toggled}, user.Wishlist)
	assert.Len(t, got, 2)

	got, err = svc.ToggleWishlist(ctx, id, toggled)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{kept}, user.Wishlist)
	require.Len(t, got, 1)
	assert.Equal(t, kept, got[0].ID)
}

func TestUserService_ReplaceCart(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()

	t.Run("replaces whole cart", func(t *testing.T) {
		svc, users, _ := newUserService()
		items := []models.CartItem{{Product: primitive.NewObjectID(), Qty: 2, Price: 100}}
		users.On("SetCart", ctx, id, items).Return(nil)

		got, err := svc.ReplaceCart(ctx, id, items)
		require.NoError(t, err)
		assert.Equal(t, items, got)
	})

	t.Run("nil cart clears", func(t *testing.T) {
		svc, users, _ := newUserService()
		users.On("SetCart", ctx, id, []models.CartItem{}).Return(nil)

		got, err := svc.ReplaceCart(ctx, id, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		svc, _, _ := newUserService()

		_, err := svc.ReplaceCart(ctx, id, []models.CartItem{{Product: primitive.NewObjectID(), Qty: 0}})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newUserService()
	missing := primitive.NewObjectID()
	users.On("Delete", ctx, missing).Return(store.ErrNotFound)

	err := svc.DeleteUser(ctx, missing)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.EqualError(t, err, "User not found")
}
