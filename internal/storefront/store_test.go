package storefront

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/models"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "storefront.json")
	fs := NewFileStore(path)

	empty, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, empty.User)
	assert.Empty(t, empty.Cart)

	state := State{
		User:            &UserInfo{ID: primitive.NewObjectID(), Name: "Sara", Token: "tok"},
		Cart:            []models.CartItem{{Product: primitive.NewObjectID(), Name: "Abaya", Price: 900, Qty: 1}},
		ShippingAddress: models.ShippingAddress{Address: "1 Nile St", City: "Giza"},
		PaymentMethod:   models.PaymentCashOnDelivery,
	}
	require.NoError(t, fs.Save(state))

	loaded, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, state.User.Token, loaded.User.Token)
	assert.Equal(t, state.Cart, loaded.Cart)
	assert.Equal(t, state.ShippingAddress, loaded.ShippingAddress)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = fs.Load()
	assert.Error(t, err)
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	ms := NewMemoryStore()
	cart := []models.CartItem{{Product: primitive.NewObjectID(), Qty: 1}}
	require.NoError(t, ms.Save(State{Cart: cart}))
	cart[0].Qty = 9

	loaded, err := ms.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Cart[0].Qty)
	assert.Equal(t, 1, ms.Saves())
}
