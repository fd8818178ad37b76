package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/apperr"
	"qayyim-backend/internal/auth"
	"qayyim-backend/internal/models"
	"qayyim-backend/internal/service"
)

// POST /api/users
func (h *Handler) registerUser(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	resp, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// POST /api/users/login
func (h *Handler) authUser(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getProfile(c *gin.Context) {
	resp, err := h.users.Profile(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var in service.ProfileInput
	if !bindJSON(c, &in) {
		return
	}
	resp, err := h.users.UpdateProfile(c.Request.Context(), auth.CurrentUser(c).ID, in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addAddress(c *gin.Context) {
	var in service.AddressInput
	if !bindJSON(c, &in) {
		return
	}
	addresses, err := h.users.AddAddress(c.Request.Context(), auth.CurrentUser(c).ID, in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, addresses)
}

func (h *Handler) updateAddress(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	var in service.AddressInput
	if !bindJSON(c, &in) {
		return
	}
	addresses, err := h.users.UpdateAddress(c.Request.Context(), auth.CurrentUser(c).ID, id, in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, addresses)
}

func (h *Handler) removeAddress(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	addresses, err := h.users.RemoveAddress(c.Request.Context(), auth.CurrentUser(c).ID, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, addresses)
}

func (h *Handler) getWishlist(c *gin.Context) {
	products, err := h.users.Wishlist(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// POST /api/users/wishlist toggles membership of productId.
func (h *Handler) toggleWishlist(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		c.Error(apperr.Validation("Invalid product id"))
		return
	}
	products, err := h.users.ToggleWishlist(c.Request.Context(), auth.CurrentUser(c).ID, productID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getCart(c *gin.Context) {
	items, err := h.users.Cart(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) updateCart(c *gin.Context) {
	var req struct {
		CartItems []models.CartItem `json:"cartItems"`
	}
	if !bindJSON(c, &req) {
		return
	}
	items, err := h.users.ReplaceCart(c.Request.Context(), auth.CurrentUser(c).ID, req.CartItems)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User removed"})
}
