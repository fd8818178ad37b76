package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qayyim-backend/internal/auth"
	"qayyim-backend/internal/service"
)

// GET /api/products?keyword=
func (h *Handler) getProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProductByID(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) createProduct(c *gin.Context) {
	product, err := h.catalog.CreateSample(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	product, err := h.catalog.Update(c.Request.Context(), id, in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}

func (h *Handler) createProductReview(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.CreateReview(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusCreated)
}
