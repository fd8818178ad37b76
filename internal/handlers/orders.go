package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qayyim-backend/internal/auth"
	"qayyim-backend/internal/models"
	"qayyim-backend/internal/service"
)

// POST /api/orders
func (h *Handler) addOrderItems(c *gin.Context) {
	var in service.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	order, err := h.orders.Create(c.Request.Context(), auth.CurrentUser(c).ID, in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) getOrderByID(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PUT /api/orders/:id/pay records the payment result exactly as sent.
func (h *Handler) updateOrderToPaid(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	var result models.PaymentResult
	if !bindJSON(c, &result) {
		return
	}
	order, err := h.orders.Pay(c.Request.Context(), auth.CurrentUser(c), id, result)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) updateOrderToDelivered(c *gin.Context) {
	id, ok := objectID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Deliver(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) getMyOrders(c *gin.Context) {
	orders, err := h.orders.Mine(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getOrders(c *gin.Context) {
	orders, err := h.orders.All(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getDashboardStats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
