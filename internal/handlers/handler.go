// Package handlers exposes the storefront services over HTTP with gin.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/apperr"
	"qayyim-backend/internal/auth"
	"qayyim-backend/internal/media"
	"qayyim-backend/internal/service"
)

type Handler struct {
	users    *service.UserService
	catalog  *service.CatalogService
	orders   *service.OrderService
	uploader media.ImageUploader
	tokens   *auth.Tokens
	loader   auth.UserLoader
	logger   *slog.Logger
}

type Deps struct {
	Users    *service.UserService
	Catalog  *service.CatalogService
	Orders   *service.OrderService
	Uploader media.ImageUploader
	Tokens   *auth.Tokens
	Loader   auth.UserLoader
	Logger   *slog.Logger
}

func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		users:    d.Users,
		catalog:  d.Catalog,
		orders:   d.Orders,
		uploader: d.Uploader,
		tokens:   d.Tokens,
		loader:   d.Loader,
		logger:   logger,
	}
}

type RouterOptions struct {
	Production  bool
	CORSOrigins []string
	// RequestLog enables gin's request logger.
	RequestLog bool
}

// NewRouter builds the engine with CORS, error rendering and every API route.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	if opts.RequestLog {
		r.Use(gin.Logger())
	}
	r.Use(ErrorHandler(opts.Production, h.logger))
	r.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		c.Error(errors.Errorf("panic: %v", rec))
		c.Abort()
	}))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running...")
	})
	h.RegisterRoutes(r.Group("/api"))

	r.NoRoute(func(c *gin.Context) {
		c.Error(apperr.NotFound("Not Found - %s", c.Request.URL.Path))
	})
	return r
}

// corsConfig allows any origin, without credentials, when none are listed.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	protect := auth.Protect(h.tokens, h.loader)
	admin := auth.Admin()

	users := api.Group("/users")
	{
		users.POST("", h.registerUser)
		users.POST("/login", h.authUser)
		users.GET("", protect, admin, h.getUsers)
		users.DELETE("/:id", protect, admin, h.deleteUser)

		users.GET("/profile", protect, h.getProfile)
		users.PUT("/profile", protect, h.updateProfile)
		users.POST("/profile/address", protect, h.addAddress)
		users.PUT("/profile/address/:id", protect, h.updateAddress)
		users.DELETE("/profile/address/:id", protect, h.removeAddress)

		users.GET("/wishlist", protect, h.getWishlist)
		users.POST("/wishlist", protect, h.toggleWishlist)
		users.GET("/cart", protect, h.getCart)
		users.PUT("/cart", protect, h.updateCart)
	}

	products := api.Group("/products")
	{
		products.GET("", h.getProducts)
		products.POST("", protect, admin, h.createProduct)
		products.GET("/:id", h.getProductByID)
		products.PUT("/:id", protect, admin, h.updateProduct)
		products.DELETE("/:id", protect, admin, h.deleteProduct)
		products.POST("/:id/reviews", protect, h.createProductReview)
	}

	orders := api.Group("/orders", protect)
	{
		orders.POST("", h.addOrderItems)
		orders.GET("", admin, h.getOrders)
		orders.GET("/myorders", h.getMyOrders)
		orders.GET("/stats", admin, h.getDashboardStats)
		orders.GET("/:id", h.getOrderByID)
		orders.PUT("/:id/pay", h.updateOrderToPaid)
		orders.PUT("/:id/deliver", admin, h.updateOrderToDelivered)
	}

	api.POST("/upload", protect, admin, h.uploadImage)
}

// ErrorHandler renders the last error attached to the context as
// {"message", "stack"}. The stack is omitted in production.
func ErrorHandler(production bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := apperr.Status(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "err", fmt.Sprintf("%+v", err))
		}
		if c.Writer.Written() {
			return
		}

		body := gin.H{"message": err.Error()}
		if !production {
			body["stack"] = fmt.Sprintf("%+v", err)
		}
		c.JSON(status, body)
	}
}

// objectID parses the path parameter name. Malformed ids are reported as not found.
func objectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.Error(apperr.NotFound("Resource not found"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.Error(apperr.Validation("Invalid request body"))
		return false
	}
	return true
}
