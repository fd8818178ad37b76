package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/models"
)

// ErrLoginRequired is returned by mutations that need a signed-in user.
var ErrLoginRequired = errors.New("storefront: login required")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront: api error %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status of an *APIError in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type errorBody struct {
	Message string `json:"message"`
}

type orderRequest struct {
	OrderItems      []models.OrderItem     `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      float64                `json:"itemsPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TotalPrice      float64                `json:"totalPrice"`
}

type api struct {
	http *resty.Client
}

func newAPI(baseURL string, timeout time.Duration, httpClient *http.Client) *api {
	var c *resty.Client
	if httpClient != nil {
		c = resty.NewWithClient(httpClient)
	} else {
		c = resty.New()
	}
	c.SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &api{http: c}
}

// call sends body as JSON and decodes a 2xx response into out.
func (a *api) call(ctx context.Context, method, path, token string, body, out any) error {
	var apiErr errorBody
	req := a.http.R().
		SetContext(ctx).
		SetError(&apiErr)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

func (a *api) login(ctx context.Context, email, password string) (*UserInfo, error) {
	var user UserInfo
	body := map[string]string{"email": email, "password": password}
	if err := a.call(ctx, http.MethodPost, "/api/users/login", "", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *api) register(ctx context.Context, in Registration) (*UserInfo, error) {
	var user UserInfo
	if err := a.call(ctx, http.MethodPost, "/api/users", "", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *api) getCart(ctx context.Context, token string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := a.call(ctx, http.MethodGet, "/api/users/cart", token, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *api) putCart(ctx context.Context, token string, items []models.CartItem) error {
	body := map[string]any{"cartItems": items}
	return a.call(ctx, http.MethodPut, "/api/users/cart", token, body, nil)
}

func (a *api) getWishlist(ctx context.Context, token string) ([]models.Product, error) {
	var products []models.Product
	if err := a.call(ctx, http.MethodGet, "/api/users/wishlist", token, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (a *api) toggleWishlist(ctx context.Context, token string, productID primitive.ObjectID) error {
	body := map[string]string{"productId": productID.Hex()}
	return a.call(ctx, http.MethodPost, "/api/users/wishlist", token, body, nil)
}

func (a *api) createOrder(ctx context.Context, token string, req orderRequest) (*models.Order, error) {
	var order models.Order
	if err := a.call(ctx, http.MethodPost, "/api/orders", token, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (a *api) products(ctx context.Context, keyword string) ([]models.Product, error) {
	var products []models.Product
	path := "/api/products"
	if keyword != "" {
		path += "?keyword=" + url.QueryEscape(keyword)
	}
	if err := a.call(ctx, http.MethodGet, path, "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}
