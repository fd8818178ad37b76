package storefront

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"qayyim-backend/internal/models"
	"qayyim-backend/internal/pricing"
)

var (
	ErrAddressRequired = errors.New("storefront: shipping address is required")
	ErrNotReady        = errors.New("storefront: checkout is not ready for review")
)

type CheckoutState string

const (
	StateNoAddress   CheckoutState = "NoAddress"
	StateAddressSet  CheckoutState = "AddressSet"
	StatePaymentSet  CheckoutState = "PaymentSet"
	StateReviewReady CheckoutState = "ReviewReady"
	StateSubmitted   CheckoutState = "Submitted"
)

// Step is a checkout page.
type Step string

const (
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
	StepReview   Step = "review"
)

// Summary is what the review page shows before submission.
type Summary struct {
	Items           []models.CartItem      `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	pricing.Breakdown
}

type Checkout struct {
	sh   *shared
	cart *Cart
}

func (c *Checkout) State() CheckoutState {
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	return c.stateLocked()
}

func (c *Checkout) stateLocked() CheckoutState {
	st := c.sh.state
	switch {
	case c.sh.lastOrder != nil && len(st.Cart) == 0:
		return StateSubmitted
	case strings.TrimSpace(st.ShippingAddress.Address) == "":
		return StateNoAddress
	case st.PaymentMethod == "":
		return StateAddressSet
	case len(st.Cart) == 0:
		return StatePaymentSet
	default:
		return StateReviewReady
	}
}

// Guard returns the step a visitor of step must be sent to.
func (c *Checkout) Guard(step Step) Step {
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	state := c.stateLocked()

	switch step {
	case StepPayment:
		if state == StateNoAddress {
			return StepShipping
		}
	case StepReview:
		switch state {
		case StateNoAddress:
			return StepShipping
		case StateAddressSet:
			return StepPayment
		}
	}
	return step
}

func (c *Checkout) ShippingAddress() models.ShippingAddress {
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	return c.sh.state.ShippingAddress
}

func (c *Checkout) PaymentMethod() string {
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	return c.sh.state.PaymentMethod
}

// SaveShippingAddress stores addr and starts a new checkout if the previous
// one was submitted. Adding to the cart after a submission does the same.
func (c *Checkout) SaveShippingAddress(addr models.ShippingAddress) error {
	if strings.TrimSpace(addr.Address) == "" {
		return ErrAddressRequired
	}
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	c.sh.lastOrder = nil
	c.sh.state.ShippingAddress = addr
	c.sh.persistLocked()
	return nil
}

// SavePaymentMethod defaults to cash on delivery.
func (c *Checkout) SavePaymentMethod(method string) error {
	if method == "" {
		method = models.PaymentCashOnDelivery
	}
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	if strings.TrimSpace(c.sh.state.ShippingAddress.Address) == "" {
		return ErrAddressRequired
	}
	c.sh.state.PaymentMethod = method
	c.sh.persistLocked()
	return nil
}

func (c *Checkout) Review() (*Summary, error) {
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	if c.stateLocked() != StateReviewReady {
		return nil, ErrNotReady
	}
	return c.summaryLocked(), nil
}

func (c *Checkout) summaryLocked() *Summary {
	st := c.sh.state
	lines := make([]pricing.Line, 0, len(st.Cart))
	for _, it := range st.Cart {
		lines = append(lines, pricing.Line{Price: it.Price, Qty: it.Qty})
	}
	return &Summary{
		Items:           cloneCart(st.Cart),
		ShippingAddress: st.ShippingAddress,
		PaymentMethod:   st.PaymentMethod,
		Breakdown:       pricing.Compute(lines, st.ShippingAddress.City),
	}
}

// Submit pushes any pending cart change, places the order and empties the cart.
func (c *Checkout) Submit(ctx context.Context) (*models.Order, error) {
	c.sh.mu.Lock()
	token := c.sh.tokenLocked()
	state := c.stateLocked()
	c.sh.mu.Unlock()
	if token == "" {
		return nil, ErrLoginRequired
	}
	if state != StateReviewReady {
		return nil, ErrNotReady
	}

	if err := c.cart.Flush(ctx); err != nil {
		return nil, err
	}

	c.sh.mu.Lock()
	if c.stateLocked() != StateReviewReady {
		c.sh.mu.Unlock()
		return nil, ErrNotReady
	}
	summary := c.summaryLocked()
	c.sh.mu.Unlock()

	items := make([]models.OrderItem, 0, len(summary.Items))
	for _, it := range summary.Items {
		items = append(items, models.OrderItem{
			Name:    it.Name,
			Qty:     it.Qty,
			Image:   it.Image,
			Price:   it.Price,
			Product: it.Product,
			Size:    it.Size,
			Color:   it.Color,
		})
	}
	order, err := c.sh.api.createOrder(ctx, token, orderRequest{
		OrderItems:      items,
		ShippingAddress: summary.ShippingAddress,
		PaymentMethod:   summary.PaymentMethod,
		ItemsPrice:      summary.ItemsPrice,
		TaxPrice:        summary.TaxPrice,
		ShippingPrice:   summary.ShippingPrice,
		TotalPrice:      summary.TotalPrice,
	})
	if err != nil {
		return nil, errors.Wrap(err, "place order")
	}
	if order.TotalPrice != summary.TotalPrice {
		c.sh.logger.Info("order total adjusted by server", "orderId", order.ID.Hex(),
			"reviewed", summary.TotalPrice, "charged", order.TotalPrice)
	}

	c.cart.Clear()
	c.sh.mu.Lock()
	c.sh.lastOrder = order
	c.sh.mu.Unlock()
	return order, nil
}

// LastOrder is the order placed by the most recent Submit of the current
// session, or nil.
func (c *Checkout) LastOrder() *models.Order {
	c.sh.mu.Lock()
	defer c.sh.mu.Unlock()
	return c.sh.lastOrder
}
