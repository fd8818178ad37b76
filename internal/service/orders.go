package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"qayyim-backend/internal/apperr"
	"qayyim-backend/internal/events"
	"qayyim-backend/internal/models"
	"qayyim-backend/internal/pricing"
	"qayyim-backend/internal/store"
)

const (
	msgOrderNotFound   = "Order not found"
	recentOrdersLimit  = 5
	revenueChartLength = 7
)

type CreateOrderInput struct {
	OrderItems      []models.OrderItem     `json:"orderItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ItemsPrice      float64                `json:"itemsPrice"`
	TaxPrice        float64                `json:"taxPrice"`
	ShippingPrice   float64                `json:"shippingPrice"`
	TotalPrice      float64                `json:"totalPrice"`
}

// OrderEvent is the payload of every order lifecycle event.
type OrderEvent struct {
	OrderID     string             `json:"orderId"`
	UserID      string             `json:"userId"`
	Items       []models.OrderItem `json:"orderItems"`
	TotalPrice  float64            `json:"totalPrice"`
	IsPaid      bool               `json:"isPaid"`
	IsDelivered bool               `json:"isDelivered"`
	OrderStatus string             `json:"orderStatus"`
}

func newOrderEvent(o *models.Order) OrderEvent {
	return OrderEvent{
		OrderID:     o.ID.Hex(),
		UserID:      o.User.Hex(),
		Items:       o.OrderItems,
		TotalPrice:  o.TotalPrice,
		IsPaid:      o.IsPaid,
		IsDelivered: o.IsDelivered,
		OrderStatus: o.OrderStatus,
	}
}

type OrderService struct {
	orders    store.OrderStore
	products  store.ProductStore
	users     store.UserStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewOrderService(orders store.OrderStore, products store.ProductStore, users store.UserStore, publisher events.Publisher, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		orders:    orders,
		products:  products,
		users:     users,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *OrderService) publish(topic string, o *models.Order) {
	if s.publisher == nil {
		return
	}
	events.PublishAsync(s.publisher, s.logger, topic, o.ID.Hex(), newOrderEvent(o))
}

// Create persists an order for userID. Names, images and prices are taken from
// the product documents and all totals are recomputed; client totals are only
// compared and logged.
func (s *OrderService) Create(ctx context.Context, userID primitive.ObjectID, in CreateOrderInput) (*models.Order, error) {
	if len(in.OrderItems) == 0 {
		return nil, apperr.Validation("No order items")
	}
	if strings.TrimSpace(in.ShippingAddress.Address) == "" || strings.TrimSpace(in.ShippingAddress.City) == "" {
		return nil, apperr.Validation("Shipping address and city are required")
	}

	ids := make([]primitive.ObjectID, 0, len(in.OrderItems))
	for _, it := range in.OrderItems {
		if it.Product.IsZero() {
			return nil, apperr.Validation("Order item is missing a product")
		}
		if it.Qty < 1 {
			return nil, apperr.Validation("Invalid quantity for %s", it.Product.Hex())
		}
		ids = append(ids, it.Product)
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to load products")
	}
	byID := make(map[primitive.ObjectID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	items := make([]models.OrderItem, 0, len(in.OrderItems))
	lines := make([]pricing.Line, 0, len(in.OrderItems))
	for _, it := range in.OrderItems {
		p, ok := byID[it.Product]
		if !ok {
			return nil, apperr.Validation("Product not found: %s", it.Product.Hex())
		}
		items = append(items, models.OrderItem{
			Name:    p.Name,
			Qty:     it.Qty,
			Image:   p.FirstImage(),
			Price:   p.Price,
			Product: p.ID,
			Size:    it.Size,
			Color:   it.Color,
		})
		lines = append(lines, pricing.Line{Price: p.Price, Qty: it.Qty})
	}

	totals := pricing.Compute(lines, in.ShippingAddress.City)
	submitted := pricing.Breakdown{
		ItemsPrice:    in.ItemsPrice,
		ShippingPrice: in.ShippingPrice,
		TaxPrice:      in.TaxPrice,
		TotalPrice:    in.TotalPrice,
	}
	if in.TotalPrice != 0 && !totals.Equal(submitted) {
		s.logger.Warn("client order totals differ from server totals",
			"userId", userID.Hex(), "submitted", submitted, "computed", totals)
	}

	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentCashOnDelivery
	}

	order := &models.Order{
		User:            userID,
		OrderItems:      items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   paymentMethod,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
		OrderStatus:     models.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperr.Internal(err, "Failed to create order")
	}

	s.logger.Info("order created", "orderId", order.ID.Hex(), "userId", userID.Hex(), "totalPrice", order.TotalPrice)
	s.publish(events.OrderCreated, order)
	return order, nil
}

func (s *OrderService) load(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(msgOrderNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to load order")
	}
	return order, nil
}

func canAccess(requester *models.User, order *models.Order) bool {
	return requester != nil && (requester.IsAdmin || requester.ID == order.User)
}

// Get returns the order with the owner's name, email and phone attached.
// Only the owner or an admin may read it.
func (s *OrderService) Get(ctx context.Context, requester *models.User, id primitive.ObjectID) (*models.OrderWithUser, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(requester, order) {
		return nil, apperr.Unauthorized("Not authorized to view this order")
	}

	summaries, err := s.users.Summaries(ctx, []primitive.ObjectID{order.User})
	if err != nil {
		return nil, apperr.Internal(err, "Failed to load order owner")
	}
	out := &models.OrderWithUser{Order: *order}
	if u, ok := summaries[order.User]; ok {
		out.User = &u
	}
	return out, nil
}

// Pay marks the order paid and stores the payment result as sent.
func (s *OrderService) Pay(ctx context.Context, requester *models.User, id primitive.ObjectID, result models.PaymentResult) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(requester, order) {
		return nil, apperr.Unauthorized("Not authorized to update this order")
	}

	paidAt := s.now()
	order.IsPaid = true
	order.PaidAt = &paidAt
	order.PaymentResult = &result
	if err := s.orders.UpdateStatus(ctx, order); err != nil {
		return nil, apperr.Internal(err, "Failed to update order")
	}

	s.logger.Info("order paid", "orderId", order.ID.Hex())
	s.publish(events.OrderPaid, order)
	return order, nil
}

type stockChange struct {
	product primitive.ObjectID
	qty     int
}

// Deliver marks the order delivered, paying it on delivery when unpaid, and
// takes the ordered quantities out of stock. Decrements run one product at a
// time; if one fails the earlier ones are put back and the order is left
// untouched. Delivering an already delivered order changes nothing.
func (s *OrderService) Deliver(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsDelivered {
		s.logger.Info("order already delivered", "orderId", order.ID.Hex())
		return order, nil
	}

	applied, err := s.decrementStock(ctx, order)
	if err != nil {
		s.compensate(applied)
		return nil, apperr.Internal(err, "Failed to update stock")
	}

	deliveredAt := s.now()
	order.IsDelivered = true
	order.DeliveredAt = &deliveredAt
	order.OrderStatus = models.OrderStatusDelivered
	if !order.IsPaid {
		order.IsPaid = true
		order.PaidAt = &deliveredAt
	}
	if err := s.orders.UpdateStatus(ctx, order); err != nil {
		s.compensate(applied)
		return nil, apperr.Internal(err, "Failed to update order")
	}

	s.logger.Info("order delivered", "orderId", order.ID.Hex())
	s.publish(events.OrderDelivered, order)
	return order, nil
}

func (s *OrderService) decrementStock(ctx context.Context, order *models.Order) ([]stockChange, error) {
	applied := make([]stockChange, 0, len(order.OrderItems))
	for _, it := range order.OrderItems {
		product, err := s.products.FindByID(ctx, it.Product)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("skipping stock update for missing product", "orderId", order.ID.Hex(), "productId", it.Product.Hex())
			continue
		}
		if err != nil {
			return applied, err
		}

		err = s.products.AdjustStock(ctx, it.Product, -it.Qty)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("skipping stock update for missing product", "orderId", order.ID.Hex(), "productId", it.Product.Hex())
			continue
		}
		if err != nil {
			return applied, err
		}
		applied = append(applied, stockChange{product: it.Product, qty: it.Qty})

		if remaining := product.CountInStock - it.Qty; remaining < 0 {
			s.logger.Warn("stock went negative", "productId", it.Product.Hex(), "countInStock", remaining)
		}
	}
	return applied, nil
}

// compensate restores applied decrements in reverse order. It runs on a fresh
// context so a cancelled request still gets its stock back.
func (s *OrderService) compensate(applied []stockChange) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(applied) - 1; i >= 0; i-- {
		c := applied[i]
		if err := s.products.AdjustStock(ctx, c.product, c.qty); err != nil {
			s.logger.Error("failed to restore stock", "productId", c.product.Hex(), "qty", c.qty, "err", err)
		}
	}
}

func (s *OrderService) Mine(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to list orders")
	}
	return orders, nil
}

// All returns every order with the owner's id and name attached.
func (s *OrderService) All(ctx context.Context) ([]models.OrderWithUser, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to list orders")
	}

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, o := range orders {
		if !seen[o.User] {
			seen[o.User] = true
			ids = append(ids, o.User)
		}
	}
	summaries, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to load order owners")
	}

	out := make([]models.OrderWithUser, 0, len(orders))
	for _, o := range orders {
		ow := models.OrderWithUser{Order: o}
		if u, ok := summaries[o.User]; ok {
			ow.User = &models.UserSummary{ID: u.ID, Name: u.Name}
		}
		out = append(out, ow)
	}
	return out, nil
}

// Stats gathers the dashboard figures concurrently.
func (s *OrderService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(revenueChartLength - 1))

	var (
		stats  models.DashboardStats
		recent []models.Order
		daily  []store.DailyTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.orders.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PaidOrdersCount, err = s.orders.CountPaid(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRevenue, err = s.orders.PaidRevenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalProducts, err = s.products.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.orders.Recent(gctx, recentOrdersLimit)
		return err
	})
	g.Go(func() (err error) {
		daily, err = s.orders.DailyRevenue(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err, "Failed to load dashboard stats")
	}

	if recent == nil {
		recent = []models.Order{}
	}
	stats.RecentOrders = recent
	stats.ChartData = revenueSeries(since, daily)
	return &stats, nil
}

// revenueSeries fills one point per day starting at since, zero when no paid
// order was created that day.
func revenueSeries(since time.Time, daily []store.DailyTotal) []models.DailyRevenue {
	totals := make(map[string]float64, len(daily))
	for _, d := range daily {
		totals[d.Date] = d.Total
	}
	series := make([]models.DailyRevenue, 0, revenueChartLength)
	for i := 0; i < revenueChartLength; i++ {
		day := since.AddDate(0, 0, i)
		date := day.Format("2006-01-02")
		series = append(series, models.DailyRevenue{
			Name:  day.Weekday().String()[:3],
			Date:  date,
			Total: totals[date],
		})
	}
	return series
}
