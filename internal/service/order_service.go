package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore-service/internal/apperr"
	"bookstore-service/internal/models"
	"bookstore-service/internal/store"
	"bookstore-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxOrderTotal is the price ceiling of a single order.
const DefaultMaxOrderTotal int64 = 10000

// OrderLimits configures order placement.
type OrderLimits struct {
	MaxTotal       int64
	IdempotencyTTL time.Duration
}

// OrderService handles order placement, cancellation and status changes
type OrderService struct {
	orders OrderRepository
	books  BookRepository
	users  UserRepository
	cache  StockCache
	events EventPublisher
	limits OrderLimits
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	orders OrderRepository,
	books BookRepository,
	users UserRepository,
	cache StockCache,
	events EventPublisher,
	limits OrderLimits,
) *OrderService {
	if limits.MaxTotal <= 0 {
		limits.MaxTotal = DefaultMaxOrderTotal
	}
	if limits.IdempotencyTTL <= 0 {
		limits.IdempotencyTTL = 24 * time.Hour
	}
	return &OrderService{
		orders: orders,
		books:  books,
		users:  users,
		cache:  cache,
		events: events,
		limits: limits,
		logger: util.GetLogger(),
	}
}

// PlaceOrderRequest lists the ordered books and, position by position,
// the amount of each
type PlaceOrderRequest struct {
	OrderedBooks   []int64 `json:"orderedBooks"`
	BookAmount     []int   `json:"bookAmount"`
	IdempotencyKey string  `json:"idempotencyKey,omitempty"`
}

// PlaceOrder validates the requested books against the catalog and
// persists the order for username. Nothing is written unless every check
// passes: user exists, lists line up, every book exists, the running
// total stays within the ceiling and every book has enough stock.
func (s *OrderService) PlaceOrder(ctx context.Context, username string, req *PlaceOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if req.IdempotencyKey != "" {
		if order := s.replay(ctx, username, req.IdempotencyKey); order != nil {
			return order, nil
		}
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found! User with username: %s does not exist", username)
		}
		return nil, util.RecordSpanError(span, fmt.Errorf("failed to get user: %w", err))
	}

	lines, err := s.buildOrderLines(ctx, req)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:    user.ID,
		Username:  user.Username,
		Status:    models.OrderStatusCreated,
		OrderTime: time.Now().UTC(),
		Lines:     lines,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, apperr.Wrap(apperr.KindBadRequest, err, "Not enough books! Stock changed while placing the order")
		}
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, util.RecordSpanError(span, fmt.Errorf("failed to create order: %w", err))
	}

	total := order.Total()
	util.OrdersPlacedTotal.Inc()
	util.OrderValue.Observe(float64(total))
	for _, line := range order.Lines {
		util.BooksReservedTotal.Add(float64(line.Quantity))
	}

	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("username", username),
		zap.Int64("total", total),
		zap.Int("lines", len(order.Lines)))

	event := &models.OrderPlacedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderPlaced),
		OrderID:   order.ID,
		UserID:    order.UserID,
		Username:  order.Username,
		Total:     total,
		Items:     models.ItemsFromLines(order.Lines),
	}
	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	s.invalidateStock(ctx, order.BookIDs())

	if req.IdempotencyKey != "" {
		key := idempotencyScope(username, req.IdempotencyKey)
		if err := s.cache.RememberOrder(ctx, key, order.ID, s.limits.IdempotencyTTL); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.String("key", key), zap.Error(err))
		}
	}

	return order, nil
}

// replay returns the order already placed for an idempotency key, if any.
// Cache failures are logged and treated as a miss.
func (s *OrderService) replay(ctx context.Context, username, key string) *models.Order {
	scoped := idempotencyScope(username, key)
	orderID, ok, err := s.cache.LookupOrder(ctx, scoped)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed", zap.String("key", scoped), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		s.logger.Warn("Idempotency key points at missing order",
			zap.String("key", scoped), zap.Int64("order_id", orderID), zap.Error(err))
		return nil
	}

	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.Int64("order_id", order.ID))
	return order
}

// invalidateStock drops cached stock levels so reads fall back to the
// database until the stock cache worker repopulates them.
func (s *OrderService) invalidateStock(ctx context.Context, bookIDs []int64) {
	for _, id := range bookIDs {
		if err := s.cache.DeleteStock(ctx, id); err != nil {
			s.logger.Warn("Failed to invalidate cached stock", zap.Int64("book_id", id), zap.Error(err))
		}
	}
}

func idempotencyScope(username, key string) string {
	return username + ":" + key
}

// buildOrderLines resolves and validates the requested books in the order
// they were supplied. Checks run in a fixed sequence: list shape, book
// existence, running price ceiling, stock.
func (s *OrderService) buildOrderLines(ctx context.Context, req *PlaceOrderRequest) ([]models.OrderLine, error) {
	if len(req.OrderedBooks) != len(req.BookAmount) {
		util.OrdersFailedTotal.WithLabelValues("length_mismatch").Inc()
		return nil, apperr.BadRequest("Discrepancy between the number of ordered books and their amount!")
	}
	if len(req.OrderedBooks) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty").Inc()
		return nil, apperr.BadRequest("Order must contain at least one book!")
	}
	for i, amount := range req.BookAmount {
		if amount <= 0 {
			util.OrdersFailedTotal.WithLabelValues("invalid_amount").Inc()
			return nil, apperr.BadRequest("Amount of book with id: %d must be positive", req.OrderedBooks[i])
		}
	}

	books := make([]*models.Book, len(req.OrderedBooks))
	for i, id := range req.OrderedBooks {
		book, err := s.books.GetBookByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				util.OrdersFailedTotal.WithLabelValues("book_not_found").Inc()
				return nil, apperr.NotFound("Book not found! Book with id: %d does not exist", id)
			}
			return nil, fmt.Errorf("failed to get book %d: %w", id, err)
		}
		books[i] = book
	}

	// total never exceeds MaxTotal here, so the remaining budget is
	// non-negative and the comparison below cannot overflow.
	var total int64
	for i, book := range books {
		amount := int64(req.BookAmount[i])
		if book.Price > 0 && amount > (s.limits.MaxTotal-total)/book.Price {
			util.OrdersFailedTotal.WithLabelValues("price_limit").Inc()
			return nil, apperr.BadRequest("Total price of order should be less than %d", s.limits.MaxTotal)
		}
		total += book.Price * amount
	}

	requested := make(map[int64]int, len(books))
	lines := make([]models.OrderLine, 0, len(books))
	for i, book := range books {
		amount := req.BookAmount[i]
		requested[book.ID] += amount
		if requested[book.ID] > book.Quantity {
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, apperr.BadRequest("Not enough books! Book with id: %d has %d in stock", book.ID, book.Quantity)
		}
		lines = append(lines, models.OrderLine{
			BookID:    book.ID,
			Title:     book.Title,
			Quantity:  amount,
			UnitPrice: book.Price,
		})
	}

	return lines, nil
}

// CancelOrder cancels an order and returns its books to stock. Canceling an
// order that is already canceled returns it unchanged. Non-admin actors may
// only cancel their own orders.
func (s *OrderService) CancelOrder(ctx context.Context, actor *models.User, id int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, order)
}

func (s *OrderService) cancel(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.Status == models.OrderStatusCanceled {
		s.logger.Info("Order already canceled", zap.Int64("order_id", order.ID))
		return order, nil
	}
	if !order.Status.CanTransition(models.OrderStatusCanceled) {
		return nil, apperr.BadRequest("Order with status %s cannot be canceled", order.Status)
	}

	restored := models.ItemsFromLines(order.Lines)

	canceled, changed, err := s.orders.CancelOrder(ctx, order.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, orderNotFound()
		case errors.Is(err, store.ErrStatusConflict):
			return nil, apperr.Wrap(apperr.KindBadRequest, err, "Order status changed concurrently, cancellation rejected")
		}
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !changed {
		// A concurrent cancel won; it already restored stock and published.
		s.logger.Info("Order already canceled", zap.Int64("order_id", order.ID))
		return canceled, nil
	}

	util.OrdersCanceledTotal.Inc()
	util.OrderStatusChangesTotal.WithLabelValues(models.OrderStatusCanceled.String()).Inc()
	for _, item := range restored {
		util.BooksReturnedTotal.Add(float64(item.Quantity))
	}

	s.logger.Info("Order canceled and stock restored",
		zap.Int64("order_id", order.ID),
		zap.Int("lines", len(restored)))

	event := &models.OrderCanceledEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderCanceled),
		OrderID:   order.ID,
		Items:     restored,
	}
	if err := s.events.PublishOrderCanceled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCanceled event", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	s.invalidateStock(ctx, models.BookIDsFromItems(restored))

	return canceled, nil
}

// ChangeOrderStatus moves an order to newStatus following the order
// lifecycle. Moving to canceled goes through cancellation so stock is
// returned.
func (s *OrderService) ChangeOrderStatus(ctx context.Context, newStatus string, id int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ChangeOrderStatus")
	defer span.End()

	to, ok := models.ParseOrderStatus(newStatus)
	if !ok {
		return nil, apperr.BadRequest("Unknown order status: %q", newStatus)
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if to == models.OrderStatusCanceled {
		return s.cancel(ctx, order)
	}
	if order.Status == to {
		return order, nil
	}
	if !order.Status.CanTransition(to) {
		return nil, apperr.BadRequest("Order status cannot change from %s to %s", order.Status, to)
	}

	from := order.Status
	if err := s.orders.UpdateOrderStatus(ctx, id, from, to); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, orderNotFound()
		case errors.Is(err, store.ErrStatusConflict):
			return nil, apperr.Wrap(apperr.KindBadRequest, err, "Order status changed concurrently, please retry")
		}
		return nil, util.RecordSpanError(span, fmt.Errorf("failed to update order status: %w", err))
	}

	util.OrderStatusChangesTotal.WithLabelValues(to.String()).Inc()
	s.logger.Info("Order status changed",
		zap.Int64("order_id", id),
		zap.String("from", from.String()),
		zap.String("to", to.String()))

	event := &models.OrderStatusChangedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:   id,
		From:      from,
		To:        to,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Int64("order_id", id), zap.Error(err))
	}

	return s.getOrder(ctx, id)
}

// GetOrder retrieves an order by ID. Non-admin actors only see their own orders.
func (s *OrderService) GetOrder(ctx context.Context, actor *models.User, id int64) (*models.Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && !actor.IsAdmin() && order.UserID != actor.ID {
		// Other users' orders are reported as missing.
		return nil, orderNotFound()
	}
	return order, nil
}

func (s *OrderService) getOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, orderNotFound()
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// ListOrders retrieves every order
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListOrdersForUser retrieves the orders of one user
func (s *OrderService) ListOrdersForUser(ctx context.Context, username string) ([]models.Order, error) {
	orders, err := s.orders.ListOrdersByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for %s: %w", username, err)
	}
	return orders, nil
}

// LatestOrder retrieves the most recently created order
func (s *OrderService) LatestOrder(ctx context.Context) (*models.Order, error) {
	order, err := s.orders.LatestOrder(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("No orders have been placed yet")
		}
		return nil, fmt.Errorf("failed to get latest order: %w", err)
	}
	return order, nil
}

// PurgeOrder permanently deletes a canceled order and its lines
func (s *OrderService) PurgeOrder(ctx context.Context, id int64) error {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusCanceled {
		return apperr.BadRequest("Only canceled orders can be deleted, order %d is %s", id, order.Status)
	}
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return orderNotFound()
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	s.logger.Info("Order purged", zap.Int64("order_id", id))
	return nil
}

func orderNotFound() error {
	return apperr.NotFound("Order not found. Invalid id supplied!")
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}
