package store

import (
	"context"
	"fmt"

	"bookstore-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const orderSelect = `
	SELECT o.id, o.user_id, u.username, o.status, o.order_time, o.created_at
	FROM orders o
	JOIN users u ON u.id = o.user_id`

// ListOrders retrieves all orders with their lines
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if err := s.db.SelectContext(ctx, &orders, orderSelect+" ORDER BY o.id"); err != nil {
		return nil, err
	}
	return orders, s.attachLines(ctx, s.db, orders)
}

// ListOrdersByUsername retrieves the orders owned by a user
func (s *Store) ListOrdersByUsername(ctx context.Context, username string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders, orderSelect+" WHERE u.username = $1 ORDER BY o.id", username)
	if err != nil {
		return nil, err
	}
	return orders, s.attachLines(ctx, s.db, orders)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	return s.getOrder(ctx, s.db, id)
}

// LatestOrder retrieves the most recently created order
func (s *Store) LatestOrder(ctx context.Context) (*models.Order, error) {
	var order models.Order
	if err := s.db.GetContext(ctx, &order, orderSelect+" ORDER BY o.id DESC LIMIT 1"); err != nil {
		return nil, translateError(err)
	}
	orders := []models.Order{order}
	if err := s.attachLines(ctx, s.db, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// CreateOrder persists an order with its lines and takes the ordered
// quantities out of stock in a single transaction. Each decrement only
// applies while enough copies remain, so concurrent placements cannot
// drive stock below zero; a lost race returns ErrInsufficientStock and
// nothing is written.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, line := range order.Lines {
		res, err := tx.ExecContext(ctx,
			"UPDATE books SET quantity = quantity - $1, updated_at = NOW() WHERE id = $2 AND quantity >= $1",
			line.Quantity, line.BookID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: book %d", ErrInsufficientStock, line.BookID)
		}
	}

	query := `
		INSERT INTO orders (user_id, status, order_time)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	if err := tx.QueryRowxContext(ctx, query, order.UserID, order.Status, order.OrderTime).
		Scan(&order.ID, &order.CreatedAt); err != nil {
		return translateError(err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err := tx.GetContext(ctx, &line.ID, `
			INSERT INTO order_books (order_id, book_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			line.OrderID, line.BookID, line.Quantity, line.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to create order line: %w", translateError(err))
		}
	}

	return tx.Commit()
}

// CancelOrder marks an order canceled, returns every line quantity to
// stock and zeroes the lines. Canceling an already canceled order changes
// nothing and reports canceled as false. An order whose status does not
// allow cancellation yields ErrStatusConflict.
func (s *Store) CancelOrder(ctx context.Context, id int64) (order *models.Order, canceled bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var status models.OrderStatus
	if err := tx.GetContext(ctx, &status, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", id); err != nil {
		return nil, false, translateError(err)
	}

	if status != models.OrderStatusCanceled {
		if !status.CanTransition(models.OrderStatusCanceled) {
			return nil, false, fmt.Errorf("%w: cannot cancel order in status %s", ErrStatusConflict, status)
		}

		// Lines for the same book are summed first: UPDATE ... FROM applies
		// at most one joined row per target row.
		_, err = tx.ExecContext(ctx, `
			UPDATE books b
			SET quantity = b.quantity + ob.qty, updated_at = NOW()
			FROM (
				SELECT book_id, SUM(quantity) AS qty
				FROM order_books
				WHERE order_id = $1
				GROUP BY book_id
			) ob
			WHERE b.id = ob.book_id`, id)
		if err != nil {
			return nil, false, fmt.Errorf("failed to restore stock: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE order_books SET quantity = 0 WHERE order_id = $1", id); err != nil {
			return nil, false, fmt.Errorf("failed to clear order lines: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE orders SET status = $1, order_time = NOW() WHERE id = $2",
			models.OrderStatusCanceled, id); err != nil {
			return nil, false, fmt.Errorf("failed to update order status: %w", err)
		}
		canceled = true
	}

	order, err = s.getOrder(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return order, canceled, nil
}

// UpdateOrderStatus moves an order from one status to another. It fails
// with ErrStatusConflict when the order is no longer in status from.
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, order_time = NOW() WHERE id = $2 AND status = $3",
		to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		exists, err := s.orderExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

// DeleteOrder removes an order and its lines
func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res.RowsAffected())
}

func (s *Store) orderExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)", id)
	return exists, err
}

func (s *Store) getOrder(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Order, error) {
	var order models.Order
	if err := sqlx.GetContext(ctx, q, &order, orderSelect+" WHERE o.id = $1", id); err != nil {
		return nil, translateError(err)
	}
	orders := []models.Order{order}
	if err := s.attachLines(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// attachLines loads the lines of every order in one query.
func (s *Store) attachLines(ctx context.Context, q sqlx.QueryerContext, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Lines = []models.OrderLine{}
	}

	query, args, err := sqlx.In(`
		SELECT ob.id, ob.order_id, ob.book_id, b.title, ob.quantity, ob.unit_price
		FROM order_books ob
		JOIN books b ON b.id = ob.book_id
		WHERE ob.order_id IN (?)
		ORDER BY ob.id`, ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var lines []models.OrderLine
	if err := sqlx.SelectContext(ctx, q, &lines, query, args...); err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}

	for _, line := range lines {
		i := index[line.OrderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	return nil
}
