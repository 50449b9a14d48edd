package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookstore-service/internal/promocodes"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("not enough books in stock")
	ErrOrderNotFound     = errors.New("order not found")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// cartLine is a cart item joined with its locked book row.
type cartLine struct {
	bookID   int64
	title    string
	price    decimal.Decimal
	quantity int
	stock    int
}

// CreateOrder converts the user's cart into an order in one transaction.
// The cart's book rows are locked for the duration of the
// check-and-decrement, so two concurrent checkouts of the same book
// cannot both pass the stock check. Any failure rolls the whole order
// back; no partial order or stock change ever persists.
func (c *Conf) CreateOrder(ctx context.Context, customerID int64, userID string, no NewOrder) (Order, error) {
	order := Order{
		ID:              uuid.NewString(),
		CustomerID:      customerID,
		ShippingAddress: no.ShippingAddress,
		DeliveryDate:    no.DeliveryDate,
		PickupPointID:   no.PickupPointID,
	}

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var cartID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEmptyCart
			}
			return fmt.Errorf("failed to query cart: %w", err)
		}

		lines, err := lockCartLines(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		for _, line := range lines {
			if line.quantity > line.stock {
				return fmt.Errorf("not enough %q in stock: %w", line.title, ErrInsufficientStock)
			}
		}

		if no.PromoCode != "" {
			promo, err := promocodes.LookupValid(ctx, tx, no.PromoCode, time.Now().UTC())
			if err != nil {
				return err
			}
			order.PromoCodeID = &promo.ID
			order.DiscountPercent = promo.DiscountPercent
		}

		queryInsertOrder := `
			INSERT INTO orders (id, customer_id, shipping_address, promo_code_id, delivery_date, pickup_point_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		err = tx.QueryRowContext(ctx, queryInsertOrder, order.ID, order.CustomerID,
			order.ShippingAddress, order.PromoCodeID, order.DeliveryDate, order.PickupPointID).
			Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for _, line := range lines {
			var item OrderItem
			queryInsertItem := `
				INSERT INTO order_items (order_id, book_id, quantity, price)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`
			err = tx.QueryRowContext(ctx, queryInsertItem, order.ID, line.bookID, line.quantity, line.price).
				Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
			item.OrderID = order.ID
			item.BookID = line.bookID
			item.Title = line.title
			item.Quantity = line.quantity
			item.Price = line.price
			order.Items = append(order.Items, item)

			// Guarded decrement; the rows are locked but the predicate
			// keeps the counter from ever going negative.
			queryDecrement := `
				UPDATE books
				SET quantity = quantity - $1, updated_at = NOW()
				WHERE id = $2 AND quantity >= $1
			`
			res, err := tx.ExecContext(ctx, queryDecrement, line.quantity, line.bookID)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read rows affected: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("not enough %q in stock: %w", line.title, ErrInsufficientStock)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

// lockCartLines loads the cart items joined with their books, locking
// the book rows until the surrounding transaction commits.
func lockCartLines(ctx context.Context, tx *sql.Tx, cartID int64) ([]cartLine, error) {
	query := `
		SELECT ci.book_id, b.title, b.price, ci.quantity, b.quantity
		FROM cart_items ci
		JOIN books b ON b.id = ci.book_id
		WHERE ci.cart_id = $1
		ORDER BY ci.book_id
		FOR UPDATE OF b
	`
	rows, err := tx.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []cartLine
	for rows.Next() {
		var line cartLine
		if err := rows.Scan(&line.bookID, &line.title, &line.price, &line.quantity, &line.stock); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// GetOrderByID fetches an order with its frozen items, scoped to the
// owning customer.
func (c *Conf) GetOrderByID(ctx context.Context, orderID string, customerID int64) (Order, error) {
	var order Order

	queryOrder := `
		SELECT o.id, o.customer_id, o.shipping_address, o.promo_code_id,
		       COALESCE(p.discount_percent, 0), o.delivery_date, o.pickup_point_id,
		       o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN promo_codes p ON p.id = o.promo_code_id
		WHERE o.id = $1 AND o.customer_id = $2
	`
	err := c.db.QueryRowContext(ctx, queryOrder, orderID, customerID).
		Scan(&order.ID, &order.CustomerID, &order.ShippingAddress, &order.PromoCodeID,
			&order.DiscountPercent, &order.DeliveryDate, &order.PickupPointID,
			&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}

	order.Items, err = c.orderItems(ctx, order.ID)
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// ListOrdersByCustomer returns the customer's orders, newest first.
func (c *Conf) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	query := `
		SELECT o.id, o.customer_id, o.shipping_address, o.promo_code_id,
		       COALESCE(p.discount_percent, 0), o.delivery_date, o.pickup_point_id,
		       o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN promo_codes p ON p.id = o.promo_code_id
		WHERE o.customer_id = $1
		ORDER BY o.created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var list []Order
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.ShippingAddress, &order.PromoCodeID,
			&order.DiscountPercent, &order.DeliveryDate, &order.PickupPointID,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		list = append(list, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		list[i].Items, err = c.orderItems(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (c *Conf) orderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.book_id, b.title, oi.quantity, oi.price
		FROM order_items oi
		JOIN books b ON b.id = oi.book_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`
	rows, err := c.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.BookID, &item.Title, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
