package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock        = errors.New("book is out of stock")
	ErrInsufficientStock = errors.New("not enough books in stock")
	ErrNotInCart         = errors.New("book not in cart")
	ErrBookNotFound      = errors.New("book not found")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

// AddToCartDB adds quantity of a book to the user's cart, creating the
// cart lazily. The new line total must not exceed the book's stock; on
// failure the cart is left untouched.
func (c *Conf) AddToCartDB(ctx context.Context, userID string, bookID int64, quantity int) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := activeCartID(ctx, tx, userID)
		if err != nil {
			return err
		}

		var stock int
		queryStock := `
			SELECT quantity
			FROM books
			WHERE id = $1
			FOR UPDATE
		`
		err = tx.QueryRowContext(ctx, queryStock, bookID).Scan(&stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookNotFound
			}
			return fmt.Errorf("failed to query book stock: %w", err)
		}
		if stock == 0 {
			return ErrOutOfStock
		}

		queryCartItem := `
			SELECT id, quantity
			FROM cart_items
			WHERE cart_id = $1 AND book_id = $2
		`
		var cartItemID int64
		var existingQuantity int

		err = tx.QueryRowContext(ctx, queryCartItem, cartID, bookID).Scan(&cartItemID, &existingQuantity)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				if quantity > stock {
					return ErrInsufficientStock
				}
				queryAddCartItem := `
					INSERT INTO cart_items (cart_id, book_id, quantity, created_at, updated_at)
					VALUES ($1, $2, $3, NOW(), NOW())
				`
				if _, err := tx.ExecContext(ctx, queryAddCartItem, cartID, bookID, quantity); err != nil {
					return fmt.Errorf("failed to add book to cart: %w", err)
				}
				return nil
			}
			return fmt.Errorf("failed to query cart items: %w", err)
		}

		newQuantity := existingQuantity + quantity
		if newQuantity > stock {
			return ErrInsufficientStock
		}

		queryUpdateCartItem := `
			UPDATE cart_items
			SET quantity = $1, updated_at = NOW()
			WHERE id = $2
		`
		if _, err := tx.ExecContext(ctx, queryUpdateCartItem, newQuantity, cartItemID); err != nil {
			return fmt.Errorf("failed to update cart item quantity: %w", err)
		}
		return nil
	})
}

// UpdateCartItemDB overwrites the line quantity. A quantity of zero or
// less removes the line.
func (c *Conf) UpdateCartItemDB(ctx context.Context, userID string, bookID int64, quantity int) error {
	if quantity <= 0 {
		return c.RemoveFromCartDB(ctx, userID, bookID)
	}

	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := activeCartID(ctx, tx, userID)
		if err != nil {
			return err
		}

		var stock int
		err = tx.QueryRowContext(ctx, `SELECT quantity FROM books WHERE id = $1 FOR UPDATE`, bookID).Scan(&stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookNotFound
			}
			return fmt.Errorf("failed to query book stock: %w", err)
		}
		if quantity > stock {
			return ErrInsufficientStock
		}

		queryUpdate := `
			UPDATE cart_items
			SET quantity = $1, updated_at = NOW()
			WHERE cart_id = $2 AND book_id = $3
		`
		res, err := tx.ExecContext(ctx, queryUpdate, quantity, cartID, bookID)
		if err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			return ErrNotInCart
		}
		return nil
	})
}

// RemoveFromCartDB deletes the line for the book from the user's cart.
func (c *Conf) RemoveFromCartDB(ctx context.Context, userID string, bookID int64) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := activeCartID(ctx, tx, userID)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE cart_id = $1 AND book_id = $2`, cartID, bookID)
		if err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			return ErrNotInCart
		}
		return nil
	})
}

// ClearCartDB unconditionally deletes every line in the user's cart.
func (c *Conf) ClearCartDB(ctx context.Context, userID string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := activeCartID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

// GetActiveCartItems returns the cart lines joined with live catalog
// prices plus computed totals.
func (c *Conf) GetActiveCartItems(ctx context.Context, userID string) (*CartResponse, error) {
	var items []CartItem

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := activeCartID(ctx, tx, userID)
		if err != nil {
			return err
		}

		queryItems := `
			SELECT ci.book_id, b.title, b.price, ci.quantity
			FROM cart_items ci
			JOIN books b ON b.id = ci.book_id
			WHERE ci.cart_id = $1
			ORDER BY ci.created_at
		`
		rows, err := tx.QueryContext(ctx, queryItems, cartID)
		if err != nil {
			return fmt.Errorf("failed to query cart items: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var item CartItem
			if err := rows.Scan(&item.BookID, &item.Title, &item.Price, &item.Quantity); err != nil {
				return fmt.Errorf("failed to scan cart item: %w", err)
			}
			item.Cost = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			items = append(items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	resp := &CartResponse{Items: items}
	for _, item := range items {
		resp.TotalItems += item.Quantity
		resp.TotalCost = resp.TotalCost.Add(item.Cost)
	}
	return resp, nil
}

// activeCartID finds the user's cart, creating it on first access. The
// row is locked so concurrent mutations of the same cart serialize.
func activeCartID(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	var cartID int64

	queryActiveCart := `
		SELECT id
		FROM carts
		WHERE user_id = $1
		FOR UPDATE
	`
	err := tx.QueryRowContext(ctx, queryActiveCart, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			queryCreateCart := `
				INSERT INTO carts (user_id, created_at, updated_at)
				VALUES ($1, NOW(), NOW())
				RETURNING id
			`
			if err := tx.QueryRowContext(ctx, queryCreateCart, userID).Scan(&cartID); err != nil {
				return 0, fmt.Errorf("failed to create new cart: %w", err)
			}
			return cartID, nil
		}
		return 0, fmt.Errorf("failed to query active cart: %w", err)
	}
	return cartID, nil
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
