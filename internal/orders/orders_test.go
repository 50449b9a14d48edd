package orders

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"bookstore-service/internal/promocodes"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConf(t *testing.T) (*Conf, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conf, err := NewConf(db)
	require.NoError(t, err)
	return conf, mock
}

func TestCreateOrderNoCart(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := conf.CreateOrder(context.Background(), 1, "user-1", NewOrder{ShippingAddress: "somewhere"})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderEmptyCart(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT ci.book_id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "title", "price", "quantity", "stock"}))
	mock.ExpectRollback()

	_, err := conf.CreateOrder(context.Background(), 1, "user-1", NewOrder{ShippingAddress: "somewhere"})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT ci.book_id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "title", "price", "quantity", "stock"}).
			AddRow(int64(1), "Dune", "20.00", 5, 2))
	mock.ExpectRollback()

	// No order or item insert is expected; the transaction aborts before
	// any write.
	_, err := conf.CreateOrder(context.Background(), 1, "user-1", NewOrder{ShippingAddress: "somewhere"})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Dune")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderGuardedDecrement(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT ci.book_id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "title", "price", "quantity", "stock"}).
			AddRow(int64(1), "Dune", "20.00", 2, 2))
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))
	mock.ExpectQuery("INSERT INTO order_items").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	// The decrement predicate fails, as if a racing order drained the
	// stock between reads. Nothing commits.
	mock.ExpectExec("UPDATE books").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := conf.CreateOrder(context.Background(), 1, "user-1", NewOrder{ShippingAddress: "somewhere"})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderInvalidPromocode(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT ci.book_id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "title", "price", "quantity", "stock"}).
			AddRow(int64(1), "Dune", "20.00", 1, 5))
	mock.ExpectQuery("FROM promo_codes").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	// The whole order aborts; no order row survives an invalid code.
	_, err := conf.CreateOrder(context.Background(), 1, "user-1",
		NewOrder{ShippingAddress: "somewhere", PromoCode: "EXPIRED"})
	assert.ErrorIs(t, err, promocodes.ErrInvalidOrExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderSuccess(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT ci.book_id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "title", "price", "quantity", "stock"}).
			AddRow(int64(1), "Dune", "20.00", 3, 10))
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))
	mock.ExpectQuery("INSERT INTO order_items").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	// Stock drops by exactly the ordered quantity.
	mock.ExpectExec("UPDATE books").
		WithArgs(3, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cart_items").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := conf.CreateOrder(context.Background(), 1, "user-1", NewOrder{ShippingAddress: "somewhere"})
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, int64(1), order.CustomerID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Dune", order.Items[0].Title)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, "20", order.Items[0].Price.String())
	assert.Equal(t, "60", order.TotalCost().String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
