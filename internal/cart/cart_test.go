package cart

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConf(t *testing.T) (Conf, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conf, err := NewConf(db)
	require.NoError(t, err)
	return conf, mock
}

func TestAddToCartOutOfStock(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT quantity FROM books").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(0))
	mock.ExpectRollback()

	err := conf.AddToCartDB(context.Background(), "user-1", 1, 1)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCartUnknownBook(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT quantity FROM books").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := conf.AddToCartDB(context.Background(), "user-1", 99, 1)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCartInsufficientStockNewLine(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT quantity FROM books").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(2))
	mock.ExpectQuery("SELECT id, quantity FROM cart_items").
		WithArgs(int64(7), int64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	// No insert is expected; the cart stays untouched.
	err := conf.AddToCartDB(context.Background(), "user-1", 1, 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCartInsufficientStockExistingLine(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT quantity FROM books").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(3))
	mock.ExpectQuery("SELECT id, quantity FROM cart_items").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow(int64(11), 2))
	mock.ExpectRollback()

	// 2 already in the cart plus 2 more exceeds stock of 3.
	err := conf.AddToCartDB(context.Background(), "user-1", 1, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCartCreatesCartLazily(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT quantity FROM books").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(10))
	mock.ExpectQuery("SELECT id, quantity FROM cart_items").
		WithArgs(int64(7), int64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(int64(7), int64(1), 3).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := conf.AddToCartDB(context.Background(), "user-1", 1, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddToCartAccumulatesExistingLine(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT quantity FROM books").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(10))
	mock.ExpectQuery("SELECT id, quantity FROM cart_items").
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow(int64(11), 2))
	mock.ExpectExec("UPDATE cart_items").
		WithArgs(5, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := conf.AddToCartDB(context.Background(), "user-1", 1, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveFromCartNotInCart(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("DELETE FROM cart_items").
		WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := conf.RemoveFromCartDB(context.Background(), "user-1", 1)
	assert.ErrorIs(t, err, ErrNotInCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearCart(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("DELETE FROM cart_items").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := conf.ClearCartDB(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveCartItemsTotals(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM carts").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT ci.book_id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "title", "price", "quantity"}).
			AddRow(int64(1), "Dune", "20.00", 3).
			AddRow(int64(2), "Solaris", "5.50", 1))
	mock.ExpectCommit()

	resp, err := conf.GetActiveCartItems(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "60", resp.Items[0].Cost.String())
	assert.Equal(t, 4, resp.TotalItems)
	assert.Equal(t, "65.5", resp.TotalCost.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
