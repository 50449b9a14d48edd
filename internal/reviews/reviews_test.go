package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
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

func TestAddReviewRejectsInvalidRating(t *testing.T) {
	conf, _ := newTestConf(t)

	_, err := conf.AddReview(context.Background(), 1, NewReview{BookID: 1, Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestAddReviewDuplicatePreCheck(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := conf.AddReview(context.Background(), 2, NewReview{BookID: 1, Rating: 4})
	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddReviewDuplicateRace(t *testing.T) {
	conf, mock := newTestConf(t)

	// A concurrent submission slips between the existence check and the
	// insert; the unique constraint fires and must map to the duplicate
	// error, not a generic failure.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO reviews").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := conf.AddReview(context.Background(), 2, NewReview{BookID: 1, Rating: 4})
	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddReviewStartsUnapproved(t *testing.T) {
	conf, mock := newTestConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO reviews").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "book_id", "customer_id", "rating", "comment", "is_approved", "created_at"}).
			AddRow(int64(5), int64(1), int64(2), 4, "good read", false, time.Now()))
	mock.ExpectCommit()

	review, err := conf.AddReview(context.Background(), 2, NewReview{BookID: 1, Rating: 4, Comment: "good read"})
	require.NoError(t, err)
	assert.False(t, review.IsApproved)
	assert.Equal(t, 4, review.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}
