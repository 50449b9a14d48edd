package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateReview = errors.New("customer already reviewed this book")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrReviewNotFound  = errors.New("review not found")
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

// AddReview inserts an unapproved review, enforcing one review per
// (customer, book). The unique constraint backs the pre-check, so a
// racing duplicate still cannot slip in.
func (c *Conf) AddReview(ctx context.Context, customerID int64, nr NewReview) (Review, error) {
	if !ValidRating(nr.Rating) {
		return Review{}, ErrInvalidRating
	}

	var review Review
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		queryExists := `
			SELECT EXISTS (
				SELECT 1 FROM reviews WHERE book_id = $1 AND customer_id = $2
			)
		`
		if err := tx.QueryRowContext(ctx, queryExists, nr.BookID, customerID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if exists {
			return ErrDuplicateReview
		}

		queryInsert := `
			INSERT INTO reviews (book_id, customer_id, rating, comment, is_approved, created_at)
			VALUES ($1, $2, $3, $4, FALSE, NOW())
			RETURNING id, book_id, customer_id, rating, comment, is_approved, created_at
		`
		err := tx.QueryRowContext(ctx, queryInsert, nr.BookID, customerID, nr.Rating, nr.Comment).
			Scan(&review.ID, &review.BookID, &review.CustomerID, &review.Rating,
				&review.Comment, &review.IsApproved, &review.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateReview
			}
			return fmt.Errorf("failed to insert review: %w", err)
		}
		return nil
	})
	if err != nil {
		return Review{}, err
	}
	return review, nil
}

// isUniqueViolation reports whether err is the postgres unique_violation
// error, raised by the (book_id, customer_id) constraint when two
// submissions race past the existence check.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ApproveReview flips the moderation flag. Approving a missing or
// already approved review reports not found.
func (c *Conf) ApproveReview(ctx context.Context, reviewID int64) error {
	query := `
		UPDATE reviews
		SET is_approved = TRUE
		WHERE id = $1 AND is_approved = FALSE
	`
	res, err := c.db.ExecContext(ctx, query, reviewID)
	if err != nil {
		return fmt.Errorf("failed to approve review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ListBookReviews returns a book's reviews, newest first. Unapproved
// reviews are included only when approvedOnly is false.
func (c *Conf) ListBookReviews(ctx context.Context, bookID int64, approvedOnly bool) ([]Review, error) {
	query := `
		SELECT id, book_id, customer_id, rating, comment, is_approved, created_at
		FROM reviews
		WHERE book_id = $1 AND (is_approved = TRUE OR $2 = FALSE)
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query, bookID, approvedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var list []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.BookID, &r.CustomerID, &r.Rating, &r.Comment,
			&r.IsApproved, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		list = append(list, r)
	}
	return list, rows.Err()
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
