package promocodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOrExpired is returned when a code is unknown, inactive or
// outside its validity window.
var ErrInvalidOrExpired = errors.New("invalid or expired promocode")

// Querier is the subset of database/sql needed for a lookup, so the
// validator can run inside a caller's transaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LookupValid finds an active code whose validity window contains the
// given day. It runs against any Querier, typically the order
// transaction.
func LookupValid(ctx context.Context, q Querier, code string, day time.Time) (PromoCode, error) {
	query := `
		SELECT id, code, discount_percent, active, valid_from, valid_to
		FROM promo_codes
		WHERE code = $1 AND active = TRUE AND valid_from <= $2 AND valid_to >= $2
	`
	var p PromoCode
	err := q.QueryRowContext(ctx, query, code, day.Format("2006-01-02")).
		Scan(&p.ID, &p.Code, &p.DiscountPercent, &p.Active, &p.ValidFrom, &p.ValidTo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PromoCode{}, ErrInvalidOrExpired
		}
		return PromoCode{}, fmt.Errorf("failed to query promocode: %w", err)
	}
	return p, nil
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

func (c *Conf) InsertPromoCode(ctx context.Context, np NewPromoCode) (PromoCode, error) {
	query := `
		INSERT INTO promo_codes (code, discount_percent, active, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, code, discount_percent, active, valid_from, valid_to
	`
	var p PromoCode
	err := c.db.QueryRowContext(ctx, query, np.Code, np.DiscountPercent, np.Active,
		np.ValidFrom.Format("2006-01-02"), np.ValidTo.Format("2006-01-02")).
		Scan(&p.ID, &p.Code, &p.DiscountPercent, &p.Active, &p.ValidFrom, &p.ValidTo)
	if err != nil {
		return PromoCode{}, fmt.Errorf("failed to insert promocode: %w", err)
	}
	return p, nil
}

func (c *Conf) ListPromoCodes(ctx context.Context) ([]PromoCode, error) {
	query := `
		SELECT id, code, discount_percent, active, valid_from, valid_to
		FROM promo_codes
		ORDER BY valid_to DESC
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list promocodes: %w", err)
	}
	defer rows.Close()

	var list []PromoCode
	for rows.Next() {
		var p PromoCode
		if err := rows.Scan(&p.ID, &p.Code, &p.DiscountPercent, &p.Active, &p.ValidFrom, &p.ValidTo); err != nil {
			return nil, fmt.Errorf("failed to scan promocode: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
