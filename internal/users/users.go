package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken             = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrCustomerProfileMissing = errors.New("customer profile missing")
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

// InsertUser hashes the password and creates the user with the USER role.
func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var exists bool
	err = c.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, nu.Email).Scan(&exists)
	if err != nil {
		return User{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return User{}, ErrEmailTaken
	}

	user := User{
		ID:    uuid.NewString(),
		Name:  nu.Name,
		Email: nu.Email,
		Roles: []string{"USER"},
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = c.db.QueryRowContext(ctx, query, user.ID, user.Name, user.Email, hash,
		strings.Join(user.Roles, ",")).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// AuthenticateUser checks the credentials and returns the stored user.
func (c *Conf) AuthenticateUser(ctx context.Context, email, password string) (User, error) {
	var user User
	var hash []byte
	var roles string

	query := `
		SELECT id, name, email, password_hash, roles, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	err := c.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Name, &user.Email, &hash, &roles, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	user.Roles = strings.Split(roles, ",")
	return user, nil
}

// UpsertCustomerProfile creates or overwrites the purchasing profile for
// a user.
func (c *Conf) UpsertCustomerProfile(ctx context.Context, userID string, nc NewCustomer) (Customer, error) {
	query := `
		INSERT INTO customers (user_id, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET phone = EXCLUDED.phone, address = EXCLUDED.address, updated_at = NOW()
		RETURNING id, user_id, phone, address, created_at, updated_at
	`
	var cust Customer
	err := c.db.QueryRowContext(ctx, query, userID, nc.Phone, nc.Address).
		Scan(&cust.ID, &cust.UserID, &cust.Phone, &cust.Address, &cust.CreatedAt, &cust.UpdatedAt)
	if err != nil {
		return Customer{}, fmt.Errorf("failed to upsert customer profile: %w", err)
	}
	return cust, nil
}

// GetCustomerByUserID resolves the purchasing profile, returning
// ErrCustomerProfileMissing when the user never completed one.
func (c *Conf) GetCustomerByUserID(ctx context.Context, userID string) (Customer, error) {
	query := `
		SELECT id, user_id, phone, address, created_at, updated_at
		FROM customers
		WHERE user_id = $1
	`
	var cust Customer
	err := c.db.QueryRowContext(ctx, query, userID).
		Scan(&cust.ID, &cust.UserID, &cust.Phone, &cust.Address, &cust.CreatedAt, &cust.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Customer{}, ErrCustomerProfileMissing
		}
		return Customer{}, fmt.Errorf("failed to query customer: %w", err)
	}
	return cust, nil
}
