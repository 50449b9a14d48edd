package middleware

import (
	"fmt"

	"bookstore-service/internal/auth"
)

// Mid holds the dependencies the middleware functions need.
type Mid struct {
	keys *auth.Keys
}

func NewMid(keys *auth.Keys) (Mid, error) {
	if keys == nil {
		return Mid{}, fmt.Errorf("auth keys are nil")
	}
	return Mid{keys: keys}, nil
}
