package util

import (
	"github.com/google/uuid"
)

// NewToken returns a fresh job token. Tokens are random UUIDv4 strings and are
// never derived from request input.
func NewToken() string {
	return uuid.NewString()
}

// IsToken checks if name is a canonical, lower-case job token.
func IsToken(name string) bool {
	if len(name) != 36 {
		return false
	}
	u, err := uuid.Parse(name)
	if err != nil {
		return false
	}
	return u.String() == name
}
