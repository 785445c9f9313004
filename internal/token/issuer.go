// Package token issues the static bearer tokens handed out at registration.
package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSecret is returned when an issuer is built without a key.
var ErrMissingSecret = errors.New("token secret key is required")

// Issuer signs identity claims into an opaque token. Tokens carry no expiry
// and are never re-verified; the store lookup is the source of truth.
type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &Issuer{secret: []byte(secret)}, nil
}

// Issue returns the same token for the same claims.
func (i *Issuer) Issue(firstName, lastName, email string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
	})
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
