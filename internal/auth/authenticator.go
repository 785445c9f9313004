// Package auth resolves bearer tokens to users and filters them by
// permission.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yapa/internal/domain"
	"yapa/internal/repository"
)

const bearerScheme = "bearer"

// Predicate decides whether a resolved user may pass. It is never called
// with a nil user.
type Predicate func(user *domain.User) bool

// Authenticated accepts any resolved user.
func Authenticated(*domain.User) bool { return true }

// Staff accepts staff members and superusers.
func Staff(user *domain.User) bool { return user.IsStaff || user.IsSuperuser }

// Superuser accepts superusers only.
func Superuser(user *domain.User) bool { return user.IsSuperuser }

// TokenLookup is the part of the user store the authenticator needs.
type TokenLookup interface {
	GetByToken(ctx context.Context, token string) (*domain.User, error)
}

type Authenticator struct {
	users TokenLookup
}

func NewAuthenticator(users TokenLookup) *Authenticator {
	return &Authenticator{users: users}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively and the token must be non-empty.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// Resolve maps a raw Authorization header to a user. A missing, malformed
// or unknown token yields (nil, nil); only store failures are errors.
func (a *Authenticator) Resolve(ctx context.Context, header string) (*domain.User, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, nil
	}
	user, err := a.users.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve bearer token: %w", err)
	}
	return user, nil
}

// Authorize resolves the header and applies allow. A user that fails the
// predicate is reported as anonymous.
func (a *Authenticator) Authorize(ctx context.Context, header string, allow Predicate) (*domain.User, error) {
	user, err := a.Resolve(ctx, header)
	if err != nil || user == nil {
		return nil, err
	}
	if allow != nil && !allow(user) {
		return nil, nil
	}
	return user, nil
}
