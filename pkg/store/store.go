package store

import (
	"context"
	"errors"

	"kitapsever/pkg/domain"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrInvalidToken   = errors.New("invalid session token")
	ErrTokenRevoked   = errors.New("session token revoked")
)

// Store defines persistence operations for accounts and server-side comments.
type Store interface {
	// users
	CreateUser(ctx context.Context, u domain.User) error
	HasUserEmail(ctx context.Context, email string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error)
	GetUserByID(ctx context.Context, id string) (domain.User, bool, error)

	// comments
	AddComment(ctx context.Context, c domain.Comment) error
	ListCommentsByBook(ctx context.Context, bookID string) ([]domain.Comment, error)
}

// SessionStore issues and validates session tokens.
type SessionStore interface {
	NewSession(p domain.Profile) (string, error)
	ParseSession(token string) (SessionClaims, error)
	DeleteSession(ctx context.Context, token string) error
}
