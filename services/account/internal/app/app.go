package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"kitapsever/internal/util"
	"kitapsever/pkg/auth"
	"kitapsever/pkg/domain"
	"kitapsever/pkg/store"
)

// CommentAuth controls whether posting a comment needs a session.
type CommentAuth string

const (
	CommentAuthOptional CommentAuth = "optional"
	CommentAuthRequired CommentAuth = "required"
)

var emailPattern = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)

// Config holds runtime configuration for the core application.
type Config struct {
	Store       store.Store
	Sessions    store.SessionStore
	CommentAuth CommentAuth
	Now         func() time.Time
}

// App holds account and comment logic independent of HTTP.
type App struct {
	store       store.Store
	sessions    store.SessionStore
	commentAuth CommentAuth
	now         func() time.Time
	checkPass   func(password, hash string) bool
}

func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	switch cfg.CommentAuth {
	case "":
		cfg.CommentAuth = CommentAuthOptional
	case CommentAuthOptional, CommentAuthRequired:
	default:
		return nil, fmt.Errorf("unknown comment auth mode %q", cfg.CommentAuth)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &App{
		store:       cfg.Store,
		sessions:    cfg.Sessions,
		commentAuth: cfg.CommentAuth,
		now:         cfg.Now,
		checkPass:   auth.CheckPassword,
	}, nil
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates an account and returns its profile with a fresh token.
func (a *App) Register(ctx context.Context, in RegisterInput) (domain.Profile, string, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	switch {
	case in.FirstName == "":
		return domain.Profile{}, "", ErrFirstNameRequired
	case in.LastName == "":
		return domain.Profile{}, "", ErrLastNameRequired
	case in.Email == "":
		return domain.Profile{}, "", ErrEmailRequired
	case in.Password == "":
		return domain.Profile{}, "", ErrPasswordRequired
	case !emailPattern.MatchString(in.Email):
		return domain.Profile{}, "", ErrInvalidEmail
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return domain.Profile{}, "", ErrPasswordTooShort
	}

	exists, err := a.store.HasUserEmail(ctx, in.Email)
	if err != nil {
		return domain.Profile{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.Profile{}, "", ErrEmailTaken
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.Profile{}, "", fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           util.NewID(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return domain.Profile{}, "", ErrEmailTaken
		}
		return domain.Profile{}, "", fmt.Errorf("create user: %w", err)
	}
	return a.issue(user)
}

// Login checks the credential and returns the profile with a fresh token.
func (a *App) Login(ctx context.Context, email, password string) (domain.Profile, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Profile{}, "", ErrInvalidCredentials
	}
	user, ok, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.Profile{}, "", fmt.Errorf("get user: %w", err)
	}
	if !ok {
		a.checkPass(password, auth.DecoyHash())
		return domain.Profile{}, "", ErrInvalidCredentials
	}
	if !a.checkPass(password, user.PasswordHash) {
		return domain.Profile{}, "", ErrInvalidCredentials
	}
	return a.issue(user)
}

// UserFromToken resolves a bearer token to its still-existing user.
func (a *App) UserFromToken(ctx context.Context, token string) (domain.User, error) {
	claims, err := a.sessions.ParseSession(token)
	if err != nil {
		if errors.Is(err, store.ErrInvalidToken) || errors.Is(err, store.ErrTokenRevoked) {
			util.LoggerFromContext(ctx).Info("rejected session token", "err", err)
			return domain.User{}, ErrInvalidToken
		}
		return domain.User{}, fmt.Errorf("parse session: %w", err)
	}
	user, ok, err := a.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

// Logout revokes token for the rest of its lifetime.
func (a *App) Logout(ctx context.Context, token string) error {
	return a.sessions.DeleteSession(ctx, token)
}

func (a *App) CommentAuthRequired() bool {
	return a.commentAuth == CommentAuthRequired
}

type CommentInput struct {
	BookID   string
	Username string
	Rating   int
	Text     string
}

// AddComment stores a comment. author is nil for anonymous posts; when set
// the comment is linked to that user and an empty username falls back to
// the author's name.
func (a *App) AddComment(ctx context.Context, in CommentInput, author *domain.User) (domain.Comment, error) {
	if author == nil && a.CommentAuthRequired() {
		return domain.Comment{}, ErrLoginRequired
	}
	in.BookID = strings.TrimSpace(in.BookID)
	in.Username = strings.TrimSpace(in.Username)
	in.Text = strings.TrimSpace(in.Text)
	if in.Username == "" && author != nil {
		in.Username = author.Profile().DisplayName()
	}
	if in.BookID == "" || in.Username == "" || in.Text == "" {
		return domain.Comment{}, ErrCommentFieldsRequired
	}
	if in.Rating < 1 || in.Rating > 5 {
		return domain.Comment{}, ErrInvalidRating
	}
	c := domain.Comment{
		ID:        util.NewID(),
		BookID:    in.BookID,
		Username:  in.Username,
		Rating:    in.Rating,
		Text:      in.Text,
		CreatedAt: a.now().UTC(),
	}
	if author != nil {
		c.UserID = author.ID
	}
	if err := a.store.AddComment(ctx, c); err != nil {
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	return c, nil
}

// ListComments returns the comments for a book, newest first.
func (a *App) ListComments(ctx context.Context, bookID string) ([]domain.Comment, error) {
	comments, err := a.store.ListCommentsByBook(ctx, strings.TrimSpace(bookID))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (a *App) issue(user domain.User) (domain.Profile, string, error) {
	profile := user.Profile()
	token, err := a.sessions.NewSession(profile)
	if err != nil {
		return domain.Profile{}, "", fmt.Errorf("new session: %w", err)
	}
	return profile, token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
