// Package accountclient talks to the account service HTTP API.
package accountclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kitapsever/pkg/domain"
)

// APIError is a non-2xx answer from the account service. Message is the
// server's user-facing text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("account service returned %d", e.Status)
}

// IsUnauthorized reports whether err is a 401 from the account service.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type CommentRequest struct {
	BookID   string `json:"bookId"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Text     string `json:"text"`
}

// AuthResult is the body of a successful register or login.
type AuthResult struct {
	Message string         `json:"message"`
	Token   string         `json:"token"`
	User    domain.Profile `json:"user"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *domain.Profile `json:"user"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &env); err != nil {
		return AuthResult{}, err
	}
	return authResult(env)
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &env); err != nil {
		return AuthResult{}, err
	}
	return authResult(env)
}

// Me resolves token to the profile it belongs to.
func (c *Client) Me(ctx context.Context, token string) (domain.Profile, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &env); err != nil {
		return domain.Profile{}, err
	}
	if env.User == nil {
		return domain.Profile{}, errors.New("account service returned no user")
	}
	return *env.User, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

// AddComment posts a comment; token may be empty for anonymous comments.
func (c *Client) AddComment(ctx context.Context, token string, req CommentRequest) (domain.Comment, error) {
	var out domain.Comment
	if err := c.do(ctx, http.MethodPost, "/api/comments", token, req, &out); err != nil {
		return domain.Comment{}, err
	}
	return out, nil
}

// Comments lists a book's comments, newest first.
func (c *Client) Comments(ctx context.Context, bookID string) ([]domain.Comment, error) {
	var out []domain.Comment
	if err := c.do(ctx, http.MethodGet, "/api/comments/"+url.PathEscape(bookID), "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func authResult(env envelope) (AuthResult, error) {
	if env.Token == "" || env.User == nil {
		return AuthResult{}, errors.New("account service returned no session")
	}
	return AuthResult{Message: env.Message, Token: env.Token, User: *env.User}, nil
}
