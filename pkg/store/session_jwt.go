package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"kitapsever/pkg/domain"
)

const (
	defaultJWTIssuer   = "kitapsever-account"
	defaultJWTAudience = "kitapsever-site"

	// DefaultSessionTTL is how long an issued token stays valid.
	DefaultSessionTTL = 24 * time.Hour
)

var defaultJWTLeeway = 30 * time.Second

// JWTOptions configures JWT claim validation behavior.
type JWTOptions struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// SessionClaims is the token payload: the public profile plus registered claims.
type SessionClaims struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	jwt.RegisteredClaims
}

func (c SessionClaims) Profile() domain.Profile {
	return domain.Profile{ID: c.UserID, Email: c.Email, FirstName: c.FirstName, LastName: c.LastName}
}

// JWTSessionStore issues HS256 tokens signed with a shared secret.
type JWTSessionStore struct {
	secret   []byte
	ttl      time.Duration
	revoker  TokenRevoker
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

func NewJWTSessionStore(secret string, ttl time.Duration, revoker TokenRevoker, opts JWTOptions) (*JWTSessionStore, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	opts = normalizeJWTOptions(opts)
	return &JWTSessionStore{
		secret:   []byte(secret),
		ttl:      ttl,
		revoker:  revoker,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		leeway:   opts.Leeway,
		now:      time.Now,
	}, nil
}

// NewSession signs a token carrying the profile.
func (s *JWTSessionStore) NewSession(p domain.Profile) (string, error) {
	if strings.TrimSpace(p.ID) == "" {
		return "", errors.New("session requires a user id")
	}
	now := s.now().UTC()
	claims := SessionClaims{
		UserID:    p.ID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        newTokenID(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseSession verifies signature, issuer, audience, expiry and revocation.
// Every failure wraps ErrInvalidToken or ErrTokenRevoked.
func (s *JWTSessionStore) ParseSession(token string) (SessionClaims, error) {
	claims, err := s.parseAndVerify(token)
	if err != nil {
		return SessionClaims{}, err
	}
	if s.revoker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return SessionClaims{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return SessionClaims{}, ErrTokenRevoked
		}
	}
	return claims, nil
}

// DeleteSession revokes the token until it would have expired. Invalid
// tokens are ignored.
func (s *JWTSessionStore) DeleteSession(ctx context.Context, token string) error {
	if s.revoker == nil {
		return nil
	}
	claims, err := s.parseAndVerify(token)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time.Sub(s.now()))
}

func (s *JWTSessionStore) parseAndVerify(token string) (SessionClaims, error) {
	claims := SessionClaims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(s.leeway),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return SessionClaims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.ID) == "" {
		return SessionClaims{}, fmt.Errorf("%w: missing id or jti", ErrInvalidToken)
	}
	return claims, nil
}

func normalizeJWTOptions(opts JWTOptions) JWTOptions {
	opts.Issuer = strings.TrimSpace(opts.Issuer)
	opts.Audience = strings.TrimSpace(opts.Audience)
	if opts.Issuer == "" {
		opts.Issuer = defaultJWTIssuer
	}
	if opts.Audience == "" {
		opts.Audience = defaultJWTAudience
	}
	if opts.Leeway <= 0 {
		opts.Leeway = defaultJWTLeeway
	}
	return opts
}
