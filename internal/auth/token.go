package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/blog-service/internal/domain"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed tokens and incomplete claims.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired indicates the exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenKindMismatch indicates an access token used for refresh or vice versa.
	ErrTokenKindMismatch = errors.New("token kind mismatch")
	// ErrTokenRevoked indicates the token is absent from the revocation store.
	ErrTokenRevoked = errors.New("token revoked")
)

// TokenSubject is the identity a token is minted for.
type TokenSubject struct {
	UserID  string
	Email   string
	RoleID  string
	RoleTag string
}

// Claims describes JWT payload.
type Claims struct {
	Email   string           `json:"email"`
	RoleID  string           `json:"role_id"`
	RoleTag string           `json:"role_tag"`
	Kind    domain.TokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	if now != nil {
		tm.now = now
	}
	return tm
}

// TTL returns the lifetime of tokens of the given kind.
func (tm *TokenManager) TTL(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenKindRefresh {
		return tm.refreshTTL
	}
	return tm.accessTTL
}

// Issue builds and signs a token of the given kind with a fresh token identifier.
func (tm *TokenManager) Issue(subject TokenSubject, kind domain.TokenKind) (string, *Claims, error) {
	if !kind.Valid() {
		return "", nil, fmt.Errorf("unknown token kind %q", kind)
	}
	if strings.TrimSpace(subject.UserID) == "" {
		return "", nil, errors.New("subject user id is required")
	}

	now := tm.now()
	claims := &Claims{
		Email:   subject.Email,
		RoleID:  subject.RoleID,
		RoleTag: subject.RoleTag,
		Kind:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.TTL(kind))),
		},
	}

	tokenString, err := tm.Sign(claims)
	if err != nil {
		return "", nil, err
	}
	return tokenString, claims, nil
}

// Sign serializes and signs claims as-is.
func (tm *TokenManager) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Parse validates signature, structure and expiry and returns the claims.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.ID == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: required claims missing", ErrTokenInvalid)
	}
	if !claims.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown token type %q", ErrTokenInvalid, claims.Kind)
	}
	return claims, nil
}
