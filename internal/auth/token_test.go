package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/blog-service/internal/domain"
)

var testSubject = TokenSubject{
	UserID:  "5f0c2d4e-8a1b-4c3d-9e2f-0a1b2c3d4e5f",
	Email:   "a@b.com",
	RoleID:  "0b9d7c1a-2e3f-4a5b-8c6d-7e8f9a0b1c2d",
	RoleTag: domain.RoleSlugAdmin,
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestIssueAndParse(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tm := NewTokenManager("test-secret", time.Hour, 7*24*time.Hour).WithClock(fixedClock(now))

	for _, kind := range []domain.TokenKind{domain.TokenKindAccess, domain.TokenKindRefresh} {
		token, issued, err := tm.Issue(testSubject, kind)
		if err != nil {
			t.Fatalf("Issue(%s): %v", kind, err)
		}
		claims, err := tm.Parse(token)
		if err != nil {
			t.Fatalf("Parse(%s): %v", kind, err)
		}
		if claims.UserID() != testSubject.UserID || claims.Email != testSubject.Email {
			t.Fatalf("identity not preserved: %+v", claims)
		}
		if claims.RoleID != testSubject.RoleID || claims.RoleTag != testSubject.RoleTag {
			t.Fatalf("role not preserved: %+v", claims)
		}
		if claims.Kind != kind || claims.ID != issued.ID {
			t.Fatalf("unexpected kind/jti: %s/%s", claims.Kind, claims.ID)
		}
		if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != tm.TTL(kind) {
			t.Fatalf("expected lifetime %v, got %v", tm.TTL(kind), got)
		}
	}
}

func TestIssueGeneratesUniqueIdentifiers(t *testing.T) {
	tm := NewTokenManager("test-secret", 0, 0)
	first, c1, err := tm.Issue(testSubject, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, c2, err := tm.Issue(testSubject, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if first == second || c1.ID == c2.ID {
		t.Fatalf("expected distinct tokens and identifiers")
	}
}

func TestSignIsDeterministic(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, time.Hour)
	_, claims, err := tm.Issue(testSubject, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	a, err := tm.Sign(claims)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	b, err := tm.Sign(claims)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if a != b {
		t.Fatalf("same claims and secret must produce the same token")
	}
}

func TestParseExpiredToken(t *testing.T) {
	now := time.Now()
	tm := NewTokenManager("test-secret", time.Hour, time.Hour).WithClock(fixedClock(now))

	claims := &Claims{
		RoleID:  testSubject.RoleID,
		RoleTag: testSubject.RoleTag,
		Kind:    domain.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testSubject.UserID,
			ID:        "expired-jti",
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second)),
		},
	}
	token, err := tm.Sign(claims)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := tm.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseRejectsTamperedTokens(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, time.Hour)
	token, _, err := tm.Issue(testSubject, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewTokenManager("other-secret", time.Hour, time.Hour)
	foreign, _, err := other.Issue(testSubject, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Kind: domain.TokenKindAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: "x", ID: "y"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString(none): %v", err)
	}

	cases := map[string]string{
		"empty":           "",
		"garbage":         "not-a-jwt",
		"foreign secret":  foreign,
		"forged sig":      forged,
		"alg none":        unsigned,
		"truncated":       parts[0] + "." + parts[1],
		"corrupt payload": parts[0] + ".e30x." + parts[2],
	}
	for name, candidate := range cases {
		if _, err := tm.Parse(candidate); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}

func TestParseRejectsIncompleteClaims(t *testing.T) {
	now := time.Now()
	tm := NewTokenManager("test-secret", time.Hour, time.Hour).WithClock(fixedClock(now))

	base := func() *Claims {
		return &Claims{
			Kind: domain.TokenKindAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   testSubject.UserID,
				ID:        "jti",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
		}
	}

	noSubject := base()
	noSubject.Subject = ""
	noID := base()
	noID.ID = ""
	badKind := base()
	badKind.Kind = "session"
	noExpiry := base()
	noExpiry.ExpiresAt = nil

	for name, claims := range map[string]*Claims{"no subject": noSubject, "no jti": noID, "bad kind": badKind, "no exp": noExpiry} {
		token, err := tm.Sign(claims)
		if err != nil {
			t.Fatalf("%s: Sign: %v", name, err)
		}
		if _, err := tm.Parse(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}

func TestIssueRejectsUnknownKind(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, time.Hour)
	if _, _, err := tm.Issue(testSubject, "session"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, _, err := tm.Issue(TokenSubject{}, domain.TokenKindAccess); err == nil {
		t.Fatalf("expected error for missing subject")
	}
}
