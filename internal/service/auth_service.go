package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/observability"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util/errorutil"
)

// TokenTypeBearer is the token_type returned with issued tokens.
const TokenTypeBearer = "Bearer"

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	User         *domain.UserWithRole
	Context      *auth.AuthContext
}

// RefreshResult is returned by a successful refresh.
type RefreshResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}

// AuthService owns the session token lifecycle: login, refresh, logout and validation.
type AuthService struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	tokenMgr *auth.TokenManager
	hasher   *auth.PasswordHasher
	access   *AccessService
	events   events.Dispatcher
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	RoleRepo   repository.RoleRepository
	TokenRepo  repository.TokenRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:    deps.UserRepo,
		tokens:   deps.TokenRepo,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL()).WithClock(now),
		hasher:   auth.NewPasswordHasher(cfg.Auth.PasswordHashAlgorithm, cfg.Auth.BcryptCost, logger),
		access:   NewAccessService(deps.RoleRepo),
		events:   deps.Dispatcher,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      now,
	}
}

// Login verifies credentials and issues a recorded access/refresh pair.
// An unknown email and a wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (result *LoginResult, err error) {
	defer func() { s.metrics.RecordAuth("login", err) }()

	email = normalizeEmail(email)
	user, err := s.users.GetByEmailWithRole(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.publish(ctx, events.NewEvent(events.EventLoginFailed, "", s.now(), events.LoginFailedPayload{Email: email, Reason: "unknown_email"}))
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.publish(ctx, events.NewEvent(events.EventLoginFailed, user.ID, s.now(), events.LoginFailedPayload{Email: email, Reason: "bad_password"}))
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	subject := subjectOf(user)
	accessToken, accessClaims, err := s.tokenMgr.Issue(subject, domain.TokenKindAccess)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refreshToken, refreshClaims, err := s.tokenMgr.Issue(subject, domain.TokenKindRefresh)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	actx, err := s.access.Resolve(ctx, accessClaims)
	if err != nil {
		return nil, err
	}

	if err := s.record(ctx, accessClaims); err != nil {
		return nil, err
	}
	if err := s.record(ctx, refreshClaims); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventLoginSucceeded, user.ID, s.now(), events.LoginSucceededPayload{
		Email:          user.Email,
		RoleTag:        user.RoleSlug,
		AccessTokenID:  accessClaims.ID,
		RefreshTokenID: refreshClaims.ID,
	}))

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(s.tokenMgr.TTL(domain.TokenKindAccess).Seconds()),
		User:         user,
		Context:      actx,
	}, nil
}

// Refresh mints a new access token from a live refresh token. The user and
// role are re-read so role changes since login apply. The refresh token
// itself stays valid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (result *RefreshResult, err error) {
	defer func() { s.metrics.RecordAuth("refresh", err) }()

	claims, err := s.verify(ctx, refreshToken, domain.TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByIDWithRole(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": claims.UserID()})
		}
		return nil, apperrors.NewDependencyUnavailable("user store", err)
	}

	accessToken, accessClaims, err := s.tokenMgr.Issue(subjectOf(user), domain.TokenKindAccess)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.record(ctx, accessClaims); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventTokenRefreshed, user.ID, s.now(), events.TokenRefreshedPayload{
		RefreshTokenID: claims.ID,
		AccessTokenID:  accessClaims.ID,
		RoleTag:        user.RoleSlug,
	}))

	return &RefreshResult{
		AccessToken: accessToken,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(s.tokenMgr.TTL(domain.TokenKindAccess).Seconds()),
	}, nil
}

// Logout revokes every token recorded for ownerID and returns how many were indexed.
// Calling it again revokes nothing and succeeds.
func (s *AuthService) Logout(ctx context.Context, ownerID string) (revoked int, err error) {
	defer func() { s.metrics.RecordAuth("logout", err) }()

	revoked, err = s.tokens.RevokeAll(ctx, ownerID)
	if err != nil {
		return 0, apperrors.NewDependencyUnavailable("token store", err)
	}
	s.logger.Info("sessions revoked", zap.String("user_id", ownerID), zap.Int("tokens", revoked))
	s.publish(ctx, events.NewEvent(events.EventLogout, ownerID, s.now(), events.LogoutPayload{RevokedTokens: revoked}))
	return revoked, nil
}

// ValidateAccess returns the claims of a live access token.
func (s *AuthService) ValidateAccess(ctx context.Context, token string) (*auth.Claims, error) {
	return s.verify(ctx, token, domain.TokenKindAccess)
}

// Authenticate validates an access token and resolves its authorization context.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.AuthContext, error) {
	claims, err := s.ValidateAccess(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.access.Resolve(ctx, claims)
}

// Access exposes the access evaluator.
func (s *AuthService) Access() *AccessService {
	return s.access
}

// Hasher exposes the password hasher for account administration.
func (s *AuthService) Hasher() *auth.PasswordHasher {
	return s.hasher
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// verify parses token, checks its kind and then its liveness, in that order.
func (s *AuthService) verify(ctx context.Context, token string, kind domain.TokenKind) (*auth.Claims, error) {
	claims, err := s.tokenMgr.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperrors.NewTokenExpired(err)
		}
		return nil, apperrors.NewTokenInvalid(err)
	}
	if claims.Kind != kind {
		return nil, apperrors.NewTokenKindMismatch(string(kind), auth.ErrTokenKindMismatch)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, apperrors.NewTokenInvalid(auth.ErrTokenInvalid)
	}
	if _, err := uuid.Parse(claims.RoleID); err != nil {
		return nil, apperrors.NewTokenInvalid(auth.ErrTokenInvalid)
	}

	live, err := s.tokens.IsLive(ctx, claims.ID, kind)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("token store", err)
	}
	if !live {
		return nil, apperrors.NewTokenRevoked(auth.ErrTokenRevoked)
	}
	return claims, nil
}

func (s *AuthService) record(ctx context.Context, claims *auth.Claims) error {
	if err := s.tokens.Record(ctx, claims.ID, claims.UserID(), claims.Kind, s.tokenMgr.TTL(claims.Kind)); err != nil {
		return apperrors.NewDependencyUnavailable("token store", err)
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("audit event delivery failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func subjectOf(user *domain.UserWithRole) auth.TokenSubject {
	return auth.TokenSubject{
		UserID:  user.ID,
		Email:   user.Email,
		RoleID:  user.RoleID,
		RoleTag: user.RoleSlug,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
