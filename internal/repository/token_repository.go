package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/blog-service/internal/domain"
)

const (
	accessTokenPrefix  = "access_token:"
	refreshTokenPrefix = "refresh_token:"
	userTokensPrefix   = "user_tokens:"
)

// TokenRepository tracks which issued tokens are live.
//
// A token is live exactly while its key exists. Keys expire together with
// the token. Each owner has an index of recorded token ids that is only
// cleared by RevokeAll; ids left behind by natural expiry are inert.
type TokenRepository interface {
	// Record marks tokenID live for ttl and adds it to the owner's index.
	Record(ctx context.Context, tokenID, ownerID string, kind domain.TokenKind, ttl time.Duration) error
	// IsLive reports whether tokenID of the given kind is still recorded.
	IsLive(ctx context.Context, tokenID string, kind domain.TokenKind) (bool, error)
	// RevokeAll removes every token recorded for ownerID and then the index
	// itself, returning how many token ids were indexed.
	//
	// RevokeAll is not linearizable with a concurrent Record for the same
	// owner: a token recorded while RevokeAll runs may survive it.
	RevokeAll(ctx context.Context, ownerID string) (int, error)
}

type redisTokenRepository struct {
	client *redis.Client
}

// NewTokenRepository returns a Redis-backed implementation.
func NewTokenRepository(client *redis.Client) TokenRepository {
	return &redisTokenRepository{client: client}
}

func (r *redisTokenRepository) Record(ctx context.Context, tokenID, ownerID string, kind domain.TokenKind, ttl time.Duration) error {
	key, err := TokenKey(tokenID, kind)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("record token %s: ttl must be positive", tokenID)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, ownerID, ttl)
		pipe.SAdd(ctx, UserTokensKey(ownerID), tokenID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record token %s: %w", tokenID, err)
	}
	return nil
}

func (r *redisTokenRepository) IsLive(ctx context.Context, tokenID string, kind domain.TokenKind) (bool, error) {
	key, err := TokenKey(tokenID, kind)
	if err != nil {
		return false, err
	}
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check token %s: %w", tokenID, err)
	}
	return n > 0, nil
}

func (r *redisTokenRepository) RevokeAll(ctx context.Context, ownerID string) (int, error) {
	indexKey := UserTokensKey(ownerID)

	tokenIDs, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("list tokens for %s: %w", ownerID, err)
	}

	keys := make([]string, 0, 2*len(tokenIDs)+1)
	for _, id := range tokenIDs {
		keys = append(keys, accessTokenPrefix+id, refreshTokenPrefix+id)
	}
	keys = append(keys, indexKey)

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("revoke tokens for %s: %w", ownerID, err)
	}
	return len(tokenIDs), nil
}

// TokenKey returns the liveness key for a token id of the given kind.
func TokenKey(tokenID string, kind domain.TokenKind) (string, error) {
	switch kind {
	case domain.TokenKindAccess:
		return accessTokenPrefix + tokenID, nil
	case domain.TokenKindRefresh:
		return refreshTokenPrefix + tokenID, nil
	default:
		return "", fmt.Errorf("unknown token kind %q", kind)
	}
}

// UserTokensKey returns the key of the owner's live-token index.
func UserTokensKey(ownerID string) string {
	return userTokensPrefix + ownerID
}
