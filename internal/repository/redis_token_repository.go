package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lesson-server/internal/models"
)

// Compile-time check to ensure redisTokenRepository implements TokenRepository
var _ TokenRepository = (*redisTokenRepository)(nil)

type redisTokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenRepository создает Redis-реализацию TokenRepository.
func NewRedisTokenRepository(client *redis.Client, logger *zap.Logger) TokenRepository {
	return &redisTokenRepository{
		client: client,
		logger: logger.Named("RedisTokenRepo"),
	}
}

func accessKey(accessUUID string) string   { return "access_uuid:" + accessUUID }
func refreshKey(refreshUUID string) string { return "refresh_uuid:" + refreshUUID }
func userSetKey(userID uuid.UUID) string   { return "user_tokens:" + userID.String() }

// SetToken сохраняет пару токенов: два ключа UUID -> userID с TTL и
// набор идентификаторов токенов пользователя для массового отзыва.
func (r *redisTokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	now := time.Now()
	accessTTL := time.Unix(td.AtExpires, 0).Sub(now)
	refreshTTL := time.Unix(td.RtExpires, 0).Sub(now)
	userIDStr := userID.String()

	pipe := r.client.Pipeline()
	pipe.Set(ctx, accessKey(td.AccessUUID), userIDStr, accessTTL)
	pipe.Set(ctx, refreshKey(td.RefreshUUID), userIDStr, refreshTTL)
	pipe.SAdd(ctx, userSetKey(userID), "access:"+td.AccessUUID, "refresh:"+td.RefreshUUID)
	pipe.Expire(ctx, userSetKey(userID), refreshTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to set token details in redis", zap.Error(err), zap.String("userID", userIDStr))
		return fmt.Errorf("failed to set token details in redis: %w", err)
	}
	return nil
}

func (r *redisTokenRepository) getUserID(ctx context.Context, key string) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, models.ErrInvalidToken
		}
		r.logger.Error("Failed to get token from redis", zap.Error(err), zap.String("key", key))
		return uuid.Nil, fmt.Errorf("failed to get token from redis: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		r.logger.Error("Corrupted userID in redis token entry", zap.String("key", key), zap.String("value", val))
		return uuid.Nil, models.ErrInvalidToken
	}
	return id, nil
}

func (r *redisTokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	return r.getUserID(ctx, accessKey(accessUUID))
}

func (r *redisTokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	return r.getUserID(ctx, refreshKey(refreshUUID))
}

// DeleteTokens удаляет конкретную пару токенов пользователя.
func (r *redisTokenRepository) DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error) {
	pipe := r.client.Pipeline()
	delCmd := pipe.Del(ctx, accessKey(accessUUID), refreshKey(refreshUUID))
	pipe.SRem(ctx, userSetKey(userID), "access:"+accessUUID, "refresh:"+refreshUUID)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete tokens from redis", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to delete tokens from redis: %w", err)
	}
	return delCmd.Val(), nil
}

// DeleteTokensByUserID отзывает все токены пользователя.
func (r *redisTokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	setKey := userSetKey(userID)
	identifiers, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		r.logger.Error("Failed to read user token set", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to read user token set: %w", err)
	}
	if len(identifiers) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(identifiers)+1)
	for _, ident := range identifiers {
		switch {
		case len(ident) > 7 && ident[:7] == "access:":
			keys = append(keys, accessKey(ident[7:]))
		case len(ident) > 8 && ident[:8] == "refresh:":
			keys = append(keys, refreshKey(ident[8:]))
		}
	}
	keys = append(keys, setKey)

	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		r.logger.Error("Failed to delete user tokens", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}
	return deleted, nil
}
