package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/chatrelay/server/internal/chat/model"
	errx "github.com/chatrelay/server/internal/core/error"
	logx "github.com/chatrelay/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// KV is the slice of the Redis command surface the repository needs.
// *redis.Client satisfies it; tests provide an in-memory fake.
type KV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

type RedisSessionRepository struct {
	kv  KV
	ttl time.Duration
}

func NewRedisSessionRepository(kv KV, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{kv: kv, ttl: ttl}
}

func (r *RedisSessionRepository) promptKey(clientID string) string {
	return fmt.Sprintf("prompt:%s", clientID)
}

func (r *RedisSessionRepository) conversationKey(sessionKey string) string {
	return fmt.Sprintf("conversation:%s:messages", sessionKey)
}

func (r *RedisSessionRepository) SetPrompt(ctx context.Context, clientID string, text string) error {
	key := r.promptKey(clientID)
	if err := r.kv.Set(ctx, key, text, 0).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to set system prompt in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) GetPrompt(ctx context.Context, clientID string) (string, bool, error) {
	key := r.promptKey(clientID)
	text, err := r.kv.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to get system prompt from redis")
		return "", false, errx.WrapRedis(err)
	}
	return text, true, nil
}

func (r *RedisSessionRepository) DeletePrompt(ctx context.Context, clientID string) error {
	key := r.promptKey(clientID)
	if err := r.kv.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete system prompt from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) AppendTurn(ctx context.Context, sessionKey string, turn model.Turn) error {
	b, err := turn.Encode()
	if err != nil {
		logx.Error().Err(err).Str("sessionKey", sessionKey).Msg("failed to encode turn")
		return errx.WrapCorrupt(err)
	}
	key := r.conversationKey(sessionKey)

	// append turn
	if err := r.kv.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.kv.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on conversation key")
		}
	}
	return nil
}

func (r *RedisSessionRepository) History(ctx context.Context, sessionKey string) ([]model.Turn, error) {
	key := r.conversationKey(sessionKey)

	rows, err := r.kv.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.Turn{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation history from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]model.Turn, 0, len(rows))
	for i, s := range rows {
		t, err := model.DecodeTurn([]byte(s))
		if err != nil {
			logx.Error().Err(err).Str("sessionKey", sessionKey).Int("index", i).Msg("failed to decode turn")
			return nil, errx.WrapCorrupt(fmt.Errorf("turn at index %d: %w", i, err))
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (r *RedisSessionRepository) ClearHistory(ctx context.Context, sessionKey string) error {
	key := r.conversationKey(sessionKey)
	if err := r.kv.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) HasHistory(ctx context.Context, sessionKey string) (bool, error) {
	key := r.conversationKey(sessionKey)
	n, err := r.kv.Exists(ctx, key).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to check conversation key in redis")
		return false, errx.WrapRedis(err)
	}
	return n == 1, nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
