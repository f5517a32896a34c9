package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

const redisKeyPrefix = "transcript:"

type redisHistoryRepository struct {
	client *redis.Client
}

func NewRedisHistoryRepository(ctx context.Context, addr, password string, db int) (*redisHistoryRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", addr, err)
	}

	return &redisHistoryRepository{client: client}, nil
}

func (r *redisHistoryRepository) key(userID int64) string {
	return redisKeyPrefix + string(userKey(userID))
}

func (r *redisHistoryRepository) Load(ctx context.Context, userID int64) ([]domain.Turn, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	return decodeTurns(data)
}

// Save relies on SET replacing the whole value atomically.
func (r *redisHistoryRepository) Save(ctx context.Context, userID int64, turns []domain.Turn) error {
	data, err := encodeTurns(turns)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	return nil
}

func (r *redisHistoryRepository) Clear(ctx context.Context, userID int64) error {
	return r.Save(ctx, userID, nil)
}

func (r *redisHistoryRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisHistoryRepository) Close() error {
	return r.client.Close()
}
