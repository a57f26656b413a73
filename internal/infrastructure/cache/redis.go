package cache

import (
	"context"
	"fmt"
	"time"

	"careplan-service/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const connectTimeout = 30 * time.Second

// NewRedisClient connects the job broker, retrying with exponential backoff
// until Redis answers a ping or ctx ends.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *logrus.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ping := func() error {
		return client.Ping(ctx).Err()
	}
	policy := backoff.WithContext(backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(connectTimeout)), ctx)
	notify := func(err error, wait time.Duration) {
		log.Warnf("Redis not ready, retrying in %s: %v", wait, err)
	}
	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Successfully connected to Redis")

	return client, nil
}
