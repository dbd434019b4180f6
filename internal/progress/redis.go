package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mtlprog/pludo/internal/domain"
)

const keyPrefix = "pludo:progress:"

// RedisTracker keeps progress in Redis so every API instance sees the same
// steps. One JSON value per agent, refreshed to TTL on every write.
type RedisTracker struct {
	client *redis.Client
}

// NewRedisTracker connects to the Redis server at redisURL.
func NewRedisTracker(ctx context.Context, redisURL string) (*RedisTracker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("progress tracker connected to redis", "addr", opts.Addr)
	return &RedisTracker{client: client}, nil
}

// NewRedisTrackerFromClient wraps an existing client.
func NewRedisTrackerFromClient(client *redis.Client) *RedisTracker {
	return &RedisTracker{client: client}
}

// Close closes the Redis connection.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}

// Start implements Tracker.
func (t *RedisTracker) Start(ctx context.Context, agentID string) error {
	return t.save(ctx, agentID, domain.NewDeploymentSteps())
}

// Update implements Tracker.
func (t *RedisTracker) Update(ctx context.Context, agentID, stepID string, status domain.StepStatus, message string) error {
	steps, err := t.Get(ctx, agentID)
	if err != nil {
		return err
	}
	if steps == nil {
		steps = domain.NewDeploymentSteps()
	}
	apply(steps, stepID, status, message)
	return t.save(ctx, agentID, steps)
}

// Get implements Tracker.
func (t *RedisTracker) Get(ctx context.Context, agentID string) ([]domain.DeploymentStep, error) {
	raw, err := t.client.Get(ctx, keyPrefix+agentID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	var steps []domain.DeploymentStep
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return steps, nil
}

func (t *RedisTracker) save(ctx context.Context, agentID string, steps []domain.DeploymentStep) error {
	raw, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := t.client.Set(ctx, keyPrefix+agentID, raw, TTL).Err(); err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}
