package progress

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/pludo/internal/domain"
)

func statuses(steps []domain.DeploymentStep) []domain.StepStatus {
	out := make([]domain.StepStatus, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Status)
	}
	return out
}

// exerciseTracker runs the behavior shared by every Tracker.
func exerciseTracker(t *testing.T, tracker Tracker) {
	t.Helper()
	ctx := context.Background()
	agentID := uuid.NewString()

	steps, err := tracker.Get(ctx, agentID)
	require.NoError(t, err)
	assert.Nil(t, steps)

	require.NoError(t, tracker.Start(ctx, agentID))
	require.NoError(t, tracker.Update(ctx, agentID, domain.StepGenerate, domain.StepSuccess, ""))
	require.NoError(t, tracker.Update(ctx, agentID, domain.StepUpload, domain.StepError, "permission denied"))

	steps, err = tracker.Get(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, []domain.StepStatus{domain.StepSuccess, domain.StepError, domain.StepPending}, statuses(steps))
	assert.Equal(t, "permission denied", steps[1].Message)

	require.NoError(t, tracker.Start(ctx, agentID))
	steps, err = tracker.Get(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, []domain.StepStatus{domain.StepPending, domain.StepPending, domain.StepPending}, statuses(steps))
}

func TestMemoryTracker(t *testing.T) {
	exerciseTracker(t, NewMemoryTracker())
}

func TestMemoryTracker_UpdateWithoutStart(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()

	require.NoError(t, tracker.Update(ctx, "a1", domain.StepDeploy, domain.StepLoading, ""))

	steps, err := tracker.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, []domain.StepStatus{domain.StepPending, domain.StepPending, domain.StepLoading}, statuses(steps))
}

func TestMemoryTracker_Expires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewMemoryTracker()
	tracker.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, "a1"))

	now = now.Add(TTL - time.Second)
	steps, err := tracker.Get(ctx, "a1")
	require.NoError(t, err)
	assert.NotNil(t, steps)

	now = now.Add(time.Second)
	steps, err = tracker.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, steps)
}

func TestMemoryTracker_GetReturnsCopy(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()
	require.NoError(t, tracker.Start(ctx, "a1"))

	steps, err := tracker.Get(ctx, "a1")
	require.NoError(t, err)
	steps[0].Status = domain.StepError

	steps, err = tracker.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepPending, steps[0].Status)
}

func TestRedisTracker(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	tracker, err := NewRedisTracker(context.Background(), redisURL)
	require.NoError(t, err)
	defer tracker.Close()

	exerciseTracker(t, tracker)
}

func TestRedisTracker_WritesRefreshTTL(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	tracker := NewRedisTrackerFromClient(client)
	agentID := uuid.NewString()
	key := keyPrefix + agentID
	defer client.Del(ctx, key)

	require.NoError(t, tracker.Start(ctx, agentID))
	require.NoError(t, client.Expire(ctx, key, time.Minute).Err())

	require.NoError(t, tracker.Update(ctx, agentID, domain.StepUpload, domain.StepLoading, ""))

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, TTL-time.Minute)
	assert.LessOrEqual(t, ttl, TTL)
}
