package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cachedPayload struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	repo := NewCacheRepository(client, zap.NewNop())
	ctx := context.Background()

	var out cachedPayload
	assert.ErrorIs(t, repo.Get(ctx, "ranking:x", &out), ErrCacheMiss)

	in := cachedPayload{Labels: []string{"Finance"}, Scores: []float64{0.4}}
	require.NoError(t, repo.Set(ctx, "ranking:x", in, time.Minute))
	require.NoError(t, repo.Get(ctx, "ranking:x", &out))
	assert.Equal(t, in, out)

	srv.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "ranking:x", &out), ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	repo := NewCacheRepository(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "ranking:a", 1, 0))
	require.NoError(t, repo.Set(ctx, "ranking:b", 2, 0))
	require.NoError(t, repo.Set(ctx, "other", 3, 0))
	require.NoError(t, repo.DeleteByPattern(ctx, "ranking:*"))

	assert.False(t, srv.Exists("ranking:a"))
	assert.True(t, srv.Exists("other"))
}

func TestCacheRepositoryNilClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var out int
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &out), ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", 1, time.Second))
}
