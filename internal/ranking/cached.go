package ranking

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/repository"
)

// Cache is the JSON cache the scorer wrapper writes through.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedScorer memoizes successful responses. Cache failures never fail a call.
type CachedScorer struct {
	inner  Scorer
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedScorer wraps inner. A zero ttl disables caching.
func NewCachedScorer(inner Scorer, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedScorer{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

// CacheKey hashes query and labels in order; the classifier output depends on both.
func CacheKey(query string, labels []string) string {
	h := sha256.New()
	h.Write([]byte(query))
	for _, label := range labels {
		h.Write([]byte{0})
		h.Write([]byte(label))
	}
	return "ranking:" + hex.EncodeToString(h.Sum(nil))
}

// Score serves from cache when possible and stores fresh results afterwards.
func (s *CachedScorer) Score(ctx context.Context, query string, labels []string) (*Scores, error) {
	if s.cache == nil || s.ttl <= 0 {
		return s.inner.Score(ctx, query, labels)
	}

	key := CacheKey(query, labels)
	var cached Scores
	err := s.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		return &cached, nil
	case !errors.Is(err, repository.ErrCacheMiss):
		s.logger.Warn("ranking cache read failed", zap.String("key", key), zap.Error(err))
	}

	scores, err := s.inner.Score(ctx, query, labels)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, scores, s.ttl); err != nil {
		s.logger.Warn("ranking cache write failed", zap.String("key", key), zap.Error(err))
	}
	return scores, nil
}
