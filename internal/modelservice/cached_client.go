package modelservice

import (
	"context"
	"time"

	"github.com/yourusername/kyotei-backtest/internal/metrics"
	"github.com/yourusername/kyotei-backtest/internal/models"
	"github.com/yourusername/kyotei-backtest/internal/repository"
)

// CachedClient wraps a PredictionRepository with an in-memory cache.
// Misses, including models.ErrNotFound, are not negatively cached: an
// unfinished backend may start answering for a race at any time.
type CachedClient struct {
	inner repository.PredictionRepository
	cache *PredictionCache
}

// NewCachedClient creates a caching prediction repository
func NewCachedClient(inner repository.PredictionRepository, ttl time.Duration, maxSize int) *CachedClient {
	return &CachedClient{
		inner: inner,
		cache: NewPredictionCache(ttl, maxSize),
	}
}

// GetPrediction returns a cached prediction or delegates to the inner client
func (c *CachedClient) GetPrediction(ctx context.Context, modelName string, ref models.RaceRef) (*models.Prediction, error) {
	key := CacheKey{ModelName: modelName, Ref: ref}
	if cached := c.cache.Get(key); cached != nil {
		metrics.PredictionFetchesTotal.WithLabelValues("cache").Inc()
		return cached, nil
	}

	prediction, err := c.inner.GetPrediction(ctx, modelName, ref)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, prediction)
	return prediction, nil
}

// Cache exposes the underlying cache for stats and invalidation
func (c *CachedClient) Cache() *PredictionCache {
	return c.cache
}
