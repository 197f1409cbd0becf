package modelservice

import (
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/kyotei-backtest/internal/metrics"
	"github.com/yourusername/kyotei-backtest/internal/models"
)

// CacheKey uniquely identifies a cached prediction
type CacheKey struct {
	ModelName string
	Ref       models.RaceRef
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s", k.ModelName, k.Ref)
}

// PredictionCache provides in-memory caching for model predictions.
// Backtests revisit the same race for every model and the dashboard hits
// today's races repeatedly, so a short TTL pays for itself quickly.
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached prediction, or nil on a miss
func (pc *PredictionCache) Get(key CacheKey) *models.Prediction {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if value, found := pc.cache.Get(key.String()); found {
		pc.hitCount++
		pc.updateMetrics()
		if prediction, ok := value.(*models.Prediction); ok {
			return prediction
		}
	}

	pc.missCount++
	pc.updateMetrics()
	return nil
}

// Set stores a prediction in cache
func (pc *PredictionCache) Set(key CacheKey, prediction *models.Prediction) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
	}
	pc.cache.Set(key.String(), prediction, pc.ttl)
}

// Clear flushes the entire cache
func (pc *PredictionCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache.Flush()
	pc.hitCount = 0
	pc.missCount = 0
}

// Stats returns cache statistics
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	hits = pc.hitCount
	misses = pc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (pc *PredictionCache) ItemCount() int {
	return pc.cache.ItemCount()
}

func (pc *PredictionCache) updateMetrics() {
	_, _, ratio := pc.Stats()
	metrics.PredictionCacheHitRatio.Set(ratio)
}
