package modelservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/kyotei-backtest/internal/models"
)

func cacheRef(day int) models.RaceRef {
	return models.RaceRef{
		Date:      time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC),
		StadiumID: 12,
		RaceIndex: 7,
	}
}

func cachePrediction(model string) *models.Prediction {
	return &models.Prediction{
		ModelName:        model,
		RecommendedBoats: []int{1, 2, 4},
		BetType:          models.BetTypeTrifectaBox,
	}
}

func TestPredictionCacheHitMiss(t *testing.T) {
	pc := NewPredictionCache(time.Minute, 100)
	key := CacheKey{ModelName: "modelA", Ref: cacheRef(1)}

	assert.Nil(t, pc.Get(key))

	pc.Set(key, cachePrediction("modelA"))
	got := pc.Get(key)
	require.NotNil(t, got)
	assert.Equal(t, "modelA", got.ModelName)

	hits, misses, ratio := pc.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 0.5, ratio)
}

func TestPredictionCacheKeyIsolation(t *testing.T) {
	pc := NewPredictionCache(time.Minute, 100)
	pc.Set(CacheKey{ModelName: "modelA", Ref: cacheRef(1)}, cachePrediction("modelA"))

	assert.Nil(t, pc.Get(CacheKey{ModelName: "modelB", Ref: cacheRef(1)}))
	assert.Nil(t, pc.Get(CacheKey{ModelName: "modelA", Ref: cacheRef(2)}))
}

func TestPredictionCacheClear(t *testing.T) {
	pc := NewPredictionCache(time.Minute, 100)
	key := CacheKey{ModelName: "modelA", Ref: cacheRef(1)}
	pc.Set(key, cachePrediction("modelA"))
	pc.Clear()

	assert.Nil(t, pc.Get(key))
	assert.Equal(t, 0, pc.ItemCount())
}

type scriptedRepo struct {
	calls      int
	prediction *models.Prediction
	err        error
}

func (s *scriptedRepo) GetPrediction(_ context.Context, _ string, _ models.RaceRef) (*models.Prediction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.prediction, nil
}

func TestCachedClientCachesSuccess(t *testing.T) {
	inner := &scriptedRepo{prediction: cachePrediction("modelA")}
	client := NewCachedClient(inner, time.Minute, 100)

	for i := 0; i < 3; i++ {
		p, err := client.GetPrediction(context.Background(), "modelA", cacheRef(1))
		require.NoError(t, err)
		assert.Equal(t, "modelA", p.ModelName)
	}
	assert.Equal(t, 1, inner.calls, "only the first call should reach the backend")
}

func TestCachedClientDoesNotCacheNotFound(t *testing.T) {
	inner := &scriptedRepo{err: models.ErrNotFound}
	client := NewCachedClient(inner, time.Minute, 100)

	for i := 0; i < 2; i++ {
		_, err := client.GetPrediction(context.Background(), "modelA", cacheRef(1))
		assert.ErrorIs(t, err, models.ErrNotFound)
	}
	assert.Equal(t, 2, inner.calls, "misses must not be negatively cached")
}

func TestCachedClientPropagatesErrors(t *testing.T) {
	inner := &scriptedRepo{err: errors.New("backend down")}
	client := NewCachedClient(inner, time.Minute, 100)

	_, err := client.GetPrediction(context.Background(), "modelA", cacheRef(1))
	assert.Error(t, err)
	assert.Equal(t, 0, client.Cache().ItemCount())
}
