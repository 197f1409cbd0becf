// Package modelservice provides the HTTP client for the model-serving API.
// The backend may host gradient-boosted, attention-based or Bayesian
// predictors; the client only depends on the prediction shape they share.
package modelservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/kyotei-backtest/internal/config"
	"github.com/yourusername/kyotei-backtest/internal/metrics"
	"github.com/yourusername/kyotei-backtest/internal/models"
)

// Client is a rate-limited, retrying HTTP client for the prediction API.
// It implements repository.PredictionRepository.
type Client struct {
	baseURL string
	apiKey  string
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewClient creates a model service client from configuration
func NewClient(cfg *config.ModelServiceConfig, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	retryClient.RetryMax = cfg.RetryAttempts
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  retryClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		logger:  logger,
	}
}

// predictionPayload mirrors the prediction API's response body
type predictionPayload struct {
	ModelName string `json:"model_name"`
	Boats     []struct {
		BoatNumber  int      `json:"boat_number"`
		Probability float64  `json:"probability"`
		Std         *float64 `json:"std,omitempty"`
	} `json:"boats"`
	RecommendedBoats []int  `json:"recommended_boats"`
	BetType          string `json:"bet_type"`
}

// GetPrediction fetches one model's prediction for one race.
// A 404 from the backend maps to models.ErrNotFound.
func (c *Client) GetPrediction(ctx context.Context, modelName string, ref models.RaceRef) (*models.Prediction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.PredictionFetchLatency.Observe(time.Since(start).Seconds())
	}()

	url := fmt.Sprintf("%s/predict/%s?race_date=%s&stadium_id=%d&race_index=%d",
		c.baseURL, modelName, ref.Date.Format("2006-01-02"), ref.StadiumID, ref.RaceIndex)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build prediction request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("model", modelName).Error("Prediction fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, models.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, body)
	}

	var payload predictionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
	}

	metrics.PredictionFetchesTotal.WithLabelValues("http").Inc()
	return c.toPrediction(modelName, ref, &payload)
}

func (c *Client) toPrediction(modelName string, ref models.RaceRef, payload *predictionPayload) (*models.Prediction, error) {
	if len(payload.Boats) == 0 || len(payload.RecommendedBoats) == 0 {
		return nil, fmt.Errorf("%w: empty prediction for %s", ErrInvalidPrediction, ref)
	}

	betType := models.BetTypeTrifectaBox
	if payload.BetType != "" {
		parsed, err := models.ParseBetType(payload.BetType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
		}
		betType = parsed
	}

	prediction := &models.Prediction{
		ModelName:         modelName,
		Date:              ref.Date,
		StadiumID:         ref.StadiumID,
		RaceIndex:         ref.RaceIndex,
		BoatProbabilities: make(map[int]float64, len(payload.Boats)),
		RecommendedBoats:  payload.RecommendedBoats,
		BetType:           betType,
	}
	for _, boat := range payload.Boats {
		prediction.BoatProbabilities[boat.BoatNumber] = boat.Probability
		if boat.Std != nil {
			if prediction.BoatUncertainty == nil {
				prediction.BoatUncertainty = make(map[int]float64, len(payload.Boats))
			}
			prediction.BoatUncertainty[boat.BoatNumber] = *boat.Std
		}
	}

	if err := prediction.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
	}
	return prediction, nil
}
