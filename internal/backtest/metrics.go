package backtest

import (
	"encoding/json"
	"time"

	"github.com/yourusername/kyotei-backtest/internal/models"
)

// AggregateMetrics holds running per-model totals over a settlement stream.
// Streak fields are only meaningful when settlements are folded in
// non-decreasing date order, which the driver guarantees.
type AggregateMetrics struct {
	ModelName    string  `json:"model_name"`
	TotalRaces   int     `json:"total_races"`
	HitCount     int     `json:"hit_count"`
	HitRate      float64 `json:"hit_rate"`
	TotalBet     int64   `json:"total_bet"`
	TotalRefund  int64   `json:"total_refund"`
	TotalProfit  int64   `json:"total_profit"`
	RecoveryRate float64 `json:"recovery_rate"`
	MaxProfit    int64   `json:"max_profit"`
	MaxLoss      int64   `json:"max_loss"`

	ConsecutiveWins   int `json:"consecutive_wins"`
	ConsecutiveLosses int `json:"consecutive_losses"`

	// Current streak state: positive length while winning, sign tracked
	// separately so a miss after wins resets to a loss streak of 1.
	currentStreak    int
	currentStreakWon bool
}

// NewAggregateMetrics creates an empty accumulator for one model
func NewAggregateMetrics(modelName string) *AggregateMetrics {
	return &AggregateMetrics{ModelName: modelName}
}

// Fold incorporates one settlement into the running totals
func (m *AggregateMetrics) Fold(s *models.Settlement) {
	m.TotalRaces++
	if s.Hit {
		m.HitCount++
	}
	m.TotalBet += s.BetAmount
	m.TotalRefund += s.RefundAmount
	m.TotalProfit += s.Profit

	if m.TotalRaces == 1 {
		m.MaxProfit = s.Profit
		m.MaxLoss = s.Profit
	} else {
		if s.Profit > m.MaxProfit {
			m.MaxProfit = s.Profit
		}
		if s.Profit < m.MaxLoss {
			m.MaxLoss = s.Profit
		}
	}

	if m.currentStreak > 0 && m.currentStreakWon == s.Hit {
		m.currentStreak++
	} else {
		m.currentStreak = 1
		m.currentStreakWon = s.Hit
	}
	if m.currentStreakWon {
		if m.currentStreak > m.ConsecutiveWins {
			m.ConsecutiveWins = m.currentStreak
		}
	} else if m.currentStreak > m.ConsecutiveLosses {
		m.ConsecutiveLosses = m.currentStreak
	}

	m.HitRate = float64(m.HitCount) / float64(m.TotalRaces)
	m.RecoveryRate = recoveryRate(m.TotalRefund, m.TotalBet)
}

// Reset clears the accumulator back to its initial state
func (m *AggregateMetrics) Reset() {
	*m = AggregateMetrics{ModelName: m.ModelName}
}

// ToJSON exports metrics to JSON
func (m *AggregateMetrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// recoveryRate is refund over bet as a percentage; zero when nothing staked
func recoveryRate(refund, bet int64) float64 {
	if bet == 0 {
		return 0
	}
	return float64(refund) / float64(bet) * 100
}

// TimeSeriesPoint is one cumulative sample of a model's performance,
// at most one point per distinct race date.
type TimeSeriesPoint struct {
	Date             time.Time `json:"date"`
	CumulativeProfit int64     `json:"cumulative_profit"`
	CumulativeBet    int64     `json:"cumulative_bet"`
	CumulativeRefund int64     `json:"cumulative_refund"`
	RecoveryRate     float64   `json:"recovery_rate"`
	RaceCount        int       `json:"race_count"`
}
