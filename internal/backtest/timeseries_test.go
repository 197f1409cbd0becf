package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/yourusername/kyotei-backtest/internal/models"
)

func TestTimeSeriesOnePointPerDate(t *testing.T) {
	ts := NewTimeSeries()
	feed := []*models.Settlement{
		settlementOn(1, true, 600, 580),
		settlementOn(1, false, 600, 0),
		settlementOn(2, true, 600, 320),
	}
	for _, s := range feed {
		if err := ts.Fold(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	points := ts.Finalize()

	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}

	first := points[0]
	if !first.Date.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected first date %s", first.Date)
	}
	if first.RaceCount != 2 || first.CumulativeBet != 1200 || first.CumulativeRefund != 580 {
		t.Errorf("unexpected first point: %+v", first)
	}
	if first.CumulativeProfit != -620 {
		t.Errorf("expected cumulative profit -620, got %d", first.CumulativeProfit)
	}

	second := points[1]
	if second.RaceCount != 3 || second.CumulativeBet != 1800 || second.CumulativeRefund != 900 {
		t.Errorf("unexpected second point: %+v", second)
	}
	if second.RecoveryRate != 50 {
		t.Errorf("expected recovery rate 50, got %f", second.RecoveryRate)
	}
}

func TestTimeSeriesRejectsDateRegression(t *testing.T) {
	ts := NewTimeSeries()
	if err := ts.Fold(settlementOn(5, false, 600, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ts.Fold(settlementOn(3, false, 600, 0))
	if !errors.Is(err, models.ErrUnorderedInput) {
		t.Errorf("expected ErrUnorderedInput, got %v", err)
	}
}

func TestTimeSeriesEmpty(t *testing.T) {
	ts := NewTimeSeries()
	if points := ts.Finalize(); len(points) != 0 {
		t.Errorf("expected empty series, got %d points", len(points))
	}
}

func TestTimeSeriesIgnoresTimeOfDay(t *testing.T) {
	ts := NewTimeSeries()
	morning := settlementOn(1, false, 600, 0)
	evening := settlementOn(1, true, 600, 580)
	evening.Date = evening.Date.Add(20 * time.Hour)

	if err := ts.Fold(morning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ts.Fold(evening); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	points := ts.Finalize()
	if len(points) != 1 {
		t.Fatalf("expected one point for same calendar day, got %d", len(points))
	}
	if points[0].RaceCount != 2 {
		t.Errorf("expected 2 races in the day, got %d", points[0].RaceCount)
	}
}
