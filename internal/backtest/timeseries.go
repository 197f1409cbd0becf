package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/kyotei-backtest/internal/models"
)

// TimeSeries accumulates settlements into a cumulative per-date series.
// Settlements sharing a date are summed into a single point, so the series
// is strictly increasing by date. Input must arrive in non-decreasing date
// order; the open day is flushed by Finalize or by the next date advance.
type TimeSeries struct {
	points []TimeSeriesPoint

	haveOpenDay bool
	openDate    time.Time
	dayBet      int64
	dayRefund   int64
	dayRaces    int
}

// NewTimeSeries creates an empty accumulator
func NewTimeSeries() *TimeSeries {
	return &TimeSeries{}
}

// Fold incorporates one settlement, appending a point when the date advances
func (ts *TimeSeries) Fold(s *models.Settlement) error {
	date := truncateToDay(s.Date)

	if ts.haveOpenDay {
		switch {
		case date.Equal(ts.openDate):
			// same day, keep accumulating
		case date.After(ts.openDate):
			ts.flush()
			ts.openDate = date
		default:
			return fmt.Errorf("%w: got %s after %s",
				models.ErrUnorderedInput, date.Format("2006-01-02"), ts.openDate.Format("2006-01-02"))
		}
	} else {
		if len(ts.points) > 0 && !date.After(ts.points[len(ts.points)-1].Date) {
			return fmt.Errorf("%w: got %s after finalized series",
				models.ErrUnorderedInput, date.Format("2006-01-02"))
		}
		ts.haveOpenDay = true
		ts.openDate = date
	}

	ts.dayBet += s.BetAmount
	ts.dayRefund += s.RefundAmount
	ts.dayRaces++
	return nil
}

// Finalize flushes the open day and returns the completed series
func (ts *TimeSeries) Finalize() []TimeSeriesPoint {
	if ts.haveOpenDay {
		ts.flush()
		ts.haveOpenDay = false
	}
	return ts.points
}

func (ts *TimeSeries) flush() {
	var prev TimeSeriesPoint
	if len(ts.points) > 0 {
		prev = ts.points[len(ts.points)-1]
	}

	point := TimeSeriesPoint{
		Date:             ts.openDate,
		CumulativeBet:    prev.CumulativeBet + ts.dayBet,
		CumulativeRefund: prev.CumulativeRefund + ts.dayRefund,
		RaceCount:        prev.RaceCount + ts.dayRaces,
	}
	point.CumulativeProfit = point.CumulativeRefund - point.CumulativeBet
	point.RecoveryRate = recoveryRate(point.CumulativeRefund, point.CumulativeBet)
	ts.points = append(ts.points, point)

	ts.dayBet = 0
	ts.dayRefund = 0
	ts.dayRaces = 0
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
