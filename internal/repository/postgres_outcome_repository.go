package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourusername/kyotei-backtest/internal/database"
	"github.com/yourusername/kyotei-backtest/internal/models"
)

// PostgresOutcomeRepository implements OutcomeRepository against the scraped
// race-result schema (each_race_results / each_boat_data).
type PostgresOutcomeRepository struct {
	db *database.DB
}

// NewPostgresOutcomeRepository creates a new outcome repository
func NewPostgresOutcomeRepository(db *database.DB) OutcomeRepository {
	return &PostgresOutcomeRepository{db: db}
}

// ListRaces returns races held in [start, end] ordered by date, stadium and index
func (r *PostgresOutcomeRepository) ListRaces(ctx context.Context, start, end time.Time, stadiumIDs []int) ([]models.RaceRef, error) {
	query := `
		SELECT date, stadium_id, nth_race, COALESCE(race_name, '')
		FROM each_race_results
		WHERE date >= $1 AND date <= $2
	`
	args := []interface{}{start, end}
	if len(stadiumIDs) > 0 {
		query += ` AND stadium_id = ANY($3)`
		args = append(args, stadiumIDs)
	}
	query += ` ORDER BY date, stadium_id, nth_race`

	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	defer rows.Close()

	refs := make([]models.RaceRef, 0)
	for rows.Next() {
		var ref models.RaceRef
		if err := rows.Scan(&ref.Date, &ref.StadiumID, &ref.RaceIndex, &ref.RaceName); err != nil {
			return nil, fmt.Errorf("failed to scan race: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read races: %w", err)
	}
	return refs, nil
}

// GetOutcome loads one race's result. Races with incomplete boat data come
// back with IsFinished=false.
func (r *PostgresOutcomeRepository) GetOutcome(ctx context.Context, ref models.RaceRef) (*models.RaceOutcome, error) {
	query := `
		SELECT id, COALESCE(race_name, ''),
		       COALESCE(perfecta_refund, 0), COALESCE(trifecta_refund, 0)
		FROM each_race_results
		WHERE date = $1 AND stadium_id = $2 AND nth_race = $3
	`

	var (
		raceID         int64
		raceName       string
		perfectaRefund int64
		trifectaRefund int64
	)
	err := r.db.GetPool().QueryRow(ctx, query, ref.Date, ref.StadiumID, ref.RaceIndex).Scan(
		&raceID, &raceName, &perfectaRefund, &trifectaRefund,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race outcome: %w", err)
	}

	outcome := &models.RaceOutcome{RaceRef: ref}
	outcome.RaceName = raceName

	order, finished, err := r.loadArrivalOrder(ctx, raceID)
	if err != nil {
		return nil, err
	}
	if !finished {
		return outcome, nil
	}

	outcome.IsFinished = true
	outcome.ActualOrder = order
	outcome.PayoutTable = buildPayoutTable(order, perfectaRefund, trifectaRefund)
	return outcome, nil
}

// loadArrivalOrder returns the boats sorted by finishing position, or
// finished=false when any boat is missing an arrival.
func (r *PostgresOutcomeRepository) loadArrivalOrder(ctx context.Context, raceID int64) ([]int, bool, error) {
	query := `
		SELECT boat_number, order_of_arrival
		FROM each_boat_data
		WHERE each_race_result_id = $1
		ORDER BY boat_number
	`
	rows, err := r.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load boat data: %w", err)
	}
	defer rows.Close()

	boatByArrival := make(map[int]int, 6)
	count := 0
	for rows.Next() {
		var boatNumber int
		var arrival *int
		if err := rows.Scan(&boatNumber, &arrival); err != nil {
			return nil, false, fmt.Errorf("failed to scan boat data: %w", err)
		}
		if arrival == nil || *arrival < 1 || *arrival > 6 {
			return nil, false, nil
		}
		boatByArrival[*arrival] = boatNumber
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read boat data: %w", err)
	}
	if count != 6 || len(boatByArrival) != 6 {
		return nil, false, nil
	}

	order := make([]int, 6)
	for arrival := 1; arrival <= 6; arrival++ {
		order[arrival-1] = boatByArrival[arrival]
	}
	return order, true, nil
}

// buildPayoutTable converts stored per-100-yen refunds into odds keyed by
// the winning exact combinations. Official tables are keyed by finishing
// order even when the bettor bought a box.
func buildPayoutTable(order []int, perfectaRefund, trifectaRefund int64) map[models.ComboKey]decimal.Decimal {
	table := make(map[models.ComboKey]decimal.Decimal, 2)
	hundred := decimal.NewFromInt(100)
	if trifectaRefund > 0 {
		key := models.TrifectaKey(order[0], order[1], order[2])
		table[key] = decimal.NewFromInt(trifectaRefund).Div(hundred)
	}
	if perfectaRefund > 0 {
		key := models.QuinellaKey(order[0], order[1])
		table[key] = decimal.NewFromInt(perfectaRefund).Div(hundred)
	}
	return table
}
