package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/kyotei-backtest/internal/config"
	"github.com/yourusername/kyotei-backtest/internal/models"
)

// RunConfig holds the resolved settings for one backtest run
type RunConfig struct {
	StartDate  time.Time
	EndDate    time.Time
	Scheme     models.BetScheme
	Models     []string
	StadiumIDs []int
	Workers    int
	OutputPath string

	// RaceFilter, when set, drops races before any work is dispatched.
	// Nil means every race in the range is evaluated.
	RaceFilter func(models.RaceRef) bool
}

// FromConfig converts app config to a run config
func FromConfig(cfg *config.SimulationConfig) (RunConfig, error) {
	if cfg == nil {
		return RunConfig{}, fmt.Errorf("simulation config is required")
	}
	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return RunConfig{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.EndDate)
	if err != nil {
		return RunConfig{}, fmt.Errorf("invalid end date: %w", err)
	}
	betType, err := models.ParseBetType(cfg.BetType)
	if err != nil {
		return RunConfig{}, err
	}

	rc := RunConfig{
		StartDate:  start,
		EndDate:    end,
		Scheme:     models.NewBetScheme(betType, cfg.StakePerCombo),
		Models:     cfg.Models,
		StadiumIDs: cfg.StadiumIDs,
		Workers:    cfg.Workers,
		OutputPath: cfg.OutputPath,
	}
	if cfg.TargetGradesOnly {
		rc.RaceFilter = func(ref models.RaceRef) bool {
			return IsTargetGrade(ClassifyRaceGrade(ref.RaceName))
		}
	}

	return rc, rc.Validate()
}

// Validate validates run config parameters
func (c RunConfig) Validate() error {
	if c.StartDate.After(c.EndDate) {
		return fmt.Errorf("start date must not be after end date")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}
	seen := make(map[string]bool, len(c.Models))
	for _, name := range c.Models {
		if name == "" {
			return fmt.Errorf("model name cannot be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate model name %q", name)
		}
		seen[name] = true
	}
	if c.Scheme.StakePerCombo <= 0 {
		return fmt.Errorf("stake per combo must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	for _, id := range c.StadiumIDs {
		if id < 1 || id > 24 {
			return fmt.Errorf("stadium id %d out of range", id)
		}
	}
	return nil
}
