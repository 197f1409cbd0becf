package backtest

import (
	"testing"
	"time"

	"github.com/yourusername/kyotei-backtest/internal/config"
	"github.com/yourusername/kyotei-backtest/internal/models"
)

func simulationConfig() *config.SimulationConfig {
	return &config.SimulationConfig{
		StartDate:     "2024-06-01",
		EndDate:       "2024-06-30",
		BetType:       "trifecta_box",
		StakePerCombo: 100,
		Models:        []string{"lightgbm", "transformer"},
		StadiumIDs:    []int{12, 24},
		Workers:       4,
		OutputPath:    "./output/results.json",
	}
}

func TestFromConfig(t *testing.T) {
	rc, err := FromConfig(simulationConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !rc.StartDate.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start date %s", rc.StartDate)
	}
	if rc.Scheme.BetType != models.BetTypeTrifectaBox || rc.Scheme.StakePerCombo != 100 {
		t.Errorf("unexpected scheme %+v", rc.Scheme)
	}
	if len(rc.Models) != 2 || rc.Workers != 4 {
		t.Errorf("unexpected config %+v", rc)
	}
	if rc.RaceFilter != nil {
		t.Error("race filter must be nil unless target_grades_only is set")
	}
}

func TestFromConfigTargetGradesFilter(t *testing.T) {
	sc := simulationConfig()
	sc.TargetGradesOnly = true

	rc, err := FromConfig(sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.RaceFilter == nil {
		t.Fatal("expected race filter")
	}
	if !rc.RaceFilter(models.RaceRef{RaceName: "一般戦"}) {
		t.Error("general races must pass the filter")
	}
	if rc.RaceFilter(models.RaceRef{RaceName: "SGグランプリ"}) {
		t.Error("SG races must be filtered out")
	}
}

func TestFromConfigInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.SimulationConfig)
	}{
		{"bad start date", func(c *config.SimulationConfig) { c.StartDate = "June 1" }},
		{"bad bet type", func(c *config.SimulationConfig) { c.BetType = "superfecta" }},
		{"reversed dates", func(c *config.SimulationConfig) { c.StartDate = "2024-07-01" }},
		{"no models", func(c *config.SimulationConfig) { c.Models = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := simulationConfig()
			tt.mutate(sc)
			if _, err := FromConfig(sc); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunConfigValidate(t *testing.T) {
	base := RunConfig{
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Scheme:    models.NewBetScheme(models.BetTypeTrifectaBox, 100),
		Models:    []string{"lightgbm"},
		Workers:   4,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := base
	dup.Models = []string{"a", "a"}
	if err := dup.Validate(); err == nil {
		t.Error("expected error for duplicate models")
	}

	badStadium := base
	badStadium.StadiumIDs = []int{0}
	if err := badStadium.Validate(); err == nil {
		t.Error("expected error for stadium id out of range")
	}
}
