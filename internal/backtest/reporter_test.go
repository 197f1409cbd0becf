package backtest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func reportResult() *RunResult {
	strong := NewAggregateMetrics("strong")
	strong.Fold(settlementOn(1, true, 600, 3200))
	weak := NewAggregateMetrics("weak")
	weak.Fold(settlementOn(1, false, 600, 0))

	return &RunResult{
		RunID:     uuid.New(),
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Models: map[string]*ModelResult{
			"strong": {Metrics: strong},
			"weak":   {Metrics: weak},
		},
		Comparison: &ComparisonResult{
			AgreementMatrix: map[string]float64{"strong_vs_weak": 0.25},
		},
		EvaluatedCount: 2,
	}
}

func TestRankModels(t *testing.T) {
	rankings := RankModels(reportResult())
	if len(rankings) != 3 {
		t.Fatalf("expected 3 rankings, got %d", len(rankings))
	}
	for _, ranking := range rankings {
		if len(ranking.Order) != 2 {
			t.Fatalf("ranking %s: expected 2 entries, got %d", ranking.Metric, len(ranking.Order))
		}
		if ranking.Order[0].Model != "strong" {
			t.Errorf("ranking %s: expected strong first, got %s", ranking.Metric, ranking.Order[0].Model)
		}
	}
}

func TestRankModelsTieBreaksByName(t *testing.T) {
	a := NewAggregateMetrics("alpha")
	a.Fold(settlementOn(1, false, 600, 0))
	b := NewAggregateMetrics("beta")
	b.Fold(settlementOn(1, false, 600, 0))
	result := &RunResult{Models: map[string]*ModelResult{
		"beta":  {Metrics: b},
		"alpha": {Metrics: a},
	}}

	rankings := RankModels(result)
	if rankings[0].Order[0].Model != "alpha" {
		t.Errorf("expected alphabetical tie break, got %s", rankings[0].Order[0].Model)
	}
}

func TestGenerateConsoleReport(t *testing.T) {
	report := GenerateConsoleReport(reportResult())

	for _, want := range []string{
		"Backtest Report",
		"Model: strong",
		"Model: weak",
		"Recovery Rate:",
		"strong_vs_weak: 25.00%",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Models are listed in a stable order.
	if strings.Index(report, "Model: strong") > strings.Index(report, "Model: weak") {
		t.Error("expected models sorted by name")
	}
}

func TestExportToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	if err := ExportToJSON(reportResult(), path); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	var export RunExport
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if export.Result == nil || len(export.Result.Models) != 2 {
		t.Error("export missing run result")
	}
	if len(export.Rankings) != 3 {
		t.Errorf("expected 3 rankings in export, got %d", len(export.Rankings))
	}
}

func TestExportToJSONRequiresPath(t *testing.T) {
	if err := ExportToJSON(reportResult(), ""); err == nil {
		t.Error("expected error for empty output path")
	}
}
