package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ModelRanking ranks the compared models on one metric
type ModelRanking struct {
	Metric string         `json:"metric"`
	Order  []RankingEntry `json:"order"`
}

// RankingEntry is one model's value for a ranked metric
type RankingEntry struct {
	Model string  `json:"model"`
	Value float64 `json:"value"`
}

// RankModels orders the run's models by hit rate, recovery rate and total
// profit, best first.
func RankModels(result *RunResult) []ModelRanking {
	rankings := []ModelRanking{
		rankBy(result, "hit_rate", func(m *AggregateMetrics) float64 { return m.HitRate }),
		rankBy(result, "recovery_rate", func(m *AggregateMetrics) float64 { return m.RecoveryRate }),
		rankBy(result, "total_profit", func(m *AggregateMetrics) float64 { return float64(m.TotalProfit) }),
	}
	return rankings
}

func rankBy(result *RunResult, metric string, value func(*AggregateMetrics) float64) ModelRanking {
	ranking := ModelRanking{Metric: metric}
	for name, mr := range result.Models {
		ranking.Order = append(ranking.Order, RankingEntry{Model: name, Value: value(mr.Metrics)})
	}
	sort.Slice(ranking.Order, func(i, j int) bool {
		if ranking.Order[i].Value != ranking.Order[j].Value {
			return ranking.Order[i].Value > ranking.Order[j].Value
		}
		return ranking.Order[i].Model < ranking.Order[j].Model
	})
	return ranking
}

// GenerateConsoleReport formats a run result for terminal output
func GenerateConsoleReport(result *RunResult) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Run ID: %s\n", result.RunID))
	builder.WriteString(fmt.Sprintf("Period: %s to %s\n",
		result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("Evaluated: %d  Skipped (unfinished/missing/data): %d/%d/%d\n",
		result.EvaluatedCount, result.SkippedUnfinished,
		result.SkippedMissingPrediction, result.SkippedDataError))
	if result.Cancelled {
		builder.WriteString("Run cancelled before completion; figures are partial\n")
	}

	names := make([]string, 0, len(result.Models))
	for name := range result.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := result.Models[name].Metrics
		builder.WriteString(fmt.Sprintf("\nModel: %s\n", name))
		builder.WriteString(fmt.Sprintf("  Races: %d  Hits: %d  Hit Rate: %.2f%%\n",
			m.TotalRaces, m.HitCount, m.HitRate*100))
		builder.WriteString(fmt.Sprintf("  Bet: %d  Refund: %d  Profit: %d\n",
			m.TotalBet, m.TotalRefund, m.TotalProfit))
		builder.WriteString(fmt.Sprintf("  Recovery Rate: %.2f%%\n", m.RecoveryRate))
		builder.WriteString(fmt.Sprintf("  Max Profit: %d  Max Loss: %d\n", m.MaxProfit, m.MaxLoss))
		builder.WriteString(fmt.Sprintf("  Longest Streaks: %d wins, %d losses\n",
			m.ConsecutiveWins, m.ConsecutiveLosses))
	}

	if result.Comparison != nil && len(result.Comparison.AgreementMatrix) > 0 {
		builder.WriteString("\nModel Agreement\n")
		pairs := make([]string, 0, len(result.Comparison.AgreementMatrix))
		for pair := range result.Comparison.AgreementMatrix {
			pairs = append(pairs, pair)
		}
		sort.Strings(pairs)
		for _, pair := range pairs {
			builder.WriteString(fmt.Sprintf("  %s: %.2f%%\n", pair, result.Comparison.AgreementMatrix[pair]*100))
		}
	}

	return builder.String()
}

// RunExport is the JSON document written for the reporting layer
type RunExport struct {
	Result   *RunResult     `json:"result"`
	Rankings []ModelRanking `json:"rankings"`
}

// ExportToJSON writes the run result to a JSON file
func ExportToJSON(result *RunResult, outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	export := RunExport{Result: result, Rankings: RankModels(result)}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}
