// Package main provides the daily dashboard CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/kyotei-backtest/internal/backtest"
	"github.com/yourusername/kyotei-backtest/internal/config"
	"github.com/yourusername/kyotei-backtest/internal/database"
	"github.com/yourusername/kyotei-backtest/internal/metrics"
	"github.com/yourusername/kyotei-backtest/internal/models"
	"github.com/yourusername/kyotei-backtest/internal/modelservice"
	"github.com/yourusername/kyotei-backtest/internal/repository"
	"github.com/yourusername/kyotei-backtest/internal/scheduler"
)

var (
	configFile string
	dateFlag   string
	watch      bool
	interval   int

	cfg       *config.Config
	appLogger *logrus.Logger
	db        *database.DB
	dashboard *backtest.DashboardService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&dateFlag, "date", "", "Date to summarize (YYYY-MM-DD, default today)")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "Keep refreshing the summary on a schedule")
	rootCmd.Flags().IntVar(&interval, "interval", 300, "Refresh interval in seconds when watching")
}

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show today's settled and pending races per model",
	Long:  `Summarizes each model's hits, stakes and refunds over the day's finished races, with unfinished races reported as pending.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return setupDependencies(cmd.Context())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if watch {
			return runWatch(cmd.Context())
		}
		return runOnce(cmd.Context())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
	if db != nil {
		db.Close()
	}
}

func loadConfig() error {
	loaded, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(loaded); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func setupDependencies(ctx context.Context) error {
	appLogger = logrus.New()
	appLogger.SetLevel(logrus.WarnLevel)
	metrics.InitRegistry()

	var err error
	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	outcomes := repository.NewPostgresOutcomeRepository(db)
	predictions := modelservice.NewCachedClient(
		modelservice.NewClient(&cfg.ModelService, appLogger),
		time.Duration(cfg.ModelService.CacheTTLSeconds)*time.Second,
		cfg.ModelService.CacheMaxSize,
	)

	betType, err := models.ParseBetType(cfg.Simulation.BetType)
	if err != nil {
		return err
	}
	scheme := models.NewBetScheme(betType, cfg.Simulation.StakePerCombo)

	dashboard, err = backtest.NewDashboardService(outcomes, predictions, scheme, cfg.Simulation.Models, appLogger)
	return err
}

func runOnce(ctx context.Context) error {
	date := time.Now()
	if dateFlag != "" {
		parsed, err := time.Parse("2006-01-02", dateFlag)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		date = parsed
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	summary, err := dashboard.Summarize(ctx, date)
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}

func runWatch(ctx context.Context) error {
	sched := scheduler.NewScheduler(nil, dashboard, appLogger)
	if err := sched.ScheduleDashboardRefresh(interval); err != nil {
		return err
	}
	if err := runOnce(ctx); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	<-ctx.Done()
	return nil
}

func printSummary(summary *backtest.DaySummary) {
	fmt.Printf("\nDaily Summary %s\n", summary.Date.Format("2006-01-02"))
	fmt.Printf("Races: %d  Finished: %d  Pending: %d\n\n",
		summary.RaceCount, summary.FinishedRaces, summary.PendingRaces)

	names := make([]string, 0, len(summary.Models))
	for name := range summary.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ms := summary.Models[name]
		fmt.Printf("%s\n", name)
		fmt.Printf("  Settled: %d  Hits: %d\n", ms.RaceCount, ms.HitCount)
		fmt.Printf("  Bet: %d  Refund: %d  Profit: %d\n", ms.TotalBet, ms.TotalRefund, ms.TotalProfit)
		fmt.Printf("  Recovery Rate: %.2f%%\n\n", ms.RecoveryRate)
	}

	if summary.PendingRaces > 0 {
		fmt.Fprintf(os.Stdout, "%d races still pending settlement\n", summary.PendingRaces)
	}
}
