package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	daemon "github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"

	"github.com/xscopehub/covidmap/internal/cache"
	"github.com/xscopehub/covidmap/internal/config"
	"github.com/xscopehub/covidmap/internal/dashboard"
	"github.com/xscopehub/covidmap/internal/dataset"
	"github.com/xscopehub/covidmap/internal/logging"
	"github.com/xscopehub/covidmap/internal/report"
)

var (
	daemonMode bool
	configPath string
	dateFlag   string
	listenAddr string
	topN       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "covidmap",
		Short:        "COVID-19 map dashboard",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, day, err := setup()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.Server.Address = listenAddr
			}
			if daemonMode {
				cntxt := &daemon.Context{
					PidFileName: cfg.Server.PidFile,
					PidFilePerm: 0644,
				}
				child, err := cntxt.Reborn()
				if err != nil {
					return err
				}
				if child != nil {
					return nil
				}
				defer cntxt.Release()
			}
			return serve(cmd.Context(), cfg, day)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/covidmap.yaml", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dateFlag, "date", "", "processing date as YYYY-MM-DD (default today)")
	rootCmd.Flags().BoolVar(&daemonMode, "daemon", false, "run in background")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "override server.address")

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print accumulated totals per country and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, day, err := setup()
			if err != nil {
				return err
			}
			rep, err := build(cmd.Context(), cfg, day)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), rep, topN)
		},
	}
	summaryCmd.Flags().IntVar(&topN, "top", 50, "rows to print, most deaths first (0 for all)")
	rootCmd.AddCommand(summaryCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func setup() (config.Config, time.Time, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, time.Time{}, err
	}
	if _, err := logging.Init(os.Stderr, cfg.Log.Format, cfg.Log.Level); err != nil {
		return config.Config{}, time.Time{}, err
	}
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	day, err := parseDay(dateFlag, time.Now())
	if err != nil {
		return config.Config{}, time.Time{}, err
	}
	return cfg, day, nil
}

// parseDay returns the processing date: the flag value if set, otherwise the
// calendar date of now.
func parseDay(flag string, now time.Time) (time.Time, error) {
	if flag == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse("2006-01-02", flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", flag, err)
	}
	return day, nil
}

func build(ctx context.Context, cfg config.Config, day time.Time) (*report.Report, error) {
	loader := dataset.NewLoader(cfg.Dataset.URL, dataset.WithTimeout(cfg.Dataset.Timeout))
	return report.Build(ctx, loader, day, report.Options{
		DateLayout:       cfg.Dataset.DateLayout,
		DeathsRange:      cfg.Charts.DeathsRange,
		TotalDeathsRange: cfg.Charts.TotalDeathsRange,
		TopDeaths:        cfg.Charts.TopDeaths,
	})
}

func serve(ctx context.Context, cfg config.Config, day time.Time) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := build(ctx, cfg, day)
	if err != nil {
		return err
	}

	figureCache, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer figureCache.Close()

	return dashboard.New(cfg, rep, figureCache).Run(ctx)
}
