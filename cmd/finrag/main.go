package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/finrag/internal/app"
	"github.com/newthinker/finrag/internal/config"
	"github.com/newthinker/finrag/internal/logger"
	"github.com/newthinker/finrag/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile     string
	debug       bool
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "finrag",
	Short: "finrag - financial data ingestion for retrieval-augmented generation",
	Long: `finrag turns real-time market data and financial documents into
plain-text context and retrieval-ready chunks for an LLM.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	return cfg, nil
}

// session is what every data command needs.
type session struct {
	ctx    context.Context
	log    *zap.Logger
	app    *app.App
	cancel context.CancelFunc
}

func (s *session) Close() {
	s.cancel()
	s.app.Close()
	s.log.Sync()
}

// bootstrap validates configuration, builds the logger and the App, and starts
// the metrics endpoint when requested.
func bootstrap(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)

	var reg *metrics.Registry
	if cfg.Metrics.Addr != "" {
		reg = metrics.NewRegistry()
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg, log); err != nil {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	a, err := app.New(cfg, log, reg)
	if err != nil {
		cancel()
		return nil, err
	}

	return &session{ctx: ctx, log: log, app: a, cancel: cancel}, nil
}
