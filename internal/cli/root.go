// Package cli implements the linernotes command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/server"
	"github.com/LavishGent/linernotes/pkg/linernotes"
)

var (
	cfgPath     string
	logLevel    string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "linernotes",
	Short: "Enrich artists and works with a bio and fun facts",
	Long: `linernotes resolves an entity name against the catalog service and
fetches its biography and fun facts, caching every slot on the configured substrate.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "linernotes.yaml", "config file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address while the command runs")
}

// loadConfig reads .env, the config file and environment overrides, then
// installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Prometheus.Enabled = true
	}

	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := newLogger(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
	case "text":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})), nil
	default:
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		})), nil
	}
}

// session is a client plus the optional metrics server running beside it.
type session struct {
	client  *linernotes.Client
	metrics *server.Server
	logger  *slog.Logger
	cfg     *config.Config
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	client, err := linernotes.NewWithCatalog(cfg, linernotes.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	s := &session{client: client, logger: logger, cfg: cfg}

	if metricsAddr != "" {
		s.metrics = server.New(client, metricsAddr, client.MetricsHandler(), logger)
		go func() {
			if err := s.metrics.Start(); err != nil {
				logger.Error("Metrics server failed", "addr", metricsAddr, "error", err)
			}
		}()
	}
	return s, nil
}

func (s *session) Close() {
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.metrics.Stop(ctx); err != nil {
			s.logger.Warn("Metrics server shutdown", "error", err)
		}
	}
	if err := s.client.Close(); err != nil {
		s.logger.Error("Error during shutdown", "error", err)
	}
}
