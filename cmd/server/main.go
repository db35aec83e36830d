package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mcoot/noughts/internal/api"
	"github.com/mcoot/noughts/internal/config"
	"github.com/mcoot/noughts/internal/factory"
)

func newRootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Noughts and crosses game server",
		Long: `Runs the realtime gateway on /ws and the status API on /api/v1.

Settings come from defaults, an optional YAML file, NOUGHTS_* environment
variables and flags, in increasing order of precedence.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config file: %w", err)
				}
			}
			cfg, err := config.LoadFromViper(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "path to a YAML configuration file")
	flags.String("host", "", "listen host")
	flags.Int("port", 0, "listen port")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: json, text")
	flags.String("storage", "", "storage backend: memory, redis")
	flags.String("redis-url", "", "redis URL when --storage=redis")
	flags.String("credentials", "", "path to the secrets file")

	bindFlags(v, cmd, map[string]string{
		"server.host":       "host",
		"server.port":       "port",
		"logging.level":     "log-level",
		"logging.format":    "log-format",
		"storage.type":      "storage",
		"storage.redis.url": "redis-url",
		"credentials.path":  "credentials",
	})

	return cmd
}

// bindFlags makes each flag override its config key only when set
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, cmd.Flags().Lookup(name))
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger, err := cfg.Logging.NewLogger(os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create application factory
	app, err := factory.New(ctx, cfg.Factory(logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()
	app.Start(context.Background())

	// Create server
	server := api.NewServer(app.Router(), cfg.Server.API(), logger)
	server.OnShutdown(app.Hub.Close)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage.Type),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
