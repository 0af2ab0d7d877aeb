package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-arbiter/internal/app"
	"checkout-arbiter/internal/config"
	"checkout-arbiter/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "checkout-arbiter",
		Short: "Arbitrates racing checkout callbacks after a gateway redirect",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init()
			// a local .env is optional, real environment variables win
			if err := godotenv.Load(); err == nil {
				logger.Info(".env loaded", nil)
			}
			if configFile != "" {
				_ = os.Setenv("CONFIG_FILE", configFile)
			}
		},
		Run: runServe,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Run:   runServe,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the checkout schema and exit",
		Run:   runMigrate,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config overlay (same as CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", map[string]any{
			"error": err.Error(),
		})
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.Fatal("invalid log level", map[string]any{
			"error": err.Error(),
		})
	}
	return cfg
}

func runMigrate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := app.Migrate(ctx, cfg); err != nil {
		logger.Fatal("migration failed", map[string]any{
			"error": err.Error(),
		})
	}
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", map[string]any{
			"error": err.Error(),
		})
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Fatal("http server failed", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("checkout-arbiter started", map[string]any{
		"port": cfg.AppPort,
	})

	<-ctx.Done()

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("checkout-arbiter stopped cleanly", nil)
}
