package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opdlog/opdlog/internal/config"
	"github.com/opdlog/opdlog/internal/domain/export"
	"github.com/opdlog/opdlog/internal/domain/summary"
	"github.com/opdlog/opdlog/internal/domain/visit"
	"github.com/opdlog/opdlog/internal/platform/kvstore"
	"github.com/opdlog/opdlog/internal/platform/middleware"
	"github.com/opdlog/opdlog/internal/platform/notify"
	"github.com/opdlog/opdlog/internal/platform/share"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "opd-server",
		Short: "Single-clinic outpatient visit logger",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(restoreCmd())
	rootCmd.AddCommand(clearCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the local UI/API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// openStore picks the configured KV backend.
func openStore(cfg *config.Config) (kvstore.KV, error) {
	switch cfg.StoreBackend {
	case "file":
		return kvstore.NewFile(cfg.StorePath)
	case "sqlite":
		path := cfg.StorePath
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "opd.db")
		}
		return kvstore.NewSQLite(path)
	case "memory":
		return kvstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// app bundles everything the serve loop and the offline subcommands share.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	kv      kvstore.KV
	center  *notify.Center
	visits  *visit.Service
	exports *export.Service
}

func buildApp() (*app, error) {
	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	kv, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	center := notify.NewCenter()
	repo := visit.NewKVRepository(kv, logger)
	visits := visit.NewService(repo)

	sink := share.NewFSSink(cfg.ExportCacheDir, cfg.DownloadDir, nil)
	policy := share.RetryPolicy{
		Attempts: cfg.LocateRetries,
		Backoff:  cfg.LocateBackoff(),
		Step:     cfg.LocateBackoff(),
	}
	deliverer := share.NewDeliverer(sink, policy, cfg.DownloadDir, logger)
	exports := export.NewService(visits, deliverer, export.NewDebouncer(cfg.ExportCooldown()), logger)

	return &app{cfg: cfg, logger: logger, kv: kv, center: center, visits: visits, exports: exports}, nil
}

func runServer() error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.kv.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(a.logger, a.center))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	apiV1 := e.Group("/api/v1")
	visit.NewHandler(a.visits, a.center).RegisterRoutes(apiV1)
	summary.NewHandler(a.visits).RegisterRoutes(apiV1)
	export.NewHandler(a.exports, a.center).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + a.cfg.Port
		a.logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		a.logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	a.logger.Info().Msg("server stopped")
	return nil
}

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the daily summary as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.kv.Close()

			ref := time.Now()
			if raw, _ := cmd.Flags().GetString("date"); raw != "" {
				ref, err = time.ParseInLocation("2006-01-02", raw, time.Local)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			daily := summary.Compute(a.visits.All(cmd.Context()), ref)
			out, err := json.MarshalIndent(daily, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().String("date", "", "Summary date (YYYY-MM-DD, default today)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all visits through the share pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.kv.Close()

			format, _ := cmd.Flags().GetString("format")
			res, err := a.exports.Export(cmd.Context(), export.Format(format))
			if err != nil {
				return err
			}
			fmt.Printf("exported %d records as %s (%s)\n", res.Records, res.Filename, res.Outcome)
			return nil
		},
	}
	cmd.Flags().String("format", "csv", "Export format: csv, xls, or xlsx")
	return cmd
}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write the full collection as a JSON backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.kv.Close()

			payload, err := a.visits.Backup(cmd.Context())
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if err := os.WriteFile(out, payload, 0o640); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Println("backup written to", out)
			return nil
		},
	}
	cmd.Flags().String("out", "OPD_backup.json", "Backup file path")
	return cmd
}

func restoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Merge a JSON backup into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			payload, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}

			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.kv.Close()

			count, err := a.visits.Restore(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Printf("merged %d records\n", count)
			return nil
		},
	}
	cmd.Flags().String("file", "", "Backup file to merge")
	return cmd
}

func clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved visit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.kv.Close()

			if err := a.visits.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("cleared")
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm deletion")
	return cmd
}
