/*
main.go - staffctl entry point

PURPOSE:
  CLI for the staffing back-office timesheet engine.

COMMANDS:
  serve    Start the HTTP API server
  export   Write one persisted timesheet as an xlsx workbook

STARTUP SEQUENCE (serve):
  1. Load .env / environment configuration
  2. Initialize logging
  3. Open the SQLite store
  4. Wire the reconciler and API handler
  5. Start the server with graceful shutdown (SIGINT/SIGTERM, 30s drain)

CONFIGURATION:
  SERVER_PORT   HTTP server port (default: 8080)
  DB_PATH       SQLite database path (default: staffing.db,
                use ":memory:" for an in-memory database)
  LOG_LEVEL     trace|debug|info|warn|error (default: info)
  LOG_FORMAT    console|json (default: console)
  LOG_OUTPUT    stdout|stderr|file path (default: stdout)
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/crewdesk/staffing-engine/api"
	"github.com/crewdesk/staffing-engine/config"
	"github.com/crewdesk/staffing-engine/export"
	"github.com/crewdesk/staffing-engine/logger"
	"github.com/crewdesk/staffing-engine/reconcile"
	"github.com/crewdesk/staffing-engine/store/sqlite"
	"github.com/crewdesk/staffing-engine/timesheet"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "staffctl",
	Short: "Staffing back-office timesheet engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load() // optional .env
		cfg = config.Load()
		return logger.Setup(logger.Config{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: cfg.LogOutput,
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("server")

		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer store.Close()

		rec := reconcile.New(store, logger.WithComponent("reconcile"))
		handler := api.NewHandler(store, rec, logger.WithComponent("api"))
		router := api.NewRouter(handler)

		server := &http.Server{
			Addr:         ":" + cfg.ServerPort,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("port", cfg.ServerPort).Str("db", cfg.DBPath).Msg("server starting")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-quit:
		}

		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		log.Info().Msg("server stopped")
		return nil
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <timesheet-id>",
	Short: "Write one persisted timesheet as an xlsx workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer store.Close()

		rec, err := store.Get(cmd.Context(), timesheet.TimesheetID(args[0]))
		if err != nil {
			return err
		}

		book, err := export.WeekWorkbook(rec)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = fmt.Sprintf("timesheet_%s_%s.xlsx", rec.PositionID, rec.WeekStart)
		}
		if err := book.SaveAs(out); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		exportLog := logger.WithComponent("export")
		exportLog.Info().Str("file", out).Msg("workbook written")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file path")
	rootCmd.AddCommand(serveCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
