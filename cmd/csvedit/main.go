// Command csvedit loads a CSV file into an editable table, either in the
// browser (serve) or in the terminal (edit).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvedit/internal/application"
	"github.com/JonMunkholm/csvedit/internal/config"
	"github.com/JonMunkholm/csvedit/internal/logging"
)

var (
	envFile     string
	logFile     string
	logLevel    string
	maxFileSize string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "csvedit",
		Short: "Upload a CSV file and edit it as a table",
		Long: `csvedit turns a CSV file into an editable table. The first line is the
header; every later line is a row. Edits apply cell by cell.`,
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web editor",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")

	editCmd := &cobra.Command{
		Use:   "edit [file.csv]",
		Short: "Edit a CSV file in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEdit,
	}
	editCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file (default: discard)")
	editCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	editCmd.Flags().StringVar(&maxFileSize, "max-size", "10MB", "Largest file accepted, e.g. 512KB or 10MB")

	rootCmd.AddCommand(serveCmd, editCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Overload(envFile); err != nil {
		slog.Info("no .env file found, using environment variables", "file", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	return application.Serve(cmd.Context(), cfg)
}

func runEdit(cmd *cobra.Command, args []string) error {
	size, err := config.ParseByteSize(maxFileSize)
	if err != nil {
		return fmt.Errorf("--max-size: %w", err)
	}

	var path string
	if len(args) == 1 {
		path = args[0]
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}

	return application.Edit(cmd.Context(), path, application.EditOptions{
		LogFile:     logFile,
		LogLevel:    logLevel,
		MaxFileSize: size,
	})
}
