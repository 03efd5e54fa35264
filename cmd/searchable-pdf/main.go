package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/searchabledocflow/internal/config"
	"github.com/Lllllllleong/searchabledocflow/internal/docintel"
	"github.com/Lllllllleong/searchabledocflow/internal/services"
)

func main() {
	// Structured logging from the first line on; the level is adjusted once
	// configuration is loaded.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command := NewSearchablePDFCommand()
	if err := command.ExecuteContext(ctx); err != nil {
		slog.Error("searchable-pdf failed", "error", err)
		os.Exit(1)
	}
}

// NewSearchablePDFCommand builds the root command. Endpoint and credentials
// come from the environment; flags override the remaining tunables.
func NewSearchablePDFCommand() *cobra.Command {
	var (
		output       string
		pages        int
		pollInterval time.Duration
		timeout      time.Duration
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "searchable-pdf [flags] INPUT.pdf",
		Short: "searchable-pdf renders a searchable copy of a PDF via Azure Document Intelligence.",
		Long: `searchable-pdf submits a sample of the input PDF to the Azure Document
Intelligence prebuilt-read model, waits for the asynchronous analysis to
finish, and writes the rendered searchable PDF next to the input as
<name>_searchable.pdf.

Required environment: AZURE_ENDPOINT, AZURE_API_KEY.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("pages") {
				cfg.MaxPages = pages
			}
			if cmd.Flags().Changed("poll-interval") {
				cfg.PollInterval = pollInterval
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = timeout
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			setupLogging(cfg.LogLevel)

			return run(cmd.Context(), cfg, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path for the searchable PDF (default: <input>_searchable.pdf)")
	cmd.Flags().IntVar(&pages, "pages", 0, "number of leading pages to submit for analysis")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "delay between operation status polls")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall deadline for the analyze operation (0 = none)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, inputPath, outputPath string) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	client := docintel.New(docintel.Config{
		Endpoint:     cfg.Endpoint,
		APIKey:       cfg.APIKey,
		PollInterval: cfg.PollInterval,
		PollJitter:   cfg.PollJitter,
	})
	service := services.NewSearchableService(client, services.SearchableConfig{
		MaxPages:   cfg.MaxPages,
		OutputPath: outputPath,
	})

	_, err := service.Process(ctx, inputPath)
	return err
}

func setupLogging(level string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
