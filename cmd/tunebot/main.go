package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tunebot/internal/bus"
	"tunebot/internal/channel"
	"tunebot/internal/config"
	"tunebot/internal/fetch"
	"tunebot/internal/pipeline"
	"tunebot/internal/search"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "tunebot",
		Short: "TuneBot: Telegram music bot",
		Long:  "TuneBot finds a requested song on YouTube, extracts the audio track with yt-dlp, and sends it back to the chat.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yml (default: ~/.tunebot/config.yml)")

	root.AddCommand(serveCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bot (Telegram polling + delivery pipeline)",
		Long:  "Starts the Telegram channel and the delivery pipeline. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Missing credentials abort here, before any network connection.
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.General.LogLevel)}))

	if err := os.MkdirAll(cfg.Fetch.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	// Graceful shutdown on signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commandBus := bus.New(100, logger)
	defer commandBus.Close()

	resolver := search.NewClient(search.ClientConfig{
		Endpoint:       cfg.YouTube.Endpoint,
		APIKey:         cfg.YouTube.APIKey,
		TimeoutSeconds: cfg.YouTube.TimeoutSeconds,
		Logger:         logger,
	})

	fetcher := fetch.NewYtDlp(fetch.YtDlpConfig{
		BinPath:        cfg.Fetch.YtDlpPath,
		FFmpegPath:     cfg.Fetch.FFmpegPath,
		AudioFormat:    cfg.Fetch.AudioFormat,
		TimeoutSeconds: cfg.Fetch.TimeoutSeconds,
		Logger:         logger,
	})

	telegramCh := channel.NewTelegram(channel.TelegramConfig{
		Token:     cfg.Telegram.Token,
		AllowFrom: cfg.Telegram.AllowFrom,
		ParseMode: cfg.Telegram.ParseMode,
		Logger:    logger,
	})

	pipe := pipeline.New(pipeline.PipelineConfig{
		Resolver:    resolver,
		Fetcher:     fetcher,
		Notifier:    telegramCh,
		Bus:         commandBus,
		StageDir:    cfg.Fetch.DownloadDir,
		AudioFormat: cfg.Fetch.AudioFormat,
		Concurrency: cfg.General.MaxConcurrentCommands,
		Logger:      logger,
	})

	go pipe.Run(ctx)

	logger.Info("tunebot started. Press Ctrl+C to stop.", "version", version)

	if err := telegramCh.Start(ctx, commandBus); err != nil {
		return fmt.Errorf("telegram channel: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tunebot v%s\n", version)
		},
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
