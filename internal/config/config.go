package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for TuneBot.
//
// Credentials are deliberately env-only (no yaml tags): they must never be
// written to or read from a config file on disk.
type Config struct {
	General  GeneralConfig  `yaml:"general"`
	Telegram TelegramConfig `yaml:"telegram"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Fetch    FetchConfig    `yaml:"fetch"`
}

type GeneralConfig struct {
	LogLevel              string `yaml:"logLevel"`
	MaxConcurrentCommands int    `yaml:"maxConcurrentCommands"`
}

type TelegramConfig struct {
	Token     string   `yaml:"-"`
	ParseMode string   `yaml:"parseMode"`
	AllowFrom []string `yaml:"allowFrom"`
}

type YouTubeConfig struct {
	APIKey         string `yaml:"-"`
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type FetchConfig struct {
	YtDlpPath      string `yaml:"ytDlpPath"`
	FFmpegPath     string `yaml:"ffmpegPath"`
	AudioFormat    string `yaml:"audioFormat"`
	DownloadDir    string `yaml:"downloadDir"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Environment variable names. The two credentials are required; the rest
// override file/default values when set.
const (
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvYouTubeAPIKey = "YOUTUBE_API_KEY"

	envParseMode   = "TELEGRAM_PARSE_MODE"
	envAllowFrom   = "TELEGRAM_ALLOW_FROM"
	envEndpoint    = "YOUTUBE_API_ENDPOINT"
	envYtDlpPath   = "YTDLP_PATH"
	envFFmpegPath  = "FFMPEG_PATH"
	envAudioFormat = "AUDIO_FORMAT"
	envDownloadDir = "DOWNLOAD_DIR"
	envLogLevel    = "LOG_LEVEL"
)

// DefaultConfigDir returns the default config directory (~/.tunebot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tunebot"
	}
	return filepath.Join(home, ".tunebot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yml")
}

// Load builds the configuration: defaults, then the optional YAML file at
// path, then environment overrides, then validation. A missing file is not
// an error — env-only operation is the normal deployment mode. A .env file
// in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// env-only mode
		default:
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Telegram.Token = os.Getenv(EnvTelegramToken)
	cfg.YouTube.APIKey = os.Getenv(EnvYouTubeAPIKey)

	setIfPresent(envParseMode, &cfg.Telegram.ParseMode)
	setIfPresent(envEndpoint, &cfg.YouTube.Endpoint)
	setIfPresent(envYtDlpPath, &cfg.Fetch.YtDlpPath)
	setIfPresent(envFFmpegPath, &cfg.Fetch.FFmpegPath)
	setIfPresent(envAudioFormat, &cfg.Fetch.AudioFormat)
	setIfPresent(envDownloadDir, &cfg.Fetch.DownloadDir)
	setIfPresent(envLogLevel, &cfg.General.LogLevel)

	if v := os.Getenv(envAllowFrom); v != "" {
		var ids []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				ids = append(ids, s)
			}
		}
		cfg.Telegram.AllowFrom = ids
	}
}

func setIfPresent(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that the config has valid values. Missing credentials are
// fatal: the process must not start without them.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Telegram.Token == "" {
		errs = append(errs, fmt.Sprintf("missing credentials: %s is not set", EnvTelegramToken))
	}
	if cfg.YouTube.APIKey == "" {
		errs = append(errs, fmt.Sprintf("missing credentials: %s is not set", EnvYouTubeAPIKey))
	}

	if cfg.General.MaxConcurrentCommands < 1 || cfg.General.MaxConcurrentCommands > 100 {
		errs = append(errs, "general.maxConcurrentCommands must be between 1 and 100")
	}
	if cfg.YouTube.Endpoint == "" {
		errs = append(errs, "youtube.endpoint must not be empty")
	}
	if cfg.YouTube.TimeoutSeconds < 1 {
		errs = append(errs, "youtube.timeoutSeconds must be >= 1")
	}
	if cfg.Fetch.YtDlpPath == "" {
		errs = append(errs, "fetch.ytDlpPath must not be empty")
	}
	if cfg.Fetch.AudioFormat == "" {
		errs = append(errs, "fetch.audioFormat must not be empty")
	}
	if cfg.Fetch.TimeoutSeconds < 1 {
		errs = append(errs, "fetch.timeoutSeconds must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Sanitize returns a copy of cfg with secrets masked, safe for display.
func Sanitize(cfg *Config) *Config {
	out := *cfg
	out.Telegram.Token = maskSecret(cfg.Telegram.Token)
	out.YouTube.APIKey = maskSecret(cfg.YouTube.APIKey)
	return &out
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
