package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setCredentials puts valid required credentials into the test environment.
func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv(EnvTelegramToken, "123456789:ABCdefGHIjklMNOpqrSTUvwxyz")
	t.Setenv(EnvYouTubeAPIKey, "AIzaTestKey1234567890")
}

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "t"
	cfg.YouTube.APIKey = "k"
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_MissingToken(t *testing.T) {
	cfg := Defaults()
	cfg.YouTube.APIKey = "k"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for missing telegram token")
	}
	if !strings.Contains(err.Error(), EnvTelegramToken) {
		t.Fatalf("error should name the missing variable, got: %v", err)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "t"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), EnvYouTubeAPIKey) {
		t.Fatalf("error should name the missing variable, got: %v", err)
	}
}

func TestValidate_MissingBothCredentials(t *testing.T) {
	cfg := Defaults()
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "missing credentials") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestValidate_InvalidConcurrency(t *testing.T) {
	for _, n := range []int{0, -1, 101} {
		cfg := Defaults()
		cfg.Telegram.Token = "t"
		cfg.YouTube.APIKey = "k"
		cfg.General.MaxConcurrentCommands = n
		if err := Validate(cfg); err == nil {
			t.Fatalf("expected error for maxConcurrentCommands=%d", n)
		}
	}
}

func TestValidate_InvalidTimeouts(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "t"
	cfg.YouTube.APIKey = "k"
	cfg.YouTube.TimeoutSeconds = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for youtube.timeoutSeconds=0")
	}

	cfg = Defaults()
	cfg.Telegram.Token = "t"
	cfg.YouTube.APIKey = "k"
	cfg.Fetch.TimeoutSeconds = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for fetch.timeoutSeconds=0")
	}
}

func TestValidate_EmptyAudioFormat(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "t"
	cfg.YouTube.APIKey = "k"
	cfg.Fetch.AudioFormat = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty audio format")
	}
}

// --- Load ---

func TestLoad_EnvOnly(t *testing.T) {
	setCredentials(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "123456789:ABCdefGHIjklMNOpqrSTUvwxyz" {
		t.Fatalf("token not taken from env: %q", cfg.Telegram.Token)
	}
	if cfg.Fetch.AudioFormat != "mp3" {
		t.Fatalf("expected default audio format mp3, got %q", cfg.Fetch.AudioFormat)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv(EnvTelegramToken, "")
	t.Setenv(EnvYouTubeAPIKey, "")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when credentials are absent")
	}
	if !strings.Contains(err.Error(), "missing credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	setCredentials(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
general:
  logLevel: debug
  maxConcurrentCommands: 3
fetch:
  ytDlpPath: /opt/bin/yt-dlp
  audioFormat: m4a
  downloadDir: /var/tmp/tunebot
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.General.LogLevel != "debug" {
		t.Fatalf("expected logLevel debug, got %q", cfg.General.LogLevel)
	}
	if cfg.Fetch.YtDlpPath != "/opt/bin/yt-dlp" || cfg.Fetch.AudioFormat != "m4a" {
		t.Fatalf("fetch settings not loaded: %+v", cfg.Fetch)
	}
	if cfg.General.MaxConcurrentCommands != 3 {
		t.Fatalf("expected maxConcurrentCommands=3, got %d", cfg.General.MaxConcurrentCommands)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	setCredentials(t)
	t.Setenv("AUDIO_FORMAT", "opus")
	t.Setenv("LOG_LEVEL", "warn")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("fetch:\n  audioFormat: m4a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Fetch.AudioFormat != "opus" {
		t.Fatalf("env should override file, got %q", cfg.Fetch.AudioFormat)
	}
	if cfg.General.LogLevel != "warn" {
		t.Fatalf("expected logLevel warn, got %q", cfg.General.LogLevel)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	setCredentials(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	os.WriteFile(path, []byte("general: [not a mapping"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_SecretsNeverReadFromFile(t *testing.T) {
	setCredentials(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "telegram:\n  token: file-token\nyoutube:\n  apiKey: file-key\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token == "file-token" {
		t.Fatal("token must not be readable from config file")
	}
	if cfg.YouTube.APIKey == "file-key" {
		t.Fatal("API key must not be readable from config file")
	}
}

func TestLoad_AllowFromList(t *testing.T) {
	setCredentials(t)
	t.Setenv("TELEGRAM_ALLOW_FROM", "123, 456 ,789")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Telegram.AllowFrom) != 3 || cfg.Telegram.AllowFrom[1] != "456" {
		t.Fatalf("unexpected allow list: %v", cfg.Telegram.AllowFrom)
	}
}

// --- Sanitize ---

func TestSanitize_MasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "123456789:ABCdefGHIjklMNOpqrSTUvwxyz"
	cfg.YouTube.APIKey = "AIzaSomethingSecret"

	sanitized := Sanitize(cfg)

	if sanitized.Telegram.Token == cfg.Telegram.Token {
		t.Fatal("telegram token should be masked")
	}
	if sanitized.YouTube.APIKey == cfg.YouTube.APIKey {
		t.Fatal("API key should be masked")
	}
	// Verify original is untouched
	if cfg.Telegram.Token != "123456789:ABCdefGHIjklMNOpqrSTUvwxyz" {
		t.Fatal("original config should not be modified")
	}
}

func TestSanitize_ShortSecret(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "short"
	sanitized := Sanitize(cfg)
	if sanitized.Telegram.Token != "***" {
		t.Fatalf("short secret should be '***', got %q", sanitized.Telegram.Token)
	}
}

// --- Defaults ---

func TestDefaults_SaneValues(t *testing.T) {
	cfg := Defaults()
	if cfg == nil {
		t.Fatal("defaults returned nil")
	}
	if cfg.Fetch.YtDlpPath != "yt-dlp" {
		t.Fatalf("expected yt-dlp default, got %q", cfg.Fetch.YtDlpPath)
	}
	if cfg.Fetch.DownloadDir == "" {
		t.Fatal("download dir should default to the system temp dir")
	}
	if cfg.YouTube.Endpoint == "" {
		t.Fatal("youtube endpoint should have a default")
	}
}
