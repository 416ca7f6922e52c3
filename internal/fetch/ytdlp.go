package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const (
	defaultFetchTimeout = 300 * time.Second
	maxDiagnosticBytes  = 2048
)

// Error is a failed fetch. Output carries the tail of the utility's
// combined stdout/stderr for operator diagnosis; the user-facing message
// stays generic.
type Error struct {
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("yt-dlp: %v", e.Err)
	}
	return fmt.Sprintf("yt-dlp: %v: %s", e.Err, e.Output)
}

func (e *Error) Unwrap() error { return e.Err }

// YtDlp fetches a source URL and transcodes its audio track to a local
// file by invoking the yt-dlp utility as a subprocess.
type YtDlp struct {
	binPath     string
	ffmpegPath  string
	audioFormat string
	timeout     time.Duration
	logger      *slog.Logger
}

type YtDlpConfig struct {
	BinPath        string
	FFmpegPath     string
	AudioFormat    string
	TimeoutSeconds int
	Logger         *slog.Logger
}

func NewYtDlp(cfg YtDlpConfig) *YtDlp {
	if cfg.BinPath == "" {
		cfg.BinPath = "yt-dlp"
	}
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = "mp3"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &YtDlp{
		binPath:     cfg.BinPath,
		ffmpegPath:  cfg.FFmpegPath,
		audioFormat: cfg.AudioFormat,
		timeout:     timeout,
		logger:      cfg.Logger,
	}
}

// Fetch downloads sourceURL, extracts the audio track, and writes it to
// destPath. On failure any partial file at destPath is discarded before
// returning, so callers never have to clean up after a failed fetch.
// A single attempt is made.
func (y *YtDlp) Fetch(ctx context.Context, sourceURL, destPath string) error {
	args := []string{
		"-x",
		"--audio-format", y.audioFormat,
		"--no-playlist",
		"-o", destPath,
	}
	if y.ffmpegPath != "" {
		args = append(args, "--ffmpeg-location", y.ffmpegPath)
	}
	args = append(args, sourceURL)

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	y.logger.Debug("invoking fetch utility", "bin", y.binPath, "url", sourceURL, "dest", destPath)

	cmd := exec.CommandContext(ctx, y.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		y.discardPartial(destPath)
		if ctx.Err() != nil {
			return &Error{Output: tail(output), Err: fmt.Errorf("timed out or cancelled: %w", ctx.Err())}
		}
		return &Error{Output: tail(output), Err: err}
	}

	return nil
}

// discardPartial removes whatever a failed invocation left at destPath,
// including yt-dlp's in-progress ".part" file.
func (y *YtDlp) discardPartial(destPath string) {
	for _, p := range []string{destPath, destPath + ".part"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			y.logger.Warn("failed to discard partial file", "path", p, "err", err)
		}
	}
}

func tail(output []byte) string {
	if len(output) > maxDiagnosticBytes {
		output = output[len(output)-maxDiagnosticBytes:]
	}
	return string(output)
}
