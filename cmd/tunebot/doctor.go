package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"tunebot/internal/config"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your TuneBot installation",
		Long: `Verifies that TuneBot's credentials, external utilities, and download
directory are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("TuneBot Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config loads and credentials are present
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				printFail("Configuration", err.Error())
				failed++
				fmt.Printf("\nSet %s and %s before running 'tunebot serve'.\n",
					config.EnvTelegramToken, config.EnvYouTubeAPIKey)
				return fmt.Errorf("1 check(s) failed")
			}
			printPass("Configuration", "credentials present")
			passed++

			// 2. yt-dlp on PATH (or at the configured location)
			if path, err := exec.LookPath(cfg.Fetch.YtDlpPath); err != nil {
				printFail("yt-dlp", fmt.Sprintf("not found: %s", cfg.Fetch.YtDlpPath))
				failed++
			} else {
				printPass("yt-dlp", path)
				passed++
			}

			// 3. ffmpeg, when explicitly configured
			if cfg.Fetch.FFmpegPath != "" {
				if _, err := os.Stat(cfg.Fetch.FFmpegPath); err != nil {
					printFail("ffmpeg", fmt.Sprintf("not found: %s", cfg.Fetch.FFmpegPath))
					failed++
				} else {
					printPass("ffmpeg", cfg.Fetch.FFmpegPath)
					passed++
				}
			} else if _, err := exec.LookPath("ffmpeg"); err != nil {
				printWarn("ffmpeg", "not on PATH; yt-dlp needs it to transcode audio")
				warned++
			} else {
				printPass("ffmpeg", "on PATH")
				passed++
			}

			// 4. Download directory writable
			if err := checkWritableDir(cfg.Fetch.DownloadDir); err != nil {
				printFail("Download dir", err.Error())
				failed++
			} else {
				printPass("Download dir", cfg.Fetch.DownloadDir)
				passed++
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running TuneBot.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nTuneBot should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! TuneBot is ready to run.\n")
			}
			return nil
		},
	}
}

func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create: %w", err)
	}
	probe := filepath.Join(dir, ".doctor_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	os.Remove(probe)
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-16s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-16s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-16s %s\n", check, detail)
}
