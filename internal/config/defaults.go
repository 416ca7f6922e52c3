package config

import "os"

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:              "info",
			MaxConcurrentCommands: 5,
		},
		Telegram: TelegramConfig{
			ParseMode: "Markdown",
		},
		YouTube: YouTubeConfig{
			Endpoint:       "https://www.googleapis.com/youtube/v3/search",
			TimeoutSeconds: 15,
		},
		Fetch: FetchConfig{
			YtDlpPath:      "yt-dlp",
			AudioFormat:    "mp3",
			DownloadDir:    os.TempDir(),
			TimeoutSeconds: 300,
		},
	}
}
