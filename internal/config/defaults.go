package config

func defaults() map[string]any {
	return map[string]any{
		"server.host": "0.0.0.0",
		"server.port": 8000,

		"download.root":           "/app/downloads",
		"download.allowed_root":   "/app/downloads",
		"download.max_file_size":  500 * 1024 * 1024,
		"download.max_concurrent": 5,
		"download.timeout":        "300s",
		"download.retention":      "168h",
		"download.sweep_interval": "1h",
		"download.stderr_limit":   512,
		"download.keep_failed":    false,

		"tools.ytdlp":     "yt-dlp",
		"tools.gallerydl": "gallery-dl",

		"ratelimit.download_per_minute": 10,
		"ratelimit.files_per_minute":    30,
		"ratelimit.default_per_hour":    50,

		"metrics.enabled": true,

		"logging.level":  "info",
		"logging.format": "pretty",
	}
}
