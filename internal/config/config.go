package config

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

const envPrefix = "MD_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Download  DownloadConfig  `koanf:"download"`
	Tools     ToolsConfig     `koanf:"tools"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type DownloadConfig struct {
	Root          string        `koanf:"root"`
	AllowedRoot   string        `koanf:"allowed_root"`
	MaxFileSize   int64         `koanf:"max_file_size"`
	MaxConcurrent int           `koanf:"max_concurrent"`
	Timeout       time.Duration `koanf:"timeout"`
	Retention     time.Duration `koanf:"retention"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	StderrLimit   int           `koanf:"stderr_limit"`
	KeepFailed    bool          `koanf:"keep_failed"`
}

type ToolsConfig struct {
	YtDlp     string `koanf:"ytdlp"`
	GalleryDl string `koanf:"gallerydl"`
}

type RateLimitConfig struct {
	DownloadPerMinute int `koanf:"download_per_minute"`
	FilesPerMinute    int `koanf:"files_per_minute"`
	DefaultPerHour    int `koanf:"default_per_hour"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load builds the configuration from, in increasing precedence: defaults, the
// TOML file at configPath (if any), the legacy DOWNLOAD_DIR variable, MD_*
// environment variables and overrides (typically CLI flags). A .env file in
// the working directory is read into the environment first.
func Load(configPath string, overrides map[string]any) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	// 2. TOML config file
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// 3. Legacy variable kept for existing deployments
	if v := os.Getenv("DOWNLOAD_DIR"); v != "" {
		_ = k.Set("download.root", v)
	}

	// 4. MD_DOWNLOAD_MAX_CONCURRENT -> download.max_concurrent
	// Only the first underscore separates section from key. Empty values are
	// skipped so they never override the file.
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return envKey(key), value
	}), nil); err != nil {
		return nil, err
	}

	// 5. Explicit overrides
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	cfg.Download.Root = confineRoot(cfg.Download.Root, cfg.Download.AllowedRoot)
	return &cfg, nil
}

func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// confineRoot returns root when it lies inside allowed, and allowed otherwise.
func confineRoot(root, allowed string) string {
	allowed = filepath.Clean(allowed)
	if root == "" {
		return allowed
	}
	root = filepath.Clean(root)
	rel, err := filepath.Rel(allowed, root)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		log.Error().Str("root", root).Str("allowed_root", allowed).
			Msg("download root outside allowed root, using allowed root")
		return allowed
	}
	return root
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
