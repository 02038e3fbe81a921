// SPDX-License-Identifier: MIT

// Package config loads and validates the beatfunc configuration with
// precedence ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backend identifiers accepted by AppConfig.CacheBackend.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendBadger = "badger"
)

// defaultOrigins is the production allowlist of Beat Machine frontends.
var defaultOrigins = []string{
	"https://mystifying-heisenberg-1d575a.netlify.com",
	"https://beatmachine.branchpanic.me",
	"https://tbm.branchpanic.me",
}

// AppConfig holds the full application configuration.
type AppConfig struct {
	// HTTP
	ListenAddr     string        `yaml:"listenAddr"`
	MetricsEnabled bool          `yaml:"metricsEnabled"`
	MetricsAddr    string        `yaml:"metricsAddr"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
	AllOrigins     bool          `yaml:"allOrigins"`
	RateLimit      int           `yaml:"rateLimit"`
	RateWindow     time.Duration `yaml:"rateWindow"`

	// Processing
	WorkDir        string        `yaml:"workDir"`
	MaxSongLength  time.Duration `yaml:"maxSongLength"`
	MaxEffects     int           `yaml:"maxEffects"`
	MaxJobs        int64         `yaml:"maxJobs"`
	ProcessTimeout time.Duration `yaml:"processTimeout"`

	// External binaries
	FFmpegPath  string `yaml:"ffmpegPath"`
	FFprobePath string `yaml:"ffprobePath"`
	YTDLPPath   string `yaml:"ytdlpPath"`

	// DownloadRate caps yt-dlp starts per minute. Zero disables the cap.
	DownloadRate int `yaml:"downloadRate"`

	// Analysis cache
	CacheBackend string        `yaml:"cacheBackend"`
	CacheSize    int           `yaml:"cacheSize"`
	CacheTTL     time.Duration `yaml:"cacheTTL"`
	RedisAddr    string        `yaml:"redisAddr"`
	RedisDB      int           `yaml:"redisDB"`
	BadgerPath   string        `yaml:"badgerPath"`

	// Observability
	LogLevel      string  `yaml:"logLevel"`
	TraceEnabled  bool    `yaml:"traceEnabled"`
	TraceExporter string  `yaml:"traceExporter"`
	TraceEndpoint string  `yaml:"traceEndpoint"`
	TraceSampling float64 `yaml:"traceSampling"`
}

// Defaults returns the built-in configuration defaults.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr:     ":8080",
		MetricsEnabled: true,
		MetricsAddr:    ":9090",
		AllowedOrigins: defaultOrigins,
		RateLimit:      60,
		RateWindow:     time.Minute,
		WorkDir:        filepath.Join(os.TempDir(), "beatfunc"),
		MaxSongLength:  390 * time.Second,
		MaxEffects:     5,
		MaxJobs:        4,
		ProcessTimeout: 5 * time.Minute,
		FFmpegPath:     "ffmpeg",
		FFprobePath:    "ffprobe",
		YTDLPPath:      "yt-dlp",
		DownloadRate:   10,
		CacheBackend:   CacheBackendMemory,
		CacheSize:      64,
		CacheTTL:       24 * time.Hour,
		RedisAddr:      "localhost:6379",
		BadgerPath:     "",
		LogLevel:       "info",
		TraceExporter:  "http",
		TraceSampling:  0.1,
	}
}

// Load builds the configuration with precedence ENV > file > defaults.
// path may be empty, in which case only ENV and defaults apply.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path is operator supplied
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) {
	cfg.ListenAddr = ParseString("BEATFUNC_LISTEN", cfg.ListenAddr)
	cfg.MetricsEnabled = ParseBool("BEATFUNC_METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.MetricsAddr = ParseString("BEATFUNC_METRICS_ADDR", cfg.MetricsAddr)
	cfg.AllowedOrigins = ParseStringSlice("BEATFUNC_ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.AllOrigins = ParseBool("BEATFUNC_ALL_ORIGINS", cfg.AllOrigins)
	cfg.RateLimit = ParseInt("BEATFUNC_RATE_LIMIT", cfg.RateLimit)
	cfg.RateWindow = ParseDuration("BEATFUNC_RATE_WINDOW", cfg.RateWindow)

	cfg.WorkDir = ParseString("BEATFUNC_WORKDIR", cfg.WorkDir)
	cfg.MaxSongLength = time.Duration(ParseInt("BEATFUNC_MAX_SONG_SECONDS", int(cfg.MaxSongLength/time.Second))) * time.Second
	cfg.MaxEffects = ParseInt("BEATFUNC_MAX_EFFECTS", cfg.MaxEffects)
	cfg.MaxJobs = int64(ParseInt("BEATFUNC_MAX_JOBS", int(cfg.MaxJobs)))
	cfg.ProcessTimeout = ParseDuration("BEATFUNC_PROCESS_TIMEOUT", cfg.ProcessTimeout)

	cfg.FFmpegPath = ParseString("BEATFUNC_FFMPEG", cfg.FFmpegPath)
	cfg.FFprobePath = ParseString("BEATFUNC_FFPROBE", cfg.FFprobePath)
	cfg.YTDLPPath = ParseString("BEATFUNC_YTDLP", cfg.YTDLPPath)
	cfg.DownloadRate = ParseInt("BEATFUNC_DOWNLOAD_RATE", cfg.DownloadRate)

	cfg.CacheBackend = ParseString("BEATFUNC_CACHE_BACKEND", cfg.CacheBackend)
	cfg.CacheSize = ParseInt("BEATFUNC_CACHE_SIZE", cfg.CacheSize)
	cfg.CacheTTL = ParseDuration("BEATFUNC_CACHE_TTL", cfg.CacheTTL)
	cfg.RedisAddr = ParseString("BEATFUNC_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisDB = ParseInt("BEATFUNC_REDIS_DB", cfg.RedisDB)
	cfg.BadgerPath = ParseString("BEATFUNC_BADGER_PATH", cfg.BadgerPath)

	cfg.LogLevel = ParseString("BEATFUNC_LOG_LEVEL", cfg.LogLevel)
	cfg.TraceEnabled = ParseBool("BEATFUNC_TRACE_ENABLED", cfg.TraceEnabled)
	cfg.TraceExporter = ParseString("BEATFUNC_TRACE_EXPORTER", cfg.TraceExporter)
	cfg.TraceEndpoint = ParseString("BEATFUNC_TRACE_ENDPOINT", cfg.TraceEndpoint)
	cfg.TraceSampling = ParseFloat("BEATFUNC_TRACE_SAMPLING", cfg.TraceSampling)
}

// Validate checks bounds and cross-field constraints.
func (c AppConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.MaxSongLength <= 0 {
		return fmt.Errorf("max song length must be positive, got %s", c.MaxSongLength)
	}
	if c.MaxEffects < 1 {
		return fmt.Errorf("max effects must be at least 1, got %d", c.MaxEffects)
	}
	if c.MaxJobs < 1 {
		return fmt.Errorf("max jobs must be at least 1, got %d", c.MaxJobs)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache size must be at least 1, got %d", c.CacheSize)
	}
	switch c.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis cache backend requires BEATFUNC_REDIS_ADDR")
		}
	case CacheBackendBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("badger cache backend requires BEATFUNC_BADGER_PATH")
		}
	default:
		return fmt.Errorf("unknown cache backend %q (supported: memory, redis, badger)", c.CacheBackend)
	}
	if c.TraceEnabled {
		switch c.TraceExporter {
		case "grpc", "http":
		default:
			return fmt.Errorf("unknown trace exporter %q (supported: grpc, http)", c.TraceExporter)
		}
		if c.TraceEndpoint == "" {
			return fmt.Errorf("tracing enabled but BEATFUNC_TRACE_ENDPOINT is not set")
		}
	}
	return nil
}

// EnsureWorkDir creates the work directory if it does not exist and
// verifies it is writable.
func (c AppConfig) EnsureWorkDir() error {
	if err := os.MkdirAll(c.WorkDir, 0o750); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	probe := filepath.Join(c.WorkDir, ".writecheck")
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		return fmt.Errorf("work dir not writable: %w", err)
	}
	return os.Remove(probe)
}
