// SPDX-License-Identifier: MIT

// Command beatfuncd runs the beatfunc HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dhsavell/beat-func/internal/api"
	"github.com/dhsavell/beat-func/internal/audio"
	"github.com/dhsavell/beat-func/internal/cache"
	"github.com/dhsavell/beat-func/internal/config"
	"github.com/dhsavell/beat-func/internal/daemon"
	"github.com/dhsavell/beat-func/internal/download"
	"github.com/dhsavell/beat-func/internal/health"
	"github.com/dhsavell/beat-func/internal/log"
	"github.com/dhsavell/beat-func/internal/media/ffmpeg"
	"github.com/dhsavell/beat-func/internal/songs"
	"github.com/dhsavell/beat-func/internal/telemetry"
	"github.com/dhsavell/beat-func/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	log.Configure(log.Config{
		Service: "beatfunc",
		Version: version.Version,
	})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "config.load_failed").
			Str(log.FieldPath, *configPath).
			Msg("failed to load configuration")
	}

	// Re-apply the configured level now that config is loaded.
	log.Configure(log.Config{Level: cfg.LogLevel})

	if err := cfg.EnsureWorkDir(); err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "workdir.unusable").
			Str(log.FieldPath, cfg.WorkDir).
			Msg("work directory is not usable")
	}

	tracer, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.TraceEnabled,
		ServiceName:    "beatfunc",
		ServiceVersion: version.Version,
		Environment:    config.ParseString("BEATFUNC_ENVIRONMENT", "production"),
		ExporterType:   cfg.TraceExporter,
		Endpoint:       cfg.TraceEndpoint,
		SamplingRate:   cfg.TraceSampling,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "telemetry.init_failed").
			Msg("failed to initialize tracing")
	}

	store, err := newCacheStore(cfg)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "cache.init_failed").
			Str("backend", cfg.CacheBackend).
			Msg("failed to initialize analysis cache")
	}

	codec, err := ffmpeg.NewCodec(cfg.FFmpegPath, cfg.FFprobePath, audio.DefaultFormat)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "codec.init_failed").
			Msg("failed to initialize codec")
	}

	downloader := download.New(download.Config{
		BinPath:       cfg.YTDLPPath,
		WorkDir:       cfg.WorkDir,
		Timeout:       cfg.ProcessTimeout,
		RatePerMinute: cfg.DownloadRate,
	})

	processor := songs.NewProcessor(codec, store, songs.Config{
		MaxSongLength: cfg.MaxSongLength,
		MaxJobs:       cfg.MaxJobs,
		CacheTTL:      cfg.CacheTTL,
	})

	healthMgr := health.NewManager(version.Version)
	healthMgr.RegisterChecker(health.NewBinaryChecker("ffmpeg", cfg.FFmpegPath))
	healthMgr.RegisterChecker(health.NewBinaryChecker("ffprobe", cfg.FFprobePath))
	healthMgr.RegisterChecker(health.NewBinaryChecker("yt-dlp", cfg.YTDLPPath))
	healthMgr.RegisterChecker(health.NewDirChecker("workdir", cfg.WorkDir))
	healthMgr.RegisterChecker(health.NewCacheChecker(store))

	origins := cfg.AllowedOrigins
	if cfg.AllOrigins {
		origins = []string{"*"}
	}
	tracingService := ""
	if cfg.TraceEnabled {
		tracingService = "beatfunc"
	}

	srv := api.New(api.Config{
		WorkDir:        cfg.WorkDir,
		MaxEffects:     cfg.MaxEffects,
		AllowedOrigins: origins,
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
		TracingService: tracingService,
	}, processor, downloader, healthMgr)

	deps := daemon.Deps{
		Logger:     log.Base(),
		APIHandler: srv.Handler(),
	}
	if cfg.MetricsEnabled {
		deps.MetricsAddr = cfg.MetricsAddr
		deps.MetricsHandler = promhttp.Handler()
	}

	mgr, err := daemon.NewManager(config.ParseServerConfig(cfg.ListenAddr), deps)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "daemon.init_failed").
			Msg("failed to initialize daemon")
	}

	mgr.RegisterShutdownHook("cache", func(context.Context) error {
		return store.Close()
	})
	mgr.RegisterShutdownHook("telemetry", tracer.Shutdown)

	logger.Info().
		Str(log.FieldEvent, "daemon.starting").
		Str("listen", cfg.ListenAddr).
		Str("cache_backend", cfg.CacheBackend).
		Msg("beatfunc starting")

	if err := mgr.Start(ctx); err != nil {
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "daemon.failed").
			Msg("daemon exited with error")
		os.Exit(1)
	}
}

// newCacheStore builds the configured analysis cache backend.
func newCacheStore(cfg config.AppConfig) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		return cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: config.ParseString("BEATFUNC_REDIS_PASSWORD", ""),
			DB:       cfg.RedisDB,
		}, log.WithComponent("cache"))
	case config.CacheBackendBadger:
		return cache.NewBadgerStore(cfg.BadgerPath, log.WithComponent("cache"))
	default:
		return cache.NewMemoryStore(cfg.CacheSize), nil
	}
}
