package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Borislavv/masjid-tv-display/internal/display"
	"github.com/Borislavv/masjid-tv-display/internal/display/config"
	"github.com/Borislavv/masjid-tv-display/pkg/k8s/probe/liveness"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"
)

var envs = []string{
	"APP_ENV",
	"APP_DEBUG",
	"DISPLAY_ID",
	"CACHE_MAX_SIZE",
	"CACHE_DEFAULT_TTL",
	"CACHE_ENABLE_COMPRESSION",
	"CACHE_COMPRESSION_THRESHOLD",
	"CACHE_COMPRESSION_CODEC",
	"CACHE_OFFLOAD_COMPRESSION",
	"CACHE_COMPRESSION_TIMEOUT",
	"CACHE_ENABLE_PERSISTENCE",
	"CACHE_CLEANUP_INTERVAL",
	"CACHE_DEBUG",
	"STORAGE_DRIVER",
	"STORAGE_PATH",
	"OFFLINE_MAX_CACHE_AGE",
	"OFFLINE_MAX_RETRIES",
	"OFFLINE_RETRY_DELAY",
	"OFFLINE_ENABLE_FALLBACK",
	"OFFLINE_REFRESH_INTERVAL",
	"NETWORK_PROBE_URL",
	"NETWORK_PROBE_INTERVAL",
	"NETWORK_PROBE_TIMEOUT",
	"CAROUSEL_INTERVAL",
	"CAROUSEL_REFRESH_INTERVAL",
	"CAROUSEL_MAX_ITEMS",
	"PRAYER_LOCATION",
	"PERF_ENABLED",
	"PERF_MAX_MEMORY_MB",
	"PERF_SAMPLE_INTERVAL",
	"PERF_WINDOW",
	"PERF_MIN_FRAME_RATE",
	"PERF_MAX_LATENCY",
	"PERF_MAX_INITIAL_LOAD",
	"PERF_MAX_TRANSITION",
	"BACKEND_URL",
	"BACKEND_TOKEN",
	"BACKEND_TIMEOUT",
	"BACKEND_RPS",
	"SERVER_NAME",
	"SERVER_PORT",
	"SERVER_SHUTDOWN_TIMEOUT",
	"SERVER_REQUEST_TIMEOUT",
	"IS_PROMETHEUS_METRICS_ENABLED",
	"LIVENESS_PROBE_FAILED_TIMEOUT",
	"DEMO_CONTENT_ITEMS",
}

// init loads .env files (missing ones are fine) and binds every known variable.
func init() {
	for _, file := range []string{".env", ".env.local"} {
		if err := godotenv.Overload(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	viper.AutomaticEnv()
	for _, env := range envs {
		_ = viper.BindEnv(env)
	}
	viper.SetDefault("APP_ENV", "prod")
	viper.SetDefault("CACHE_ENABLE_COMPRESSION", true)
	viper.SetDefault("CACHE_ENABLE_PERSISTENCE", true)
	viper.SetDefault("OFFLINE_ENABLE_FALLBACK", true)
	viper.SetDefault("PERF_ENABLED", true)
	viper.SetDefault("IS_PROMETHEUS_METRICS_ENABLED", true)
}

func setMaxProcs() {
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug().Msgf(format, args...)
	})); err != nil {
		log.Err(err).Msg("[main] setting up GOMAXPROCS value failed")
		panic(err)
	}
	log.Info().Msgf("[main] optimized GOMAXPROCS=%d was set up", runtime.GOMAXPROCS(0))
}

func loadCfg() *config.Config {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		log.Err(err).Msg("[main] failed to unmarshal config from envs")
		panic(err)
	}
	return cfg.Normalize()
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.IsDebugOn() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadCfg()
	setupLogger(cfg)
	setMaxProcs()

	probe := liveness.NewProbe(cfg.LivenessProbeTimeout)

	app, err := display.NewApp(ctx, cfg, probe)
	if err != nil {
		log.Err(err).Msg("[main] failed to init display app")
		os.Exit(1)
	}

	// Start blocks until a signal cancels ctx, then tears everything down.
	app.Start()
}
