package main

import (
	"expvar"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xbanchon/image-conversion-service/internal/env"
	"github.com/xbanchon/image-conversion-service/internal/processor"
	"github.com/xbanchon/image-conversion-service/internal/ratelimiter"
	"github.com/xbanchon/image-conversion-service/internal/store/cache"
	"github.com/xbanchon/image-conversion-service/pkg/converter"
	"go.uber.org/zap"
)

const version = "1.0.0"

var (
	conversionsTotal = expvar.NewInt("conversions")
	failuresTotal    = expvar.NewInt("failures")
	cacheHitsTotal   = expvar.NewInt("cache_hits")
)

func main() {
	//Logger (Zap)
	logger := zap.Must(zap.NewProduction()).Sugar()

	defer logger.Sync() //flushes buffer, if any

	if err := env.Load(); err != nil {
		logger.Fatal(err)
	}

	cfg := config{
		addr:        env.GetString("ADDR", ":8080"),
		maxUploadMB: int64(env.GetInt("MAX_UPLOAD_MB", 10)),
		tools: toolsConfig{
			shell:            env.GetString("SHELL_BIN", processor.DefaultShell),
			gifsicle:         env.GetString("GIFSICLE_BIN", processor.DefaultGifsicle),
			gif2webp:         env.GetString("GIF2WEBP_BIN", processor.DefaultGif2WebP),
			cleanupOnFailure: env.GetBool("CLEANUP_ON_FAILURE", false),
		},
		redisCfg: redisConfig{
			addr:    env.GetString("REDIS_ADDR", "localhost:6379"),
			pw:      env.GetString("REDIS_PW", ""),
			db:      env.GetInt("REDIS_DB", 0),
			enabled: env.GetBool("REDIS_ENABLED", false),
			ttl:     env.GetDuration("CACHE_TTL", cache.ConversionExpTime),
		},
		ratelimiter: ratelimiter.Config{
			RequestPerTimeFrame: env.GetInt("RL_REQS_COUNT", 15),
			TimeFrame:           5 * time.Second,
			Enabled:             env.GetBool("RL_ENABLED", true),
		},
	}

	//Cache
	var rdb *redis.Client
	if cfg.redisCfg.enabled {
		rdb = cache.NewRedisClient(cfg.redisCfg.addr, cfg.redisCfg.pw, cfg.redisCfg.db)
		logger.Info("cache connection established!")

		defer rdb.Close()
	}

	//Cache Storage
	cacheStore := cache.NewRedisStorage(rdb, cfg.redisCfg.ttl)

	//Rate Limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.ratelimiter.RequestPerTimeFrame,
		cfg.ratelimiter.TimeFrame,
	)

	conv := converter.New(
		converter.WithLogger(logger),
		converter.WithShell(cfg.tools.shell),
		converter.WithGifsicle(cfg.tools.gifsicle),
		converter.WithGif2WebP(cfg.tools.gif2webp),
		converter.WithCleanupOnFailure(cfg.tools.cleanupOnFailure),
	)

	app := &application{
		config:       cfg,
		logger:       logger,
		converter:    conv,
		cacheStorage: cacheStore,
		rateLimiter:  rateLimiter,
	}

	// Metrics
	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
