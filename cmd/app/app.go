package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xbanchon/image-conversion-service/internal/ratelimiter"
	"github.com/xbanchon/image-conversion-service/internal/store/cache"
	"github.com/xbanchon/image-conversion-service/pkg/converter"
	"go.uber.org/zap"
)

type application struct {
	config       config
	logger       *zap.SugaredLogger
	converter    *converter.Converter
	cacheStorage cache.Storage
	rateLimiter  ratelimiter.Limiter
}

type config struct {
	addr        string
	maxUploadMB int64
	tools       toolsConfig
	redisCfg    redisConfig
	ratelimiter ratelimiter.Config
}

type toolsConfig struct {
	shell            string
	gifsicle         string
	gif2webp         string
	cleanupOnFailure bool
}

type redisConfig struct {
	addr    string
	pw      string
	db      int
	enabled bool
	ttl     time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	// Upload endpoint kept at the root for older clients.
	r.Post("/", app.convertUploadHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Get("/formats", app.formatsHandler)
		r.Post("/convert", app.convertUploadHandler)
		r.Post("/command", app.convertCommandHandler)
	})

	r.Mount("/debug", middleware.Profiler())

	return r
}

func (app *application) run(mux http.Handler) error {

	srv := http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 90,
		ReadTimeout:  time.Second * 30,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server started", "addr", app.config.addr)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server stopped", "addr", app.config.addr)

	return nil
}
