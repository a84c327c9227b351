// Package converter converts image files between GIF, PNG, JPEG, WEBP and
// AVIF, choosing a pipeline from the input and output file extensions.
package converter

import (
	"time"

	"github.com/xbanchon/image-conversion-service/internal/pipeline"
	"github.com/xbanchon/image-conversion-service/internal/processor"
	"go.uber.org/zap"
)

type Converter struct {
	runner *pipeline.Runner
	logger *zap.SugaredLogger
}

type Option func(*Converter)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Converter) {
		if logger == nil {
			logger = zap.NewNop().Sugar()
		}
		c.logger = logger
		c.runner.Logger = logger
		c.runner.Tools.Logger = logger
	}
}

// WithGifsicle overrides the gifsicle binary.
func WithGifsicle(bin string) Option {
	return func(c *Converter) {
		c.runner.Tools.Gifsicle = bin
	}
}

// WithGif2WebP overrides the gif2webp binary.
func WithGif2WebP(bin string) Option {
	return func(c *Converter) {
		c.runner.Tools.Gif2WebP = bin
	}
}

// WithShell overrides the shell used to run the external tools.
func WithShell(shell string) Option {
	return func(c *Converter) {
		c.runner.Tools.Shell = shell
	}
}

// WithCleanupOnFailure removes intermediate files also when a later stage
// fails.
func WithCleanupOnFailure(cleanup bool) Option {
	return func(c *Converter) {
		c.runner.CleanupOnFailure = cleanup
	}
}

func New(opts ...Option) *Converter {
	runner := pipeline.NewRunner(processor.NewTools(nil))
	c := &Converter{
		runner: runner,
		logger: runner.Logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var defaultConverter = New()

// Convert runs cfg with the default converter.
func Convert(cfg Config) error {
	return defaultConverter.Convert(cfg)
}

// Convert resolves the pipeline for cfg, validates it and runs it. Resolution
// and validation happen before any file is opened.
func (c *Converter) Convert(cfg Config) error {
	id, err := Resolve(cfg.InputPath(), cfg.OutputPath())
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	if err := pipelines[id](c.runner, cfg); err != nil {
		c.logger.Infow("conversion failed", "pipeline", id.String(), "input", cfg.InputPath(), "error", err.Error())
		return &PipelineError{Pipeline: id, Err: err}
	}

	c.logger.Infow("conversion finished",
		"pipeline", id.String(),
		"input", cfg.InputPath(),
		"output", cfg.OutputPath(),
		"elapsed", time.Since(start),
	)
	return nil
}
