package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xbanchon/image-conversion-service/internal/processor"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Runner executes the orchestrations. Every method has the same signature so
// the dispatcher can keep them in a table.
type Runner struct {
	Tools  *processor.Tools
	Logger *zap.SugaredLogger

	// CleanupOnFailure removes an intermediate file also when the stage
	// consuming it fails. By default it is left on disk.
	CleanupOnFailure bool
}

func NewRunner(tools *processor.Tools) *Runner {
	if tools == nil {
		tools = processor.NewTools(nil)
	}

	return &Runner{
		Tools:  tools,
		Logger: tools.Logger,
	}
}

func (r *Runner) JPEGToJPEG(cfg processor.Options) error {
	return r.resize(cfg)
}

func (r *Runner) PNGToJPEG(cfg processor.Options) error {
	return r.resize(cfg)
}

// PNGToPNG resizes into an intermediate PNG and losslessly optimizes it into
// the output.
func (r *Runner) PNGToPNG(cfg processor.Options) error {
	step1 := intermediatePath(cfg.OutputPath(), ".step1.png")

	if err := r.resize(redirect(cfg, cfg.InputPath(), step1)); err != nil {
		return r.discard(err, step1)
	}

	err := r.stage(StageOptimize, func() error {
		return processor.OptimizePNG(redirect(cfg, step1, cfg.OutputPath()))
	})
	if err != nil {
		return r.abandon(err, step1)
	}

	return r.remove(step1)
}

func (r *Runner) GIFToGIF(cfg processor.Options) error {
	return r.stage(StageGifsicle, func() error {
		return r.Tools.OptimizeGIF(cfg)
	})
}

// GIFToWebP resizes with gifsicle into an intermediate GIF and transcodes it,
// keeping any animation.
func (r *Runner) GIFToWebP(cfg processor.Options) error {
	step1 := intermediatePath(cfg.OutputPath(), ".step1.gif")

	err := r.stage(StageGifsicle, func() error {
		return r.Tools.OptimizeGIF(redirect(cfg, cfg.InputPath(), step1))
	})
	if err != nil {
		return r.discard(err, step1)
	}

	err = r.stage(StageGif2WebP, func() error {
		return r.Tools.TranscodeGIF(redirect(cfg, step1, cfg.OutputPath()))
	})
	if err != nil {
		return r.abandon(err, step1)
	}

	return r.remove(step1)
}

func (r *Runner) PNGToWebP(cfg processor.Options) error {
	return r.webp(cfg)
}

func (r *Runner) JPEGToWebP(cfg processor.Options) error {
	return r.webp(cfg)
}

func (r *Runner) WebPToWebP(cfg processor.Options) error {
	return r.webp(cfg)
}

func (r *Runner) PNGToAVIF(cfg processor.Options) error {
	return r.stage(StageAVIF, func() error {
		return processor.EncodeAVIF(cfg)
	})
}

func (r *Runner) resize(cfg processor.Options) error {
	return r.stage(StageResize, func() error {
		return processor.Resize(cfg)
	})
}

func (r *Runner) webp(cfg processor.Options) error {
	return r.stage(StageWebP, func() error {
		return processor.EncodeWebP(cfg)
	})
}

func (r *Runner) stage(name string, fn func() error) error {
	start := time.Now()

	if err := fn(); err != nil {
		r.Logger.Debugw("stage failed", "stage", name, "elapsed", time.Since(start), "error", err.Error())
		return &StageError{Stage: name, Err: err}
	}

	r.Logger.Debugw("stage finished", "stage", name, "elapsed", time.Since(start))
	return nil
}

// discard drops whatever a failed producing stage left at path. The
// intermediate was never consumed, so it is removed regardless of
// CleanupOnFailure.
func (r *Runner) discard(err error, path string) error {
	if rmErr := removeFile(path); rmErr != nil {
		r.Logger.Warnw("unable to remove partial intermediate", "path", path, "error", rmErr.Error())
	}
	return err
}

// abandon handles a failed consuming stage. The intermediate stays on disk
// unless CleanupOnFailure is set.
func (r *Runner) abandon(err error, path string) error {
	if !r.CleanupOnFailure {
		r.Logger.Debugw("leaving intermediate", "path", path)
		return err
	}

	if rmErr := removeFile(path); rmErr != nil {
		return multierr.Append(err, &StageError{Stage: StageCleanup, Err: rmErr})
	}
	return err
}

func (r *Runner) remove(path string) error {
	if err := removeFile(path); err != nil {
		return &StageError{Stage: StageCleanup, Err: err}
	}
	return nil
}

func removeFile(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return &processor.Error{Kind: processor.KindIO, Op: "remove intermediate", Err: err}
}

// intermediatePath replaces the extension of out with suffix, so
// "dir/out.webp" becomes "dir/out.step1.gif".
func intermediatePath(out, suffix string) string {
	return strings.TrimSuffix(out, filepath.Ext(out)) + suffix
}

// redirected reuses the caller's dimensions and quality with other paths.
type redirected struct {
	processor.Options
	in, out string
}

func redirect(cfg processor.Options, in, out string) redirected {
	return redirected{Options: cfg, in: in, out: out}
}

func (r redirected) InputPath() string  { return r.in }
func (r redirected) OutputPath() string { return r.out }
