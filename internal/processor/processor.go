package processor

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// PathAccessor exposes the single input and output file of a conversion step.
type PathAccessor interface {
	InputPath() string
	OutputPath() string
}

// Dimensions exposes the requested target size. A missing value means
// "take it from the source image".
type Dimensions interface {
	Width() (int, bool)
	Height() (int, bool)
}

// Quality exposes the requested compression quality (0..100).
type Quality interface {
	Quality() (int, bool)
}

type Resizable interface {
	PathAccessor
	Dimensions
}

type Options interface {
	PathAccessor
	Dimensions
	Quality
}

const (
	DefaultShell    = "sh"
	DefaultGifsicle = "gifsicle"
	DefaultGif2WebP = "gif2webp"

	// DefaultQuality is used by lossy encoders when the caller did not ask
	// for a specific quality.
	DefaultQuality = 75
)

// Tools holds what the subprocess-backed adapters need to run.
type Tools struct {
	Shell    string
	Gifsicle string
	Gif2WebP string
	Logger   *zap.SugaredLogger
}

func NewTools(logger *zap.SugaredLogger) *Tools {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Tools{
		Shell:    DefaultShell,
		Gifsicle: DefaultGifsicle,
		Gif2WebP: DefaultGif2WebP,
		Logger:   logger,
	}
}

// Target returns the requested size, falling back to the source size for
// any dimension the caller left unset.
func Target(d Dimensions, srcWidth, srcHeight int) (int, int) {
	width, ok := d.Width()
	if !ok {
		width = srcWidth
	}

	height, ok := d.Height()
	if !ok {
		height = srcHeight
	}

	return width, height
}

func writeOutput(path string, buf []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ioError("create output dir", err)
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return ioError("write output", err)
	}

	return nil
}
