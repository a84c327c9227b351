package converter

import "fmt"

// Config describes one conversion. It is immutable once built; use NewConfig
// with the With* options.
type Config struct {
	inputPath  string
	outputPath string
	width      *int
	height     *int
	quality    *int
}

type ConfigOption func(*Config)

func NewConfig(inputPath, outputPath string, opts ...ConfigOption) Config {
	cfg := Config{
		inputPath:  inputPath,
		outputPath: outputPath,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func WithWidth(width int) ConfigOption {
	return func(c *Config) {
		c.width = &width
	}
}

func WithHeight(height int) ConfigOption {
	return func(c *Config) {
		c.height = &height
	}
}

func WithSize(width, height int) ConfigOption {
	return func(c *Config) {
		c.width = &width
		c.height = &height
	}
}

// WithQuality sets the encoder quality, 0..100. Without it the encoder picks
// its default, which is lossless for WEBP.
func WithQuality(quality int) ConfigOption {
	return func(c *Config) {
		c.quality = &quality
	}
}

func (c Config) InputPath() string  { return c.inputPath }
func (c Config) OutputPath() string { return c.outputPath }

func (c Config) Width() (int, bool)   { return optional(c.width) }
func (c Config) Height() (int, bool)  { return optional(c.height) }
func (c Config) Quality() (int, bool) { return optional(c.quality) }

func optional(v *int) (int, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Validate checks the optional values without touching the filesystem.
func (c Config) Validate() error {
	if w, ok := c.Width(); ok && w <= 0 {
		return &InvalidConfigError{Field: "width", Reason: fmt.Sprintf("must be positive, got %d", w)}
	}
	if h, ok := c.Height(); ok && h <= 0 {
		return &InvalidConfigError{Field: "height", Reason: fmt.Sprintf("must be positive, got %d", h)}
	}
	if q, ok := c.Quality(); ok && (q < 0 || q > 100) {
		return &InvalidConfigError{Field: "quality", Reason: fmt.Sprintf("must be within 0..100, got %d", q)}
	}
	return nil
}
