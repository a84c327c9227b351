package processor

import "strconv"

// OptimizeGIF runs gifsicle on the input. Requested dimensions are passed
// through as --resize-width / --resize-height; gifsicle keeps the aspect ratio
// itself when only one of them is given.
func (t *Tools) OptimizeGIF(cfg Resizable) error {
	args := []string{"-O3", "--output", cfg.OutputPath()}

	if width, ok := cfg.Width(); ok {
		args = append(args, "--resize-width", strconv.Itoa(width))
	}
	if height, ok := cfg.Height(); ok {
		args = append(args, "--resize-height", strconv.Itoa(height))
	}

	args = append(args, cfg.InputPath())

	return t.run("gifsicle", t.Gifsicle, args...)
}

// TranscodeGIF converts a (possibly animated) GIF to WEBP with gif2webp.
// It never resizes; that is done by an earlier stage.
func (t *Tools) TranscodeGIF(cfg PathAccessor) error {
	return t.run("gif2webp", t.Gif2WebP,
		"-o", cfg.OutputPath(),
		"-q", strconv.Itoa(DefaultQuality),
		"-m", "6",
		"-mt",
		"-v",
		cfg.InputPath(),
	)
}
