package processor

import (
	"bytes"
	"image"
	"image/png"
	"os"

	"github.com/Kagami/go-avif"
	"github.com/disintegration/gift"
)

const (
	avifSpeed = 4

	// libaom quantizer range used by go-avif: 0 is lossless, 63 the worst.
	avifWorstQuality   = 63
	avifDefaultQuality = 25
)

// EncodeAVIF converts a PNG to AVIF, resampling it with a Lanczos filter to
// the fitted size.
func EncodeAVIF(cfg Options) error {
	f, err := os.Open(cfg.InputPath())
	if err != nil {
		return ioError("open png", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return decodeError("decode png", err)
	}

	src, err := toNRGBA(img)
	if err != nil {
		return err
	}

	b := src.Bounds()
	maxWidth, maxHeight := Target(cfg, b.Dx(), b.Dy())
	width, height := Fit(b.Dx(), b.Dy(), maxWidth, maxHeight)

	dst := src
	if width != b.Dx() || height != b.Dy() {
		g := gift.New(gift.Resize(width, height, gift.LanczosResampling))
		dst = image.NewNRGBA(g.Bounds(src.Bounds()))
		g.Draw(dst, src)
	}

	opts := &avif.Options{
		Speed:   avifSpeed,
		Quality: avifDefaultQuality,
	}
	if q, ok := cfg.Quality(); ok {
		opts.Quality = avifQuality(q)
	}

	buf := new(bytes.Buffer)
	if err := avif.Encode(buf, dst, opts); err != nil {
		return encodeError("encode avif", err)
	}

	return writeOutput(cfg.OutputPath(), buf.Bytes())
}

// avifQuality maps 0..100 (higher is better) onto the encoder's 63..0 scale.
func avifQuality(q int) int {
	return avifWorstQuality - q*avifWorstQuality/100
}
