package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"

	"github.com/h2non/bimg"
)

type pngCandidate struct {
	name   string
	encode func([]byte) ([]byte, error)
}

var pngCandidates = []pngCandidate{
	{name: "vips", encode: vipsPNG},
	{name: "go", encode: goPNG},
}

var errNotPNG = errors.New("input is not a png")

// OptimizePNG rewrites a PNG losslessly, keeping whichever of the input file and
// the re-encoded candidates is smallest. Ancillary chunks are not carried over.
func OptimizePNG(cfg PathAccessor) error {
	initVips()

	src, err := os.ReadFile(cfg.InputPath())
	if err != nil {
		return ioError("read png", err)
	}

	if bimg.DetermineImageType(src) != bimg.PNG {
		return decodeError("read png", errNotPNG)
	}

	best := src
	var errs []error
	for _, c := range pngCandidates {
		out, err := c.encode(src)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s encoder: %w", c.name, err))
			continue
		}
		if len(out) < len(best) {
			best = out
		}
	}

	if len(errs) == len(pngCandidates) {
		return encodeError("optimize png", errors.Join(errs...))
	}

	return writeOutput(cfg.OutputPath(), best)
}

func vipsPNG(buf []byte) ([]byte, error) {
	return bimg.NewImage(buf).Process(bimg.Options{
		Type:          bimg.PNG,
		Compression:   9,
		NoAutoRotate:  true,
		StripMetadata: true,
	})
}

func goPNG(buf []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}

	out := new(bytes.Buffer)
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(out, img); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}
