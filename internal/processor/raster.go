package processor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/h2non/bimg"
)

var vipsOnce sync.Once

// initVips starts libvips once per process. It is never shut down.
func initVips() {
	vipsOnce.Do(bimg.Initialize)
}

var ImageTypes = map[string]bimg.ImageType{
	"jpeg": bimg.JPEG,
	"jpg":  bimg.JPEG,
	"jfif": bimg.JPEG,
	"png":  bimg.PNG,
	"webp": bimg.WEBP,
	"gif":  bimg.GIF,
	"tiff": bimg.TIFF,
	"avif": bimg.AVIF,
}

// Resize decodes the input with libvips, applies the EXIF orientation and
// drops all metadata, fits the image into the requested bounds and writes it
// in the format named by the output extension. The image is encoded once, by
// a single Process call.
func Resize(cfg Options) error {
	initVips()

	buf, err := bimg.Read(cfg.InputPath())
	if err != nil {
		return ioError("read image", err)
	}

	if t := bimg.DetermineImageType(buf); t == bimg.UNKNOWN || !bimg.IsTypeSupported(t) {
		return decodeError("read image", fmt.Errorf("unsupported image type %q", bimg.ImageTypeName(t)))
	}

	meta, err := bimg.Metadata(buf)
	if err != nil {
		return decodeError("read metadata", err)
	}
	if meta.Channels < 1 || meta.Channels > 4 {
		return &Error{
			Kind: KindUnsupportedPixelLayout,
			Op:   "read metadata",
			Err:  fmt.Errorf("%w: %d channels in %s", ErrUnsupportedPixelLayout, meta.Channels, meta.Space),
		}
	}

	srcWidth, srcHeight := orientedSize(meta)
	if srcWidth == 0 || srcHeight == 0 {
		return decodeError("read size", errors.New("image has no pixels"))
	}

	maxWidth, maxHeight := Target(cfg, srcWidth, srcHeight)
	width, height := Fit(srcWidth, srcHeight, maxWidth, maxHeight)

	out, err := bimg.NewImage(buf).Process(bimg.Options{
		Width:         width,
		Height:        height,
		Force:         true,
		StripMetadata: true,
		Quality:       rasterQuality(cfg),
		Type:          outputType(cfg.OutputPath()),
	})
	if err != nil {
		return encodeError("resize", err)
	}

	return writeOutput(cfg.OutputPath(), out)
}

// orientedSize returns the size of the image as displayed. EXIF orientations
// 5 to 8 swap the axes.
func orientedSize(meta bimg.ImageMetadata) (int, int) {
	if meta.Orientation >= 5 && meta.Orientation <= 8 {
		return meta.Size.Height, meta.Size.Width
	}
	return meta.Size.Width, meta.Size.Height
}

// rasterQuality returns the libvips quality for cfg. libvips qualities start
// at 1 and bimg reads 0 as "use the default", so 0 is raised to 1.
func rasterQuality(cfg Quality) int {
	q, ok := cfg.Quality()
	if !ok {
		return DefaultQuality
	}
	return max(q, 1)
}

// outputType maps the output extension to a libvips saver. Unknown extensions
// keep the source format.
func outputType(path string) bimg.ImageType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if t, ok := ImageTypes[ext]; ok {
		return t
	}
	return bimg.UNKNOWN
}
