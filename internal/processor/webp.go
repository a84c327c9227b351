package processor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/disintegration/imageorient"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
	"golang.org/x/image/draw"
)

// EncodeWebP decodes the input, fits it into the requested bounds and
// encodes it with libwebp: lossy at the requested quality, lossless when no
// quality is set.
func EncodeWebP(cfg Options) error {
	img, err := decodeFile(cfg.InputPath())
	if err != nil {
		return err
	}

	rgba, err := toNRGBA(img)
	if err != nil {
		return err
	}

	b := rgba.Bounds()
	maxWidth, maxHeight := Target(cfg, b.Dx(), b.Dy())
	width, height := Fit(b.Dx(), b.Dy(), maxWidth, maxHeight)

	quality := -1
	if q, ok := cfg.Quality(); ok {
		quality = q
	}

	buf, err := encodeWebP(rgba, width, height, quality)
	if err != nil {
		return encodeError("encode webp", err)
	}

	return writeOutput(cfg.OutputPath(), buf)
}

// decodeFile decodes a JPEG, PNG, GIF or WEBP file. EXIF orientation is
// applied to the pixels. The decoder is chosen from the file content.
func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("open image", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header, err := r.Peek(12)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, ioError("read image", err)
	}

	var img image.Image
	if len(header) == 12 && bytes.Equal(header[:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WEBP")) {
		img, err = webp.Decode(r, &decoder.Options{})
	} else {
		img, _, err = imageorient.Decode(r)
	}
	if err != nil {
		return nil, decodeError("decode image", err)
	}

	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, decodeError("decode image", errors.New("image has no pixels"))
	}

	return img, nil
}

// toNRGBA returns img as a tightly packed, non-premultiplied RGBA buffer.
// Layouts without alpha get a fully opaque alpha channel.
func toNRGBA(img image.Image) (*image.NRGBA, error) {
	b := img.Bounds()

	switch src := img.(type) {
	case *image.NRGBA:
		if b.Min == (image.Point{}) && src.Stride == 4*b.Dx() && len(src.Pix) == 4*b.Dx()*b.Dy() {
			return src, nil
		}
	case *image.RGBA, *image.RGBA64, *image.NRGBA64,
		*image.Gray, *image.Gray16, *image.Paletted,
		*image.YCbCr, *image.NYCbCrA, *image.CMYK:
	default:
		return nil, &Error{
			Kind: KindUnsupportedPixelLayout,
			Op:   "convert pixels",
			Err:  fmt.Errorf("%w: %T", ErrUnsupportedPixelLayout, img),
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst, nil
}
