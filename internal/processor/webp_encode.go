package processor

/*
#cgo LDFLAGS: -lwebp
#include <stdlib.h>
#include <webp/encode.h>

static int webp_config(WebPConfig* config, int lossless, float quality) {
	if (!WebPConfigPreset(config, WEBP_PRESET_DEFAULT, quality)) {
		return 0;
	}
	config->lossless = lossless;
	config->alpha_compression = 1;
	return WebPValidateConfig(config);
}

static int webp_picture_init(WebPPicture* picture, WebPMemoryWriter* writer, int width, int height) {
	if (!WebPPictureInit(picture)) {
		return 0;
	}
	picture->use_argb = 1;
	picture->width = width;
	picture->height = height;

	WebPMemoryWriterInit(writer);
	picture->writer = WebPMemoryWrite;
	picture->custom_ptr = writer;
	return 1;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"unsafe"
)

var (
	ErrInvalidConfig = errors.New("invalid webp encoder configuration")
	ErrPictureInit   = errors.New("webp picture initialization failed")
	ErrRescale       = errors.New("webp rescale failed")
)

var webpErrorCodes = []string{
	"ok",
	"out of memory",
	"bitstream out of memory",
	"null parameter",
	"invalid configuration",
	"bad dimension",
	"partition0 overflow",
	"partition overflow",
	"bad write",
	"file too big",
	"user abort",
}

// EncodeError carries libwebp's WebPEncodingError code.
type EncodeError struct {
	Code int
}

func (e *EncodeError) Error() string {
	msg := "unknown error"
	if e.Code >= 0 && e.Code < len(webpErrorCodes) {
		msg = webpErrorCodes[e.Code]
	}
	return fmt.Sprintf("webp encode failed: %s (code %d)", msg, e.Code)
}

// webpPicture owns a WebPPicture and the memory writer it encodes into. Both
// live in C memory because the picture keeps a pointer to the writer.
type webpPicture struct {
	picture  *C.WebPPicture
	writer   *C.WebPMemoryWriter
	released bool
}

func newWebPPicture(width, height int) (*webpPicture, error) {
	p := &webpPicture{
		picture: (*C.WebPPicture)(C.calloc(1, C.sizeof_WebPPicture)),
		writer:  (*C.WebPMemoryWriter)(C.calloc(1, C.sizeof_WebPMemoryWriter)),
	}

	if p.picture == nil || p.writer == nil {
		p.release()
		return nil, ErrPictureInit
	}

	if C.webp_picture_init(p.picture, p.writer, C.int(width), C.int(height)) == 0 {
		p.release()
		return nil, ErrPictureInit
	}

	return p, nil
}

// release frees the picture buffers and the writer output. Safe to call more
// than once.
func (p *webpPicture) release() {
	if p.released {
		return
	}
	p.released = true

	if p.picture != nil {
		C.WebPPictureFree(p.picture)
		C.free(unsafe.Pointer(p.picture))
		p.picture = nil
	}
	if p.writer != nil {
		C.WebPMemoryWriterClear(p.writer)
		C.free(unsafe.Pointer(p.writer))
		p.writer = nil
	}
}

func (p *webpPicture) err() error {
	return &EncodeError{Code: int(p.picture.error_code)}
}

// encodeWebP imports img into a libwebp picture, rescales it to
// width x height and encodes it. quality < 0 selects lossless mode.
func encodeWebP(img *image.NRGBA, width, height, quality int) ([]byte, error) {
	b := img.Bounds()
	srcWidth, srcHeight := b.Dx(), b.Dy()
	if len(img.Pix) != srcWidth*srcHeight*4 || img.Stride != srcWidth*4 {
		panic("processor: webp pixel buffer does not match image size")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target %dx%d", ErrRescale, width, height)
	}

	var config C.WebPConfig
	lossless, q := C.int(1), C.float(DefaultQuality)
	if quality >= 0 {
		lossless, q = 0, C.float(quality)
	}
	if C.webp_config(&config, lossless, q) == 0 {
		return nil, ErrInvalidConfig
	}

	pic, err := newWebPPicture(srcWidth, srcHeight)
	if err != nil {
		return nil, err
	}
	defer pic.release()

	pix := (*C.uint8_t)(unsafe.Pointer(&img.Pix[0]))
	if C.WebPPictureImportRGBA(pic.picture, pix, C.int(img.Stride)) == 0 {
		return nil, pic.err()
	}

	if width != srcWidth || height != srcHeight {
		if C.WebPPictureRescale(pic.picture, C.int(width), C.int(height)) == 0 {
			return nil, fmt.Errorf("%w: %dx%d to %dx%d", ErrRescale, srcWidth, srcHeight, width, height)
		}
	}

	if C.WebPEncode(&config, pic.picture) == 0 {
		return nil, pic.err()
	}

	return C.GoBytes(unsafe.Pointer(pic.writer.mem), C.int(pic.writer.size)), nil
}
