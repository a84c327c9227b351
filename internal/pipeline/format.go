package pipeline

import (
	"fmt"
	"strings"
)

// Format is a normalized image format. The JPEG aliases jpg, jpeg and jfif
// all parse to JPEG.
type Format string

const (
	GIF  Format = "gif"
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
	AVIF Format = "avif"
)

var formatAliases = map[string]Format{
	"gif":  GIF,
	"png":  PNG,
	"jpg":  JPEG,
	"jpeg": JPEG,
	"jfif": JPEG,
	"webp": WebP,
	"avif": AVIF,
}

// ParseFormat normalizes a file extension without its leading dot.
func ParseFormat(ext string) (Format, bool) {
	f, ok := formatAliases[strings.ToLower(ext)]
	return f, ok
}

func (f Format) String() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

// ID identifies one supported conversion by its normalized format pair.
type ID struct {
	From Format
	To   Format
}

func (id ID) String() string {
	return fmt.Sprintf("%s to %s", id.From, id.To)
}
