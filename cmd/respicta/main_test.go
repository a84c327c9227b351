package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xbanchon/image-conversion-service/pkg/converter"
)

func writeFixture(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 10, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("unable to create fixture: %s", err.Error())
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("unable to encode fixture: %s", err.Error())
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.jpg")
	writeFixture(t, in, 200, 100)

	if err := newApp().Run([]string{"respicta", "convert", "-w", "50", "-q", "80", in, out}); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("unable to open output: %s", err.Error())
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("unable to decode output: %s", err.Error())
	}
	if cfg.Width != 50 || cfg.Height != 25 {
		t.Fatalf("unexpected size: %dx%d", cfg.Width, cfg.Height)
	}
}

func TestConvertCommandErrors(t *testing.T) {
	dir := t.TempDir()

	err := newApp().Run([]string{"respicta", "convert", filepath.Join(dir, "in.png")})
	if err == nil || !strings.Contains(err.Error(), "expected <input> <output>") {
		t.Fatalf("unexpected error: %v", err)
	}

	err = newApp().Run([]string{"respicta", "convert", filepath.Join(dir, "in.jpg"), filepath.Join(dir, "out.tiff")})
	var unsupported *converter.UnsupportedConversionError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedConversionError, got %v", err)
	}
}

func TestFormatsCommand(t *testing.T) {
	app := newApp()
	out := new(bytes.Buffer)
	app.Writer = out

	if err := app.Run([]string{"respicta", "formats"}); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(converter.Pipelines()) {
		t.Fatalf("unexpected output: %q", out.String())
	}
	if lines[0] != "gif to gif" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
}
