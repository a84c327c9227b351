package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xbanchon/image-conversion-service/internal/ratelimiter"
	"github.com/xbanchon/image-conversion-service/pkg/converter"
	"go.uber.org/zap"
	xwebp "golang.org/x/image/webp"
)

func newTestApplication(t *testing.T, cfg config) *application {
	t.Helper()

	if cfg.maxUploadMB == 0 {
		cfg.maxUploadMB = 10
	}
	logger := zap.NewNop().Sugar()

	return &application{
		config:      cfg,
		logger:      logger,
		converter:   converter.New(converter.WithLogger(logger)),
		rateLimiter: ratelimiter.NewFixedWindowLimiter(cfg.ratelimiter.RequestPerTimeFrame, cfg.ratelimiter.TimeFrame),
	}
}

func encodeImage(t *testing.T, format string, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}

	buf := new(bytes.Buffer)
	var err error
	if format == "png" {
		err = png.Encode(buf, img)
	} else {
		err = jpeg.Encode(buf, img, nil)
	}
	if err != nil {
		t.Fatalf("unable to encode fixture: %s", err.Error())
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, target, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("unable to create form file: %s", err.Error())
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("unable to write form file: %s", err.Error())
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("unable to write field: %s", err.Error())
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("unable to close multipart writer: %s", err.Error())
	}

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestConvertUpload(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()

	req := uploadRequest(t, "/v1/convert", "photo.jpg", encodeImage(t, "jpeg", 400, 300), map[string]string{"width": "100"})
	req.Header.Set("extension", "webp")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/webp" {
		t.Fatalf("unexpected content type: %q", ct)
	}

	cfg, err := xwebp.DecodeConfig(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("unable to decode response: %s", err.Error())
	}
	if cfg.Width != 100 || cfg.Height != 75 {
		t.Fatalf("unexpected size: %dx%d", cfg.Width, cfg.Height)
	}
}

func TestConvertUploadSniffsInputFormat(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()

	req := uploadRequest(t, "/?extension=jpg", "upload", encodeImage(t, "png", 32, 16), nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("unexpected content type: %q", ct)
	}
}

func TestConvertUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		fields   map[string]string
		status   int
		body     string
	}{
		{name: "missing extension", filename: "a.png", status: http.StatusBadRequest},
		{name: "bad width", filename: "a.png", fields: map[string]string{"extension": "webp", "width": "wide"}, status: http.StatusBadRequest},
		{name: "negative height", filename: "a.png", fields: map[string]string{"extension": "webp", "height": "-3"}, status: http.StatusBadRequest},
		{name: "quality out of range", filename: "a.png", fields: map[string]string{"extension": "webp", "quality": "101"}, status: http.StatusBadRequest},
		{name: "unsupported pair", filename: "a.png", fields: map[string]string{"extension": "tiff"}, status: http.StatusInternalServerError, body: "unsupported conversion from png to tiff"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			app := newTestApplication(t, config{})
			mux := app.mount()

			req := uploadRequest(t, "/v1/convert", test.filename, encodeImage(t, "png", 8, 8), test.fields)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != test.status {
				t.Fatalf("unexpected status: %d, body: %s", rr.Code, rr.Body.String())
			}
			if test.body != "" && rr.Body.String() != test.body {
				t.Fatalf("unexpected body: %q", rr.Body.String())
			}
		})
	}
}

func TestConvertUploadTooLarge(t *testing.T) {
	app := newTestApplication(t, config{maxUploadMB: 1})
	mux := app.mount()

	req := uploadRequest(t, "/v1/convert", "a.png", bytes.Repeat([]byte{0}, 2<<20), map[string]string{"extension": "webp"})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected status: %d, body: %s", rr.Code, rr.Body.String())
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jpg")
	out := filepath.Join(dir, "nested", "out.webp")
	if err := os.WriteFile(in, encodeImage(t, "jpeg", 400, 300), 0o644); err != nil {
		t.Fatalf("unable to write input: %s", err.Error())
	}

	app := newTestApplication(t, config{})
	mux := app.mount()

	payload, _ := json.Marshal(map[string]any{
		"input_path":  in,
		"output_path": out,
		"width":       100,
		"height":      100,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/command", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("unable to read output: %s", err.Error())
	}
	cfg, err := xwebp.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("unable to decode output: %s", err.Error())
	}
	if cfg.Width != 100 || cfg.Height != 75 {
		t.Fatalf("unexpected size: %dx%d", cfg.Width, cfg.Height)
	}
}

func TestConvertCommandErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		body   string
		status int
		prefix string
	}{
		{name: "malformed json", body: `{"input_path":`, status: http.StatusBadRequest},
		{name: "unknown field", body: `{"input_path":"a.png","output_path":"b.png","scale":2}`, status: http.StatusBadRequest},
		{name: "missing output", body: `{"input_path":"a.png"}`, status: http.StatusBadRequest},
		{name: "zero width", body: `{"input_path":"a.png","output_path":"b.png","width":0}`, status: http.StatusBadRequest},
		{
			name:   "missing input file",
			body:   `{"input_path":"` + filepath.Join(dir, "missing.png") + `","output_path":"` + filepath.Join(dir, "out.webp") + `"}`,
			status: http.StatusInternalServerError,
			prefix: "error converting png to webp: ",
		},
		{
			name:   "no input extension",
			body:   `{"input_path":"` + filepath.Join(dir, "missing") + `","output_path":"b.png"}`,
			status: http.StatusInternalServerError,
			prefix: "input file has no extension",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			app := newTestApplication(t, config{})
			mux := app.mount()

			req := httptest.NewRequest(http.MethodPost, "/v1/command", strings.NewReader(test.body))
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != test.status {
				t.Fatalf("unexpected status: %d, body: %s", rr.Code, rr.Body.String())
			}
			if !strings.HasPrefix(rr.Body.String(), test.prefix) {
				t.Fatalf("unexpected body: %q", rr.Body.String())
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	app := newTestApplication(t, config{
		ratelimiter: ratelimiter.Config{
			RequestPerTimeFrame: 2,
			TimeFrame:           time.Minute,
			Enabled:             true,
		},
	})
	mux := app.mount()

	for i := range 3 {
		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if i < 2 && rr.Code != http.StatusOK {
			t.Fatalf("request %d: unexpected status %d", i, rr.Code)
		}
		if i == 2 {
			if rr.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rr.Code)
			}
			if rr.Header().Get("Retry-After") == "" {
				t.Fatal("missing Retry-After header")
			}
		}
	}
}

func TestFormats(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/formats", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	var resp struct {
		Data []string `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("unable to decode response: %s", err.Error())
	}
	if len(resp.Data) != len(converter.Pipelines()) {
		t.Fatalf("unexpected formats: %v", resp.Data)
	}
}
