package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xbanchon/image-conversion-service/internal/store/cache"
	"github.com/xbanchon/image-conversion-service/pkg/converter"
)

type UploadParams struct {
	Extension string `validate:"required,alphanum,max=8"`
	Width     *int   `validate:"omitempty,gt=0"`
	Height    *int   `validate:"omitempty,gt=0"`
	Quality   *int   `validate:"omitempty,gte=0,lte=100"`
}

type CommandPayload struct {
	InputPath  string `json:"input_path" validate:"required"`
	OutputPath string `json:"output_path" validate:"required"`
	Width      *int   `json:"width" validate:"omitempty,gt=0"`
	Height     *int   `json:"height" validate:"omitempty,gt=0"`
	Quality    *int   `json:"quality" validate:"omitempty,gte=0,lte=100"`
}

func (app *application) convertUploadHandler(w http.ResponseWriter, r *http.Request) {
	maxBytes := app.config.maxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "too large") {
			app.requestTooLargeResponse(w, r, err)
			return
		}
		app.badRequestResponse(w, r, err)
		return
	}

	data, filename, err := readUpload(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	params, err := readUploadParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(params); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()
	inExt := inputExtension(filename, data)
	key := cache.Key(cache.Request{
		Data:           data,
		InputExtension: inExt,
		Extension:      params.Extension,
		Width:          params.Width,
		Height:         params.Height,
		Quality:        params.Quality,
	})

	if conv := app.cachedConversion(ctx, key); conv != nil {
		cacheHitsTotal.Add(1)
		writeConversion(w, conv)
		return
	}

	conv, err := app.convertUpload(data, inExt, params)
	if err != nil {
		var invalid *converter.InvalidConfigError
		if errors.As(err, &invalid) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.cacheConversion(ctx, key, conv)
	writeConversion(w, conv)
}

func (app *application) convertCommandHandler(w http.ResponseWriter, r *http.Request) {
	var payload CommandPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	cfg := converter.NewConfig(payload.InputPath, payload.OutputPath,
		configOptions(payload.Width, payload.Height, payload.Quality)...)

	if err := app.converter.Convert(cfg); err != nil {
		var invalid *converter.InvalidConfigError
		if errors.As(err, &invalid) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	conversionsTotal.Add(1)
	w.WriteHeader(http.StatusOK)
}

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":  "ok",
		"version": version,
	}

	if err := app.jsonResponse(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) formatsHandler(w http.ResponseWriter, r *http.Request) {
	ids := converter.Pipelines()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.String())
	}

	if err := app.jsonResponse(w, http.StatusOK, names); err != nil {
		app.internalServerError(w, r, err)
	}
}

// convertUpload runs one conversion inside its own temporary directory.
func (app *application) convertUpload(data []byte, inExt string, params UploadParams) (*cache.Conversion, error) {
	dir, err := os.MkdirTemp("", "convert-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input"+inExt)
	out := filepath.Join(dir, "output."+params.Extension)

	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, err
	}

	cfg := converter.NewConfig(in, out, configOptions(params.Width, params.Height, params.Quality)...)
	if err := app.converter.Convert(cfg); err != nil {
		return nil, err
	}
	conversionsTotal.Add(1)

	result, err := os.ReadFile(out)
	if err != nil {
		return nil, err
	}

	return &cache.Conversion{
		ContentType: mimetype.Detect(result).String(),
		Data:        result,
	}, nil
}

func (app *application) cachedConversion(ctx context.Context, key string) *cache.Conversion {
	if !app.config.redisCfg.enabled {
		return nil
	}

	conv, err := app.cacheStorage.Conversions.Get(ctx, key)
	if errors.Is(err, cache.ErrInvalidEntry) {
		app.logger.Warnw("dropping cached conversion", "key", key, "error", err.Error())
		app.cacheStorage.Conversions.Delete(ctx, key)
		return nil
	}
	if err != nil {
		app.logger.Warnw("cache lookup failed", "key", key, "error", err.Error())
		return nil
	}

	return conv
}

func (app *application) cacheConversion(ctx context.Context, key string, conv *cache.Conversion) {
	if !app.config.redisCfg.enabled {
		return
	}

	if err := app.cacheStorage.Conversions.Set(ctx, key, conv); err != nil {
		app.logger.Warnw("cache store failed", "key", key, "error", err.Error())
	}
}

func writeConversion(w http.ResponseWriter, conv *cache.Conversion) {
	w.Header().Set("Content-Type", conv.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(conv.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(conv.Data)
}

func readUpload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", errors.New(`missing image file: form field key should be "file"`)
		}
		return nil, "", err
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), header.Filename, nil
}

// readUploadParams takes the target extension from the "extension" header,
// falling back to the form or query value.
func readUploadParams(r *http.Request) (UploadParams, error) {
	ext := r.Header.Get("extension")
	if ext == "" {
		ext = r.FormValue("extension")
	}

	params := UploadParams{
		Extension: strings.ToLower(strings.TrimPrefix(ext, ".")),
	}

	var err error
	if params.Width, err = optionalInt(r, "width"); err != nil {
		return params, err
	}
	if params.Height, err = optionalInt(r, "height"); err != nil {
		return params, err
	}
	if params.Quality, err = optionalInt(r, "quality"); err != nil {
		return params, err
	}

	return params, nil
}

func optionalInt(r *http.Request, key string) (*int, error) {
	raw := r.FormValue(key)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return &v, nil
}

// inputExtension keeps the uploaded file's extension and falls back to the
// sniffed content type when the name has none.
func inputExtension(filename string, data []byte) string {
	if ext := filepath.Ext(filename); len(ext) > 1 {
		return strings.ToLower(ext)
	}
	return mimetype.Detect(data).Extension()
}

func configOptions(width, height, quality *int) []converter.ConfigOption {
	var opts []converter.ConfigOption
	if width != nil {
		opts = append(opts, converter.WithWidth(*width))
	}
	if height != nil {
		opts = append(opts, converter.WithHeight(*height))
	}
	if quality != nil {
		opts = append(opts, converter.WithQuality(*quality))
	}
	return opts
}
