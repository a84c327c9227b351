package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const ConversionExpTime = 15 * time.Minute

// ErrInvalidEntry is returned by Get when a stored entry cannot be served.
var ErrInvalidEntry = errors.New("invalid cached conversion")

// Conversion is a converted upload as returned to the client.
type Conversion struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type ConversionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// Request describes an upload conversion for key derivation. InputExtension
// picks the conversion pipeline, so identical bytes uploaded under another
// name get their own entry.
type Request struct {
	Data           []byte
	InputExtension string
	Extension      string
	Width          *int
	Height         *int
	Quality        *int
}

// Key hashes the upload together with every parameter that changes the
// result.
func Key(req Request) string {
	d := xxhash.New()
	d.Write(req.Data)
	d.WriteString("|" + req.InputExtension)
	d.WriteString("|" + req.Extension)
	for _, v := range []*int{req.Width, req.Height, req.Quality} {
		d.WriteString("|")
		if v != nil {
			d.WriteString(strconv.Itoa(*v))
		}
	}

	return "conversion-" + strconv.FormatUint(d.Sum64(), 16)
}

func (s *ConversionStore) Get(ctx context.Context, key string) (*Conversion, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return decodeConversion(data)
}

func decodeConversion(data []byte) (*Conversion, error) {
	var conv Conversion
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntry, err.Error())
	}
	if conv.ContentType == "" || len(conv.Data) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidEntry)
	}

	return &conv, nil
}

func (s *ConversionStore) Set(ctx context.Context, key string, conv *Conversion) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}

	ttl := s.ttl
	if ttl <= 0 {
		ttl = ConversionExpTime
	}

	return s.rdb.SetEx(ctx, key, data, ttl).Err()
}

func (s *ConversionStore) Delete(ctx context.Context, key string) {
	s.rdb.Del(ctx, key)
}
