package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Storage struct {
	Conversions interface {
		Get(context.Context, string) (*Conversion, error)
		Set(context.Context, string, *Conversion) error
		Delete(context.Context, string)
	}
}

// NewRedisStorage stores entries for ttl, or ConversionExpTime when ttl is
// not positive.
func NewRedisStorage(rdb *redis.Client, ttl time.Duration) Storage {
	return Storage{
		Conversions: &ConversionStore{rdb: rdb, ttl: ttl},
	}
}

func NewRedisClient(addr, pw string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pw,
		DB:       db,
	})
}
