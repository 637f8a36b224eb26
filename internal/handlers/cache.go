package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pdfgen/internal/doppio"
	u "pdfgen/internal/utils"
)

const cachePrefix = "pdfgen:pdf:"

func pdfCacheKey(req doppio.RenderRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Format))
	h.Write([]byte{0})
	if req.PrintBackground {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write([]byte(req.WaitUntil))
	h.Write([]byte{0})
	h.Write([]byte(req.HTML))
	return cachePrefix + hex.EncodeToString(h.Sum(nil))
}

// getCachedPDF returns nil on a miss or any Redis failure.
func getCachedPDF(ctx context.Context, rdb *redis.Client, key string) []byte {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	cached, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		u.Warn("Redis read failed", "error", err)
		return nil
	}
	u.Info("PDF cache hit", "key", key)
	return cached
}

func setCachedPDF(ctx context.Context, rdb *redis.Client, key string, data []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		u.Warn("Redis write failed", "error", err)
	}
}
