package access

import (
	"context"
	"time"

	u "pdfgen/internal/utils"
)

// Source yields a full token snapshot.
type Source interface {
	LoadTokens(ctx context.Context) (map[string]int, error)
}

// Reloader keeps a TokenStore in sync with a Source.
type Reloader struct {
	src      Source
	store    *TokenStore
	interval time.Duration
}

// NewReloader panics on a non-positive interval.
func NewReloader(src Source, store *TokenStore, interval time.Duration) *Reloader {
	if interval <= 0 {
		panic("access: reload interval must be positive")
	}
	return &Reloader{src: src, store: store, interval: interval}
}

// LoadOnce replaces the snapshot. On error the previous snapshot stays.
func (r *Reloader) LoadOnce(ctx context.Context) error {
	m, err := r.src.LoadTokens(ctx)
	if err != nil {
		return err
	}
	r.store.Replace(m)
	u.Debug("API tokens loaded", "count", len(m))
	return nil
}

// Run reloads on every tick until ctx is done.
func (r *Reloader) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.LoadOnce(ctx); err != nil {
				u.Error("Failed to reload API tokens", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
