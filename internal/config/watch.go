package config

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Catalog holds the current room catalog and is swapped atomically on reload.
type Catalog struct {
	current atomic.Pointer[RoomsConfig]
}

// NewCatalog returns a catalog seeded with cfg.
func NewCatalog(cfg *RoomsConfig) *Catalog {
	c := &Catalog{}
	c.current.Store(cfg)
	return c
}

// Get returns the catalog in effect.
func (c *Catalog) Get() *RoomsConfig {
	return c.current.Load()
}

// Set replaces the catalog.
func (c *Catalog) Set(cfg *RoomsConfig) {
	c.current.Store(cfg)
}

// WatchRooms polls rooms.yaml and stores every successfully validated
// version into catalog, then calls onUpdate. A file that fails validation is
// logged and the previous catalog stays in effect.
func WatchRooms(ctx context.Context, path string, interval time.Duration, catalog *Catalog, logger *zerolog.Logger, onUpdate func(*RoomsConfig)) error {
	if path == "" {
		path = "configs/rooms.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			info, err := os.Stat(path)
			if err != nil || !info.ModTime().After(lastMod) {
				continue
			}
			lastMod = info.ModTime()

			cfg, err := LoadRoomsConfig(path)
			if err != nil {
				logger.Error().Err(err).Str("path", path).Msg("rooms config reload rejected")
				continue
			}
			catalog.Set(cfg)
			logger.Info().Str("catalog", cfg.String()).Msg("rooms config reloaded")
			if onUpdate != nil {
				onUpdate(cfg)
			}
		}
	}()

	return nil
}
