// Package cache keeps marshalled figure payloads keyed by report day and
// figure name.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/xscopehub/covidmap/internal/config"
)

// Key identifies one figure of one report.
type Key struct {
	Day    time.Time
	Figure string
}

func (k Key) String() string {
	return k.Day.Format("2006-01-02") + "/" + k.Figure
}

// Figures caches figure JSON. The zero value and a disabled cache never hit.
type Figures struct {
	ttl   time.Duration
	store *ristretto.Cache
}

// New builds the figure cache from the cache section of the config. Payload
// length is used as the cost, so MaxCost bounds the cached bytes.
func New(cfg config.CacheConfig) (*Figures, error) {
	if !cfg.Enabled {
		return &Figures{}, nil
	}

	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        orDefault(cfg.NumCounters, 1e3),
		MaxCost:            orDefault(cfg.MaxCost, 1<<28),
		BufferItems:        orDefault(cfg.BufferItems, 64),
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Figures{ttl: ttl, store: store}, nil
}

// Enabled reports whether payloads are kept.
func (f *Figures) Enabled() bool { return f.store != nil }

// Get returns the payload stored for key.
func (f *Figures) Get(key Key) ([]byte, bool) {
	if f.store == nil {
		return nil, false
	}
	v, ok := f.store.Get(key.String())
	if !ok {
		return nil, false
	}
	payload, ok := v.([]byte)
	return payload, ok
}

// Set stores payload under key and reports whether it was admitted. An
// admitted payload is visible to Get when Set returns.
func (f *Figures) Set(key Key, payload []byte) bool {
	if f.store == nil {
		return false
	}
	if !f.store.SetWithTTL(key.String(), payload, int64(len(payload)), f.ttl) {
		return false
	}
	f.store.Wait()
	return true
}

// Close stops the ristretto goroutines.
func (f *Figures) Close() {
	if f.store != nil {
		f.store.Close()
	}
}

func orDefault(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}
