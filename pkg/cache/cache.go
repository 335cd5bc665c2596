// Package cache stores rendered canvas artifacts keyed by the content that
// produced them.
//
// A render is fully determined by the graph, the canvas configuration and
// the output type, so the key is a hash over those inputs ([Keyer]). Three
// backends implement [Cache]:
//
//   - [FileCache] for the CLI, under the user cache directory
//   - [RedisCache] for servers sharing one cache
//   - [NullCache] when caching is disabled
//
// [Instrument] wraps any backend with the observability cache hooks.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/flowcanvas/pkg/observability"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// RenderKey returns the key of a rendered artifact.
	RenderKey(graphHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts are the render inputs besides the graph.
type RenderKeyOpts struct {
	Type       string  `json:"type"` // canvas or nodelink
	Unit       float64 `json:"unit"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	ConfigHash string  `json:"config"`
	Grid       bool    `json:"grid,omitempty"`     // canvas dot grid
	Detailed   bool    `json:"detailed,omitempty"` // nodelink param labels
}

// DefaultKeyer builds content-addressed keys of the form "render:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RenderKey hashes the graph hash together with every option.
func (DefaultKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return hashKey("render", graphHash, opts)
}

// Instrument wraps c so that every Get and Set reports to the registered
// observability cache hooks. The key type is the key's prefix up to the
// first colon.
func Instrument(c Cache) Cache {
	return &instrumented{Cache: c}
}

type instrumented struct {
	Cache
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

func keyType(key string) string {
	typ, _, _ := strings.Cut(key, ":")
	return typ
}
