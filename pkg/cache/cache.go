// Package cache stores rendered artifacts and extracted layouts.
//
// Rendering is deterministic for a given description, engine, settings and
// format, so results can be reused across runs (FileCache, for the CLI) or
// across server instances (RedisCache). NullCache disables caching.
//
// Keys come from a [Keyer], which hashes everything that influences the
// output. [ScopedKeyer] prefixes keys so several tenants or environments
// can share one backend.
package cache

import (
	"context"
	"time"
)

// Default lifetimes for cached entries.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry. A ttl of zero means the
// entry does not expire.
type Cache interface {
	// Get returns the entry for key and whether it was found. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey identifies the geometry of a description under one engine
	// and settings.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies rendered output.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs to a layout besides the description.
type LayoutKeyOpts struct {
	Engine   string            `json:"engine"`
	Settings map[string]string `json:"settings,omitempty"`
}

// ArtifactKeyOpts are the inputs to a render besides the description.
type ArtifactKeyOpts struct {
	Engine   string            `json:"engine"`
	Format   string            `json:"format"`
	Settings map[string]string `json:"settings,omitempty"`
	Options  map[string]string `json:"options,omitempty"`
	// AntiAlias is kept apart from Options because it changes the output
	// without mapping to a graph attribute.
	AntiAlias bool `json:"anti_alias"`
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}
