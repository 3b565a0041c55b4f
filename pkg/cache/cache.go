// Package cache stores loaded graphs, analysis results and rendered
// artifacts.
//
// All backends implement [Cache], a byte-oriented key/value store with
// per-entry TTL. Keys come from a [Keyer], so that the CLI and the API
// server produce the same keys for the same inputs.
//
// Backends:
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry under an XDG cache directory
//   - [RedisCache]: shared cache for server deployments
//   - [MongoCache]: shared cache with TTL-indexed documents
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/sbrg/gds/pkg/observability"
)

// Default TTLs per entry kind.
const (
	TTLGraph    = 24 * time.Hour
	TTLResult   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
	TTLRun      = 24 * time.Hour
)

// Cache is a key/value store for serialized values.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// GraphKey identifies a graph loaded from source with opts.
	GraphKey(source string, opts GraphKeyOpts) string
	// ResultKey identifies an analysis result on a given graph.
	ResultKey(graphHash string, opts ResultKeyOpts) string
	// ArtifactKey identifies one rendered format of a result.
	ArtifactKey(resultHash, format string) string
	// RunKey identifies an artifact stored for an API run.
	RunKey(runID, format string) string
}

// GraphKeyOpts holds the load options that change the loaded graph.
type GraphKeyOpts struct {
	NodeLabels        []string `json:"node_labels,omitempty"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`
	Limit             int      `json:"limit,omitempty"`
}

// ResultKeyOpts names an analysis and its parameters. Params must be JSON
// serializable.
type ResultKeyOpts struct {
	Analysis string `json:"analysis"`
	Params   any    `json:"params"`
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(source string, opts GraphKeyOpts) string {
	return hashKey("graph", source, opts)
}

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(graphHash string, opts ResultKeyOpts) string {
	return hashKey("result", graphHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(resultHash, format string) string {
	return hashKey("artifact", resultHash, format)
}

// RunKey implements Keyer.
func (DefaultKeyer) RunKey(runID, format string) string {
	return "run:" + runID + ":" + format
}

// keyKinds are the key prefixes reported to cache hooks.
var keyKinds = []string{"graph", "result", "artifact", "run"}

func keyType(key string) string {
	for _, k := range keyKinds {
		if strings.HasPrefix(key, k+":") || strings.Contains(key, ":"+k+":") {
			return k
		}
	}
	return "other"
}

// Instrumented reports hits, misses and writes of c to the registered
// observability cache hooks.
func Instrumented(c Cache) Cache { return &instrumented{Cache: c} }

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
