// Package cache stores rendered artifacts so that identical batches are not
// drawn twice.
//
// Keys are derived by a [Keyer] from the content hash of the input profiles
// and every option that changes the output bytes. Three backends are
// provided: [FileCache] for the CLI, [MemoryCache] for the HTTP server and
// [NullCache] when caching is disabled.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry. Implementations must be safe
// for concurrent use. A miss is reported as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLArtifact is how long a rendered artifact stays valid. Rendering is
// deterministic, so the limit only bounds the size of the cache directory.
const TTLArtifact = 7 * 24 * time.Hour

// ArtifactKeyOpts lists the render settings that change artifact bytes.
type ArtifactKeyOpts struct {
	Format       string  `json:"format"`
	Split        bool    `json:"split,omitempty"`
	Locale       string  `json:"locale,omitempty"`
	LabelHeight  float64 `json:"label_height,omitempty"`
	LabelGap     float64 `json:"label_gap,omitempty"`
	NoDimensions bool    `json:"no_dimensions,omitempty"`
	Precision    int     `json:"precision,omitempty"`
	Scale        float64 `json:"scale,omitempty"`
	Title        string  `json:"title,omitempty"`
	Margin       float64 `json:"margin,omitempty"`
	// Dimension text and arrow sizes of the DXF and script outputs.
	DimTextHeight float64 `json:"dim_text_height,omitempty"`
	DimArrowSize  float64 `json:"dim_arrow_size,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey identifies a placed batch: the profiles plus the layout
	// settings, both folded into inputHash by the caller.
	LayoutKey(inputHash string) string
	// ArtifactKey identifies one rendered format of a placed batch.
	ArtifactKey(layoutKey string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "layout:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(inputHash string) string {
	return hashKey("layout", inputHash)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutKey, opts)
}
