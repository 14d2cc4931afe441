// Package assets loads point clouds from disk and keeps the ordered set of
// uploaded clouds the viewer cycles through.
package assets

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/splatview/internal/engine/pipeline"
	"github.com/Faultbox/splatview/internal/logger"
	"github.com/Faultbox/splatview/internal/pointcloud"
)

// ErrNoAssets is returned when the registry is empty.
var ErrNoAssets = errors.New("assets: registry is empty")

// Uploader turns a cloud into something the pipeline can draw.
type Uploader func(*pointcloud.Cloud) (pipeline.Drawable, error)

// Entry is one registered asset.
type Entry struct {
	Cloud    *pointcloud.Cloud
	Drawable pipeline.Drawable
}

// Registry is the ordered list of uploaded clouds and the active selection.
// It must only be mutated between frames, by the render thread.
type Registry struct {
	upload  Uploader
	entries []Entry
	active  int
}

// NewRegistry creates an empty registry.
func NewRegistry(upload Uploader) *Registry {
	return &Registry{upload: upload}
}

// Add uploads cloud and appends it. The active selection is unchanged; an
// empty or invalid cloud is rejected.
func (r *Registry) Add(cloud *pointcloud.Cloud) (int, error) {
	if cloud == nil {
		return -1, errors.New("assets: nil cloud")
	}
	if cloud.Empty() {
		return -1, fmt.Errorf("assets: cloud %q is empty", cloud.Name)
	}
	if err := cloud.Validate(); err != nil {
		return -1, err
	}
	d, err := r.upload(cloud)
	if err != nil {
		return -1, fmt.Errorf("uploading %q: %w", cloud.Name, err)
	}
	r.entries = append(r.entries, Entry{Cloud: cloud, Drawable: d})
	logger.Info("asset registered",
		zap.String("name", cloud.Name),
		zap.Int("points", cloud.Len()),
		zap.Int("index", len(r.entries)-1),
	)
	return len(r.entries) - 1, nil
}

// Select makes entry i active.
func (r *Registry) Select(i int) error {
	if i < 0 || i >= len(r.entries) {
		return fmt.Errorf("assets: index %d out of range [0,%d)", i, len(r.entries))
	}
	r.active = i
	return nil
}

// Next advances the selection, wrapping around.
func (r *Registry) Next() (Entry, error) {
	if len(r.entries) == 0 {
		return Entry{}, ErrNoAssets
	}
	r.active = (r.active + 1) % len(r.entries)
	return r.entries[r.active], nil
}

// Active returns the selected entry.
func (r *Registry) Active() (Entry, bool) {
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[r.active], true
}

// ActiveIndex returns the selected index.
func (r *Registry) ActiveIndex() int {
	return r.active
}

// Len returns the number of registered assets.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Close releases every drawable that holds resources.
func (r *Registry) Close() error {
	var err error
	for _, e := range r.entries {
		if c, ok := e.Drawable.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	r.entries = nil
	r.active = 0
	return err
}

// Cache is an in-memory cache of parsed clouds keyed by path. It is safe
// for use by the load worker and the render thread at once.
type Cache struct {
	data map[string]*pointcloud.Cloud
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*pointcloud.Cloud),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*pointcloud.Cloud, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cloud, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return cloud, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, cloud *pointcloud.Cloud) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cloud
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*pointcloud.Cloud)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
