package finance

import (
	"sync"
	"time"
)

// ImageCache keeps downloaded icons for a while.
type ImageCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]imageCacheEntry
	now     func() time.Time
}

// NewImageCache returns a cache whose entries expire after ttl.
func NewImageCache(ttl time.Duration) *ImageCache {
	return &ImageCache{ttl: ttl, entries: map[string]imageCacheEntry{}, now: time.Now}
}

// Get returns a copy of the cached image for key.
func (c *ImageCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		if c.now().Before(entry.createdAt.Add(c.ttl)) {
			img := make([]byte, len(entry.image))
			copy(img, entry.image)
			return img, true
		}
		delete(c.entries, key)
	}
	return nil, false
}

// Set stores img under key.
func (c *ImageCache) Set(key string, img []byte) {
	c.mu.Lock()
	c.entries[key] = imageCacheEntry{createdAt: c.now(), image: img}
	c.mu.Unlock()
}
