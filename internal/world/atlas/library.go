package atlas

import "github.com/MarvinTM/replaceableParts-sub002/internal/render"

// Library resolves texture keys against the registered atlases first and
// the file cache second.
type Library struct {
	Atlases *Manager
	Cache   *Cache
}

// NewLibrary combines a manager and a cache. Either may be nil.
func NewLibrary(m *Manager, c *Cache) *Library {
	return &Library{Atlases: m, Cache: c}
}

// Texture returns the image for key. A miss starts an async load so a
// later frame can pick it up.
func (l *Library) Texture(key string) (render.Image, bool) {
	if l.Atlases != nil {
		if img, ok := l.Atlases.Lookup(key); ok {
			return img, true
		}
	}
	if l.Cache == nil {
		return nil, false
	}
	if img, ok := l.Cache.Get(key); ok {
		return img, true
	}
	l.Cache.Request(key)
	return nil, false
}

// Poll applies finished loads.
func (l *Library) Poll() int {
	if l.Cache == nil {
		return 0
	}
	return l.Cache.Poll()
}

// Close cancels loads and releases all textures.
func (l *Library) Close() {
	if l.Cache != nil {
		l.Cache.Close()
	}
	if l.Atlases != nil {
		l.Atlases.Dispose()
	}
}
