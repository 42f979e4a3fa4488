package atlas

import (
	"context"
	"fmt"
	"image"
	_ "image/png" // decoder for DirLoader
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
)

// Loader fetches the pixels for a texture key. Implementations should
// return promptly once ctx is cancelled.
type Loader interface {
	Load(ctx context.Context, key string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, key string) (image.Image, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, key string) (image.Image, error) {
	return f(ctx, key)
}

// DirLoader reads <Root>/<key>.png.
type DirLoader struct {
	Root string
}

// Load decodes the file for key.
func (d DirLoader) Load(ctx context.Context, key string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(d.Root, key+".png"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return img, nil
}

type loadResult struct {
	key string
	gen uint64
	img image.Image
	err error
}

// Cache holds textures loaded asynchronously. Loads run on goroutines and
// hand their pixels back over a channel; Poll uploads them on the frame
// thread. All methods must be called from the frame thread.
type Cache struct {
	renderer render.Renderer
	loader   Loader
	logger   *slog.Logger
	warn     *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	results chan loadResult
	gen     uint64
	loaded  map[string]render.Image
	pending map[string]bool
	failed  map[string]bool
	closed  bool
}

// NewCache creates a cache. A nil logger uses slog.Default().
func NewCache(r render.Renderer, loader Loader, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		renderer: r,
		loader:   loader,
		logger:   logger,
		warn:     rate.NewLimiter(rate.Every(5*time.Second), 3),
		ctx:      ctx,
		cancel:   cancel,
		results:  make(chan loadResult, 64),
		loaded:   make(map[string]render.Image),
		pending:  make(map[string]bool),
		failed:   make(map[string]bool),
	}
}

// Get returns a loaded texture.
func (c *Cache) Get(key string) (render.Image, bool) {
	img, ok := c.loaded[key]
	return img, ok
}

// Put stores an already uploaded texture, replacing any previous one.
func (c *Cache) Put(key string, img render.Image) {
	if c.closed {
		img.Dispose()
		return
	}
	if old, ok := c.loaded[key]; ok && old != img {
		old.Dispose()
	}
	c.loaded[key] = img
	delete(c.failed, key)
}

// Pending reports how many loads are in flight.
func (c *Cache) Pending() int {
	return len(c.pending)
}

// Failed reports whether the last load of key failed.
func (c *Cache) Failed(key string) bool {
	return c.failed[key]
}

// Request starts loading key unless it is loaded, in flight or known
// missing. It never blocks.
func (c *Cache) Request(key string) {
	if c.closed || c.loader == nil {
		return
	}
	if _, ok := c.loaded[key]; ok || c.pending[key] || c.failed[key] {
		return
	}
	c.pending[key] = true
	gen := c.gen
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		img, err := c.loader.Load(c.ctx, key)
		select {
		case c.results <- loadResult{key: key, gen: gen, img: img, err: err}:
		case <-c.ctx.Done():
		}
	}()
}

// Poll applies finished loads and returns how many textures became
// available.
func (c *Cache) Poll() int {
	if c.closed {
		return 0
	}
	applied := 0
	for {
		select {
		case res := <-c.results:
			if c.apply(res) {
				applied++
			}
		default:
			return applied
		}
	}
}

func (c *Cache) apply(res loadResult) bool {
	if res.gen != c.gen {
		return false
	}
	delete(c.pending, res.key)
	if res.err != nil || res.img == nil {
		c.failed[res.key] = true
		if c.warn.Allow() {
			c.logger.Warn("texture missing", "key", res.key, "err", res.err)
		}
		return false
	}
	c.loaded[res.key] = c.renderer.NewImageFromImage(res.img)
	return true
}

// Evict releases one texture and forgets a failed load so it can be
// requested again.
func (c *Cache) Evict(key string) {
	if img, ok := c.loaded[key]; ok {
		img.Dispose()
		delete(c.loaded, key)
	}
	delete(c.failed, key)
}

// Clear releases every texture. Loads still in flight finish but their
// results are dropped.
func (c *Cache) Clear() {
	for _, img := range c.loaded {
		img.Dispose()
	}
	c.gen++
	c.loaded = make(map[string]render.Image)
	c.pending = make(map[string]bool)
	c.failed = make(map[string]bool)
}

// Close cancels in-flight loads, waits for their goroutines and releases
// every texture. The cache is unusable afterwards.
func (c *Cache) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.wg.Wait()
	for len(c.results) > 0 {
		<-c.results
	}
	for _, img := range c.loaded {
		img.Dispose()
	}
	c.loaded = nil
	c.pending = nil
}
