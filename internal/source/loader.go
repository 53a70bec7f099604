package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader defaults.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 32 << 20
	DefaultCacheTTL = 10 * time.Minute
	// DefaultCacheSize is the number of decoded images kept.
	DefaultCacheSize = 16
)

var (
	// ErrTooLarge is returned when a source exceeds the byte limit.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrFetch is returned for non-200 HTTP responses.
	ErrFetch = errors.New("image fetch failed")
)

// Image is a decoded source image.
type Image struct {
	image.Image
	// Format is the decoder name, e.g. "png".
	Format string
	// MIME is the sniffed content type.
	MIME     string
	Location Location
	Bytes    int
	LoadedAt time.Time
}

type cacheEntry struct {
	img      *Image
	loadedAt time.Time
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.httpClient = c }
}

// WithTimeout bounds each fetch, including decoding.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = d }
}

// WithMaxBytes limits the size of a source in bytes.
func WithMaxBytes(n int64) LoaderOption {
	return func(l *Loader) { l.maxBytes = n }
}

// WithCache sets the cache capacity and entry lifetime. A size of zero
// disables caching.
func WithCache(size int, ttl time.Duration) LoaderOption {
	return func(l *Loader) {
		l.cacheSize = size
		l.cacheTTL = ttl
	}
}

// WithUserAgent sets the User-Agent header sent with http(s) requests.
func WithUserAgent(ua string) LoaderOption {
	return func(l *Loader) { l.userAgent = ua }
}

// Loader fetches and decodes images. Results are cached by normalized URL,
// and concurrent loads of the same URL share one fetch.
type Loader struct {
	mu         sync.RWMutex
	cache      map[string]*cacheEntry
	group      singleflight.Group
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
	cacheSize  int
	cacheTTL   time.Duration
	userAgent  string
	now        func() time.Time
}

// NewLoader creates a Loader with default limits.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		cache:     make(map[string]*cacheEntry),
		timeout:   DefaultTimeout,
		maxBytes:  DefaultMaxBytes,
		cacheSize: DefaultCacheSize,
		cacheTTL:  DefaultCacheTTL,
		userAgent: "go-meme",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.httpClient == nil {
		l.httpClient = &http.Client{Timeout: l.timeout}
	}
	return l
}

// Load resolves raw and returns the decoded image.
func (l *Loader) Load(ctx context.Context, raw string) (*Image, error) {
	loc, err := Resolve(raw)
	if err != nil {
		return nil, err
	}
	return l.LoadLocation(ctx, loc)
}

// LoadLocation returns the decoded image at loc, from the cache when fresh.
func (l *Loader) LoadLocation(ctx context.Context, loc Location) (*Image, error) {
	if img, ok := l.cached(loc.URL); ok {
		return img, nil
	}

	// The shared fetch outlives any single caller; each caller waits on its
	// own context.
	ch := l.group.DoChan(loc.URL, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		img, err := l.fetch(fetchCtx, loc)
		if err != nil {
			return nil, err
		}
		l.store(loc.URL, img)
		return img, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Image), nil
	}
}

func (l *Loader) fetch(ctx context.Context, loc Location) (*Image, error) {
	var (
		data []byte
		err  error
	)
	switch loc.Kind {
	case KindHTTP:
		data, err = l.fetchHTTP(ctx, loc.URL)
	case KindData:
		data, err = DecodeDataURI(loc.URL)
	case KindFile:
		data, err = l.readFile(loc.URL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, loc.Kind)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, mime, err := Sniff(data)
	if err != nil {
		return nil, err
	}
	img, format, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &Image{
		Image:    img,
		Format:   format,
		MIME:     mime,
		Location: loc,
		Bytes:    len(data),
		LoadedAt: l.now(),
	}, nil
}

func (l *Loader) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "image/*")
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetch, resp.StatusCode)
	}
	return l.readLimited(resp.Body)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return l.readLimited(f)
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.maxBytes)
	}
	return data, nil
}

func (l *Loader) cached(key string) (*Image, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.cache[key]
	if !ok {
		return nil, false
	}
	if l.cacheTTL > 0 && l.now().Sub(entry.loadedAt) >= l.cacheTTL {
		return nil, false
	}
	return entry.img, true
}

func (l *Loader) store(key string, img *Image) {
	if l.cacheSize <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[key]; !ok && len(l.cache) >= l.cacheSize {
		l.evictOldestLocked()
	}
	l.cache[key] = &cacheEntry{img: img, loadedAt: l.now()}
}

func (l *Loader) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range l.cache {
		if oldestKey == "" || e.loadedAt.Before(oldest) {
			oldestKey, oldest = k, e.loadedAt
		}
	}
	delete(l.cache, oldestKey)
}

// Invalidate drops the cached image for raw, if any.
func (l *Loader) Invalidate(raw string) {
	loc, err := Resolve(raw)
	if err != nil {
		return
	}
	l.mu.Lock()
	delete(l.cache, loc.URL)
	l.mu.Unlock()
}

// Purge empties the cache.
func (l *Loader) Purge() {
	l.mu.Lock()
	clear(l.cache)
	l.mu.Unlock()
}

// Cached reports whether loc would be served from the cache.
func (l *Loader) Cached(loc Location) bool {
	_, ok := l.cached(loc.URL)
	return ok
}

// CacheLen returns the number of cached images.
func (l *Loader) CacheLen() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}
