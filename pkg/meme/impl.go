package meme

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/opd-ai/go-meme/internal/config"
	"github.com/opd-ai/go-meme/internal/render"
	"github.com/opd-ai/go-meme/internal/source"
)

// generator implements the Generator interface.
type generator struct {
	mu sync.RWMutex

	cfg          *config.Config
	configSource string
	// configPath is set for file-backed generators and enables Watch.
	configPath string
	loadConfig func() (*config.Config, error)

	opts    Options
	logger  Logger
	metrics *Metrics
	tracker *ErrorTracker
	fonts   *render.FontManager
	breaker *CircuitBreaker

	loader        *source.Loader
	loaderTimeout time.Duration

	image       *source.Image
	loadErr     error
	renderErr   error
	lastFrame   render.Frame
	lastRender  time.Time
	renderCount uint64
	lastError   error
	fontFiles   map[string]bool

	errorHandler ErrorHandler
	eventHandler EventHandler
	closed       bool

	// renderMu serializes drawing; cached font faces are not safe for
	// concurrent use.
	renderMu sync.Mutex
}

func newGenerator(cfg *config.Config, opts *Options, configSource, configPath string, load func() (*config.Config, error)) (Generator, error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}

	g := &generator{
		cfg:          cfg,
		configSource: configSource,
		configPath:   configPath,
		loadConfig:   load,
		opts:         o,
		logger:       o.Logger,
		metrics:      o.Metrics,
		tracker:      o.ErrorTracker,
		fonts:        o.Fonts,
		fontFiles:    make(map[string]bool),
	}
	if g.logger == nil {
		g.logger = NopLogger()
	}
	if g.metrics == nil {
		g.metrics = DefaultMetrics()
	}
	if g.tracker == nil {
		g.tracker = NewErrorTracker(0, 0)
	}
	if g.fonts == nil {
		g.fonts = render.NewFontManager()
	}

	bc := o.Breaker
	if bc.IsFailure == nil {
		bc.IsFailure = isFetchFailure
	}
	onChange := bc.OnStateChange
	bc.OnStateChange = func(from, to CircuitState) {
		g.logger.Warn("image fetch circuit changed state", "from", from.String(), "to", to.String())
		if onChange != nil {
			onChange(from, to)
		}
	}
	g.breaker = NewCircuitBreaker(bc)

	if !o.SkipValidation {
		if err := g.validate(context.Background(), cfg); err != nil {
			return nil, NewCategorizedError("validate config", err)
		}
	}

	g.loaderTimeout = g.effectiveTimeout(cfg)
	g.loader = g.newLoader(g.loaderTimeout)

	g.logger.Debug("generator created", "config", configSource, "timeout", g.loaderTimeout)
	return g, nil
}

// isFetchFailure counts network errors against the image host. Bad input
// and cancellations say nothing about the host's health.
func isFetchFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return Categorize(err) == ErrorCategoryNetwork
}

// configError marks parse failures that carry no better category as
// configuration errors.
func configError(err error) error {
	if err == nil || Categorize(err) != ErrorCategoryUnknown {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
}

func (g *generator) validate(ctx context.Context, cfg *config.Config) error {
	result := config.NewValidator().Validate(cfg)
	log := loggerFor(ctx, g.logger)
	for _, w := range result.Warnings {
		log.Warn("config warning", "field", w.Field, "message", w.Message)
	}
	if err := result.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (g *generator) effectiveTimeout(cfg *config.Config) time.Duration {
	switch {
	case g.opts.LoadTimeout > 0:
		return g.opts.LoadTimeout
	case cfg.Image.Timeout > 0:
		return cfg.Image.Timeout
	default:
		return source.DefaultTimeout
	}
}

func (g *generator) newLoader(timeout time.Duration) *source.Loader {
	client := g.opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	size, ttl := g.opts.CacheSize, g.opts.CacheTTL
	switch {
	case size < 0:
		size = 0
	case size == 0:
		size = source.DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = source.DefaultCacheTTL
	}
	opts := []source.LoaderOption{
		source.WithHTTPClient(client),
		source.WithTimeout(timeout),
		source.WithCache(size, ttl),
	}
	if g.opts.MaxImageBytes > 0 {
		opts = append(opts, source.WithMaxBytes(g.opts.MaxImageBytes))
	}
	return source.NewLoader(opts...)
}

// LoadImage implements Generator.
func (g *generator) LoadImage(ctx context.Context) (ImageInfo, error) {
	ctx = ensureRenderID(ctx)
	img, err := g.loadImage(ctx)
	if err != nil {
		return ImageInfo{}, g.fail(ctx, "load", err)
	}
	return imageInfo(img), nil
}

func (g *generator) loadImage(ctx context.Context) (*source.Image, error) {
	g.mu.RLock()
	if g.closed {
		g.mu.RUnlock()
		return nil, ErrClosed
	}
	raw := strings.TrimSpace(g.cfg.Image.Source)
	loader, timeout := g.loader, g.loaderTimeout
	g.mu.RUnlock()

	if raw == "" {
		return nil, ErrNoSource
	}
	loc, err := source.Resolve(raw)
	if err != nil {
		g.setLoadErr(raw, err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cacheHit := loader.Cached(loc)
	var img *source.Image
	load := func() error {
		var err error
		img, err = loader.LoadLocation(ctx, loc)
		return err
	}
	if loc.Kind == source.KindHTTP && !cacheHit {
		err = g.breaker.Execute(load)
	} else {
		err = load()
	}
	if err != nil {
		g.setLoadErr(raw, err)
		return nil, err
	}
	elapsed := time.Since(start)
	g.metrics.RecordImageLoad(elapsed, cacheHit)

	g.mu.Lock()
	// A SetConfig during the fetch wins over this result.
	if strings.TrimSpace(g.cfg.Image.Source) == raw {
		g.image = img
		g.loadErr = nil
	}
	g.mu.Unlock()

	b := img.Bounds()
	loggerFor(ctx, g.logger).Debug("image loaded",
		"source", displaySource(img.Location, img.MIME),
		"format", img.Format,
		"width", b.Dx(),
		"height", b.Dy(),
		"cached", cacheHit,
		"duration", elapsed)
	g.emitEvent(ctx, EventImageLoaded, fmt.Sprintf("%s %dx%d", img.Format, b.Dx(), b.Dy()))
	return img, nil
}

func (g *generator) setLoadErr(raw string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	g.mu.Lock()
	if strings.TrimSpace(g.cfg.Image.Source) == raw {
		g.loadErr = err
	}
	g.mu.Unlock()
}

// Render implements Generator.
func (g *generator) Render(ctx context.Context) (*Rendered, error) {
	ctx = ensureRenderID(ctx)
	g.renderMu.Lock()
	defer g.renderMu.Unlock()

	surface := render.NewRasterSurface(g.fonts)
	cfg, frame, err := g.compose(ctx, surface)
	if err != nil {
		return nil, g.fail(ctx, "render", err)
	}
	return &Rendered{
		Frame:   frame,
		surface: surface,
		format:  cfg.Output.Format,
		quality: cfg.Output.Quality,
	}, nil
}

// RenderTo implements Generator.
func (g *generator) RenderTo(ctx context.Context, s render.Surface) (render.Frame, error) {
	ctx = ensureRenderID(ctx)
	g.renderMu.Lock()
	defer g.renderMu.Unlock()

	_, frame, err := g.compose(ctx, s)
	if err != nil {
		return render.Frame{}, g.fail(ctx, "render", err)
	}
	return frame, nil
}

// compose draws the current configuration onto s and returns the
// configuration it used.
func (g *generator) compose(ctx context.Context, s render.Surface) (*config.Config, render.Frame, error) {
	g.mu.RLock()
	if g.closed {
		g.mu.RUnlock()
		return nil, render.Frame{}, ErrClosed
	}
	cfg := g.cfg.Clone()
	img := g.image
	g.mu.RUnlock()

	if img == nil {
		var err error
		if img, err = g.loadImage(ctx); err != nil {
			return nil, render.Frame{}, err
		}
	}
	if err := g.ensureFontFile(cfg.Caption.FontFile); err != nil {
		return nil, render.Frame{}, err
	}

	start := time.Now()
	frame, err := render.NewCompositor(g.compositorOptions(cfg)).Compose(s, img, cfg.Params())
	if err == nil {
		if es, ok := s.(interface{ Err() error }); ok && es.Err() != nil {
			err = fmt.Errorf("%w: %w", errDraw, es.Err())
		}
	}
	g.mu.Lock()
	g.renderErr = err
	g.mu.Unlock()
	if err != nil {
		return nil, render.Frame{}, err
	}
	elapsed := time.Since(start)
	g.metrics.RecordRender(elapsed)

	g.mu.Lock()
	g.lastFrame = frame
	g.lastRender = time.Now()
	g.renderCount++
	g.mu.Unlock()

	loggerFor(ctx, g.logger).Debug("rendered",
		"width", frame.Width,
		"height", frame.Height,
		"font", frame.Font.String(),
		"duration", elapsed)
	g.emitEvent(ctx, EventRendered, fmt.Sprintf("%dx%d", frame.Width, frame.Height))
	return cfg, frame, nil
}

// fontFileFamily is the family a font file is registered under. Each path
// gets its own family so dropping font_file falls back to Font.
func fontFileFamily(path string) string {
	return "file:" + path
}

func (g *generator) compositorOptions(cfg *config.Config) render.Options {
	opts := cfg.CompositorOptions()
	if cfg.Caption.FontFile != "" {
		opts.FontFamily = fontFileFamily(cfg.Caption.FontFile)
	}
	return opts
}

func (g *generator) ensureFontFile(path string) error {
	if path == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fontFiles[path] {
		return nil
	}
	if err := g.fonts.LoadFontFromFile(fontFileFamily(path), render.FontStyleRegular, path); err != nil {
		return err
	}
	g.fontFiles[path] = true
	return nil
}

// Export implements Generator.
func (g *generator) Export(ctx context.Context, w io.Writer) error {
	ctx = ensureRenderID(ctx)
	start := time.Now()
	r, err := g.Render(ctx)
	if err != nil {
		return err
	}
	cw := &countingWriter{w: w}
	if err := r.Encode(cw); err != nil {
		return g.fail(ctx, "export", err)
	}
	g.exported(ctx, start, r.format, cw.n, "")
	return nil
}

// ExportFile implements Generator.
func (g *generator) ExportFile(ctx context.Context, path string) (string, error) {
	ctx = ensureRenderID(ctx)
	start := time.Now()
	if path == "" {
		g.mu.RLock()
		path = g.cfg.Output.Path
		g.mu.RUnlock()
	}
	if path == "" {
		path = config.DefaultOutputPath
	}

	r, err := g.Render(ctx)
	if err != nil {
		return "", err
	}
	format := r.format
	if f, ok := formatFromExt(path); ok {
		format = f
	}
	n, err := writeFileAtomic(path, func(w io.Writer) error {
		return r.EncodeAs(w, format, r.quality)
	})
	if err != nil {
		return "", g.fail(ctx, "export", err)
	}
	g.exported(ctx, start, format, n, path)
	return path, nil
}

// DataURL implements Generator.
func (g *generator) DataURL(ctx context.Context) (string, error) {
	ctx = ensureRenderID(ctx)
	start := time.Now()
	r, err := g.Render(ctx)
	if err != nil {
		return "", err
	}
	url, err := r.DataURL()
	if err != nil {
		return "", g.fail(ctx, "export", err)
	}
	g.exported(ctx, start, r.format, int64(len(url)), "")
	return url, nil
}

func (g *generator) exported(ctx context.Context, start time.Time, format render.Format, n int64, path string) {
	g.metrics.RecordExport(time.Since(start), n)
	log := loggerFor(ctx, g.logger)
	if path != "" {
		log.Info("exported", "path", path, "format", string(format), "bytes", n)
		g.emitEvent(ctx, EventExported, path)
		return
	}
	log.Debug("exported", "format", string(format), "bytes", n)
	g.emitEvent(ctx, EventExported, fmt.Sprintf("%s, %d bytes", format, n))
}

func formatFromExt(path string) (render.Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return render.FormatPNG, true
	case ".jpg", ".jpeg":
		return render.FormatJPEG, true
	default:
		return "", false
	}
}

// writeFileAtomic writes through a temporary file in the target directory
// and renames it into place, so readers never see a partial image.
func writeFileAtomic(path string, write func(io.Writer) error) (int64, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	cw := &countingWriter{w: tmp}
	if err := write(cw); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Config implements Generator.
func (g *generator) Config() *Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg.Clone()
}

// SetConfig implements Generator.
func (g *generator) SetConfig(ctx context.Context, cfg *Config) error {
	ctx = ensureRenderID(ctx)
	if cfg == nil {
		return g.fail(ctx, "set config", fmt.Errorf("%w: config is nil", ErrInvalidConfig))
	}
	return g.apply(ctx, cfg.Clone(), "set config")
}

// ReloadConfig implements Generator.
func (g *generator) ReloadConfig(ctx context.Context) error {
	ctx = ensureRenderID(ctx)
	if g.loadConfig == nil {
		return g.fail(ctx, "reload config", ErrNoConfigLoader)
	}
	cfg, err := g.loadConfig()
	if err != nil {
		return g.fail(ctx, "reload config", configError(err))
	}
	return g.apply(ctx, cfg, "reload config")
}

// apply swaps in cfg. The decoded image survives unless the source
// changed, in which case the new one is loaded.
func (g *generator) apply(ctx context.Context, cfg *config.Config, op string) error {
	if !g.opts.SkipValidation {
		if err := g.validate(ctx, cfg); err != nil {
			return g.fail(ctx, op, err)
		}
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return g.fail(ctx, op, ErrClosed)
	}
	old := g.cfg
	g.cfg = cfg
	sourceChanged := strings.TrimSpace(old.Image.Source) != strings.TrimSpace(cfg.Image.Source)
	if sourceChanged {
		g.image = nil
		g.loadErr = nil
	}
	if t := g.effectiveTimeout(cfg); t != g.loaderTimeout {
		// The loader's HTTP client carries the timeout; cached images go
		// with it.
		g.loader = g.newLoader(t)
		g.loaderTimeout = t
	}
	g.mu.Unlock()

	g.metrics.IncrementConfigReloads()
	loggerFor(ctx, g.logger).Info("config applied", "op", op, "source_changed", sourceChanged)
	g.emitEvent(ctx, EventConfigReloaded, op)

	if sourceChanged && strings.TrimSpace(cfg.Image.Source) != "" {
		if _, err := g.loadImage(ctx); err != nil {
			return g.fail(ctx, op, err)
		}
	}
	return nil
}

// Watch implements Generator.
func (g *generator) Watch(ctx context.Context, onRender func(*Rendered, error)) error {
	if g.configPath == "" {
		return g.fail(ctx, "watch", ErrNoConfigLoader)
	}
	fw, err := newFileWatcher(g.configPath, g.opts.WatchDebounce)
	if err != nil {
		return g.fail(ctx, "watch", err)
	}
	g.logger.Info("watching config", "path", g.configPath, "debounce", fw.debounce)

	fw.run(ctx, func() {
		rctx := WithRenderID(ctx, "")
		if err := g.ReloadConfig(rctx); err != nil {
			if onRender != nil {
				onRender(nil, err)
			}
			return
		}
		r, err := g.Render(rctx)
		if onRender != nil {
			onRender(r, err)
		}
	}, func(err error) {
		g.fail(ctx, "watch", err)
	})
	return nil
}

// Status implements Generator.
func (g *generator) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()

	st := Status{
		LastFrame:    g.lastFrame,
		LastRender:   g.lastRender,
		RenderCount:  g.renderCount,
		LastError:    g.lastError,
		ConfigSource: g.configSource,
		Breaker:      g.breaker.State(),
	}
	if img := g.image; img != nil {
		b := img.Bounds()
		st.ImageSource = displaySource(img.Location, img.MIME)
		st.ImageFormat = img.Format
		st.ImageWidth, st.ImageHeight = b.Dx(), b.Dy()
		st.LoadedAt = img.LoadedAt
	}
	return st
}

// errorRateThreshold is the error rate, per second over the last minute,
// above which the generator reports itself degraded.
const errorRateThreshold = 0.5

// Health implements Generator.
func (g *generator) Health() HealthCheck {
	now := time.Now()
	g.mu.RLock()
	hasSource := strings.TrimSpace(g.cfg.Image.Source) != ""
	img, loadErr, renderErr := g.image, g.loadErr, g.renderErr
	renders, lastRender := g.renderCount, g.lastRender
	closed := g.closed
	g.mu.RUnlock()

	components := make(map[string]ComponentHealth, 4)

	imageHealth := ComponentHealth{Status: HealthOK, LastUpdated: now}
	switch {
	case closed:
		imageHealth.Status, imageHealth.Message = HealthUnhealthy, "generator closed"
	case loadErr != nil:
		imageHealth.Status, imageHealth.Message = HealthUnhealthy, loadErr.Error()
	case !hasSource:
		imageHealth.Status, imageHealth.Message = HealthDegraded, "no image source configured"
	case img == nil:
		imageHealth.Status, imageHealth.Message = HealthDegraded, "image not loaded yet"
	default:
		imageHealth.Message = fmt.Sprintf("%s %dx%d", img.Format, img.Bounds().Dx(), img.Bounds().Dy())
		imageHealth.LastUpdated = img.LoadedAt
	}
	components["image"] = imageHealth

	renderHealth := ComponentHealth{Status: HealthOK, LastUpdated: now}
	switch {
	case renderErr != nil:
		renderHealth.Status, renderHealth.Message = HealthDegraded, renderErr.Error()
	case renders == 0:
		renderHealth.Message = "no renders yet"
	default:
		renderHealth.Message = fmt.Sprintf("%d renders", renders)
		renderHealth.LastUpdated = lastRender
	}
	components["render"] = renderHealth

	fetchHealth := ComponentHealth{Status: HealthOK, LastUpdated: now}
	switch state := g.breaker.State(); state {
	case CircuitOpen:
		fetchHealth.Status = HealthUnhealthy
		fetchHealth.Message = fmt.Sprintf("circuit open, %d rejected", g.breaker.Rejections())
	case CircuitHalfOpen:
		fetchHealth.Status, fetchHealth.Message = HealthDegraded, "circuit half-open"
	default:
		fetchHealth.Message = "circuit closed"
	}
	components["fetch"] = fetchHealth

	errorHealth := ComponentHealth{Status: HealthOK, LastUpdated: now}
	if rate := g.tracker.ErrorRate(time.Minute); rate > errorRateThreshold {
		errorHealth.Status = HealthDegraded
		errorHealth.Message = fmt.Sprintf("%.2f errors/s over the last minute", rate)
	}
	components["errors"] = errorHealth

	check := HealthCheck{
		Status:     worst(components),
		Timestamp:  now,
		Components: components,
	}
	for _, name := range []string{"image", "render", "fetch", "errors"} {
		if c := components[name]; c.Status != HealthOK {
			check.Message = name + ": " + c.Message
			break
		}
	}
	return check
}

// Metrics implements Generator.
func (g *generator) Metrics() *Metrics {
	return g.metrics
}

// Errors implements Generator.
func (g *generator) Errors() *ErrorTracker {
	return g.tracker
}

// SetErrorHandler implements Generator.
func (g *generator) SetErrorHandler(handler ErrorHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errorHandler = handler
}

// SetEventHandler implements Generator.
func (g *generator) SetEventHandler(handler EventHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.eventHandler = handler
}

// Close implements Generator.
func (g *generator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	g.image = nil
	g.loader.Purge()
	g.logger.Debug("generator closed", "config", g.configSource)
	return nil
}

// fail categorizes, records and reports err. Errors that already went
// through fail are returned as they are.
func (g *generator) fail(ctx context.Context, op string, err error) error {
	var existing *CategorizedError
	if errors.As(err, &existing) {
		return err
	}
	ce := NewCategorizedError(op, err)
	if errors.Is(err, context.Canceled) {
		return ce
	}

	g.tracker.Record(ce)
	g.metrics.IncrementErrors()

	g.mu.Lock()
	g.lastError = ce
	handler := g.errorHandler
	g.mu.Unlock()

	loggerFor(ctx, g.logger).Error("operation failed",
		"op", op,
		"category", ce.Category.String(),
		"error", err)

	if handler != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					g.logger.Error("error handler panicked", "panic", r, "original_error", ce)
				}
			}()
			handler(ce)
		}()
	}

	g.emitEvent(ctx, EventError, ce.Error())
	return ce
}

func (g *generator) emitEvent(ctx context.Context, eventType EventType, message string) {
	g.metrics.IncrementEventsEmitted()

	g.mu.RLock()
	handler := g.eventHandler
	g.mu.RUnlock()
	if handler == nil {
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Message:   message,
		RenderID:  RenderIDFromContext(ctx),
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("event handler panicked", "panic", r, "event", eventType.String())
			}
		}()
		handler(event)
	}()
}

func imageInfo(img *source.Image) ImageInfo {
	b := img.Bounds()
	return ImageInfo{
		Source:   displaySource(img.Location, img.MIME),
		Format:   img.Format,
		MIME:     img.MIME,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Bytes:    img.Bytes,
		LoadedAt: img.LoadedAt,
	}
}

// displaySource shortens data URIs, which can run to megabytes, for logs
// and status.
func displaySource(loc source.Location, mime string) string {
	if loc.Kind == source.KindData {
		return "data:" + mime
	}
	return loc.URL
}
