package odtemplate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Engine opens templates with a shared configuration, logger and source cache.
// Use New() to create a new engine instance.
type Engine struct {
	config *Config
	cache  *SourceCache
	logger *zap.Logger
}

// New creates a new engine with the global configuration.
func New() *Engine {
	config := GetGlobalConfig()
	return &Engine{
		config: config,
		cache:  newCacheFor(config),
	}
}

// NewWithConfig creates a new engine with custom configuration.
func NewWithConfig(config *Config) *Engine {
	config = NewConfigWithDefaults(config)
	return &Engine{
		config: config,
		cache:  newCacheFor(config),
	}
}

func newCacheFor(config *Config) *SourceCache {
	if config.CacheMaxSize <= 0 {
		return nil
	}
	return NewSourceCacheWithConfig(CacheConfig{
		MaxSize: config.CacheMaxSize,
		TTL:     config.CacheTTL,
	})
}

func (e *Engine) log() *zap.Logger {
	if e.logger != nil {
		return e.logger
	}
	return GetLogger()
}

// Open opens the template archive at path. Its entries are enumerated before
// Open returns, so the template is ready at once.
func (e *Engine) Open(ctx context.Context, path string) (*Template, error) {
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var (
		src *source
		err error
	)
	if e.cache.Enabled() {
		src, err = e.openCached(path)
	} else {
		src, err = openFile(path)
	}
	if err != nil {
		return nil, &SourceReadError{Path: path, Cause: err}
	}

	t := newTemplate(ctx, e.config, e.log())
	t.setSource(src)
	return t, nil
}

func (e *Engine) openCached(path string) (*source, error) {
	if data, ok := e.cache.Get(path); ok {
		return openBytes(path, data)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	src, err := openBytes(path, data)
	if err != nil {
		return nil, err
	}
	e.cache.Set(path, data)
	return src, nil
}

// Load reads a template archive from r in the background. The template
// becomes ready once the whole stream is buffered; handlers may be applied
// before that.
func (e *Engine) Load(ctx context.Context, r io.Reader) (*Template, error) {
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	t := newTemplate(ctx, e.config, e.log())
	t.state.Store(int32(StateReading))

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, r); err != nil {
			t.fail(&SourceReadError{Cause: err})
			return
		}
		if err := t.ctx.Err(); err != nil {
			t.fail(&SourceReadError{Cause: err})
			return
		}
		src, err := openBytes("", buf.Bytes())
		if err != nil {
			t.fail(&SourceReadError{Cause: err})
			return
		}
		t.setSource(src)
	}()

	return t, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// ClearCache removes all sources from the cache.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = NewConfigWithDefaults(config)
		e.cache = newCacheFor(e.config)
	}
}

// WithCache returns an option that sets the cache size (0 disables caching).
func WithCache(maxSize int) Option {
	return func(e *Engine) {
		config := *e.config
		config.CacheMaxSize = maxSize
		e.config = &config
		e.cache = newCacheFor(e.config)
	}
}

// WithLogger returns an option that sets the logger used for runs of this
// engine instead of the package logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// DefaultEngine is the engine used by the package-level functions.
var DefaultEngine = New()

// Open opens the template archive at path with the default engine.
func Open(ctx context.Context, path string) (*Template, error) {
	return DefaultEngine.Open(ctx, path)
}

// Load reads a template archive from r with the default engine.
func Load(ctx context.Context, r io.Reader) (*Template, error) {
	return DefaultEngine.Load(ctx, r)
}
