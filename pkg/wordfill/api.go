package wordfill

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// Engine provides the main API for working with templates.
// Use New() to create a new engine instance.
type Engine struct {
	config *Config
	logger *Logger
	cache  *TemplateCache
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration. Unset
// fields take their defaults.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = NewConfigWithDefaults(config)
	}
}

// WithLogger returns an option that sets the engine logger.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCache returns an option that gives the engine its own template cache
// of the given size (0 disables caching).
func WithCache(maxSize int) Option {
	return func(e *Engine) {
		e.cache = NewTemplateCacheWithConfig(CacheConfig{MaxSize: maxSize, TTL: e.Config().CacheTTL})
	}
}

// New creates an engine. Without WithConfig the engine follows the global
// configuration; without WithLogger it logs through the global logger.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		cfg := e.Config()
		e.cache = NewTemplateCacheWithConfig(CacheConfig{MaxSize: cfg.CacheMaxSize, TTL: cfg.CacheTTL})
	}
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	if e.config != nil {
		return e.config
	}
	return NewConfigWithDefaults(GetGlobalConfig())
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *Logger {
	if e.logger != nil {
		return e.logger
	}
	return GetLogger()
}

// Fill substitutes data into doc in place. Rich payloads register their
// relationships with res; a nil res keeps them in memory.
func (e *Engine) Fill(doc *xml.Document, data Data, res Resources) error {
	if doc == nil {
		return NewDocumentError("fill", "", fmt.Errorf("nil document"))
	}
	f := newFiller(e.Config(), e.Logger(), res)
	return f.fillPart(doc.Body, NewScope(data))
}

// Prepare loads a template from an io.Reader.
func (e *Engine) Prepare(r io.Reader) (*PreparedTemplate, error) {
	return prepare(r, e.Config(), e.Logger())
}

// PrepareFile loads a template from a file path. The template is cached if
// caching is enabled; a cached template is owned by the cache and must not be
// closed by the caller. A file modified since it was cached is loaded again.
func (e *Engine) PrepareFile(path string) (*PreparedTemplate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, NewDocumentError("open template", path, err)
	}
	key := fmt.Sprintf("%s@%d", path, info.ModTime().UnixNano())

	if e.cache.Enabled() {
		if tmpl, ok := e.cache.Get(key); ok {
			e.Logger().Debug("Template cache hit for %s", path)
			return tmpl, nil
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, NewDocumentError("open template", path, err)
	}
	defer file.Close()

	tmpl, err := e.Prepare(file)
	if err != nil {
		return nil, WithContext(err, "prepare", map[string]any{"template": path})
	}
	e.cache.Set(key, tmpl)
	return tmpl, nil
}

// SaveAsByTemplate renders the template at templatePath with data and writes
// the result to outPath atomically.
func (e *Engine) SaveAsByTemplate(ctx context.Context, outPath, templatePath string, data Data) error {
	tmpl, err := e.PrepareFile(templatePath)
	if err != nil {
		return err
	}
	if !e.cache.Enabled() {
		defer tmpl.Close()
	}
	if err := tmpl.SaveAs(ctx, outPath, data); err != nil {
		return err
	}
	e.Logger().Info("Rendered %s to %s", templatePath, outPath)
	return nil
}

// ClearCache removes all templates from the cache.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

// Close releases the templates the engine cached.
func (e *Engine) Close() error {
	return e.cache.Close()
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// DefaultEngine returns the global engine. It follows the global
// configuration and logger.
func DefaultEngine() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = New()
	})
	return defaultEngine
}

// Module-level convenience functions that use the default engine.

// Prepare loads a template from an io.Reader using the default engine.
func Prepare(r io.Reader) (*PreparedTemplate, error) {
	return DefaultEngine().Prepare(r)
}

// PrepareFile loads a template from a file path using the default engine.
func PrepareFile(path string) (*PreparedTemplate, error) {
	return DefaultEngine().PrepareFile(path)
}

// SaveAsByTemplate renders templatePath into outPath using the default engine.
func SaveAsByTemplate(ctx context.Context, outPath, templatePath string, data Data) error {
	return DefaultEngine().SaveAsByTemplate(ctx, outPath, templatePath, data)
}

// ValidateTemplate inspects a DOCX template using the default engine.
func ValidateTemplate(docx []byte) (*ValidationReport, error) {
	return DefaultEngine().ValidateTemplate(docx)
}
