package smartyaml

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/apuigsech/smartyaml/internal"
	"go.uber.org/zap"
)

// Engine resolves SmartYAML documents. An Engine is safe for concurrent
// use; each load gets its own import stack and variable tiers.
type Engine struct {
	config   *engineConfig
	registry *Registry
	logger   *zap.Logger
}

// New creates a new Engine with the given options. The options become the
// defaults of every load made through the engine.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	config.logger = logger

	if config.registry == nil {
		config.registry = NewRegistry(logger)
	}
	if config.validator == nil {
		config.validator = NewJSONSchemaValidator()
	}

	if err := checkConfig(config); err != nil {
		return nil, err
	}
	if _, err := newPipeline(config); err != nil {
		return nil, NewLoadError(err)
	}

	logger.Debug(LogMsgEngineCreated, zap.Int(LogFieldCount, config.registry.Count()))
	return &Engine{
		config:   config,
		registry: config.registry,
		logger:   logger,
	}, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Registry returns the engine's directive registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Register adds a custom directive to the engine's registry.
func (e *Engine) Register(name string, fn DirectiveFunc) error {
	return e.registry.Register(name, fn)
}

// MustRegister adds a custom directive and panics on failure.
func (e *Engine) MustRegister(name string, fn DirectiveFunc) {
	e.registry.MustRegister(name, fn)
}

// Load resolves source, which is either the path of a document or the text
// of one. A source without line breaks that names an existing file, or that
// ends in a document extension, is treated as a path.
func (e *Engine) Load(ctx context.Context, source string, opts ...Option) (*Document, error) {
	if source == "" {
		return nil, NewConfigError(ErrMsgEmptySource, "")
	}
	config := e.loadConfig(opts)
	if isPathSource(source, config) {
		return e.loadFile(ctx, source, config)
	}
	return e.loadBytes(ctx, []byte(source), config)
}

// LoadFile resolves the document at path. A relative path is taken relative
// to the base path.
func (e *Engine) LoadFile(ctx context.Context, path string, opts ...Option) (*Document, error) {
	if path == "" {
		return nil, NewConfigError(ErrMsgEmptySource, "")
	}
	return e.loadFile(ctx, path, e.loadConfig(opts))
}

// LoadString resolves document text. Relative paths inside it resolve
// against the base path.
func (e *Engine) LoadString(ctx context.Context, text string, opts ...Option) (*Document, error) {
	return e.loadBytes(ctx, []byte(text), e.loadConfig(opts))
}

// LoadBytes resolves document content.
func (e *Engine) LoadBytes(ctx context.Context, data []byte, opts ...Option) (*Document, error) {
	return e.loadBytes(ctx, data, e.loadConfig(opts))
}

func (e *Engine) loadConfig(opts []Option) *engineConfig {
	config := e.config.clone()
	for _, opt := range opts {
		opt(config)
	}
	if config.logger == nil {
		config.logger = e.logger
	}
	if config.registry == nil {
		config.registry = e.registry
	}
	return config
}

func (e *Engine) loadFile(ctx context.Context, path string, config *engineConfig) (*Document, error) {
	if err := checkConfig(config); err != nil {
		return nil, err
	}
	p, err := newPipeline(config)
	if err != nil {
		return nil, NewLoadError(err)
	}

	config.logger.Debug(LogMsgLoadStarted, zap.String(LogFieldSource, path))
	root, err := p.LoadFile(ctx, path)
	if err != nil {
		return nil, e.fail(config, path, err)
	}

	origin := path
	if canonical, cerr := p.Canonical(path); cerr == nil {
		origin = canonical
	}

	config.logger.Debug(LogMsgLoadCompleted, zap.String(LogFieldOrigin, origin))
	return &Document{root: root, origin: origin}, nil
}

func (e *Engine) loadBytes(ctx context.Context, data []byte, config *engineConfig) (*Document, error) {
	if err := checkConfig(config); err != nil {
		return nil, err
	}
	p, err := newPipeline(config)
	if err != nil {
		return nil, NewLoadError(err)
	}

	config.logger.Debug(LogMsgLoadStarted, zap.String(LogFieldSource, InMemoryOrigin))
	root, err := p.LoadBytes(ctx, data)
	if err != nil {
		return nil, e.fail(config, InMemoryOrigin, err)
	}
	config.logger.Debug(LogMsgLoadCompleted, zap.String(LogFieldOrigin, InMemoryOrigin))
	return &Document{root: root, origin: InMemoryOrigin}, nil
}

func (e *Engine) fail(config *engineConfig, source string, err error) error {
	config.logger.Debug(LogMsgLoadFailed,
		zap.String(LogFieldSource, source),
		zap.String(LogFieldKind, string(KindOf(err))),
		zap.Error(err),
	)
	return NewLoadError(err)
}

// checkConfig rejects option values no load could honour.
func checkConfig(config *engineConfig) error {
	switch {
	case config.maxFileSize < 0:
		return NewConfigError(ErrMsgInvalidOption, "max file size")
	case config.maxDepth < 0:
		return NewConfigError(ErrMsgInvalidOption, "max recursion depth")
	case config.maxTotalBytes < 0:
		return NewConfigError(ErrMsgInvalidOption, "max total bytes")
	case config.maxIterations < 0:
		return NewConfigError(ErrMsgInvalidOption, "max variable iterations")
	}
	return nil
}

func newPipeline(config *engineConfig) (*internal.Pipeline, error) {
	cfg := internal.Config{
		Registry:     config.registry.inner,
		Source:       sourceFor(config.reader, config.maxFileSize),
		Validate:     validateFunc(config.validator),
		Logger:       config.logger,
		AllowedRoots: config.allowedRoots,
		Limits: internal.Limits{
			MaxFileSize:           config.maxFileSize,
			MaxRecursionDepth:     config.maxDepth,
			MaxTotalBytes:         config.maxTotalBytes,
			MaxVariableIterations: config.maxIterations,
		},
		BasePath:          config.basePath,
		TemplateRoot:      config.templateRoot,
		KeepMetadata:      !config.removeMetadata,
		VersionConstraint: config.versionConstraint,
		Variables:         config.variables,
	}
	if config.env != nil {
		cfg.Env = internal.EnvLookup(config.env)
	}
	if config.cache != nil {
		cfg.Cache = config.cache
	}
	return internal.NewPipeline(cfg)
}

// isPathSource reports whether a Load source names a document rather than
// holding its text.
func isPathSource(source string, config *engineConfig) bool {
	if strings.ContainsAny(source, "\n\r") || isInlineText(source) {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(source))
	for _, suffix := range documentSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	if config.reader != nil {
		return false
	}
	path := source
	if !filepath.IsAbs(path) && config.basePath != "" {
		path = filepath.Join(config.basePath, path)
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// isInlineText reports whether a single line reads as YAML rather than a
// path: a "key: value" pair or a flow collection.
func isInlineText(source string) bool {
	trimmed := strings.TrimSpace(source)
	if strings.Contains(trimmed, yamlKeySeparator) || strings.HasSuffix(trimmed, ":") {
		return true
	}
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// yamlKeySeparator separates a key from its value in a block mapping.
const yamlKeySeparator = ": "

var documentSuffixes = []string{
	".yaml", ".yml", ".toml",
	".yaml.gz", ".yml.gz", ".yaml.zst", ".yml.zst",
}

// Load resolves the document at path with a new engine.
func Load(path string, opts ...Option) (any, error) {
	engine, err := New(opts...)
	if err != nil {
		return nil, err
	}
	doc, err := engine.LoadFile(context.Background(), path)
	if err != nil {
		return nil, err
	}
	return doc.Value(), nil
}

// Loads resolves document text with a new engine.
func Loads(text string, opts ...Option) (any, error) {
	engine, err := New(opts...)
	if err != nil {
		return nil, err
	}
	doc, err := engine.LoadString(context.Background(), text)
	if err != nil {
		return nil, err
	}
	return doc.Value(), nil
}
