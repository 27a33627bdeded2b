package smartyaml

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine or a single load.
// Options given to New are the engine defaults; options given to a Load call
// override them for that call only.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	basePath          string
	templateRoot      string
	allowedRoots      []string
	maxFileSize       int64
	maxDepth          int
	maxTotalBytes     int64
	maxIterations     int
	removeMetadata    bool
	variables         map[string]any
	versionConstraint string
	reader            Reader
	env               EnvLookup
	validator         SchemaValidator
	cache             *ContentCache
	registry          *Registry
	logger            *zap.Logger
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		maxFileSize:    DefaultMaxFileSize,
		maxDepth:       DefaultMaxRecursionDepth,
		maxIterations:  DefaultMaxVariableIterations,
		removeMetadata: DefaultRemoveMetadata,
		logger:         nil,
	}
}

// clone copies the configuration so per-load options never touch the engine.
func (c *engineConfig) clone() *engineConfig {
	out := *c
	out.allowedRoots = append([]string(nil), c.allowedRoots...)
	if c.variables != nil {
		out.variables = make(map[string]any, len(c.variables))
		for k, v := range c.variables {
			out.variables[k] = v
		}
	}
	return &out
}

// WithBasePath sets the directory relative paths resolve against.
// Default: the working directory
func WithBasePath(path string) Option {
	return func(c *engineConfig) {
		c.basePath = path
	}
}

// WithTemplateRoot sets the directory dotted template names resolve under.
// Default: the SMARTYAML_TMPL environment variable
func WithTemplateRoot(root string) Option {
	return func(c *engineConfig) {
		c.templateRoot = root
	}
}

// WithAllowedRoots sets the directories documents may be read from. A
// canonical path outside every root is a PathViolation.
// Default: no restriction
func WithAllowedRoots(roots ...string) Option {
	return func(c *engineConfig) {
		c.allowedRoots = append([]string(nil), roots...)
	}
}

// WithMaxFileSize bounds the size of any single document.
// Default: 10 MiB
func WithMaxFileSize(bytes int64) Option {
	return func(c *engineConfig) {
		c.maxFileSize = bytes
	}
}

// WithMaxRecursionDepth bounds how deeply documents may nest.
// Default: 10
func WithMaxRecursionDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithMaxTotalBytes bounds the combined size of every document read by one
// load. Use 0 for no bound.
// Default: 0
func WithMaxTotalBytes(bytes int64) Option {
	return func(c *engineConfig) {
		c.maxTotalBytes = bytes
	}
}

// WithMaxVariableIterations bounds the passes made to expand variables that
// reference other variables.
// Default: 10
func WithMaxVariableIterations(n int) Option {
	return func(c *engineConfig) {
		c.maxIterations = n
	}
}

// WithRemoveMetadata controls whether keys starting with "__" are removed
// from the result.
// Default: true
func WithRemoveMetadata(remove bool) Option {
	return func(c *engineConfig) {
		c.removeMetadata = remove
	}
}

// WithVariables sets the caller variables, the highest-precedence tier for
// !expand. Successive calls merge, later values winning.
func WithVariables(vars map[string]any) Option {
	return func(c *engineConfig) {
		if c.variables == nil {
			c.variables = make(map[string]any, len(vars))
		}
		for k, v := range vars {
			c.variables[k] = v
		}
	}
}

// WithVersionConstraint restricts the accepted __version values, e.g. ">= 1.0, < 2".
// Default: any valid version
func WithVersionConstraint(constraint string) Option {
	return func(c *engineConfig) {
		c.versionConstraint = constraint
	}
}

// WithReader sets where documents are read from.
// Default: the local filesystem
func WithReader(r Reader) Option {
	return func(c *engineConfig) {
		c.reader = r
	}
}

// WithEnvironment sets the environment lookup used by the env directives
// and by conditions.
// Default: os.LookupEnv
func WithEnvironment(env EnvLookup) Option {
	return func(c *engineConfig) {
		c.env = env
	}
}

// WithSchemaValidator sets the validator applied when a document declares __schema.
// Default: JSON Schema
func WithSchemaValidator(v SchemaValidator) Option {
	return func(c *engineConfig) {
		c.validator = v
	}
}

// WithContentCache memoizes parsed documents across loads.
// Default: no cache
func WithContentCache(cache *ContentCache) Option {
	return func(c *engineConfig) {
		c.cache = cache
	}
}

// WithRegistry sets the directive registry.
// Default: a registry private to the engine holding the built-in directives
func WithRegistry(r *Registry) Option {
	return func(c *engineConfig) {
		c.registry = r
	}
}

// WithLogger sets the logger for the engine.
// Default: zap.NewNop()
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}
