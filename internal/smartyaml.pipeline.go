package internal

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// Stage names a pipeline state.
type Stage string

// Pipeline states, in order.
const (
	StageParsed             Stage = "parsed"
	StageMetadataExtracted  Stage = "metadata_extracted"
	StageTemplateResolved   Stage = "template_resolved"
	StageDirectivesResolved Stage = "directives_resolved"
	StageVariablesExpanded  Stage = "variables_expanded"
	StageMetadataStripped   Stage = "metadata_stripped"
	StageDone               Stage = "done"
)

// ValidateFunc validates a resolved value against a schema and returns one
// message per issue. No messages means the value is valid.
type ValidateFunc func(value, schema any) []string

// ParseCache memoizes parsed trees. Implementations may drop entries at any time.
type ParseCache interface {
	Get(key string) (any, bool)
	Put(key string, value any)
}

// Config is everything a Pipeline needs for one load.
type Config struct {
	Registry          *Registry
	Source            FileSource
	Env               EnvLookup
	Validate          ValidateFunc
	Cache             ParseCache
	Logger            *zap.Logger
	AllowedRoots      []string
	Limits            Limits
	BasePath          string
	TemplateRoot      string
	KeepMetadata      bool
	VersionConstraint string
	Variables         map[string]any
}

// Pipeline drives documents through the resolution stages.
type Pipeline struct {
	registry     *Registry
	source       FileSource
	env          EnvLookup
	validate     ValidateFunc
	cache        ParseCache
	logger       *zap.Logger
	gate         *Gate
	limits       Limits
	basePath     string
	templateRoot string
	keepMetadata bool
	constraint   version.Constraints
	caller       map[string]Node
}

// NewPipeline validates cfg and creates a pipeline.
func NewPipeline(cfg Config) (*Pipeline, error) {
	p := &Pipeline{
		registry:     cfg.Registry,
		source:       cfg.Source,
		env:          cfg.Env,
		validate:     cfg.Validate,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		limits:       cfg.Limits,
		basePath:     cfg.BasePath,
		templateRoot: cfg.TemplateRoot,
		keepMetadata: cfg.KeepMetadata,
	}
	if p.registry == nil {
		p.registry = DefaultRegistry()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.env == nil {
		p.env = os.LookupEnv
	}
	if p.source == nil {
		p.source = OSSource{MaxSize: p.limits.MaxFileSize}
	}
	if p.limits.MaxVariableIterations <= 0 {
		p.limits.MaxVariableIterations = DefaultMaxVariableIterations
	}
	if cfg.VersionConstraint != "" {
		c, err := version.NewConstraint(cfg.VersionConstraint)
		if err != nil {
			return nil, NewError(KindVersionMismatch, ErrMsgVersionInvalid).WithDetail(cfg.VersionConstraint).WithCause(err)
		}
		p.constraint = c
	}
	p.gate = NewGate(p.source, cfg.AllowedRoots, p.limits)

	p.caller = make(map[string]Node, len(cfg.Variables))
	for k, v := range cfg.Variables {
		p.caller[k] = FromValue(v)
	}
	return p, nil
}

// LoadFile resolves the document at path. A relative path is taken relative
// to the base path, or the working directory when none is set.
func (p *Pipeline) LoadFile(ctx context.Context, path string) (Node, error) {
	base := p.base()

	root := &Context{
		ctx:         ctx,
		p:           p,
		load:        &loadState{stack: NewImportStack("")},
		origin:      path,
		baseDir:     base,
		caller:      p.caller,
		docVars:     map[string]Node{},
		accumulated: map[string]Node{},
	}

	canonical, data, modTime, release, err := root.open(path, base)
	if err != nil {
		if e, ok := AsError(err); ok && e.Path == "" {
			e.WithPath(path)
		}
		return nil, err
	}
	defer release()
	// The root is part of the cycle check but not of the depth count.
	root.load.stack.base = 1

	tree, err := p.parse(canonical, modTime, data)
	if err != nil {
		if e, ok := AsError(err); ok {
			e.WithPath(canonical)
		}
		return nil, err
	}

	root.origin = canonical
	root.baseDir = filepath.Dir(canonical)
	return p.runRoot(root, tree)
}

// LoadBytes resolves an in-memory document. Relative paths inside it resolve
// against the base path.
func (p *Pipeline) LoadBytes(ctx context.Context, data []byte) (Node, error) {
	base := p.base()

	tree, err := Parse(data)
	if err != nil {
		if e, ok := AsError(err); ok {
			e.WithPath(InMemoryOrigin)
		}
		return nil, err
	}

	root := &Context{
		ctx:         ctx,
		p:           p,
		load:        &loadState{stack: NewImportStack("")},
		origin:      InMemoryOrigin,
		baseDir:     base,
		caller:      p.caller,
		docVars:     map[string]Node{},
		accumulated: map[string]Node{},
	}
	return p.runRoot(root, tree)
}

// base returns the absolute directory relative paths resolve against.
func (p *Pipeline) base() string {
	base := p.basePath
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	return base
}

// Canonical returns the canonical form of a top-level document path after
// the path checks of the security gate.
func (p *Pipeline) Canonical(path string) (string, error) {
	return p.gate.CheckPath(path, p.base())
}

func (p *Pipeline) runRoot(root *Context, tree Node) (Node, error) {
	root.strict = true
	root.settled = make(map[string]Node, len(p.caller))
	for k, v := range p.caller {
		root.settled[k] = v
	}

	p.logger.Debug(LogMsgDocumentStart, zap.String(LogFieldOrigin, root.origin))
	result, _, err := root.run(tree)
	if err != nil {
		return nil, err
	}
	p.logger.Debug(LogMsgDocumentDone, zap.String(LogFieldOrigin, root.origin))
	return result, nil
}

// parse decodes a file, memoized by canonical path, modification time and
// content hash. The cache only saves decoding: the file has already been
// read through the security gate.
func (p *Pipeline) parse(canonical string, modTime time.Time, data []byte) (Node, error) {
	if p.cache == nil {
		return ParseSource(canonical, data)
	}
	key := CacheKey(canonical, modTime, data)
	if v, ok := p.cache.Get(key); ok {
		if n, isNode := v.(Node); isNode {
			p.logger.Debug(LogMsgCacheHit, zap.String(LogFieldPath, canonical))
			return n, nil
		}
	}
	p.logger.Debug(LogMsgCacheMiss, zap.String(LogFieldPath, canonical))
	n, err := ParseSource(canonical, data)
	if err != nil {
		return nil, err
	}
	p.cache.Put(key, n)
	return n, nil
}

// CacheKey identifies one version of a file's content.
func CacheKey(canonical string, modTime time.Time, data []byte) string {
	sum := blake3.Sum256(data)
	return canonical + "|" + strconv.FormatInt(modTime.UnixNano(), 10) + "|" + hex.EncodeToString(sum[:])
}

func (c *Context) stage(s Stage) {
	c.p.logger.Debug(LogMsgStageEntered,
		zap.String(LogFieldStage, string(s)),
		zap.String(LogFieldOrigin, c.origin),
	)
}

// run takes one document through every stage. It returns the resolved tree
// and the variables the document hands to its parent.
func (c *Context) run(tree Node) (Node, map[string]Node, error) {
	result, err := c.runStages(tree)
	if err != nil {
		if e, ok := AsError(err); ok && e.Path == "" {
			e.WithPath(c.origin)
		}
		return nil, nil, err
	}
	return result, c.effectiveVars(), nil
}

func (c *Context) runStages(tree Node) (Node, error) {
	c.stage(StageParsed)

	// Stage 1: split out metadata.
	meta, working, err := c.extractMetadata(tree)
	if err != nil {
		return nil, err
	}
	c.stage(StageMetadataExtracted)

	// Stage 2: template inheritance.
	if meta.template != nil {
		parent, overlay, err := c.ResolveTemplate(meta.template)
		if err != nil {
			return nil, err
		}
		if overlay {
			working = Overlay(parent, working)
		} else {
			working = Replace(parent, working)
		}
	}
	c.stage(StageTemplateResolved)

	// Stage 3: directives.
	resolved, err := c.Resolve(working)
	if err != nil {
		return nil, err
	}
	c.stage(StageDirectivesResolved)

	// Stage 4: variables. Only the root completes deferred expansions; a
	// child leaves them for the root, which knows every tier.
	if c.strict {
		flat := MergeTiers(c.caller, c.docVars, c.accumulated)
		flat, err = ExpandSelfReferences(flat, c.p.limits.MaxVariableIterations)
		if err != nil {
			return nil, err
		}
		resolved, err = ResolveDeferred(resolved, flat)
		if err != nil {
			return nil, err
		}
	}
	c.stage(StageVariablesExpanded)

	// Stage 5: schema validation on the root, then metadata removal.
	if c.strict && meta.hasSchema && c.p.validate != nil {
		var schema Node = &Scalar{}
		if rm, ok := resolved.(*Mapping); ok {
			if s, found := rm.Get(MetaKeySchema); found {
				schema = s
			}
		}
		if issues := c.p.validate(ToValue(StripMetadata(resolved)), ToValue(schema)); len(issues) > 0 {
			return nil, NewError(KindSchemaValidation, ErrMsgSchemaFailed).
				WithDetail(strings.Join(issues, "; ")).
				WithPath(c.origin)
		}
		c.p.logger.Debug(LogMsgSchemaValidated, zap.String(LogFieldOrigin, c.origin))
	}
	if !c.p.keepMetadata {
		resolved = StripMetadata(resolved)
		c.p.logger.Debug(LogMsgMetadataStripped, zap.String(LogFieldOrigin, c.origin))
	}
	c.stage(StageMetadataStripped)
	c.stage(StageDone)
	return resolved, nil
}

type metadata struct {
	template  Node
	hasSchema bool
}

// extractMetadata checks __version, resolves __vars and captures __template.
// The returned tree no longer holds __version or __template; a resolved
// __vars stays in place so it can be kept in the output, and __schema is
// resolved with the rest of the tree in stage 3.
func (c *Context) extractMetadata(tree Node) (metadata, Node, error) {
	var meta metadata
	m, ok := tree.(*Mapping)
	if !ok {
		return meta, tree, nil
	}

	if v, found := m.Get(MetaKeyVersion); found {
		if err := c.checkVersion(v); err != nil {
			return meta, nil, err
		}
	}

	working := m.Without(MetaKeyVersion, MetaKeyTemplate)

	if v, found := m.Get(MetaKeyVars); found {
		resolved, err := c.Resolve(v)
		if err != nil {
			return meta, nil, err
		}
		vars, isMapping := resolved.(*Mapping)
		if !isMapping {
			if s, isScalar := resolved.(*Scalar); !isScalar || s.Value != nil {
				return meta, nil, NewError(KindTypeConflict, ErrMsgVarsNotMapping).WithPos(v.Position())
			}
			vars = &Mapping{Pos: v.Position()}
		}
		for _, e := range vars.Entries {
			c.docVars[e.Key] = e.Value
		}
		if c.strict {
			for _, e := range vars.Entries {
				if _, callerSet := c.caller[e.Key]; !callerSet {
					c.settled[e.Key] = e.Value
				}
			}
		}
		working.Set(MetaKeyVars, vars)
	}

	if v, found := m.Get(MetaKeyTemplate); found {
		meta.template = v
	}
	_, meta.hasSchema = m.Get(MetaKeySchema)
	return meta, working, nil
}

// checkVersion validates __version against the accepted constraint.
func (c *Context) checkVersion(n Node) error {
	raw, ok := StringValue(n)
	if !ok || strings.TrimSpace(raw) == "" {
		return NewError(KindVersionMismatch, ErrMsgVersionInvalid).WithPos(n.Position())
	}
	v, err := version.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return NewError(KindVersionMismatch, ErrMsgVersionInvalid).WithDetail(raw).WithCause(err).WithPos(n.Position())
	}
	if c.p.constraint != nil && !c.p.constraint.Check(v) {
		return NewError(KindVersionMismatch, ErrMsgVersionUnsupported).
			WithDetail(raw + " " + c.p.constraint.String()).
			WithPos(n.Position())
	}
	c.p.logger.Debug(LogMsgVersionChecked,
		zap.String(LogFieldVersion, v.String()),
		zap.String(LogFieldOrigin, c.origin),
	)
	return nil
}
