package internal

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// EnvLookup reads one environment variable.
type EnvLookup func(name string) (string, bool)

// loadState is shared by every document context of one top-level load.
type loadState struct {
	stack *ImportStack
	total atomic.Int64
}

// Context carries everything needed to resolve one document. A child
// document gets its own Context that shares the import stack, the limits,
// the caller variables and the settled variables of the root, but starts
// with empty document and accumulated tiers.
type Context struct {
	ctx  context.Context
	p    *Pipeline
	load *loadState

	origin  string
	baseDir string
	strict  bool

	// Tier 1, shared by every document of the load.
	caller map[string]Node
	// Variables whose final value is already known: caller variables plus
	// the root document's own __vars. Shared downward.
	settled map[string]Node
	// Tier 2: this document's __vars.
	docVars map[string]Node
	// Tier 3: variables bubbled up from child documents, in traversal order.
	accumulated map[string]Node
}

// Context returns the context.Context of the load.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Origin returns the path of the document being resolved, or "<string>".
func (c *Context) Origin() string {
	return c.origin
}

// BaseDir returns the directory relative paths resolve against.
func (c *Context) BaseDir() string {
	return c.baseDir
}

// Logger returns the engine logger.
func (c *Context) Logger() *zap.Logger {
	return c.p.logger
}

// Depth returns the number of nested documents below the root.
func (c *Context) Depth() int {
	return c.load.stack.Depth()
}

// child creates the context for a nested document at canonical.
func (c *Context) child(canonical string) *Context {
	return &Context{
		ctx:         c.ctx,
		p:           c.p,
		load:        c.load,
		origin:      canonical,
		baseDir:     filepath.Dir(canonical),
		caller:      c.caller,
		settled:     c.settled,
		docVars:     map[string]Node{},
		accumulated: map[string]Node{},
	}
}

// accumulate merges a child's effective variables into tier 3.
// Later children override earlier ones.
func (c *Context) accumulate(vars map[string]Node) {
	if len(vars) == 0 {
		return
	}
	for k, v := range vars {
		c.accumulated[k] = v
	}
	c.p.logger.Debug(LogMsgVarsAccumulated,
		zap.String(LogFieldOrigin, c.origin),
		zap.Int(LogFieldCount, len(vars)),
	)
}

// effectiveVars returns tier 3 with tier 2 on top, the set a document hands
// to its parent.
func (c *Context) effectiveVars() map[string]Node {
	return MergeTiers(nil, c.docVars, c.accumulated)
}

// Settled returns the value of a variable whose final value is already
// known. Values that still reference other variables are not settled.
func (c *Context) Settled(name string) (Node, bool) {
	n, ok := c.settled[name]
	if !ok || !isSettled(n) {
		return nil, false
	}
	return n, true
}

// isSettled reports whether n holds a final value: not a directive, not a
// deferred expansion and no string still referencing a variable.
func isSettled(n Node) bool {
	switch v := n.(type) {
	case *Scalar:
		s, isString := v.Value.(string)
		return !isString || !ContainsPlaceholder(s)
	case *Deferred, *Tagged:
		return false
	default:
		return true
	}
}

// LookupEnv reads an environment variable through the configured lookup.
func (c *Context) LookupEnv(name string) (string, bool) {
	return c.p.env(name)
}

// Condition evaluates a condition name: the environment first, then the
// caller variables, this document's __vars and the root's __vars. A missing
// name or a value outside the true words is false.
func (c *Context) Condition(name string) bool {
	if v, ok := c.LookupEnv(name); ok {
		return IsTruthy(v)
	}
	if n, ok := c.caller[name]; ok {
		return isSettled(n) && nodeTruthy(n)
	}
	if n, ok := c.docVars[name]; ok {
		return isSettled(n) && nodeTruthy(n)
	}
	if n, ok := c.Settled(name); ok {
		return nodeTruthy(n)
	}
	return false
}

// ConditionValue returns a condition name's value as a string for switch
// matching, looked up the same way as Condition. A value still holding a
// placeholder matches nothing.
func (c *Context) ConditionValue(name string) (string, bool) {
	if v, ok := c.LookupEnv(name); ok {
		return v, true
	}
	for _, tier := range []map[string]Node{c.caller, c.docVars} {
		if n, ok := tier[name]; ok {
			if !isSettled(n) {
				return "", false
			}
			if s, isScalar := StringValue(n); isScalar {
				return s, true
			}
			return "", false
		}
	}
	if n, ok := c.Settled(name); ok {
		if s, isScalar := StringValue(n); isScalar {
			return s, true
		}
	}
	return "", false
}

func nodeTruthy(n Node) bool {
	s, ok := n.(*Scalar)
	if !ok {
		return false
	}
	if b, isBool := s.Value.(bool); isBool {
		return b
	}
	return IsTruthy(ScalarString(s.Value))
}

// IsTruthy reports whether s is one of the recognised true words.
func IsTruthy(s string) bool {
	b, err := ParseBool(s)
	return err == nil && b
}

// Resolve resolves a node: directives are invoked, containers recurse
// post-order, merge keys are applied and Absent entries are dropped.
func (c *Context) Resolve(n Node) (Node, error) {
	switch v := n.(type) {
	case nil:
		return &Scalar{}, nil
	case *Scalar, *Deferred:
		return n, nil
	case *Tagged:
		return c.invoke(v)
	case *Sequence:
		out := &Sequence{Pos: v.Pos, Items: make([]Node, 0, len(v.Items))}
		for _, item := range v.Items {
			r, err := c.Resolve(item)
			if err != nil {
				return nil, err
			}
			if IsAbsent(r) {
				continue
			}
			out.Items = append(out.Items, r)
		}
		return out, nil
	case *Mapping:
		out := &Mapping{Pos: v.Pos, Entries: make([]Entry, 0, len(v.Entries))}
		for _, e := range v.Entries {
			r, err := c.Resolve(e.Value)
			if err != nil {
				return nil, err
			}
			if IsAbsent(r) {
				c.p.logger.Debug(LogMsgDirectiveOmitted,
					zap.String(LogFieldName, e.Key),
					zap.String(LogFieldOrigin, c.origin),
				)
				continue
			}
			out.Entries = append(out.Entries, Entry{Key: e.Key, Value: r})
		}
		merged, err := ApplyMergeKeys(out)
		if err != nil {
			if e, ok := AsError(err); ok && e.Path == "" {
				e.WithPath(c.origin)
			}
			return nil, err
		}
		return merged, nil
	default:
		return n, nil
	}
}

// ResolveArgs resolves every argument of call.
func (c *Context) ResolveArgs(call *Call) ([]Node, error) {
	out := make([]Node, 0, len(call.Args))
	for _, a := range call.Args {
		r, err := c.Resolve(a)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ResolveString resolves n and returns its scalar text.
func (c *Context) ResolveString(n Node) (string, error) {
	r, err := c.Resolve(n)
	if err != nil {
		return "", err
	}
	s, ok := StringValue(r)
	if !ok {
		return "", NewError(KindSyntax, ErrMsgArgNotScalar).WithPos(n.Position())
	}
	return s, nil
}

// invoke runs the handler for a Tagged node and annotates any failure with
// the directive, its arguments and its position.
func (c *Context) invoke(t *Tagged) (Node, error) {
	call, err := ParseTag(t.Tag, t.Body, t.Pos)
	if err != nil {
		return nil, c.annotate(err, tagName(t.Tag), t.Tag, t.Pos)
	}
	call.Inherited = t.Inherited

	handler, err := c.p.registry.Lookup(call.Name)
	if err != nil {
		return nil, c.annotate(err, call.Name, call.RawArgs, t.Pos)
	}

	c.p.logger.Debug(LogMsgDirectiveInvoked,
		zap.String(LogFieldDirective, call.Name),
		zap.String(LogFieldOrigin, c.origin),
		zap.Int(LogFieldLine, t.Pos.Line),
		zap.Int(LogFieldColumn, t.Pos.Column),
	)

	result, err := handler.Resolve(call, c)
	if err != nil {
		return nil, c.annotate(err, call.Name, call.RawArgs, t.Pos)
	}
	if result == nil {
		result = &Scalar{Pos: t.Pos}
	}
	if t.Inherited != nil && call.Name != DirectiveExtend {
		result = OverlayResolved(t.Inherited, result)
	}
	return result, nil
}

// annotate fills in the location of an error raised in this document, or
// records this directive as an enclosing frame when the error already
// carries a location from a nested one.
func (c *Context) annotate(err error, directive, args string, pos Position) error {
	e, ok := AsError(err)
	if !ok {
		return NewError(KindDirective, err.Error()).
			WithCause(err).
			WithPath(c.origin).
			WithDirective(directive, args).
			WithPos(pos)
	}
	if e.Path == "" {
		e.Path = c.origin
		if e.Directive == "" {
			e.WithDirective(directive, args)
		}
		if e.Pos == (Position{}) {
			e.Pos = pos
		}
		return e
	}
	last := Frame{Origin: e.Path, Directive: e.Directive, Pos: e.Pos}
	if n := len(e.Frames); n > 0 {
		last = e.Frames[n-1]
	}
	frame := Frame{Origin: c.origin, Directive: directive, Pos: pos}
	if last != frame {
		e.AddFrame(frame)
	}
	return e
}

// open runs the security gate for candidate and reads it. The returned
// release pops the import stack and must be deferred by the caller.
func (c *Context) open(candidate, fromDir string) (string, []byte, time.Time, func(), error) {
	if err := c.ctx.Err(); err != nil {
		return "", nil, time.Time{}, nil, NewError(KindResourceLimit, ErrMsgCanceled).WithCause(err)
	}

	canonical, err := c.p.gate.CheckPath(candidate, fromDir)
	if err != nil {
		return "", nil, time.Time{}, nil, err
	}

	size, modTime, err := c.p.source.Stat(c.ctx, canonical)
	if err != nil {
		return "", nil, time.Time{}, nil, sourceError(err, candidate)
	}
	if err := c.p.gate.CheckSize(size, &c.load.total); err != nil {
		return "", nil, time.Time{}, nil, err.(*Error).WithDetail(candidate)
	}

	release, err := c.p.gate.Enter(c.load.stack, canonical)
	if err != nil {
		return "", nil, time.Time{}, nil, err
	}

	data, err := c.p.source.ReadFile(c.ctx, canonical)
	if err != nil {
		release()
		return "", nil, time.Time{}, nil, sourceError(err, candidate)
	}
	if err := c.p.gate.CheckSize(int64(len(data)), &c.load.total); err != nil {
		release()
		return "", nil, time.Time{}, nil, err.(*Error).WithDetail(candidate)
	}
	c.load.total.Add(int64(len(data)))

	c.p.logger.Debug(LogMsgFileRead,
		zap.String(LogFieldPath, canonical),
		zap.Int(LogFieldBytes, len(data)),
		zap.Int(LogFieldDepth, c.load.stack.Depth()),
	)
	return canonical, data, modTime, release, nil
}

func sourceError(err error, candidate string) error {
	if e, ok := AsError(err); ok {
		return e.WithDetail(candidate)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return NewError(KindFileNotFound, ErrMsgFileNotFound).WithDetail(candidate)
	}
	return NewError(KindFileNotFound, ErrMsgFileRead).WithDetail(candidate).WithCause(err)
}

// LoadText reads candidate (relative to this document) as UTF-8 text.
func (c *Context) LoadText(candidate string) (string, error) {
	_, data, _, release, err := c.open(candidate, c.baseDir)
	if err != nil {
		return "", err
	}
	release()

	if !utf8.Valid(data) {
		return "", NewError(KindEncoding, ErrMsgInvalidUTF8).WithDetail(candidate)
	}
	return string(data), nil
}

// LoadDocument reads candidate (relative to fromDir, or to this document
// when fromDir is empty) and runs it through the full pipeline as a child
// document. Its effective variables are accumulated into this document.
func (c *Context) LoadDocument(candidate, fromDir string) (Node, error) {
	if fromDir == "" {
		fromDir = c.baseDir
	}
	canonical, data, modTime, release, err := c.open(candidate, fromDir)
	if err != nil {
		return nil, err
	}
	defer release()

	if !utf8.Valid(data) {
		return nil, NewError(KindEncoding, ErrMsgInvalidUTF8).WithDetail(candidate)
	}

	tree, err := c.p.parse(canonical, modTime, data)
	if err != nil {
		if e, ok := AsError(err); ok {
			e.WithPath(canonical)
		}
		return nil, err
	}

	child := c.child(canonical)
	result, vars, err := child.run(tree)
	if err != nil {
		return nil, err
	}
	c.accumulate(vars)
	return result, nil
}

// isPathLike reports whether a template reference names a file rather than
// a dotted template name.
func isPathLike(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.ContainsAny(ref, `/\`) ||
		strings.HasSuffix(lower, TemplateFileSuffix) ||
		strings.HasSuffix(lower, TemplateAltSuffix) ||
		strings.HasSuffix(lower, TomlFileSuffix)
}
