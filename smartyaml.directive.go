package smartyaml

import (
	"context"

	"github.com/apuigsech/smartyaml/internal"
	"go.uber.org/zap"
)

// EnvLookup reads one environment variable. os.LookupEnv satisfies it.
type EnvLookup func(name string) (string, bool)

// DirectiveFunc implements a custom directive. It receives the directive's
// arguments already resolved to plain Go values (string, bool, int, float64,
// nil, []any, map[string]any) and returns the value to place in the document.
// Returning Omit removes the enclosing entry.
type DirectiveFunc func(ctx context.Context, call *DirectiveCall) (any, error)

// DirectiveCall describes one invocation of a custom directive.
type DirectiveCall struct {
	// Name is the directive name without the leading "!".
	Name string
	// Args are the resolved arguments, in order.
	Args []any
	// Body is the resolved mapping attached to a name(args) tag, or nil.
	Body any
	// Raw is the argument text as written inside the parentheses.
	Raw string
	// Origin is the document the directive appears in.
	Origin string
	// Line and Column locate the directive in Origin.
	Line   int
	Column int

	lookupEnv EnvLookup
}

// LookupEnv reads an environment variable through the engine's environment.
func (c *DirectiveCall) LookupEnv(name string) (string, bool) {
	if c.lookupEnv == nil {
		return "", false
	}
	return c.lookupEnv(name)
}

type omitValue struct{}

// Omit is returned by a DirectiveFunc to remove the enclosing entry from the
// result, the way a false !if does.
var Omit any = omitValue{}

// Registry binds directive names to handlers. It is safe for concurrent use.
type Registry struct {
	inner  *internal.Registry
	logger *zap.Logger
}

// NewRegistry creates a registry holding the built-in directives.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		inner:  internal.NewBuiltinRegistry(logger),
		logger: logger,
	}
}

// Register adds a custom directive. Registering a name that is already bound
// (a built-in included) fails; the first registration wins.
func (r *Registry) Register(name string, fn DirectiveFunc) error {
	return r.register(name, fn, false)
}

// MustRegister registers a directive and panics on failure.
func (r *Registry) MustRegister(name string, fn DirectiveFunc) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Replace binds name to fn, replacing any existing handler.
func (r *Registry) Replace(name string, fn DirectiveFunc) error {
	return r.register(name, fn, true)
}

func (r *Registry) register(name string, fn DirectiveFunc, replace bool) error {
	if fn == nil {
		return NewRegistryError(ErrMsgNilDirective, name)
	}
	if err := r.inner.Register(name, &directiveAdapter{fn: fn}, replace); err != nil {
		if re, ok := err.(*internal.RegistryError); ok {
			return NewRegistryError(re.Message, re.Name)
		}
		return NewRegistryError(err.Error(), name)
	}
	r.logger.Debug(LogMsgDirectiveAdded, zap.String(LogFieldName, name))
	return nil
}

// Has reports whether name is bound.
func (r *Registry) Has(name string) bool {
	return r.inner.Has(name)
}

// List returns every bound directive name in sorted order.
func (r *Registry) List() []string {
	return r.inner.List()
}

// Count returns the number of bound directives.
func (r *Registry) Count() int {
	return r.inner.Count()
}

// directiveAdapter adapts a DirectiveFunc to internal.Handler.
type directiveAdapter struct {
	fn DirectiveFunc
}

func (a *directiveAdapter) Resolve(call *internal.Call, rc *internal.Context) (internal.Node, error) {
	args, err := rc.ResolveArgs(call)
	if err != nil {
		return nil, err
	}
	dc := &DirectiveCall{
		Name:      call.Name,
		Args:      make([]any, 0, len(args)),
		Raw:       call.RawArgs,
		Origin:    rc.Origin(),
		Line:      call.Pos.Line,
		Column:    call.Pos.Column,
		lookupEnv: rc.LookupEnv,
	}
	for _, a := range args {
		if internal.IsAbsent(a) {
			continue
		}
		dc.Args = append(dc.Args, internal.ToValue(a))
	}
	if call.Body != nil {
		body, err := rc.Resolve(call.Body)
		if err != nil {
			return nil, err
		}
		dc.Body = internal.ToValue(body)
	}

	result, err := a.fn(rc.Context(), dc)
	if err != nil {
		return nil, err
	}
	if _, omit := result.(omitValue); omit {
		return internal.Absent, nil
	}
	return internal.FromValue(result), nil
}
