package internal

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Handler produces a value for one directive call.
// Arguments in call are unresolved; handlers resolve what they need through rc.
type Handler interface {
	Resolve(call *Call, rc *Context) (Node, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(call *Call, rc *Context) (Node, error)

// Resolve calls f(call, rc).
func (f HandlerFunc) Resolve(call *Call, rc *Context) (Node, error) {
	return f(call, rc)
}

// Registry maps directive names to handlers.
// It is safe for concurrent use.
type Registry struct {
	handlers map[string]Handler
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRegistryCreated)
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry, populated with the
// built-in directives on first use.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(nil)
		RegisterBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// NewBuiltinRegistry creates an isolated registry seeded with the built-ins.
func NewBuiltinRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	RegisterBuiltins(r)
	return r
}

// Register binds name to handler. An existing binding is an error unless
// replace is set.
func (r *Registry) Register(name string, handler Handler, replace bool) error {
	if handler == nil {
		return NewRegistryError(ErrMsgNilHandler, name)
	}
	if name == "" {
		return NewRegistryError(ErrMsgEmptyDirectiveName, "")
	}
	if !directiveNamePattern.MatchString(name) {
		return NewRegistryError(ErrMsgTagInvalidName, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		if !replace {
			r.logger.Warn(LogMsgHandlerCollision, zap.String(LogFieldDirective, name))
			return NewRegistryError(ErrMsgHandlerAlreadyExists, name)
		}
		r.handlers[name] = handler
		r.logger.Debug(LogMsgHandlerReplaced, zap.String(LogFieldDirective, name))
		return nil
	}

	r.handlers[name] = handler
	r.logger.Debug(LogMsgHandlerRegistered, zap.String(LogFieldDirective, name))
	return nil
}

// MustRegister registers a handler and panics on failure.
// Use this for built-ins that must always be available.
func (r *Registry) MustRegister(name string, handler Handler) {
	if err := r.Register(name, handler, false); err != nil {
		panic(err)
	}
}

// Lookup returns the handler bound to name.
func (r *Registry) Lookup(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	if !ok {
		return nil, NewError(KindUnknownDirective, ErrMsgUnknownDirective).WithDirective(name, "")
	}
	return h, nil
}

// Has reports whether name is bound.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.handlers[name]
	return ok
}

// List returns all registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered handlers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handlers)
}
