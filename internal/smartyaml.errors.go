package internal

import (
	"errors"
	"fmt"
)

// Kind classifies a resolution failure.
type Kind string

// Error kinds. Every failure raised while resolving a document carries one.
const (
	KindSyntax           Kind = "SyntaxError"
	KindUnknownDirective Kind = "UnknownDirective"
	KindPathViolation    Kind = "PathViolation"
	KindResourceLimit    Kind = "ResourceLimit"
	KindRecursionLimit   Kind = "RecursionLimit"
	KindCircularRef      Kind = "CircularReference"
	KindFileNotFound     Kind = "FileNotFound"
	KindTypeConversion   Kind = "TypeConversion"
	KindEnvVarMissing    Kind = "EnvVarMissing"
	KindMergeConflict    Kind = "MergeConflict"
	KindTypeConflict     Kind = "TypeConflict"
	KindEncoding         Kind = "EncodingError"
	KindVariableNotFound Kind = "VariableNotFound"
	KindVersionMismatch  Kind = "VersionMismatch"
	KindSchemaValidation Kind = "SchemaValidationError"
	KindTemplatePath     Kind = "TemplatePathError"
	KindDirective        Kind = "DirectiveError"
)

// Sentinels for errors.Is comparisons. They match any *Error of the same kind.
var (
	ErrSyntax           = &Error{Kind: KindSyntax}
	ErrUnknownDirective = &Error{Kind: KindUnknownDirective}
	ErrPathViolation    = &Error{Kind: KindPathViolation}
	ErrResourceLimit    = &Error{Kind: KindResourceLimit}
	ErrRecursionLimit   = &Error{Kind: KindRecursionLimit}
	ErrCircularRef      = &Error{Kind: KindCircularRef}
	ErrFileNotFound     = &Error{Kind: KindFileNotFound}
	ErrTypeConversion   = &Error{Kind: KindTypeConversion}
	ErrEnvVarMissing    = &Error{Kind: KindEnvVarMissing}
	ErrMergeConflict    = &Error{Kind: KindMergeConflict}
	ErrTypeConflict     = &Error{Kind: KindTypeConflict}
	ErrEncoding         = &Error{Kind: KindEncoding}
	ErrVariableNotFound = &Error{Kind: KindVariableNotFound}
	ErrVersionMismatch  = &Error{Kind: KindVersionMismatch}
	ErrSchemaValidation = &Error{Kind: KindSchemaValidation}
	ErrTemplatePath     = &Error{Kind: KindTemplatePath}
	ErrDirective        = &Error{Kind: KindDirective}
)

// Error message constants
const (
	ErrMsgTagEmpty             = "directive tag is empty"
	ErrMsgTagInvalidName       = "invalid directive name"
	ErrMsgTagUnbalanced        = "unbalanced delimiters in directive arguments"
	ErrMsgTagTrailing          = "unexpected text after directive arguments"
	ErrMsgTagUnterminatedQuote = "unterminated quote in directive arguments"
	ErrMsgUnknownDirective     = "no handler registered for directive"
	ErrMsgArgCount             = "wrong number of arguments"
	ErrMsgArgNotScalar         = "argument must be a scalar"
	ErrMsgArgNotSequence       = "argument must be a sequence"
	ErrMsgArgNotMapping        = "argument must be a mapping"
	ErrMsgArgShape             = "unsupported argument shape"
	ErrMsgPathEscapesRoot      = "path escapes the allowed roots"
	ErrMsgPathNUL              = "path contains a NUL byte"
	ErrMsgPathEmpty            = "path is empty"
	ErrMsgFileTooLarge         = "file exceeds the maximum file size"
	ErrMsgTotalTooLarge        = "documents exceed the maximum total size"
	ErrMsgDepthExceeded        = "maximum recursion depth exceeded"
	ErrMsgCycleDetected        = "circular reference detected"
	ErrMsgFileNotFound         = "file not found"
	ErrMsgFileRead             = "failed to read file"
	ErrMsgInvalidUTF8          = "content is not valid UTF-8"
	ErrMsgBase64Invalid        = "invalid base64 input"
	ErrMsgEnvVarName           = "invalid environment variable name"
	ErrMsgEnvVarMissing        = "environment variable not set and no default given"
	ErrMsgEnvTypeUnknown       = "unknown conversion type"
	ErrMsgConvertInt           = "cannot convert value to int"
	ErrMsgConvertFloat         = "cannot convert value to float"
	ErrMsgConvertBool          = "cannot convert value to bool"
	ErrMsgMergeMismatch        = "cannot merge values of different types"
	ErrMsgMergeNotMapping      = "override requires the imported document to be a mapping"
	ErrMsgMergeKeyValue        = "merge key value must be a mapping or a sequence of mappings"
	ErrMsgConcatNotSequence    = "concat items must be sequences"
	ErrMsgExtendNotSequence    = "extend requires a list/array"
	ErrMsgVarsNotMapping       = "__vars must be a mapping"
	ErrMsgVarNotScalar         = "variable is not a scalar and cannot be interpolated"
	ErrMsgVarNotFound          = "variable not found"
	ErrMsgVarNoConvergence     = "variable expansion did not converge"
	ErrMsgVarSelfReference     = "variable references itself"
	ErrMsgVersionInvalid       = "invalid __version value"
	ErrMsgVersionUnsupported   = "document version is not supported"
	ErrMsgSchemaFailed         = "schema validation failed"
	ErrMsgTemplateNoRoot       = "template root is not configured"
	ErrMsgTemplateName         = "invalid template name"
	ErrMsgTemplateSpec         = "invalid __template specification"
	ErrMsgTomlDecode           = "failed to decode TOML document"
	ErrMsgYAMLParse            = "failed to parse YAML document"
	ErrMsgAliasDepth           = "alias nesting too deep"
	ErrMsgAliasExpansion       = "alias expansion exceeds node limit"
	ErrMsgCanceled             = "resolution canceled"
)

// Error format strings
const (
	ErrFmtKindMessage = "%s: %s"
	ErrFmtDetail      = "%s [%s=%s]"
	ErrFmtLocation    = "%s:%d:%d"
	ErrFmtFrame       = "\n  in %s (%s)"
)

// Error detail keys
const (
	ErrDetailPath      = "path"
	ErrDetailDirective = "directive"
	ErrDetailArgs      = "args"
	ErrDetailName      = "name"
)

// Frame records one enclosing step of the derivation path an error crossed.
type Frame struct {
	Origin    string
	Directive string
	Pos       Position
}

// String renders the frame as origin:line:column.
func (f Frame) String() string {
	return fmt.Sprintf(ErrFmtLocation, f.Origin, f.Pos.Line, f.Pos.Column)
}

// Error is the single failure type produced by the resolution engine.
type Error struct {
	Kind      Kind
	Message   string
	Path      string
	Directive string
	Args      string
	Detail    string
	Pos       Position
	Frames    []Frame
	Cause     error
}

// NewError creates an error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithPath sets the originating document path.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithDirective records the directive name and raw arguments involved.
func (e *Error) WithDirective(name, args string) *Error {
	e.Directive = name
	e.Args = args
	return e
}

// WithDetail attaches the offending value (a file name, variable, template text).
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithPos sets the source position.
func (e *Error) WithPos(pos Position) *Error {
	e.Pos = pos
	return e
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// AddFrame appends an enclosing frame. Frames are ordered innermost first.
func (e *Error) AddFrame(f Frame) *Error {
	e.Frames = append(e.Frames, f)
	return e
}

// Chain returns the derivation path as strings, innermost first.
func (e *Error) Chain() []string {
	chain := make([]string, 0, len(e.Frames)+1)
	if e.Path != "" {
		chain = append(chain, fmt.Sprintf(ErrFmtLocation, e.Path, e.Pos.Line, e.Pos.Column))
	}
	for _, f := range e.Frames {
		chain = append(chain, f.String())
	}
	return chain
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf(ErrFmtKindMessage, e.Kind, e.Message)
	if e.Detail != "" {
		msg = fmt.Sprintf(ErrFmtDetail, msg, ErrDetailName, e.Detail)
	}
	if e.Directive != "" {
		msg = fmt.Sprintf(ErrFmtDetail, msg, ErrDetailDirective, e.Directive)
	}
	if e.Args != "" {
		msg = fmt.Sprintf(ErrFmtDetail, msg, ErrDetailArgs, e.Args)
	}
	if e.Path != "" {
		msg = fmt.Sprintf(ErrFmtDetail, msg, ErrDetailPath, fmt.Sprintf(ErrFmtLocation, e.Path, e.Pos.Line, e.Pos.Column))
	}
	if e.Cause != nil {
		msg = fmt.Sprintf(ErrFmtKindMessage, msg, e.Cause.Error())
	}
	for _, f := range e.Frames {
		msg += fmt.Sprintf(ErrFmtFrame, f.String(), f.Directive)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or the empty kind if err is not a resolution error.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}

// RegistryError represents a registry operation error.
type RegistryError struct {
	Message string
	Name    string
}

// NewRegistryError creates a new registry error.
func NewRegistryError(message, name string) *RegistryError {
	return &RegistryError{
		Message: message,
		Name:    name,
	}
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf(ErrFmtKindMessage, e.Message, e.Name)
	}
	return e.Message
}

// Registry error message constants
const (
	ErrMsgNilHandler           = "directive handler cannot be nil"
	ErrMsgEmptyDirectiveName   = "directive name cannot be empty"
	ErrMsgHandlerAlreadyExists = "handler already registered for directive"
)
