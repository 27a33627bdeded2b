package smartyaml

import (
	"errors"
	"strconv"
	"strings"

	"github.com/apuigsech/smartyaml/internal"
	"github.com/itsatony/go-cuserr"
)

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	ErrMsgLoadFailed          = "document resolution failed"
	ErrMsgEmptySource         = "source cannot be empty"
	ErrMsgNilDirective        = "directive function cannot be nil"
	ErrMsgInvalidOption       = "invalid option value"
	ErrMsgReaderDriverMissing = "reader driver not found"
	ErrMsgReaderClosed        = "reader is closed"
	ErrMsgReaderQueryFailed   = "reader query failed"
	ErrMsgReaderConnect       = "failed to connect to reader backend"
	ErrMsgReaderMigration     = "reader migration failed"
	ErrMsgEncodeFailed        = "failed to encode document"
	ErrMsgSchemaCompile       = "failed to compile schema"
	ErrMsgSchemaEncode        = "failed to encode value for schema validation"
)

// Error code constants for categorization
const (
	ErrCodeSyntax           = "SMARTYAML_SYNTAX"
	ErrCodeUnknownDirective = "SMARTYAML_UNKNOWN_DIRECTIVE"
	ErrCodePathViolation    = "SMARTYAML_PATH_VIOLATION"
	ErrCodeResourceLimit    = "SMARTYAML_RESOURCE_LIMIT"
	ErrCodeRecursionLimit   = "SMARTYAML_RECURSION_LIMIT"
	ErrCodeCircularRef      = "SMARTYAML_CIRCULAR_REFERENCE"
	ErrCodeFileNotFound     = "SMARTYAML_FILE_NOT_FOUND"
	ErrCodeTypeConversion   = "SMARTYAML_TYPE_CONVERSION"
	ErrCodeEnvVarMissing    = "SMARTYAML_ENV_VAR_MISSING"
	ErrCodeMergeConflict    = "SMARTYAML_MERGE_CONFLICT"
	ErrCodeTypeConflict     = "SMARTYAML_TYPE_CONFLICT"
	ErrCodeEncoding         = "SMARTYAML_ENCODING"
	ErrCodeVariableNotFound = "SMARTYAML_VARIABLE_NOT_FOUND"
	ErrCodeVersionMismatch  = "SMARTYAML_VERSION_MISMATCH"
	ErrCodeSchema           = "SMARTYAML_SCHEMA_VALIDATION"
	ErrCodeTemplatePath     = "SMARTYAML_TEMPLATE_PATH"
	ErrCodeDirective        = "SMARTYAML_DIRECTIVE"
	ErrCodeRegistry         = "SMARTYAML_REGISTRY"
	ErrCodeReader           = "SMARTYAML_READER"
	ErrCodeConfig           = "SMARTYAML_CONFIG"
	ErrCodeEncode           = "SMARTYAML_ENCODE"
	ErrCodeInternal         = "SMARTYAML_INTERNAL"
)

// ErrorKind classifies a load failure.
type ErrorKind string

// Error kinds.
const (
	KindSyntax           = ErrorKind(internal.KindSyntax)
	KindUnknownDirective = ErrorKind(internal.KindUnknownDirective)
	KindPathViolation    = ErrorKind(internal.KindPathViolation)
	KindResourceLimit    = ErrorKind(internal.KindResourceLimit)
	KindRecursionLimit   = ErrorKind(internal.KindRecursionLimit)
	KindCircularRef      = ErrorKind(internal.KindCircularRef)
	KindFileNotFound     = ErrorKind(internal.KindFileNotFound)
	KindTypeConversion   = ErrorKind(internal.KindTypeConversion)
	KindEnvVarMissing    = ErrorKind(internal.KindEnvVarMissing)
	KindMergeConflict    = ErrorKind(internal.KindMergeConflict)
	KindTypeConflict     = ErrorKind(internal.KindTypeConflict)
	KindEncoding         = ErrorKind(internal.KindEncoding)
	KindVariableNotFound = ErrorKind(internal.KindVariableNotFound)
	KindVersionMismatch  = ErrorKind(internal.KindVersionMismatch)
	KindSchemaValidation = ErrorKind(internal.KindSchemaValidation)
	KindTemplatePath     = ErrorKind(internal.KindTemplatePath)
	KindDirective        = ErrorKind(internal.KindDirective)
)

// Sentinel errors, one per kind. errors.Is(err, ErrCircularReference) holds
// for any load error of that kind.
var (
	ErrSyntax            error = internal.ErrSyntax
	ErrUnknownDirective  error = internal.ErrUnknownDirective
	ErrPathViolation     error = internal.ErrPathViolation
	ErrResourceLimit     error = internal.ErrResourceLimit
	ErrRecursionLimit    error = internal.ErrRecursionLimit
	ErrCircularReference error = internal.ErrCircularRef
	ErrFileNotFound      error = internal.ErrFileNotFound
	ErrTypeConversion    error = internal.ErrTypeConversion
	ErrEnvVarMissing     error = internal.ErrEnvVarMissing
	ErrMergeConflict     error = internal.ErrMergeConflict
	ErrTypeConflict      error = internal.ErrTypeConflict
	ErrEncoding          error = internal.ErrEncoding
	ErrVariableNotFound  error = internal.ErrVariableNotFound
	ErrVersionMismatch   error = internal.ErrVersionMismatch
	ErrSchemaValidation  error = internal.ErrSchemaValidation
	ErrTemplatePath      error = internal.ErrTemplatePath
	ErrDirective         error = internal.ErrDirective
)

var errorCodes = map[internal.Kind]string{
	internal.KindSyntax:           ErrCodeSyntax,
	internal.KindUnknownDirective: ErrCodeUnknownDirective,
	internal.KindPathViolation:    ErrCodePathViolation,
	internal.KindResourceLimit:    ErrCodeResourceLimit,
	internal.KindRecursionLimit:   ErrCodeRecursionLimit,
	internal.KindCircularRef:      ErrCodeCircularRef,
	internal.KindFileNotFound:     ErrCodeFileNotFound,
	internal.KindTypeConversion:   ErrCodeTypeConversion,
	internal.KindEnvVarMissing:    ErrCodeEnvVarMissing,
	internal.KindMergeConflict:    ErrCodeMergeConflict,
	internal.KindTypeConflict:     ErrCodeTypeConflict,
	internal.KindEncoding:         ErrCodeEncoding,
	internal.KindVariableNotFound: ErrCodeVariableNotFound,
	internal.KindVersionMismatch:  ErrCodeVersionMismatch,
	internal.KindSchemaValidation: ErrCodeSchema,
	internal.KindTemplatePath:     ErrCodeTemplatePath,
	internal.KindDirective:        ErrCodeDirective,
}

// ErrorCode returns the SMARTYAML_* code for a kind.
func ErrorCode(kind ErrorKind) string {
	if code, ok := errorCodes[internal.Kind(kind)]; ok {
		return code
	}
	return ErrCodeInternal
}

// KindOf returns the kind of a load error, or "" when err did not come from
// document resolution.
func KindOf(err error) ErrorKind {
	return ErrorKind(internal.KindOf(err))
}

// ErrorChain returns the derivation path of a load error, innermost first,
// as origin:line:column entries.
func ErrorChain(err error) []string {
	if e, ok := internal.AsError(err); ok {
		return e.Chain()
	}
	return nil
}

// NewLoadError converts a resolution failure into a *cuserr.CustomError
// carrying the SMARTYAML_* code and the location metadata. The original
// error stays reachable through errors.Is and errors.As.
func NewLoadError(err error) error {
	if err == nil {
		return nil
	}
	var custom *cuserr.CustomError
	if errors.As(err, &custom) {
		return err
	}
	e, ok := internal.AsError(err)
	if !ok {
		return cuserr.WrapStdError(err, ErrCodeInternal, ErrMsgLoadFailed)
	}

	custom = cuserr.WrapStdError(e, ErrorCode(ErrorKind(e.Kind)), e.Error()).
		WithMetadata(MetaKeyKind, string(e.Kind)).
		WithMetadata(MetaKeyLine, strconv.Itoa(e.Pos.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(e.Pos.Column))
	if e.Path != "" {
		custom = custom.WithMetadata(MetaKeyPath, e.Path)
	}
	if e.Directive != "" {
		custom = custom.WithMetadata(MetaKeyDirective, e.Directive)
	}
	if e.Args != "" {
		custom = custom.WithMetadata(MetaKeyArgs, e.Args)
	}
	if e.Detail != "" {
		custom = custom.WithMetadata(MetaKeyDetail, e.Detail)
	}
	if chain := e.Chain(); len(chain) > 0 {
		custom = custom.WithMetadata(MetaKeyChain, strings.Join(chain, chainSeparator))
	}
	return custom
}

// NewRegistryError creates an error for a rejected directive registration.
func NewRegistryError(msg, name string) error {
	return cuserr.NewValidationError(ErrCodeRegistry, msg).
		WithMetadata(MetaKeyName, name)
}

// NewConfigError creates an error for an invalid option value.
func NewConfigError(msg, detail string) error {
	return cuserr.NewValidationError(ErrCodeConfig, msg).
		WithMetadata(MetaKeyDetail, detail)
}

// NewReaderDriverNotFoundError creates an error for an unknown reader driver.
func NewReaderDriverNotFoundError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyName, ErrMsgReaderDriverMissing).
		WithMetadata(MetaKeyName, name)
}

// NewReaderError wraps a reader backend failure.
func NewReaderError(msg string, cause error) error {
	if cause == nil {
		return cuserr.NewInternalError(ErrCodeReader, errors.New(msg))
	}
	return cuserr.WrapStdError(cause, ErrCodeReader, msg)
}

// NewEncodeError wraps an output encoding failure.
func NewEncodeError(cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeEncode, ErrMsgEncodeFailed)
}
