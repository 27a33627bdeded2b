package smartyaml

import "github.com/apuigsech/smartyaml/internal"

// Default limits and settings.
const (
	DefaultMaxFileSize           = internal.DefaultMaxFileSize
	DefaultMaxRecursionDepth     = internal.DefaultMaxRecursionDepth
	DefaultMaxVariableIterations = internal.DefaultMaxVariableIterations
	DefaultCacheMaxEntries       = internal.DefaultCacheMaxEntries
	DefaultRemoveMetadata        = true
)

// Metadata keys. Keys starting with MetadataPrefix are removed from the
// result unless WithRemoveMetadata(false) is given.
const (
	MetadataPrefix  = internal.MetadataPrefix
	MetaKeyVars     = internal.MetaKeyVars
	MetaKeyTemplate = internal.MetaKeyTemplate
	MetaKeySchema   = internal.MetaKeySchema
	MetaKeyVersion  = internal.MetaKeyVersion
)

// TemplateRootEnvVar names the environment variable consulted when no
// template root is configured.
const TemplateRootEnvVar = internal.TemplateRootEnvVar

// InMemoryOrigin is the origin reported for documents loaded from text.
const InMemoryOrigin = internal.InMemoryOrigin

// Built-in directive names.
const (
	DirectiveImport        = internal.DirectiveImport
	DirectiveImportYAML    = internal.DirectiveImportYAML
	DirectiveEnv           = internal.DirectiveEnv
	DirectiveEnvString     = internal.DirectiveEnvString
	DirectiveEnvInt        = internal.DirectiveEnvInt
	DirectiveEnvFloat      = internal.DirectiveEnvFloat
	DirectiveEnvBool       = internal.DirectiveEnvBool
	DirectiveIncludeIf     = internal.DirectiveIncludeIf
	DirectiveIncludeYAMLIf = internal.DirectiveIncludeYAMLIf
	DirectiveTemplate      = internal.DirectiveTemplate
	DirectiveMerge         = internal.DirectiveMerge
	DirectiveConcat        = internal.DirectiveConcat
	DirectiveExtend        = internal.DirectiveExtend
	DirectiveBase64        = internal.DirectiveBase64
	DirectiveBase64Decode  = internal.DirectiveBase64Decode
	DirectiveExpand        = internal.DirectiveExpand
	DirectiveIf            = internal.DirectiveIf
	DirectiveSwitch        = internal.DirectiveSwitch
)

// Reader driver names.
const (
	ReaderDriverFile     = "file"
	ReaderDriverMemory   = "memory"
	ReaderDriverPostgres = "postgres"
)

// Error metadata keys
const (
	MetaKeyKind      = "kind"
	MetaKeyPath      = "path"
	MetaKeyDirective = "directive"
	MetaKeyArgs      = "args"
	MetaKeyLine      = "line"
	MetaKeyColumn    = "column"
	MetaKeyChain     = "chain"
	MetaKeyDetail    = "detail"
	MetaKeyName      = "name"
)

// Log message constants
const (
	LogMsgEngineCreated  = "engine created"
	LogMsgLoadStarted    = "load started"
	LogMsgLoadFailed     = "load failed"
	LogMsgLoadCompleted  = "load completed"
	LogMsgDirectiveAdded = "custom directive registered"
)

// Log field names
const (
	LogFieldSource = "source"
	LogFieldOrigin = "origin"
	LogFieldKind   = "kind"
	LogFieldName   = "name"
	LogFieldDriver = "driver"
	LogFieldError  = "error"
	LogFieldCount  = "count"
)

// Chain separator used in error metadata.
const chainSeparator = " <- "
