package internal

// Built-in directive names. A YAML tag "!import(x)" resolves to DirectiveImport.
const (
	DirectiveImport        = "import"
	DirectiveImportYAML    = "import_yaml"
	DirectiveEnv           = "env"
	DirectiveEnvString     = "env_str"
	DirectiveEnvInt        = "env_int"
	DirectiveEnvFloat      = "env_float"
	DirectiveEnvBool       = "env_bool"
	DirectiveIncludeIf     = "include_if"
	DirectiveIncludeYAMLIf = "include_yaml_if"
	DirectiveTemplate      = "template"
	DirectiveMerge         = "merge"
	DirectiveConcat        = "concat"
	DirectiveExtend        = "extend"
	DirectiveBase64        = "base64"
	DirectiveBase64Decode  = "base64_decode"
	DirectiveExpand        = "expand"
	DirectiveIf            = "if"
	DirectiveSwitch        = "switch"
	DirectiveMergeKey      = "<<"
)

// Metadata keys recognised by the pipeline.
const (
	MetadataPrefix  = "__"
	MetaKeyVars     = "__vars"
	MetaKeyTemplate = "__template"
	MetaKeySchema   = "__schema"
	MetaKeyVersion  = "__version"
)

// Template specification keys inside a __template mapping.
const (
	TemplateKeyUse     = "use"
	TemplateKeyPath    = "path"
	TemplateKeyName    = "name"
	TemplateKeyOverlay = "overlay"
)

// Keys understood by the if and switch directives in mapping form.
const (
	CondKeyVar     = "var"
	CondKeyOn      = "on"
	CondKeyValue   = "value"
	CondKeyThen    = "then"
	CondKeyCases   = "cases"
	CondKeyCase    = "case"
	CondKeyDefault = "default"
)

// Environment lookup type tags.
const (
	EnvTypeString = "string"
	EnvTypeStr    = "str"
	EnvTypeInt    = "int"
	EnvTypeFloat  = "float"
	EnvTypeBool   = "bool"
)

// Template file resolution.
const (
	TemplateFileSuffix   = ".yaml"
	TemplateAltSuffix    = ".yml"
	TemplateNameSep      = "."
	TemplateRootEnvVar   = "SMARTYAML_TMPL"
	TomlFileSuffix       = ".toml"
	InMemoryOrigin       = "<string>"
	YAMLTagPrefixLocal   = "!"
	YAMLTagPrefixDefault = "!!"
)

// Default limits.
const (
	DefaultMaxFileSize           = 10 * 1024 * 1024
	DefaultMaxRecursionDepth     = 10
	DefaultMaxVariableIterations = 10
	DefaultCacheMaxEntries       = 512
)

// Character constants used by the tag parser.
const (
	CharOpenParen    = '('
	CharCloseParen   = ')'
	CharOpenBracket  = '['
	CharCloseBracket = ']'
	CharOpenBrace    = '{'
	CharCloseBrace   = '}'
	CharComma        = ','
	CharDoubleQuote  = '"'
	CharSingleQuote  = '\''
	CharBackslash    = '\\'
	CharNUL          = '\x00'
)

// Placeholder delimiters for variable interpolation.
const (
	PlaceholderOpen  = "{{"
	PlaceholderClose = "}}"
)

// Log message constants
const (
	LogMsgRegistryCreated   = "registry created"
	LogMsgHandlerRegistered = "directive handler registered"
	LogMsgHandlerReplaced   = "directive handler replaced"
	LogMsgHandlerCollision  = "directive handler registration collision"
	LogMsgStageEntered      = "pipeline stage entered"
	LogMsgDocumentStart     = "document resolution started"
	LogMsgDocumentDone      = "document resolution complete"
	LogMsgDirectiveInvoked  = "directive invoked"
	LogMsgDirectiveOmitted  = "directive produced no value, entry omitted"
	LogMsgFileRead          = "file read"
	LogMsgCacheHit          = "parsed content cache hit"
	LogMsgCacheMiss         = "parsed content cache miss"
	LogMsgTemplateResolved  = "template resolved"
	LogMsgVarsAccumulated   = "child variables accumulated"
	LogMsgDeferredCreated   = "expansion deferred"
	LogMsgVersionChecked    = "document version accepted"
	LogMsgSchemaValidated   = "schema validation passed"
	LogMsgMetadataStripped  = "metadata fields stripped"
)

// Log field names
const (
	LogFieldDirective = "directive"
	LogFieldName      = "name"
	LogFieldStage     = "stage"
	LogFieldOrigin    = "origin"
	LogFieldPath      = "path"
	LogFieldBytes     = "bytes"
	LogFieldDepth     = "depth"
	LogFieldLine      = "line"
	LogFieldColumn    = "column"
	LogFieldTemplate  = "template"
	LogFieldCount     = "count"
	LogFieldVersion   = "version"
	LogFieldOverlay   = "overlay"
)
