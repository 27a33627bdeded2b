package main

// CLIName is the binary name
const CLIName = "smartyaml"

// Command names
const (
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagInput        = "input"
	FlagOutput       = "output"
	FlagFormat       = "format"
	FlagVar          = "var"
	FlagBasePath     = "base-path"
	FlagTemplateRoot = "template-root"
	FlagKeepMetadata = "keep-metadata"
	FlagMaxDepth     = "max-depth"
	FlagMaxFileSize  = "max-file-size"
	FlagAllowRoot    = "allow-root"
	FlagSchema       = "schema"
	FlagSourceDB     = "source-db"
	FlagDebug        = "debug"
)

// Flag names - short form
const (
	FlagInputShort  = "i"
	FlagOutputShort = "o"
	FlagFormatShort = "F"
)

// Flag default values
const (
	FlagDefaultOutput         = "-" // stdout
	FlagDefaultFormat         = "yaml"
	FlagDefaultValidateFormat = "text"
)

// Output formats
const (
	OutputFormatYAML = "yaml"
	OutputFormatJSON = "json"
	OutputFormatText = "text"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Help flags accepted in place of a command
const (
	FlagHelpLong  = "--help"
	FlagHelpShort = "-h"
)

// tempOutputSuffix is the pattern suffix of the temporary file written
// before an output file is renamed into place.
const tempOutputSuffix = ".tmp-*"

// Variable flag separator (--var name=value)
const varSeparator = "="

// JSON output indent
const jsonIndent = "  "

// Error messages - ALL must be constants
const (
	ErrMsgMissingInput      = "input document required"
	ErrMsgUnknownCommand    = "unknown command"
	ErrMsgInvalidFlags      = "invalid flags"
	ErrMsgInvalidVar        = "invalid --var, expected name=value"
	ErrMsgReadFileFailed    = "failed to read file"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgLoadFailed        = "failed to resolve document"
	ErrMsgInvalidFormat     = "invalid output format"
	ErrMsgEncodeFailed      = "failed to encode output"
	ErrMsgSchemaFailed      = "failed to read schema"
	ErrMsgSourceFailed      = "failed to open document source"
	ErrMsgInputTooLarge     = "input exceeds maximum size in bytes"
)

// Help text templates
const (
	HelpMainUsage = `smartyaml - resolve YAML documents with directives

Usage:
    smartyaml <command> [options]

Commands:
    render      Resolve a document and print the result
    validate    Resolve a document and check it against a schema
    version     Show version information
    help        Show help for a command

Use "smartyaml help <command>" for more information about a command.`

	HelpRenderUsage = `Resolve a document and print the result

Usage:
    smartyaml render [options]

Options:
    -i, --input <file>          Document to resolve (use "-" for stdin)
    -o, --output <file>         Output file (default: stdout)
    -F, --format <format>       Output format: yaml, json (default: yaml)
    --var <name=value>          Caller variable for !expand (repeatable)
    --base-path <dir>           Directory relative paths resolve against
    --template-root <dir>       Directory dotted template names resolve under
    --keep-metadata             Keep "__" keys in the output
    --max-depth <n>             Maximum document nesting (default: 10)
    --max-file-size <bytes>     Maximum size of one document (default: 10485760)
    --allow-root <dir>          Directory documents may be read from (repeatable)
    --source-db <dsn>           Read documents from PostgreSQL instead of files
    --debug                     Log resolution steps to stderr

Examples:
    smartyaml render -i config.yaml
    smartyaml render -i config.yaml -F json --var env=prod
    cat config.yaml | smartyaml render -i - --base-path ./config`

	HelpValidateUsage = `Resolve a document and check it against a schema

Usage:
    smartyaml validate [options]

Options:
    -i, --input <file>          Document to resolve (use "-" for stdin)
    -F, --format <format>       Output format: text, json (default: text)
    --schema <file>             JSON Schema file (JSON or JSON with comments)
    --var <name=value>          Caller variable for !expand (repeatable)
    --base-path <dir>           Directory relative paths resolve against
    --template-root <dir>       Directory dotted template names resolve under
    --max-depth <n>             Maximum document nesting (default: 10)
    --max-file-size <bytes>     Maximum size of one document (default: 10485760)
    --allow-root <dir>          Directory documents may be read from (repeatable)
    --source-db <dsn>           Read documents from PostgreSQL instead of files
    --debug                     Log resolution steps to stderr

Without --schema the document's own __schema, if any, is applied.

Examples:
    smartyaml validate -i config.yaml
    smartyaml validate -i config.yaml --schema config.schema.jsonc -F json`

	HelpVersionUsage = `Show version information

Usage:
    smartyaml version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    smartyaml help [command]

Commands:
    render      Show help for render command
    validate    Show help for validate command
    version     Show help for version command`
)

// Version output format templates
const (
	VersionTextTemplate = "smartyaml version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Validation output format templates
const (
	ValidationTextSuccess     = "Document is valid"
	ValidationTextIssueHeader = "Validation issues:"
	ValidationTextIssueFormat = "  %s"
	ValidationTextSummary     = "%d issue(s)"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtChainEntry      = "  at %s\n"
	FmtInlineDetail    = "%s: %s"
	FmtInlineCause     = "%s: %w"
	FmtNewline         = "\n"
)
