package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/apuigsech/smartyaml"
	"github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	loadConfig
	schemaPath string
	format     string
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid  bool                    `json:"valid"`
	Origin string                  `json:"origin"`
	Issues []validationIssueOutput `json:"issues,omitempty"`
}

type validationIssueOutput struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// issueCollector records schema issues instead of failing the load, so
// the document's own __schema findings are reported like --schema ones.
type issueCollector struct {
	mu        sync.Mutex
	validator smartyaml.SchemaValidator
	issues    []smartyaml.ValidationIssue
}

func (c *issueCollector) Validate(value any, schema any) []smartyaml.ValidationIssue {
	issues := c.validator.Validate(value, schema)
	c.mu.Lock()
	c.issues = append(c.issues, issues...)
	c.mu.Unlock()
	return nil
}

func runValidate(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		return flagError(CmdNameValidate, ErrMsgInvalidFlags, err, stdout, stderr)
	}

	var schema any
	if cfg.schemaPath != "" {
		schema, err = loadSchema(cfg.schemaPath)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgSchemaFailed, err)
			return ExitCodeInputError
		}
	}

	validator := smartyaml.NewJSONSchemaValidator()
	collector := &issueCollector{validator: validator}

	l, err := newLoader(&cfg.loadConfig, stderr, smartyaml.WithSchemaValidator(collector))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgLoadFailed, err)
		return ExitCodeError
	}
	defer l.Close()

	doc, err := l.load(context.Background(), stdin)
	if err != nil {
		return reportLoadError(err, stderr)
	}

	issues := collector.issues
	if schema != nil {
		issues = append(issues, validator.Validate(doc.Value(), schema)...)
	}

	if cfg.format == OutputFormatJSON {
		return outputValidationJSON(doc.Origin(), issues, stdout)
	}
	return outputValidationText(issues, stdout)
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := pflag.NewFlagSet(CmdNameValidate, pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &validateConfig{}

	addLoadFlags(fs, &cfg.loadConfig)
	fs.StringVar(&cfg.schemaPath, FlagSchema, "", "")
	fs.StringVarP(&cfg.format, FlagFormat, FlagFormatShort, FlagDefaultValidateFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.check(); err != nil {
		return nil, err
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

// loadSchema reads a JSON Schema file. Comments and trailing commas are
// allowed.
func loadSchema(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var schema any
	if err := json.Unmarshal(jsonc.ToJSON(data), &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

func outputValidationText(issues []smartyaml.ValidationIssue, stdout io.Writer) int {
	if len(issues) == 0 {
		fmt.Fprintln(stdout, ValidationTextSuccess)
		return ExitCodeSuccess
	}

	fmt.Fprintln(stdout, ValidationTextIssueHeader)
	for _, issue := range issues {
		fmt.Fprintf(stdout, ValidationTextIssueFormat+FmtNewline, issue.String())
	}
	fmt.Fprintf(stdout, ValidationTextSummary+FmtNewline, len(issues))

	return ExitCodeValidationError
}

func outputValidationJSON(origin string, issues []smartyaml.ValidationIssue, stdout io.Writer) int {
	output := validationOutput{
		Valid:  len(issues) == 0,
		Origin: origin,
		Issues: make([]validationIssueOutput, 0, len(issues)),
	}

	for _, issue := range issues {
		output.Issues = append(output.Issues, validationIssueOutput{
			Path:    issue.Path,
			Message: issue.Message,
		})
	}

	jsonBytes, _ := json.MarshalIndent(output, "", jsonIndent)
	fmt.Fprintln(stdout, string(jsonBytes))

	if !output.Valid {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}
