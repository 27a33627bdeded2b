package smartyaml

import (
	"bytes"
	"errors"
	"strings"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaResourceURL names the in-memory schema resource handed to the compiler.
const schemaResourceURL = "mem://smartyaml/schema.json"

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	// Path is a JSON pointer to the offending value, "" for the document root.
	Path string
	// Message describes the violation.
	Message string
}

// String renders the issue as "path: message".
func (i ValidationIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// SchemaValidator checks a resolved document against the value of its
// __schema key. No issues means the document is valid.
type SchemaValidator interface {
	Validate(value any, schema any) []ValidationIssue
}

// SchemaValidatorFunc adapts a function to SchemaValidator.
type SchemaValidatorFunc func(value any, schema any) []ValidationIssue

// Validate implements SchemaValidator.
func (f SchemaValidatorFunc) Validate(value any, schema any) []ValidationIssue {
	return f(value, schema)
}

// JSONSchemaValidator validates documents with JSON Schema. The schema may
// be given as a mapping or as JSON text.
type JSONSchemaValidator struct {
	// Draft selects the JSON Schema draft used when the schema declares none.
	// Default: the compiler's latest draft.
	Draft *jsonschema.Draft
}

// NewJSONSchemaValidator creates a JSON Schema validator.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{}
}

// Validate implements SchemaValidator.
func (v *JSONSchemaValidator) Validate(value any, schema any) []ValidationIssue {
	compiled, err := v.compile(schema)
	if err != nil {
		return []ValidationIssue{{Message: ErrMsgSchemaCompile + ": " + err.Error()}}
	}

	doc, err := toJSONValue(value)
	if err != nil {
		return []ValidationIssue{{Message: ErrMsgSchemaEncode + ": " + err.Error()}}
	}

	err = compiled.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []ValidationIssue{{Message: err.Error()}}
	}

	var issues []ValidationIssue
	for _, e := range verr.BasicOutput().Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		issues = append(issues, ValidationIssue{Path: e.InstanceLocation, Message: e.Error})
	}
	if len(issues) == 0 {
		issues = append(issues, ValidationIssue{Path: verr.InstanceLocation, Message: verr.Message})
	}
	return issues
}

func (v *JSONSchemaValidator) compile(schema any) (*jsonschema.Schema, error) {
	var raw []byte
	if text, ok := schema.(string); ok {
		raw = []byte(text)
	} else {
		encoded, err := json.Marshal(schema)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}

	compiler := jsonschema.NewCompiler()
	if v.Draft != nil {
		compiler.Draft = v.Draft
	}
	if err := compiler.AddResource(schemaResourceURL, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaResourceURL)
}

// toJSONValue round-trips value through JSON so that numbers and containers
// have the types the schema validator expects. Numbers decode as json.Number.
func toJSONValue(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// validateFunc adapts a SchemaValidator to the pipeline's callback.
func validateFunc(v SchemaValidator) func(value, schema any) []string {
	if v == nil {
		return nil
	}
	return func(value, schema any) []string {
		issues := v.Validate(value, schema)
		if len(issues) == 0 {
			return nil
		}
		out := make([]string, len(issues))
		for i, issue := range issues {
			out[i] = issue.String()
		}
		return out
	}
}
