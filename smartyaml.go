// Package smartyaml resolves YAML documents extended with directives:
// imports, environment lookups, conditionals, merges, template inheritance
// and variable expansion. The result is plain data.
//
//	__vars:
//	  db: app
//	database:
//	  host: !env(DB_HOST, localhost)
//	  port: !env_int(DB_PORT, 5432)
//	  url: !expand "postgres://localhost/{{db}}"
//
// # Basic Usage
//
// Create an engine and load a document:
//
//	engine := smartyaml.MustNew(smartyaml.WithBasePath("config"))
//	doc, err := engine.LoadFile(ctx, "app.yaml")
//	if err != nil {
//	    return err
//	}
//	cfg := doc.Map()
//
// Or use the package-level helpers:
//
//	value, err := smartyaml.Load("config/app.yaml")
//	value, err := smartyaml.Loads("name: !env(USER, anonymous)")
//
// # Directives
//
// A directive is a YAML local tag. Arguments go inside the tag or, for the
// bare form, in the tagged node itself:
//
//	a: !env(HOME)                  # arguments in the tag
//	b: !concat [[1, 2], [3]]       # each sequence item is an argument
//	c: !base64 hello               # the node is the argument
//	d: !import_yaml(base.yaml)     # the attached mapping overrides the import
//	  replicas: 3
//
// Built-in directives:
//
//	import, import_yaml              read text or a document
//	include_if, include_yaml_if      import only when a condition holds
//	template                         load a named template
//	env, env_str, env_int,
//	env_float, env_bool              environment lookups with defaults
//	merge, concat, extend            combine mappings and sequences
//	base64, base64_decode            encode and decode text
//	expand                           substitute {{name}} variables
//	if, switch                       choose a value by condition
//
// YAML merge keys ("<<") are honoured; local keys win.
//
// # Metadata
//
// Top-level keys starting with "__" drive resolution and are removed from
// the result unless WithRemoveMetadata(false) is given:
//
//	__version: "1.0"                 checked against WithVersionConstraint
//	__vars: {env: prod}              variables for !expand
//	__template: services.web         parent document, overlaid by this one
//	__schema: {type: object}         JSON Schema the result must satisfy
//
// # Variables
//
// !expand looks names up in three tiers: variables given with
// WithVariables, then the document's own __vars, then variables collected
// from imported documents, later imports winning. Variables may reference
// other variables; expansion repeats until nothing changes.
//
// # Security
//
// Every document is read through a gate that enforces WithAllowedRoots,
// WithMaxFileSize, WithMaxRecursionDepth and WithMaxTotalBytes, and that
// rejects import cycles. Documents can come from the filesystem, memory or
// PostgreSQL through the Reader interface.
//
// # Custom Directives
//
// Register a DirectiveFunc to add a directive:
//
//	engine.MustRegister("upper", func(ctx context.Context, call *smartyaml.DirectiveCall) (any, error) {
//	    s, _ := call.Args[0].(string)
//	    return strings.ToUpper(s), nil
//	})
//	// name: !upper(alice)  =>  name: ALICE
//
// # Errors
//
// Load errors are *cuserr.CustomError values carrying a SMARTYAML_* code and
// the origin, directive, arguments, line and column. Match kinds with
// errors.Is:
//
//	if errors.Is(err, smartyaml.ErrCircularReference) {
//	    ...
//	}
package smartyaml
