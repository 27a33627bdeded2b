package internal

import "strconv"

// RegisterBuiltins registers every built-in directive with the registry.
func RegisterBuiltins(registry *Registry) {
	registry.MustRegister(DirectiveImport, HandlerFunc(resolveImport))
	registry.MustRegister(DirectiveImportYAML, HandlerFunc(resolveImportYAML))
	registry.MustRegister(DirectiveIncludeIf, HandlerFunc(resolveIncludeIf))
	registry.MustRegister(DirectiveIncludeYAMLIf, HandlerFunc(resolveIncludeYAMLIf))
	registry.MustRegister(DirectiveTemplate, HandlerFunc(resolveTemplateDirective))

	registry.MustRegister(DirectiveEnv, NewEnvHandler(""))
	registry.MustRegister(DirectiveEnvString, NewEnvHandler(EnvTypeString))
	registry.MustRegister(DirectiveEnvInt, NewEnvHandler(EnvTypeInt))
	registry.MustRegister(DirectiveEnvFloat, NewEnvHandler(EnvTypeFloat))
	registry.MustRegister(DirectiveEnvBool, NewEnvHandler(EnvTypeBool))

	registry.MustRegister(DirectiveMerge, HandlerFunc(resolveMerge))
	registry.MustRegister(DirectiveConcat, HandlerFunc(resolveConcat))
	registry.MustRegister(DirectiveExtend, HandlerFunc(resolveExtend))

	registry.MustRegister(DirectiveBase64, HandlerFunc(resolveBase64))
	registry.MustRegister(DirectiveBase64Decode, HandlerFunc(resolveBase64Decode))
	registry.MustRegister(DirectiveExpand, HandlerFunc(resolveExpand))

	registry.MustRegister(DirectiveIf, HandlerFunc(resolveIf))
	registry.MustRegister(DirectiveSwitch, HandlerFunc(resolveSwitch))
}

// requireArgs fails with a SyntaxError unless min <= len(call.Args) <= max.
func requireArgs(call *Call, min, max int) error {
	n := len(call.Args)
	if n < min || n > max {
		want := strconv.Itoa(min)
		if max != min {
			want += ".." + strconv.Itoa(max)
		}
		return NewError(KindSyntax, ErrMsgArgCount).
			WithDetail(strconv.Itoa(n) + " (want " + want + ")").
			WithPos(call.Pos)
	}
	return nil
}

// resolveItems resolves list-style arguments, dropping omitted ones.
func resolveItems(call *Call, rc *Context) ([]Node, error) {
	out := make([]Node, 0, len(call.Args))
	for _, a := range call.Args {
		r, err := rc.Resolve(a)
		if err != nil {
			return nil, err
		}
		if IsAbsent(r) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// singleArg returns the only argument of a one-argument directive. In paren
// style the whole argument text is the value, so "base64(Hello, world!)"
// receives "Hello, world!" rather than two arguments.
func singleArg(call *Call) (Node, error) {
	if call.Style == StyleParen && len(call.Args) > 1 {
		return NewString(unquote(call.RawArgs), call.Pos), nil
	}
	if err := requireArgs(call, 1, 1); err != nil {
		return nil, err
	}
	return call.Args[0], nil
}
