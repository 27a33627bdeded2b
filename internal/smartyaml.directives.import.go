package internal

// resolveImport handles !import(file): the file's text as a string.
func resolveImport(call *Call, rc *Context) (Node, error) {
	if err := requireArgs(call, 1, 1); err != nil {
		return nil, err
	}
	path, err := rc.ResolveString(call.Args[0])
	if err != nil {
		return nil, err
	}
	text, err := rc.LoadText(path)
	if err != nil {
		return nil, err
	}
	return NewString(text, call.Pos), nil
}

// resolveImportYAML handles !import_yaml(file) with an optional override
// mapping, given either as the tagged mapping body or as a second list item.
//
//	db: !import_yaml(db.yaml)
//	  port: 5433
func resolveImportYAML(call *Call, rc *Context) (Node, error) {
	if err := requireArgs(call, 1, 2); err != nil {
		return nil, err
	}
	path, err := rc.ResolveString(call.Args[0])
	if err != nil {
		return nil, err
	}

	override := call.Body
	if len(call.Args) == 2 {
		override = call.Args[1]
	}
	return importWithOverride(rc, path, "", override)
}

func importWithOverride(rc *Context, path, fromDir string, override Node) (Node, error) {
	result, err := rc.LoadDocument(path, fromDir)
	if err != nil {
		return nil, err
	}
	if override == nil {
		return result, nil
	}

	ov, err := rc.Resolve(override)
	if err != nil {
		return nil, err
	}
	if IsAbsent(ov) {
		return result, nil
	}
	om, ok := ov.(*Mapping)
	if !ok {
		return nil, NewError(KindMergeConflict, ErrMsgArgNotMapping).WithPos(override.Position())
	}
	rm, ok := result.(*Mapping)
	if !ok {
		return nil, NewError(KindMergeConflict, ErrMsgMergeNotMapping).WithDetail(path)
	}
	return mergeMappings(rm, om), nil
}

// conditionalArgs extracts [condition, file] for the include_if family.
func conditionalArgs(call *Call, rc *Context) (string, bool, error) {
	if err := requireArgs(call, 2, 2); err != nil {
		return "", false, err
	}
	cond, err := rc.ResolveString(call.Args[0])
	if err != nil {
		return "", false, err
	}
	if !rc.Condition(cond) {
		return "", false, nil
	}
	path, err := rc.ResolveString(call.Args[1])
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// resolveIncludeIf handles !include_if [condition, file].
func resolveIncludeIf(call *Call, rc *Context) (Node, error) {
	path, ok, err := conditionalArgs(call, rc)
	if err != nil || !ok {
		return Absent, err
	}
	text, err := rc.LoadText(path)
	if err != nil {
		return nil, err
	}
	return NewString(text, call.Pos), nil
}

// resolveIncludeYAMLIf handles !include_yaml_if [condition, file].
func resolveIncludeYAMLIf(call *Call, rc *Context) (Node, error) {
	path, ok, err := conditionalArgs(call, rc)
	if err != nil || !ok {
		return Absent, err
	}
	return rc.LoadDocument(path, "")
}

// resolveTemplateDirective handles !template(name): the named template
// loaded as a data document.
func resolveTemplateDirective(call *Call, rc *Context) (Node, error) {
	if err := requireArgs(call, 1, 1); err != nil {
		return nil, err
	}
	ref, err := rc.ResolveString(call.Args[0])
	if err != nil {
		return nil, err
	}
	path, fromDir, err := rc.templatePath(ref, false)
	if err != nil {
		return nil, err
	}
	return rc.LoadDocument(path, fromDir)
}
