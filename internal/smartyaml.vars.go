package internal

import (
	"regexp"
	"sort"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*\}\}`)

// Placeholders returns the distinct variable names referenced by s, in order.
func Placeholders(s string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// MergeTiers flattens the three variable tiers. A key in a higher tier
// always wins: caller over document over accumulated.
func MergeTiers(caller, document, accumulated map[string]Node) map[string]Node {
	flat := make(map[string]Node, len(caller)+len(document)+len(accumulated))
	for k, v := range accumulated {
		flat[k] = v
	}
	for k, v := range document {
		flat[k] = v
	}
	for k, v := range caller {
		flat[k] = v
	}
	return flat
}

// interpolationText returns the text a variable contributes to a template.
func interpolationText(name string, n Node) (string, error) {
	switch v := n.(type) {
	case *Scalar:
		return ScalarString(v.Value), nil
	case *Deferred:
		return v.Template, nil
	default:
		return "", NewError(KindTypeConflict, ErrMsgVarNotScalar).WithDetail(name)
	}
}

// Substitute replaces every placeholder of tmpl whose name is in vars.
// Unknown names are kept verbatim unless strict is set, in which case they
// fail with VariableNotFound. In strict mode an inserted value that still
// holds a placeholder is also a failure: its name could not be resolved.
func Substitute(tmpl string, vars map[string]Node, strict bool) (string, error) {
	var firstErr error
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		if firstErr != nil {
			return match
		}
		name := placeholderPattern.FindStringSubmatch(match)[1]
		n, ok := vars[name]
		if !ok {
			if strict {
				firstErr = NewError(KindVariableNotFound, ErrMsgVarNotFound).WithDetail(name)
			}
			return match
		}
		text, err := interpolationText(name, n)
		if err != nil {
			firstErr = err
			return match
		}
		if strict {
			if refs := Placeholders(text); len(refs) > 0 {
				firstErr = NewError(KindVariableNotFound, ErrMsgVarNotFound).WithDetail(refs[0])
				return match
			}
		}
		return text
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ExpandSelfReferences substitutes variables into each other's string values
// until a fixed point. Failing to converge within maxIterations, or
// converging on a value that still references a known variable, is a
// RecursionLimit failure.
func ExpandSelfReferences(flat map[string]Node, maxIterations int) (map[string]Node, error) {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxVariableIterations
	}

	cur := make(map[string]Node, len(flat))
	for k, v := range flat {
		if d, ok := v.(*Deferred); ok {
			v = NewString(d.Template, d.Pos)
		}
		cur[k] = v
	}

	keys := make([]string, 0, len(cur))
	for k := range cur {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i := 0; i < maxIterations; i++ {
		next := make(map[string]Node, len(cur))
		changed := false
		for _, k := range keys {
			v := cur[k]
			next[k] = v
			s, ok := stringScalar(v)
			if !ok || !ContainsPlaceholder(s) {
				continue
			}
			expanded, err := Substitute(s, cur, false)
			if err != nil {
				return nil, err
			}
			if expanded != s {
				next[k] = NewString(expanded, v.Position())
				changed = true
			}
		}
		cur = next
		if changed {
			continue
		}
		for _, k := range keys {
			s, ok := stringScalar(cur[k])
			if !ok {
				continue
			}
			for _, ref := range Placeholders(s) {
				if _, known := cur[ref]; known {
					return nil, NewError(KindRecursionLimit, ErrMsgVarSelfReference).WithDetail(k)
				}
			}
		}
		return cur, nil
	}
	return nil, NewError(KindRecursionLimit, ErrMsgVarNoConvergence)
}

func stringScalar(n Node) (string, bool) {
	s, ok := n.(*Scalar)
	if !ok {
		return "", false
	}
	str, ok := s.Value.(string)
	return str, ok
}

// ResolveDeferred replaces every Deferred node in tree with its substituted
// text. An unknown variable fails with VariableNotFound carrying the
// placeholder text and the document it came from.
func ResolveDeferred(tree Node, flat map[string]Node) (Node, error) {
	switch v := tree.(type) {
	case *Deferred:
		text, err := Substitute(v.Template, flat, true)
		if err != nil {
			if e, ok := AsError(err); ok {
				if e.Kind == KindVariableNotFound {
					e.WithDirective(DirectiveExpand, v.Template)
				}
				e.WithPath(v.Origin).WithPos(v.Pos)
			}
			return nil, err
		}
		return NewString(text, v.Pos), nil
	case *Sequence:
		out := &Sequence{Pos: v.Pos, Items: make([]Node, 0, len(v.Items))}
		for _, item := range v.Items {
			r, err := ResolveDeferred(item, flat)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, r)
		}
		return out, nil
	case *Mapping:
		out := &Mapping{Pos: v.Pos, Entries: make([]Entry, 0, len(v.Entries))}
		for _, e := range v.Entries {
			r, err := ResolveDeferred(e.Value, flat)
			if err != nil {
				return nil, err
			}
			out.Entries = append(out.Entries, Entry{Key: e.Key, Value: r})
		}
		return out, nil
	default:
		return tree, nil
	}
}

// HasDeferred reports whether any Deferred node remains in tree.
func HasDeferred(tree Node) bool {
	switch v := tree.(type) {
	case *Deferred:
		return true
	case *Sequence:
		for _, item := range v.Items {
			if HasDeferred(item) {
				return true
			}
		}
	case *Mapping:
		for _, e := range v.Entries {
			if HasDeferred(e.Value) {
				return true
			}
		}
	}
	return false
}
