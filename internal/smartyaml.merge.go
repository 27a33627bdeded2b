package internal

import "strings"

// DeepMerge combines two resolved values, right over left.
// Mapping with mapping merges per key, recursing only where both sides hold
// a mapping; sequence with sequence concatenates; scalars are replaced.
// Mixing a mapping or a sequence with another shape is a MergeConflict.
func DeepMerge(left, right Node) (Node, error) {
	switch l := left.(type) {
	case *Mapping:
		r, ok := right.(*Mapping)
		if !ok {
			return nil, NewError(KindMergeConflict, ErrMsgMergeMismatch).WithDetail(shapeName(left) + "+" + shapeName(right))
		}
		return mergeMappings(l, r), nil
	case *Sequence:
		r, ok := right.(*Sequence)
		if !ok {
			return nil, NewError(KindMergeConflict, ErrMsgMergeMismatch).WithDetail(shapeName(left) + "+" + shapeName(right))
		}
		return concatSequences(l, r), nil
	default:
		switch right.(type) {
		case *Mapping, *Sequence:
			return nil, NewError(KindMergeConflict, ErrMsgMergeMismatch).WithDetail(shapeName(left) + "+" + shapeName(right))
		}
		return right, nil
	}
}

// mergeMappings merges per key: nested mappings recurse, everything else is
// replaced by the right side. Keys keep first-seen order.
func mergeMappings(l, r *Mapping) *Mapping {
	out := &Mapping{Pos: l.Pos, Entries: make([]Entry, 0, len(l.Entries)+len(r.Entries))}
	out.Entries = append(out.Entries, l.Entries...)
	for _, e := range r.Entries {
		existing, ok := out.Get(e.Key)
		if ok {
			lm, lok := existing.(*Mapping)
			rm, rok := e.Value.(*Mapping)
			if lok && rok {
				out.Set(e.Key, mergeMappings(lm, rm))
				continue
			}
		}
		out.Set(e.Key, e.Value)
	}
	return out
}

func concatSequences(l, r *Sequence) *Sequence {
	out := &Sequence{Pos: l.Pos, Items: make([]Node, 0, len(l.Items)+len(r.Items))}
	out.Items = append(out.Items, l.Items...)
	out.Items = append(out.Items, r.Items...)
	return out
}

// MergeAll folds DeepMerge over items from left to right.
func MergeAll(items []Node) (Node, error) {
	var acc Node
	for _, item := range items {
		if IsAbsent(item) {
			continue
		}
		if acc == nil {
			acc = item
			continue
		}
		merged, err := DeepMerge(acc, item)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	if acc == nil {
		return &Mapping{}, nil
	}
	return acc, nil
}

// Concat flattens a list of sequences by one level, preserving order.
func Concat(items []Node) (*Sequence, error) {
	out := &Sequence{}
	for _, item := range items {
		if IsAbsent(item) {
			continue
		}
		seq, ok := item.(*Sequence)
		if !ok {
			return nil, NewError(KindTypeConflict, ErrMsgConcatNotSequence).WithDetail(shapeName(item))
		}
		out.Items = append(out.Items, seq.Items...)
	}
	return out, nil
}

// Overlay lays child over a resolved parent template: mappings merge
// recursively with the child winning. A directive in the child carries the
// parent value at its key, so its result is overlaid once it resolves and
// an extend directive appends to it.
func Overlay(parent, child Node) Node {
	pm, pok := parent.(*Mapping)
	cm, cok := child.(*Mapping)
	if !pok || !cok {
		return child
	}
	out := &Mapping{Pos: cm.Pos, Entries: make([]Entry, 0, len(pm.Entries)+len(cm.Entries))}
	out.Entries = append(out.Entries, pm.Entries...)
	for _, e := range cm.Entries {
		inherited, ok := out.Get(e.Key)
		if !ok {
			out.Entries = append(out.Entries, e)
			continue
		}
		out.Set(e.Key, overlayValue(inherited, e.Value))
	}
	return out
}

func overlayValue(inherited, child Node) Node {
	switch c := child.(type) {
	case *Tagged:
		cp := *c
		cp.Inherited = inherited
		return &cp
	case *Mapping:
		if _, ok := inherited.(*Mapping); ok {
			return Overlay(inherited, c)
		}
		return child
	default:
		return child
	}
}

// OverlayResolved lays a resolved directive result over the inherited value
// at the same key. A directive that yields nothing leaves the inherited
// value in place.
func OverlayResolved(inherited, result Node) Node {
	if inherited == nil {
		return result
	}
	if IsAbsent(result) {
		return inherited
	}
	return Overlay(inherited, result)
}

// Replace lays child over parent without recursion: each child key replaces
// the parent key wholesale and new keys are appended.
func Replace(parent, child Node) Node {
	pm, pok := parent.(*Mapping)
	cm, cok := child.(*Mapping)
	if !pok || !cok {
		return child
	}
	out := &Mapping{Pos: cm.Pos, Entries: make([]Entry, 0, len(pm.Entries)+len(cm.Entries))}
	out.Entries = append(out.Entries, pm.Entries...)
	for _, e := range cm.Entries {
		out.Set(e.Key, e.Value)
	}
	return out
}

// tagName returns the directive name part of a raw tag token.
func tagName(tag string) string {
	if i := strings.IndexByte(tag, CharOpenParen); i >= 0 {
		return tag[:i]
	}
	return tag
}

// ApplyMergeKeys expands "<<" entries of a resolved mapping in place of the
// key: the merged mapping (or sequence of mappings, earlier wins) supplies
// defaults, and keys defined locally always win.
func ApplyMergeKeys(m *Mapping) (*Mapping, error) {
	hasMerge := false
	local := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		if e.Key == DirectiveMergeKey {
			hasMerge = true
			continue
		}
		local[e.Key] = true
	}
	if !hasMerge {
		return m, nil
	}

	out := &Mapping{Pos: m.Pos, Entries: make([]Entry, 0, len(m.Entries))}
	seen := make(map[string]bool, len(m.Entries))
	add := func(key string, value Node) {
		if seen[key] {
			return
		}
		seen[key] = true
		out.Entries = append(out.Entries, Entry{Key: key, Value: value})
	}

	for _, e := range m.Entries {
		if e.Key != DirectiveMergeKey {
			add(e.Key, e.Value)
			continue
		}
		var sources []*Mapping
		switch v := e.Value.(type) {
		case *Mapping:
			sources = append(sources, v)
		case *Sequence:
			for _, item := range v.Items {
				src, ok := item.(*Mapping)
				if !ok {
					return nil, NewError(KindMergeConflict, ErrMsgMergeKeyValue).WithPos(item.Position())
				}
				sources = append(sources, src)
			}
		default:
			if IsAbsent(e.Value) {
				continue
			}
			return nil, NewError(KindMergeConflict, ErrMsgMergeKeyValue).WithPos(e.Value.Position())
		}
		for _, src := range sources {
			for _, se := range src.Entries {
				if local[se.Key] {
					continue
				}
				add(se.Key, se.Value)
			}
		}
	}
	return out, nil
}

// StripMetadata removes every metadata key from mappings, recursing into
// nested mappings and sequences.
func StripMetadata(n Node) Node {
	switch v := n.(type) {
	case *Mapping:
		out := &Mapping{Pos: v.Pos, Entries: make([]Entry, 0, len(v.Entries))}
		for _, e := range v.Entries {
			if strings.HasPrefix(e.Key, MetadataPrefix) {
				continue
			}
			out.Entries = append(out.Entries, Entry{Key: e.Key, Value: StripMetadata(e.Value)})
		}
		return out
	case *Sequence:
		out := &Sequence{Pos: v.Pos, Items: make([]Node, len(v.Items))}
		for i, item := range v.Items {
			out.Items[i] = StripMetadata(item)
		}
		return out
	default:
		return n
	}
}

func shapeName(n Node) string {
	switch v := n.(type) {
	case *Mapping:
		return "mapping"
	case *Sequence:
		return "sequence"
	case *Scalar:
		if v.Value == nil {
			return "null"
		}
		return "scalar"
	case *Deferred:
		return "scalar"
	case *Tagged:
		return "directive"
	default:
		return "absent"
	}
}
