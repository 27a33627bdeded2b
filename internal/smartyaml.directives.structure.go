package internal

// resolveMerge handles !merge [a, b, ...]: a left fold of DeepMerge.
func resolveMerge(call *Call, rc *Context) (Node, error) {
	items, err := resolveItems(call, rc)
	if err != nil {
		return nil, err
	}
	return MergeAll(items)
}

// resolveConcat handles !concat [[a], [b], ...].
func resolveConcat(call *Call, rc *Context) (Node, error) {
	items, err := resolveItems(call, rc)
	if err != nil {
		return nil, err
	}
	seq, err := Concat(items)
	if err != nil {
		return nil, err
	}
	seq.Pos = call.Pos
	return seq, nil
}

// resolveExtend handles !extend [items]. Under a template overlay the items
// are appended to the inherited sequence; otherwise they are the value.
func resolveExtend(call *Call, rc *Context) (Node, error) {
	if call.Style != StyleList {
		return nil, NewError(KindTypeConflict, ErrMsgExtendNotSequence).WithPos(call.Pos)
	}
	items, err := resolveItems(call, rc)
	if err != nil {
		return nil, err
	}
	own := &Sequence{Items: items, Pos: call.Pos}

	inherited, ok := call.Inherited.(*Sequence)
	if !ok {
		return own, nil
	}
	return concatSequences(inherited, own), nil
}
