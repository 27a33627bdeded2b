package internal

// resolveIf handles the if directive. The value is only resolved when the
// condition holds; otherwise the enclosing entry is omitted.
//
//	debug: !if [DEBUG, {level: trace}]
//	debug: !if(DEBUG, verbose)
//	debug: !if {var: DEBUG, then: {level: trace}}
func resolveIf(call *Call, rc *Context) (Node, error) {
	nameNode, value, err := ifShape(call)
	if err != nil {
		return nil, err
	}
	name, err := rc.ResolveString(nameNode)
	if err != nil {
		return nil, err
	}
	if !rc.Condition(name) {
		return Absent, nil
	}
	return rc.Resolve(value)
}

func ifShape(call *Call) (Node, Node, error) {
	switch {
	case len(call.Args) == 2:
		return call.Args[0], call.Args[1], nil
	case len(call.Args) == 1 && call.Body != nil:
		return call.Args[0], call.Body, nil
	case len(call.Args) == 1:
		m, ok := call.Args[0].(*Mapping)
		if !ok {
			break
		}
		name := firstKey(m, CondKeyVar, CondKeyOn)
		value := firstKey(m, CondKeyValue, CondKeyThen)
		if name == nil || value == nil {
			break
		}
		return name, value, nil
	}
	return nil, nil, NewError(KindSyntax, ErrMsgArgShape).WithPos(call.Pos)
}

// resolveSwitch handles the switch directive. The first case whose label
// equals the condition value is selected, then the default; with neither
// the enclosing entry is omitted. Only the selected value is resolved.
//
//	size: !switch [TIER, [{case: small, value: 1}, {case: large, value: 8}], 2]
//	size: !switch
//	  var: TIER
//	  cases:
//	    - {case: small, cpu: 1}
//	  default: {cpu: 2}
func resolveSwitch(call *Call, rc *Context) (Node, error) {
	nameNode, cases, def, err := switchShape(call)
	if err != nil {
		return nil, err
	}
	name, err := rc.ResolveString(nameNode)
	if err != nil {
		return nil, err
	}

	if current, ok := rc.ConditionValue(name); ok {
		switch cs := cases.(type) {
		case *Sequence:
			for _, item := range cs.Items {
				entry, isMapping := item.(*Mapping)
				if !isMapping {
					return nil, NewError(KindSyntax, ErrMsgArgNotMapping).WithPos(item.Position())
				}
				labelNode, found := entry.Get(CondKeyCase)
				if !found {
					return nil, NewError(KindSyntax, ErrMsgArgShape).WithDetail(CondKeyCase).WithPos(item.Position())
				}
				label, err := rc.ResolveString(labelNode)
				if err != nil {
					return nil, err
				}
				if label == current {
					return rc.Resolve(caseValue(entry))
				}
			}
		case *Mapping:
			if v, found := cs.Get(current); found {
				return rc.Resolve(v)
			}
		case nil:
		default:
			return nil, NewError(KindSyntax, ErrMsgArgNotSequence).WithPos(cases.Position())
		}
	}

	if def == nil {
		return Absent, nil
	}
	if m, ok := def.(*Mapping); ok {
		return rc.Resolve(caseValue(m))
	}
	return rc.Resolve(def)
}

func switchShape(call *Call) (name, cases, def Node, err error) {
	switch {
	case call.Style != StyleBlock && len(call.Args) >= 2 && len(call.Args) <= 3:
		name, cases = call.Args[0], call.Args[1]
		if len(call.Args) == 3 {
			def = call.Args[2]
		}
		return name, cases, def, nil
	case len(call.Args) == 1 && call.Body != nil:
		name = call.Args[0]
		if m, ok := call.Body.(*Mapping); ok {
			cases, _ = m.Get(CondKeyCases)
			def, _ = m.Get(CondKeyDefault)
			return name, cases, def, nil
		}
		return name, call.Body, nil, nil
	case len(call.Args) == 1:
		m, ok := call.Args[0].(*Mapping)
		if !ok {
			break
		}
		name = firstKey(m, CondKeyVar, CondKeyOn)
		if name == nil {
			break
		}
		cases, _ = m.Get(CondKeyCases)
		def, _ = m.Get(CondKeyDefault)
		return name, cases, def, nil
	}
	return nil, nil, nil, NewError(KindSyntax, ErrMsgArgShape).WithPos(call.Pos)
}

// caseValue picks the value of a case (or default) mapping: the value key
// when present, else the single key besides case, else the remaining keys.
func caseValue(m *Mapping) Node {
	if v, ok := m.Get(CondKeyValue); ok {
		return v
	}
	rest := m.Without(CondKeyCase)
	if len(rest.Entries) == 1 {
		return rest.Entries[0].Value
	}
	return rest
}

func firstKey(m *Mapping, keys ...string) Node {
	for _, k := range keys {
		if v, ok := m.Get(k); ok {
			return v
		}
	}
	return nil
}
