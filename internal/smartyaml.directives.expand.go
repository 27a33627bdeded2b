package internal

import "go.uber.org/zap"

// resolveExpand handles !expand "text {{name}}". The text is substituted
// immediately when every referenced variable is settled; otherwise a
// Deferred node is returned and the root document completes it once all
// variable tiers are known.
func resolveExpand(call *Call, rc *Context) (Node, error) {
	arg, err := singleArg(call)
	if err != nil {
		return nil, err
	}
	tmpl, err := rc.ResolveString(arg)
	if err != nil {
		return nil, err
	}

	names := Placeholders(tmpl)
	if len(names) == 0 {
		return NewString(tmpl, call.Pos), nil
	}

	vars := make(map[string]Node, len(names))
	for _, name := range names {
		v, ok := rc.Settled(name)
		if !ok {
			rc.Logger().Debug(LogMsgDeferredCreated,
				zap.String(LogFieldName, name),
				zap.String(LogFieldOrigin, rc.Origin()),
			)
			return &Deferred{Template: tmpl, Origin: rc.Origin(), Pos: call.Pos}, nil
		}
		vars[name] = v
	}

	text, err := Substitute(tmpl, vars, true)
	if err != nil {
		return nil, err
	}
	return NewString(text, call.Pos), nil
}
