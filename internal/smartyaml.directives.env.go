package internal

import (
	"regexp"
	"strconv"
	"strings"
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Boolean words recognised by env_bool and by conditions, compared
// case-insensitively.
var (
	trueWords  = map[string]bool{"true": true, "yes": true, "1": true, "on": true, "enabled": true}
	falseWords = map[string]bool{"false": true, "no": true, "0": true, "off": true, "disabled": true, "": true}
)

// ParseBool converts s using the boolean words.
func ParseBool(s string) (bool, error) {
	w := strings.ToLower(strings.TrimSpace(s))
	if trueWords[w] {
		return true, nil
	}
	if falseWords[w] {
		return false, nil
	}
	return false, NewError(KindTypeConversion, ErrMsgConvertBool).WithDetail(s)
}

// EnvHandler handles the env directive family.
//
//	!env HOME                     -> string, EnvVarMissing if unset
//	!env [PORT, 8080]             -> value or the default as written
//	!env [PORT, "8080", int]      -> converted
//	!env_int(PORT, 8080)          -> converted, type fixed by the name
type EnvHandler struct {
	typ string
}

// NewEnvHandler creates a handler. An empty typ lets the call choose it.
func NewEnvHandler(typ string) *EnvHandler {
	return &EnvHandler{typ: typ}
}

// Resolve implements Handler.
func (h *EnvHandler) Resolve(call *Call, rc *Context) (Node, error) {
	max := 3
	if h.typ != "" {
		max = 2
	}
	if err := requireArgs(call, 1, max); err != nil {
		return nil, err
	}

	name, err := rc.ResolveString(call.Args[0])
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if !envNamePattern.MatchString(name) {
		return nil, NewError(KindSyntax, ErrMsgEnvVarName).WithDetail(name)
	}

	typ := h.typ
	if typ == "" && len(call.Args) == 3 {
		if typ, err = rc.ResolveString(call.Args[2]); err != nil {
			return nil, err
		}
	}

	if value, ok := rc.LookupEnv(name); ok {
		return ConvertTyped(NewString(value, call.Pos), typ)
	}
	if len(call.Args) < 2 {
		return nil, NewError(KindEnvVarMissing, ErrMsgEnvVarMissing).WithDetail(name)
	}
	def, err := rc.Resolve(call.Args[1])
	if err != nil {
		return nil, err
	}
	if typ == "" {
		return def, nil
	}
	return ConvertTyped(def, typ)
}

// ConvertTyped converts a scalar to the named type. An empty type keeps the
// node unchanged.
func ConvertTyped(n Node, typ string) (Node, error) {
	if typ == "" {
		return n, nil
	}
	s, ok := StringValue(n)
	if !ok {
		return nil, NewError(KindTypeConversion, ErrMsgArgNotScalar).WithDetail(typ)
	}
	pos := n.Position()

	switch strings.ToLower(strings.TrimSpace(typ)) {
	case EnvTypeString, EnvTypeStr:
		return NewString(s, pos), nil
	case EnvTypeInt:
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, NewError(KindTypeConversion, ErrMsgConvertInt).WithDetail(s).WithCause(err)
		}
		return &Scalar{Value: v, Pos: pos}, nil
	case EnvTypeFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, NewError(KindTypeConversion, ErrMsgConvertFloat).WithDetail(s).WithCause(err)
		}
		return &Scalar{Value: v, Pos: pos}, nil
	case EnvTypeBool:
		v, err := ParseBool(s)
		if err != nil {
			return nil, err
		}
		return &Scalar{Value: v, Pos: pos}, nil
	default:
		return nil, NewError(KindSyntax, ErrMsgEnvTypeUnknown).WithDetail(typ)
	}
}
