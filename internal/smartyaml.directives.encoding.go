package internal

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// resolveBase64 handles !base64(text).
func resolveBase64(call *Call, rc *Context) (Node, error) {
	arg, err := singleArg(call)
	if err != nil {
		return nil, err
	}
	s, err := rc.ResolveString(arg)
	if err != nil {
		return nil, err
	}
	return NewString(base64.StdEncoding.EncodeToString([]byte(s)), call.Pos), nil
}

// resolveBase64Decode handles !base64_decode(data). Whitespace in the input
// is ignored; the decoded bytes must be UTF-8 text.
func resolveBase64Decode(call *Call, rc *Context) (Node, error) {
	arg, err := singleArg(call)
	if err != nil {
		return nil, err
	}
	s, err := rc.ResolveString(arg)
	if err != nil {
		return nil, err
	}
	compact := strings.Join(strings.Fields(s), "")
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, NewError(KindEncoding, ErrMsgBase64Invalid).WithCause(err)
	}
	if !utf8.Valid(data) {
		return nil, NewError(KindEncoding, ErrMsgInvalidUTF8)
	}
	return NewString(string(data), call.Pos), nil
}
