package internal

import (
	"regexp"
	"strings"
)

// ArgStyle identifies how a directive received its arguments.
type ArgStyle string

// Argument styles.
const (
	// StyleParen is name(a, b): arguments inline in the tag.
	StyleParen ArgStyle = "paren"
	// StyleList is a bare name applied to a sequence: each item is an argument.
	StyleList ArgStyle = "list"
	// StyleBlock is a bare name applied to a scalar or mapping: the body is the argument.
	StyleBlock ArgStyle = "block"
)

var directiveNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Call is a parsed directive invocation. Args are unresolved nodes.
type Call struct {
	Name    string
	RawArgs string
	Style   ArgStyle
	Args    []Node
	// Body is the mapping attached to a paren-style tag, such as the
	// override of import_yaml(file). Nil when absent.
	Body      Node
	Pos       Position
	Inherited Node
}

// ParseTag parses a directive tag token (without the leading "!") and the
// node it is attached to into a Call.
//
// yaml.v3 ends a tag at the first whitespace, so "!base64(Hello, world!)"
// arrives as the token "base64(Hello," and the plain scalar "world!)". When
// the token's parentheses are unbalanced and the body is a string scalar the
// two halves are rejoined.
func ParseTag(token string, body Node, pos Position) (*Call, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewError(KindSyntax, ErrMsgTagEmpty).WithPos(pos)
	}

	open := strings.IndexByte(token, CharOpenParen)
	if open < 0 {
		if !directiveNamePattern.MatchString(token) {
			return nil, NewError(KindSyntax, ErrMsgTagInvalidName).WithDetail(token).WithPos(pos)
		}
		return bodyCall(token, body, pos), nil
	}

	name := token[:open]
	if !directiveNamePattern.MatchString(name) {
		return nil, NewError(KindSyntax, ErrMsgTagInvalidName).WithDetail(name).WithPos(pos)
	}

	if !balanced(token[open:]) {
		if s, ok := body.(*Scalar); ok {
			if text, isString := s.Value.(string); isString && text != "" {
				token = token + " " + text
				body = nil
			}
		}
	}

	inner, rest, err := splitParen(token[open:])
	if err != nil {
		return nil, err.WithDirective(name, token[open:]).WithPos(pos)
	}
	if strings.TrimSpace(rest) != "" {
		return nil, NewError(KindSyntax, ErrMsgTagTrailing).WithDirective(name, token[open:]).WithPos(pos)
	}

	parts, err := splitArgs(inner)
	if err != nil {
		return nil, err.WithDirective(name, inner).WithPos(pos)
	}

	call := &Call{
		Name:    name,
		RawArgs: inner,
		Style:   StyleParen,
		Args:    make([]Node, 0, len(parts)),
		Pos:     pos,
	}
	for _, p := range parts {
		call.Args = append(call.Args, NewString(p, pos))
	}

	switch b := body.(type) {
	case nil:
	case *Scalar:
		if text := ScalarString(b.Value); strings.TrimSpace(text) != "" {
			return nil, NewError(KindSyntax, ErrMsgTagTrailing).WithDirective(name, text).WithPos(pos)
		}
	default:
		call.Body = body
	}
	return call, nil
}

func bodyCall(name string, body Node, pos Position) *Call {
	call := &Call{Name: name, Pos: pos}
	switch b := body.(type) {
	case nil:
		call.Style = StyleBlock
	case *Sequence:
		call.Style = StyleList
		call.Args = b.Items
		call.RawArgs = rawText(b)
	case *Scalar:
		call.Style = StyleBlock
		if b.Value != nil && ScalarString(b.Value) != "" {
			call.Args = []Node{b}
			call.RawArgs = ScalarString(b.Value)
		}
	default:
		call.Style = StyleBlock
		call.Args = []Node{body}
		call.RawArgs = rawText(body)
	}
	return call
}

// rawText renders an argument body for diagnostics.
func rawText(n Node) string {
	switch v := n.(type) {
	case *Scalar:
		return ScalarString(v.Value)
	case *Sequence:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = rawText(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Mapping:
		parts := make([]string, len(v.Entries))
		for i, e := range v.Entries {
			parts[i] = e.Key + ": " + rawText(e.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Tagged:
		body := rawText(v.Body)
		if body == "" {
			return YAMLTagPrefixLocal + v.Tag
		}
		return YAMLTagPrefixLocal + v.Tag + " " + body
	case *Deferred:
		return v.Template
	default:
		return ""
	}
}

// balanced reports whether every opening delimiter outside quotes is closed.
func balanced(s string) bool {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == CharBackslash && quote == CharDoubleQuote {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case CharDoubleQuote, CharSingleQuote:
			quote = c
		case CharOpenParen, CharOpenBracket, CharOpenBrace:
			depth++
		case CharCloseParen, CharCloseBracket, CharCloseBrace:
			depth--
		}
	}
	return depth == 0 && quote == 0
}

// splitParen returns the text between the leading "(" and its matching ")"
// plus whatever follows it.
func splitParen(s string) (inner, rest string, err *Error) {
	var stack []byte
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == CharBackslash && quote == CharDoubleQuote {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case CharDoubleQuote, CharSingleQuote:
			quote = c
		case CharOpenParen, CharOpenBracket, CharOpenBrace:
			stack = append(stack, c)
		case CharCloseParen, CharCloseBracket, CharCloseBrace:
			if len(stack) == 0 || !matches(stack[len(stack)-1], c) {
				return "", "", NewError(KindSyntax, ErrMsgTagUnbalanced)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[1:i], s[i+1:], nil
			}
		}
	}
	if quote != 0 {
		return "", "", NewError(KindSyntax, ErrMsgTagUnterminatedQuote)
	}
	return "", "", NewError(KindSyntax, ErrMsgTagUnbalanced)
}

func matches(open, closing byte) bool {
	switch open {
	case CharOpenParen:
		return closing == CharCloseParen
	case CharOpenBracket:
		return closing == CharCloseBracket
	case CharOpenBrace:
		return closing == CharCloseBrace
	}
	return false
}

// splitArgs splits at top-level commas, respecting quotes and nesting, and
// strips surrounding whitespace and quotes from each part.
func splitArgs(s string) ([]string, *Error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var (
		parts []string
		cur   strings.Builder
		depth int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			cur.WriteByte(c)
			if c == CharBackslash && quote == CharDoubleQuote && i+1 < len(s) {
				i++
				cur.WriteByte(s[i])
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case CharDoubleQuote, CharSingleQuote:
			quote = c
		case CharOpenParen, CharOpenBracket, CharOpenBrace:
			depth++
		case CharCloseParen, CharCloseBracket, CharCloseBrace:
			depth--
			if depth < 0 {
				return nil, NewError(KindSyntax, ErrMsgTagUnbalanced)
			}
		case CharComma:
			if depth == 0 {
				parts = append(parts, unquote(cur.String()))
				cur.Reset()
				continue
			}
		}
		cur.WriteByte(c)
	}
	if quote != 0 {
		return nil, NewError(KindSyntax, ErrMsgTagUnterminatedQuote)
	}
	if depth != 0 {
		return nil, NewError(KindSyntax, ErrMsgTagUnbalanced)
	}
	parts = append(parts, unquote(cur.String()))
	return parts, nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first != last || (first != CharDoubleQuote && first != CharSingleQuote) {
		return s
	}
	inner := s[1 : len(s)-1]
	if first == CharSingleQuote {
		return strings.ReplaceAll(inner, "''", "'")
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == CharBackslash && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(inner[i])
			}
			continue
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}
