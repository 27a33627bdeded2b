package internal

import (
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const maxAliasDepth = 64

// MaxAliasNodes bounds the number of nodes a document may produce by
// expanding aliases. Nested aliases grow geometrically, so a few hundred
// bytes could otherwise expand to millions of nodes.
const MaxAliasNodes = 100000

// YAML core tags as reported by yaml.Node.ShortTag.
const (
	yamlTagNull  = "!!null"
	yamlTagBool  = "!!bool"
	yamlTagInt   = "!!int"
	yamlTagFloat = "!!float"
	yamlTagStr   = "!!str"
	yamlTagMap   = "!!map"
	yamlTagSeq   = "!!seq"
)

// Parse turns YAML text into a tree. Local tags ("!name...") become Tagged
// nodes; core-schema scalars are typed. Only the first document of a stream
// is read.
func Parse(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewError(KindSyntax, ErrMsgYAMLParse).WithCause(err)
	}
	if doc.Kind == 0 {
		return &Scalar{}, nil
	}
	c := &converter{aliasBudget: MaxAliasNodes}
	return c.convert(&doc)
}

// ParseTOML turns a TOML document into a tree. Keys are sorted.
func ParseTOML(data []byte) (Node, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, NewError(KindSyntax, ErrMsgTomlDecode).WithCause(err)
	}
	return FromValue(v), nil
}

// ParseSource picks the decoder for a document by its file name.
func ParseSource(name string, data []byte) (Node, error) {
	if strings.HasSuffix(strings.ToLower(DocumentName(name)), TomlFileSuffix) {
		return ParseTOML(data)
	}
	return Parse(data)
}

// converter turns a yaml.Node tree into a Node tree. Nodes built while
// expanding an alias are charged against aliasBudget.
type converter struct {
	aliasDepth  int
	aliasBudget int
}

func (c *converter) convert(n *yaml.Node) (Node, error) {
	pos := Position{Line: n.Line, Column: n.Column}

	if c.aliasDepth > 0 {
		c.aliasBudget--
		if c.aliasBudget < 0 {
			return nil, NewError(KindResourceLimit, ErrMsgAliasExpansion).WithPos(pos)
		}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &Scalar{Pos: pos}, nil
		}
		return c.convert(n.Content[0])
	case yaml.AliasNode:
		if c.aliasDepth >= maxAliasDepth || n.Alias == nil {
			return nil, NewError(KindSyntax, ErrMsgAliasDepth).WithPos(pos)
		}
		c.aliasDepth++
		defer func() { c.aliasDepth-- }()
		return c.convert(n.Alias)
	}

	if isLocalTag(n.Tag) {
		body, err := c.body(n)
		if err != nil {
			return nil, err
		}
		return &Tagged{Tag: strings.TrimPrefix(n.Tag, YAMLTagPrefixLocal), Body: body, Pos: pos}, nil
	}
	return c.body(n)
}

func isLocalTag(tag string) bool {
	return strings.HasPrefix(tag, YAMLTagPrefixLocal) &&
		!strings.HasPrefix(tag, YAMLTagPrefixDefault) &&
		tag != YAMLTagPrefixLocal
}

// body converts n ignoring any local tag on it.
func (c *converter) body(n *yaml.Node) (Node, error) {
	pos := Position{Line: n.Line, Column: n.Column}

	switch n.Kind {
	case yaml.ScalarNode:
		if isLocalTag(n.Tag) || n.Tag == YAMLTagPrefixLocal {
			return &Scalar{Value: n.Value, Pos: pos}, nil
		}
		return &Scalar{Value: scalarValue(n), Pos: pos}, nil
	case yaml.SequenceNode:
		seq := &Sequence{Pos: pos, Items: make([]Node, 0, len(n.Content))}
		for _, child := range n.Content {
			item, err := c.convert(child)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, item)
		}
		return seq, nil
	case yaml.MappingNode:
		m := &Mapping{Pos: pos, Entries: make([]Entry, 0, len(n.Content)/2)}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := mappingKey(n.Content[i])
			value, err := c.convert(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, value)
		}
		return m, nil
	case yaml.AliasNode, yaml.DocumentNode:
		return c.convert(n)
	}
	return &Scalar{Pos: pos}, nil
}

func mappingKey(n *yaml.Node) string {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	var v any
	if err := n.Decode(&v); err == nil {
		return ScalarString(v)
	}
	return n.Value
}

func scalarValue(n *yaml.Node) any {
	switch n.ShortTag() {
	case yamlTagNull:
		return nil
	case yamlTagBool, yamlTagInt, yamlTagFloat:
		var v any
		if err := n.Decode(&v); err != nil {
			return n.Value
		}
		return FromValue(v).(*Scalar).Value
	default:
		return n.Value
	}
}

// ToYAMLNode converts a resolved tree into a yaml.Node, preserving key order.
func ToYAMLNode(n Node) *yaml.Node {
	switch v := n.(type) {
	case *Mapping:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: yamlTagMap}
		for _, e := range v.Entries {
			if IsAbsent(e.Value) {
				continue
			}
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagStr, Value: e.Key},
				ToYAMLNode(e.Value),
			)
		}
		return out
	case *Sequence:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: yamlTagSeq}
		for _, item := range v.Items {
			if IsAbsent(item) {
				continue
			}
			out.Content = append(out.Content, ToYAMLNode(item))
		}
		return out
	case *Scalar:
		out := &yaml.Node{}
		if err := out.Encode(v.Value); err != nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagStr, Value: ScalarString(v.Value)}
		}
		return out
	case *Deferred:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagStr, Value: v.Template}
	case *Tagged:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagStr, Value: YAMLTagPrefixLocal + v.Tag}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlTagNull, Value: "null"}
	}
}
