package generator

import (
	"regexp"
	"sort"
)

// placeholderPattern matches {name} and {name|default} spans.
var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// node is one parsed element of a template body. Templates are parsed
// once at first use and cached; rendering walks the node tree.
type node interface{ isNode() }

type objectNode struct {
	Keys   []string
	Fields map[string]node
}

type arrayNode struct {
	Items []node
}

// literalNode carries any non-string JSON value verbatim.
type literalNode struct {
	Value interface{}
}

// stringNode is a string leaf split into text and placeholder segments.
type stringNode struct {
	Segments []segment
}

type segment struct {
	Text        string
	Placeholder *placeholder
}

type placeholder struct {
	Name       string
	Default    string
	HasDefault bool
}

func (objectNode) isNode()  {}
func (arrayNode) isNode()   {}
func (literalNode) isNode() {}
func (stringNode) isNode()  {}

// parseBody converts a decoded template body into its node tree.
func parseBody(body map[string]interface{}) *objectNode {
	return parseObject(body)
}

func parseObject(m map[string]interface{}) *objectNode {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]node, len(m))
	for _, k := range keys {
		fields[k] = parseValue(m[k])
	}
	return &objectNode{Keys: keys, Fields: fields}
}

func parseValue(v interface{}) node {
	switch val := v.(type) {
	case map[string]interface{}:
		return parseObject(val)
	case []interface{}:
		items := make([]node, 0, len(val))
		for _, item := range val {
			items = append(items, parseValue(item))
		}
		return &arrayNode{Items: items}
	case string:
		return parseString(val)
	default:
		return &literalNode{Value: val}
	}
}

func parseString(s string) node {
	matches := placeholderPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return &literalNode{Value: s}
	}

	var segments []segment
	last := 0
	for _, m := range matches {
		if m[0] > last {
			segments = append(segments, segment{Text: s[last:m[0]]})
		}
		segments = append(segments, segment{Placeholder: parsePlaceholder(s[m[2]:m[3]])})
		last = m[1]
	}
	if last < len(s) {
		segments = append(segments, segment{Text: s[last:]})
	}
	return &stringNode{Segments: segments}
}

func parsePlaceholder(spec string) *placeholder {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '|' {
			return &placeholder{
				Name:       spec[:i],
				Default:    spec[i+1:],
				HasDefault: true,
			}
		}
	}
	return &placeholder{Name: spec}
}

// placeholderCount walks the tree counting placeholder segments.
func placeholderCount(n node) int {
	switch v := n.(type) {
	case *objectNode:
		total := 0
		for _, k := range v.Keys {
			total += placeholderCount(v.Fields[k])
		}
		return total
	case *arrayNode:
		total := 0
		for _, item := range v.Items {
			total += placeholderCount(item)
		}
		return total
	case *stringNode:
		total := 0
		for _, seg := range v.Segments {
			if seg.Placeholder != nil {
				total++
			}
		}
		return total
	default:
		return 0
	}
}
