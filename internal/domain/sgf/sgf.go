package sgf

import (
	"sort"
	"strings"
)

// GameTree представляет одно дерево в SGF (узел + варианты)
type GameTree struct {
	Nodes    []Node      // Последовательность узлов (основная линия)
	Children []*GameTree // Варианты (вариативные линии)
}

// Node представляет один узел SGF (набор свойств, таких как B[pd], W[dd], C[...])
type Node struct {
	Properties map[string][]string // Свойства могут повторяться (например, AB[aa][bb])
}

// SGF представляет корневой элемент SGF-файла
type SGF struct {
	Root *GameTree
}

// фиксированный порядок свойств SGF
var propertyOrder = []string{"FF", "GM", "CA", "AP", "SZ", "PB", "PW", "DT", "RE", "KM", "RU", "GN", "C", "B", "W"}

func NewNode() Node {
	return Node{Properties: make(map[string][]string)}
}

// Get returns the first value of key.
func (n Node) Get(key string) (string, bool) {
	v, ok := n.Properties[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (n Node) Set(key string, values ...string) {
	n.Properties[key] = values
}

// Serialize writes s in SGF text form. Known properties come first in a fixed
// order, the rest sorted by name.
func Serialize(s *SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	if s != nil && s.Root != nil {
		serializeGameTree(&builder, s.Root)
	}
	builder.WriteString(")")
	return builder.String()
}

func serializeGameTree(builder *strings.Builder, tree *GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		used := make(map[string]bool, len(node.Properties))
		for _, key := range propertyOrder {
			if values, ok := node.Properties[key]; ok {
				used[key] = true
				writeProperty(builder, key, values)
			}
		}

		rest := make([]string, 0)
		for key := range node.Properties {
			if !used[key] {
				rest = append(rest, key)
			}
		}
		sort.Strings(rest)
		for _, key := range rest {
			writeProperty(builder, key, node.Properties[key])
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}

func writeProperty(builder *strings.Builder, key string, values []string) {
	builder.WriteString(key)
	for _, v := range values {
		builder.WriteByte('[')
		builder.WriteString(escape(v))
		builder.WriteByte(']')
	}
}

func escape(v string) string {
	if !strings.ContainsAny(v, `]\`) {
		return v
	}
	var sb strings.Builder
	for _, r := range v {
		if r == ']' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// MainLine returns the nodes of the first variation from the root down.
func (s *SGF) MainLine() []Node {
	var nodes []Node
	for t := s.Root; t != nil; {
		nodes = append(nodes, t.Nodes...)
		if len(t.Children) == 0 {
			break
		}
		t = t.Children[0]
	}
	return nodes
}
