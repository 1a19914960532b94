package sgf

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrMalformed = errors.New("malformed sgf")

// Parse reads the first game tree of an SGF collection. Variations are kept as
// children. The parser is a single pass with an explicit stack of open trees.
func Parse(text string) (*SGF, error) {
	var (
		stack    []*GameTree
		root     *GameTree
		node     *Node
		ident    strings.Builder
		lastKey  string
		value    strings.Builder
		inValue  bool
		escaped  bool
		finished bool
	)

	for i, r := range text {
		if inValue {
			switch {
			case escaped:
				escaped = false
				if r != '\n' && r != '\r' {
					value.WriteRune(r)
				}
			case r == '\\':
				escaped = true
			case r == ']':
				inValue = false
				node.Properties[lastKey] = append(node.Properties[lastKey], value.String())
				value.Reset()
			default:
				value.WriteRune(r)
			}
			continue
		}

		if finished {
			// всё после первого дерева игнорируем
			break
		}

		switch {
		case r == '(':
			t := &GameTree{}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: unexpected '(' at %d", ErrMalformed, i)
				}
				root = t
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, t)
			}
			stack = append(stack, t)
			node = nil
		case r == ')':
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unbalanced ')' at %d", ErrMalformed, i)
			}
			if ident.Len() > 0 {
				return nil, fmt.Errorf("%w: property %q has no value", ErrMalformed, ident.String())
			}
			stack = stack[:len(stack)-1]
			node = nil
			finished = len(stack) == 0
		case r == ';':
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: node outside of a game tree at %d", ErrMalformed, i)
			}
			if ident.Len() > 0 {
				return nil, fmt.Errorf("%w: property %q has no value", ErrMalformed, ident.String())
			}
			t := stack[len(stack)-1]
			t.Nodes = append(t.Nodes, NewNode())
			lastKey = ""
			node = &t.Nodes[len(t.Nodes)-1]
		case r == '[':
			if node == nil {
				return nil, fmt.Errorf("%w: value outside of a node at %d", ErrMalformed, i)
			}
			if ident.Len() > 0 {
				lastKey = ident.String()
				ident.Reset()
			}
			if lastKey == "" {
				return nil, fmt.Errorf("%w: value without property at %d", ErrMalformed, i)
			}
			inValue = true
		case unicode.IsUpper(r):
			if node == nil {
				return nil, fmt.Errorf("%w: property outside of a node at %d", ErrMalformed, i)
			}
			ident.WriteRune(r)
		case unicode.IsSpace(r):
		case unicode.IsLower(r):
			// старый формат FF[3] допускал строчные буквы в идентификаторах
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrMalformed, r, i)
		}
	}

	if inValue {
		return nil, fmt.Errorf("%w: missing ']'", ErrMalformed)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no game tree", ErrMalformed)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: missing ')'", ErrMalformed)
	}
	return &SGF{Root: root}, nil
}
