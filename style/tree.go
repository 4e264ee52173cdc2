// Package style turns loosely shaped style objects into an explicit tree.
//
// Style objects arrive as nested map[string]any values (decoded JSON or YAML,
// or built in Go). Instead of sniffing key prefixes all over the pipeline the
// object is parsed once into Nodes of four kinds:
//
//	Leaf(key, value)                 property or alias with a scalar value
//	Pseudo(selector, children)       "_hover", "&:focus", ":nth-child(2)"
//	Responsive(breakpoint, children) configured breakpoint names, "base"
//	AtRule(kind, params, children)   "@media print", "@supports (...)"
//
// Parsing never fails as a whole. Every key it cannot interpret is reported as
// a Problem and skipped, so callers can fall back to runtime evaluation for the
// remainder.
package style

import (
	"fmt"
	"strings"
)

// Object is the plain nested data handed over by source scanners.
type Object = map[string]any

// Kind identifies node variant.
type Kind int

const (
	KindLeaf Kind = iota
	KindPseudo
	KindResponsive
	KindAtRule
)

// String returns human readable variant name.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindPseudo:
		return "pseudo"
	case KindResponsive:
		return "responsive"
	case KindAtRule:
		return "at-rule"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is a single element of parsed style tree.
type Node struct {
	Kind Kind
	// Key is the key as written in the source object.
	Key string
	// Value is the scalar value of a leaf, nil for blocks.
	Value any
	// Name is the selector suffix for pseudo blocks (":hover"), the
	// breakpoint name for responsive blocks and the at-rule kind ("media").
	Name string
	// Params is the media query of a breakpoint or the at-rule prelude.
	Params   string
	Children []Node
}

// Leaf creates a leaf node.
func Leaf(key string, value any) Node {
	return Node{Kind: KindLeaf, Key: key, Value: value}
}

// Pseudo creates a pseudo-state block.
func Pseudo(key, selector string, children ...Node) Node {
	return Node{Kind: KindPseudo, Key: key, Name: selector, Children: children}
}

// Responsive creates a breakpoint block, empty query means no wrapper.
func Responsive(key, breakpoint, query string, children ...Node) Node {
	return Node{Kind: KindResponsive, Key: key, Name: breakpoint, Params: query, Children: children}
}

// AtRule creates an arbitrary at-rule block.
func AtRule(key, kind, params string, children ...Node) Node {
	return Node{Kind: KindAtRule, Key: key, Name: kind, Params: params, Children: children}
}

// IsBlock returns true for all non-leaf variants.
func (n Node) IsBlock() bool {
	return n.Kind != KindLeaf
}

// Wrapper returns at-rule text that has to wrap rules produced from this block
// or empty string when block does not introduce one.
func (n Node) Wrapper() string {
	switch n.Kind {
	case KindResponsive:
		if n.Params == "" {
			return ""
		}
		return "@media " + n.Params
	case KindAtRule:
		if n.Params == "" {
			return "@" + n.Name
		}
		return "@" + n.Name + " " + n.Params
	default:
		return ""
	}
}

// Walk visits nodes depth first, stopping when fn returns false for a block.
func Walk(nodes []Node, fn func(path []string, n Node) bool) {
	walk(nil, nodes, fn)
}

func walk(path []string, nodes []Node, fn func(path []string, n Node) bool) {
	for _, n := range nodes {
		if !fn(path, n) || !n.IsBlock() {
			continue
		}
		walk(append(path[:len(path):len(path)], n.Key), n.Children, fn)
	}
}

// CountLeaves returns number of leaves in the tree.
func CountLeaves(nodes []Node) int {
	count := 0
	Walk(nodes, func(_ []string, n Node) bool {
		if n.Kind == KindLeaf {
			count++
		}
		return true
	})
	return count
}

// JoinPath renders key path the way problems and diagnostics report it.
func JoinPath(path []string, key string) string {
	if len(path) == 0 {
		return key
	}
	return strings.Join(path, ".") + "." + key
}
