// Package lang provides a static language registry mapping file extensions
// to tree-sitter grammars and the node-type tables that drive entity and
// relation extraction.
package lang

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// identifierTypes are node types whose text is usable directly as a name.
var identifierTypes = map[string]struct{}{
	"identifier":          {},
	"type_identifier":     {},
	"property_identifier": {},
	"field_identifier":    {},
	"name":                {},
	"dotted_name":         {},
	"scoped_identifier":   {},
	"qualified_name":      {},
}

// Language holds the tree-sitter configuration and extraction tables for
// one supported language. One instance per language, registered by the
// per-language init() functions.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language

	// Node types that open definitions or emit references.
	ClassNodes    map[string]struct{}
	FunctionNodes map[string]struct{}
	CallNodes     map[string]struct{}
	ImportNodes   map[string]struct{}
	// ReferenceNodes emit plain reference edges (decorators, annotations).
	ReferenceNodes map[string]struct{}

	// ClassNeedsBody requires a body field before a class node counts as a
	// definition; C-family struct references reuse the definition node type.
	ClassNeedsBody bool

	// CallTarget returns the referenced callee name for a call node,
	// or "" when no usable name exists (computed dispatch).
	CallTarget func(n *sitter.Node, src []byte) string

	// ImportPath returns the imported module path for an import node.
	ImportPath func(n *sitter.Node, src []byte) string

	// InheritTargets returns base type names declared on a class node.
	InheritTargets func(classNode *sitter.Node, src []byte) []string

	// MethodReceiver returns the receiver type for an out-of-class method
	// definition (C++ "Foo::bar"), or "" when the function is free.
	MethodReceiver func(fnNode *sitter.Node, src []byte) string
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Parsers are not thread-safe; each goroutine must use its own.
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var (
	extensionMap  map[string]string
	extensionOnce sync.Once
)

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if
// the extension is unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[strings.ToLower(ext)]
}

// Names returns the sorted list of registered language names.
func Names() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// DeclName extracts the declared name of a definition node: the "name"
// field when present, otherwise the first identifier reachable through
// declarator chains (C-family), otherwise the first identifier child.
func DeclName(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	if name := n.ChildByFieldName("name"); name != nil {
		return identifierText(name, src)
	}
	if decl := n.ChildByFieldName("declarator"); decl != nil {
		return declaratorName(decl, src)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if _, ok := identifierTypes[child.Type()]; ok {
			return NodeText(child, src)
		}
	}
	return ""
}

// declaratorName descends a C-family declarator chain to the identifier.
func declaratorName(n *sitter.Node, src []byte) string {
	for n != nil {
		// Qualified names ("Foo::bar") descend to the unqualified part.
		if n.Type() == "qualified_identifier" {
			if name := n.ChildByFieldName("name"); name != nil {
				n = name
				continue
			}
			return NodeText(n, src)
		}
		if _, ok := identifierTypes[n.Type()]; ok {
			return NodeText(n, src)
		}
		next := n.ChildByFieldName("declarator")
		if next == nil {
			next = n.ChildByFieldName("name")
		}
		if next == nil {
			// Fall back to the first named child.
			if n.NamedChildCount() == 0 {
				return ""
			}
			next = n.NamedChild(0)
		}
		n = next
	}
	return ""
}

// identifierText returns the text of an identifier-like node, unwrapping
// one level of qualification (rightmost component) when needed.
func identifierText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	if _, ok := identifierTypes[n.Type()]; ok {
		return NodeText(n, src)
	}
	return RightmostIdentifier(n, src)
}

// RightmostIdentifier returns the rightmost identifier text within a node,
// e.g. "b" for the attribute expression "a.b". Returns "" if none exists.
func RightmostIdentifier(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	if _, ok := identifierTypes[n.Type()]; ok {
		return NodeText(n, src)
	}
	for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
		if name := RightmostIdentifier(n.NamedChild(i), src); name != "" {
			return name
		}
	}
	return ""
}

// CollectIdentifiers returns the text of every identifier-like descendant
// of n, in source order. Used for inheritance clauses.
func CollectIdentifiers(n *sitter.Node, src []byte) []string {
	if n == nil {
		return nil
	}
	if _, ok := identifierTypes[n.Type()]; ok {
		return []string{NodeText(n, src)}
	}
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, CollectIdentifiers(n.NamedChild(i), src)...)
	}
	return out
}

// ParamsNode returns the parameter-list node of a definition node, or nil.
func ParamsNode(defNode *sitter.Node) *sitter.Node {
	if defNode == nil {
		return nil
	}
	if p := defNode.ChildByFieldName("parameters"); p != nil {
		return p
	}
	if decl := defNode.ChildByFieldName("declarator"); decl != nil {
		if p := ParamsNode(decl); p != nil {
			return p
		}
	}
	for i := 0; i < int(defNode.NamedChildCount()); i++ {
		child := defNode.NamedChild(i)
		switch child.Type() {
		case "parameters", "formal_parameters", "parameter_list":
			return child
		}
	}
	return nil
}

// TrimQuotes strips one level of surrounding quotes or include brackets.
func TrimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') ||
			(first == '\'' && last == '\'') ||
			(first == '<' && last == '>') ||
			(first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// childOfType returns the first named child of n with the given type.
func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

// fieldOrFirst returns the named field if present, else the first named child.
func fieldOrFirst(n *sitter.Node, field string) *sitter.Node {
	if c := n.ChildByFieldName(field); c != nil {
		return c
	}
	if n.NamedChildCount() > 0 {
		return n.NamedChild(0)
	}
	return nil
}

func set(types ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(types))
	for _, t := range types {
		m[t] = struct{}{}
	}
	return m
}
