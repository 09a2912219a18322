package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

func init() {
	Languages["cpp"] = &Language{
		Name:           "cpp",
		Extensions:     []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"},
		lang:           cpp.GetLanguage(),
		ClassNodes:     set("class_specifier", "struct_specifier", "enum_specifier"),
		ClassNeedsBody: true,
		FunctionNodes:  set("function_definition"),
		CallNodes:      set("call_expression"),
		ImportNodes:    set("preproc_include"),
		CallTarget:     cppCallTarget,
		ImportPath:     cImportPath,
		InheritTargets: cppInheritTargets,
		MethodReceiver: cppMethodReceiver,
	}
}

func cppCallTarget(n *sitter.Node, src []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return NodeText(fn, src)
	case "field_expression":
		return RightmostIdentifier(fn.ChildByFieldName("field"), src)
	case "qualified_identifier":
		return RightmostIdentifier(fn, src)
	}
	return RightmostIdentifier(fn, src)
}

func cppInheritTargets(classNode *sitter.Node, src []byte) []string {
	return CollectIdentifiers(childOfType(classNode, "base_class_clause"), src)
}

// cppMethodReceiver returns "Foo" for out-of-class definitions like
// "void Foo::bar() {}", detected by a qualified_identifier declarator.
func cppMethodReceiver(fnNode *sitter.Node, src []byte) string {
	decl := fnNode.ChildByFieldName("declarator")
	for decl != nil {
		if decl.Type() == "qualified_identifier" {
			if scope := decl.ChildByFieldName("scope"); scope != nil {
				return NodeText(scope, src)
			}
			// Fall back to the text before the last "::".
			text := NodeText(decl, src)
			if i := strings.LastIndex(text, "::"); i > 0 {
				return text[:i]
			}
			return ""
		}
		decl = decl.ChildByFieldName("declarator")
	}
	return ""
}
