package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

func init() {
	Languages["php"] = &Language{
		Name:       "php",
		Extensions: []string{".php"},
		lang:       php.GetLanguage(),
		ClassNodes: set(
			"class_declaration",
			"interface_declaration",
			"trait_declaration",
			"enum_declaration",
		),
		FunctionNodes:  set("function_definition", "method_declaration"),
		CallNodes:      set("function_call_expression", "member_call_expression", "scoped_call_expression", "object_creation_expression"),
		ImportNodes:    set("namespace_use_clause"),
		CallTarget:     phpCallTarget,
		ImportPath:     phpImportPath,
		InheritTargets: phpInheritTargets,
	}
}

func phpCallTarget(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "function_call_expression":
		return RightmostIdentifier(n.ChildByFieldName("function"), src)
	case "member_call_expression", "scoped_call_expression":
		return RightmostIdentifier(n.ChildByFieldName("name"), src)
	case "object_creation_expression":
		return RightmostIdentifier(n, src)
	}
	return ""
}

func phpImportPath(n *sitter.Node, src []byte) string {
	// use Foo\Bar; — normalize namespace separators to dots.
	text := NodeText(fieldOrFirst(n, "name"), src)
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == '\\' {
			out = append(out, '.')
			continue
		}
		out = append(out, text[i])
	}
	return string(out)
}

func phpInheritTargets(classNode *sitter.Node, src []byte) []string {
	var targets []string
	for _, typ := range []string{"base_clause", "class_interface_clause"} {
		if c := childOfType(classNode, typ); c != nil {
			targets = append(targets, CollectIdentifiers(c, src)...)
		}
	}
	return targets
}
