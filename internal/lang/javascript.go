package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

func init() {
	Languages["javascript"] = &Language{
		Name:           "javascript",
		Extensions:     []string{".js", ".jsx", ".mjs", ".cjs"},
		lang:           javascript.GetLanguage(),
		ClassNodes:     set("class_declaration"),
		FunctionNodes:  set("function_declaration", "generator_function_declaration", "method_definition"),
		CallNodes:      set("call_expression", "new_expression"),
		ImportNodes:    set("import_statement"),
		CallTarget:     jsCallTarget,
		ImportPath:     jsImportPath,
		InheritTargets: jsInheritTargets,
	}
}

func jsCallTarget(n *sitter.Node, src []byte) string {
	if n.Type() == "new_expression" {
		return RightmostIdentifier(n.ChildByFieldName("constructor"), src)
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return NodeText(fn, src)
	case "member_expression":
		return RightmostIdentifier(fn.ChildByFieldName("property"), src)
	}
	return ""
}

func jsImportPath(n *sitter.Node, src []byte) string {
	return TrimQuotes(NodeText(n.ChildByFieldName("source"), src))
}

func jsInheritTargets(classNode *sitter.Node, src []byte) []string {
	return CollectIdentifiers(childOfType(classNode, "class_heritage"), src)
}
