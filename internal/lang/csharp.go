package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

func init() {
	Languages["csharp"] = &Language{
		Name:       "csharp",
		Extensions: []string{".cs"},
		lang:       csharp.GetLanguage(),
		ClassNodes: set(
			"class_declaration",
			"interface_declaration",
			"struct_declaration",
			"enum_declaration",
			"record_declaration",
		),
		FunctionNodes:  set("method_declaration", "constructor_declaration", "local_function_statement"),
		CallNodes:      set("invocation_expression", "object_creation_expression"),
		ImportNodes:    set("using_directive"),
		ReferenceNodes: set("attribute"),
		CallTarget:     csharpCallTarget,
		ImportPath:     csharpImportPath,
		InheritTargets: csharpInheritTargets,
	}
}

func csharpCallTarget(n *sitter.Node, src []byte) string {
	if n.Type() == "object_creation_expression" {
		return RightmostIdentifier(n.ChildByFieldName("type"), src)
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return NodeText(fn, src)
	case "member_access_expression":
		return RightmostIdentifier(fn.ChildByFieldName("name"), src)
	}
	return RightmostIdentifier(fn, src)
}

func csharpImportPath(n *sitter.Node, src []byte) string {
	return NodeText(fieldOrFirst(n, "name"), src)
}

func csharpInheritTargets(classNode *sitter.Node, src []byte) []string {
	return CollectIdentifiers(childOfType(classNode, "base_list"), src)
}
