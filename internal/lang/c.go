package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

func init() {
	Languages["c"] = &Language{
		Name:           "c",
		Extensions:     []string{".c", ".h"},
		lang:           c.GetLanguage(),
		ClassNodes:     set("struct_specifier", "enum_specifier", "union_specifier"),
		ClassNeedsBody: true,
		FunctionNodes:  set("function_definition"),
		CallNodes:      set("call_expression"),
		ImportNodes:    set("preproc_include"),
		CallTarget:     cCallTarget,
		ImportPath:     cImportPath,
	}
}

func cCallTarget(n *sitter.Node, src []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return NodeText(fn, src)
	case "field_expression":
		return RightmostIdentifier(fn.ChildByFieldName("field"), src)
	}
	return RightmostIdentifier(fn, src)
}

func cImportPath(n *sitter.Node, src []byte) string {
	return TrimQuotes(NodeText(n.ChildByFieldName("path"), src))
}
