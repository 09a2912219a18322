package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

func init() {
	Languages["python"] = &Language{
		Name:           "python",
		Extensions:     []string{".py"},
		lang:           python.GetLanguage(),
		ClassNodes:     set("class_definition"),
		FunctionNodes:  set("function_definition"),
		CallNodes:      set("call"),
		ImportNodes:    set("import_statement", "import_from_statement"),
		ReferenceNodes: set("decorator"),
		CallTarget:     pythonCallTarget,
		ImportPath:     pythonImportPath,
		InheritTargets: pythonInheritTargets,
	}
}

func pythonCallTarget(n *sitter.Node, src []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return NodeText(fn, src)
	case "attribute":
		// obj.method(...) — the attribute name is the callee.
		return RightmostIdentifier(fn, src)
	}
	return ""
}

func pythonImportPath(n *sitter.Node, src []byte) string {
	if m := n.ChildByFieldName("module_name"); m != nil {
		return NodeText(m, src)
	}
	if name := n.ChildByFieldName("name"); name != nil {
		if name.Type() == "aliased_import" {
			if inner := name.ChildByFieldName("name"); inner != nil {
				return NodeText(inner, src)
			}
		}
		return NodeText(name, src)
	}
	if dn := childOfType(n, "dotted_name"); dn != nil {
		return NodeText(dn, src)
	}
	return ""
}

func pythonInheritTargets(classNode *sitter.Node, src []byte) []string {
	return CollectIdentifiers(classNode.ChildByFieldName("superclasses"), src)
}
