package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

func init() {
	Languages["java"] = &Language{
		Name:       "java",
		Extensions: []string{".java"},
		lang:       java.GetLanguage(),
		ClassNodes: set(
			"class_declaration",
			"interface_declaration",
			"enum_declaration",
			"record_declaration",
		),
		FunctionNodes:  set("method_declaration", "constructor_declaration"),
		CallNodes:      set("method_invocation", "object_creation_expression"),
		ImportNodes:    set("import_declaration"),
		ReferenceNodes: set("marker_annotation", "annotation"),
		CallTarget:     javaCallTarget,
		ImportPath:     javaImportPath,
		InheritTargets: javaInheritTargets,
	}
}

func javaCallTarget(n *sitter.Node, src []byte) string {
	if n.Type() == "object_creation_expression" {
		return RightmostIdentifier(n.ChildByFieldName("type"), src)
	}
	return identifierText(n.ChildByFieldName("name"), src)
}

func javaImportPath(n *sitter.Node, src []byte) string {
	return NodeText(fieldOrFirst(n, "name"), src)
}

func javaInheritTargets(classNode *sitter.Node, src []byte) []string {
	var targets []string
	for _, typ := range []string{"superclass", "super_interfaces", "extends_interfaces"} {
		if c := childOfType(classNode, typ); c != nil {
			targets = append(targets, CollectIdentifiers(c, src)...)
		}
	}
	return targets
}
