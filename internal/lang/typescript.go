package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func init() {
	Languages["typescript"] = &Language{
		Name:       "typescript",
		Extensions: []string{".ts", ".tsx", ".mts", ".cts"},
		lang:       typescript.GetLanguage(),
		ClassNodes: set(
			"class_declaration",
			"abstract_class_declaration",
			"interface_declaration",
			"enum_declaration",
		),
		FunctionNodes:  set("function_declaration", "generator_function_declaration", "method_definition"),
		CallNodes:      set("call_expression", "new_expression"),
		ImportNodes:    set("import_statement"),
		CallTarget:     jsCallTarget,
		ImportPath:     jsImportPath,
		InheritTargets: tsInheritTargets,
	}
}

func tsInheritTargets(classNode *sitter.Node, src []byte) []string {
	// Classes carry a class_heritage with extends/implements clauses;
	// interfaces carry an extends_type_clause directly.
	var targets []string
	for _, typ := range []string{"class_heritage", "extends_type_clause", "extends_clause"} {
		if c := childOfType(classNode, typ); c != nil {
			targets = append(targets, CollectIdentifiers(c, src)...)
		}
	}
	return targets
}
