// Package extract turns one source file into code entities and symbolic
// relations using tree-sitter. Entities are top-level declarations plus one
// File entity per file; nested definitions fold into their enclosing
// top-level entity and are recorded as resolution aliases.
package extract

import (
	"context"
	"fmt"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/modmap/modmap/internal/lang"
	"github.com/modmap/modmap/internal/model"
	"github.com/modmap/modmap/internal/token"
)

// Ref is a relation whose target is still a symbolic name. The from
// endpoint is an entity local to the extracted file; the target is matched
// against the full namespace by the graph builder.
type Ref struct {
	From string
	Name string
	Kind model.RelationKind
}

// Result holds everything extracted from one file.
type Result struct {
	Path     string
	Language string
	Entities []model.Entity // File entity first, then declaration order
	Refs     []Ref
	// Aliases maps qualified names (including folded members like
	// "Class.method") to the owning entity ID.
	Aliases map[string]string
}

// File parses one source file and extracts its entities and symbolic
// relations. relPath must be the repo-relative, slash-separated path.
// A parse failure returns an error; the caller records it and skips the
// file without aborting the run.
func File(ctx context.Context, l *lang.Language, parser *sitter.Parser, source []byte, relPath string) (*Result, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", relPath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parsing %s: no syntax tree", relPath)
	}

	w := &walker{
		lang:    l,
		source:  source,
		relPath: relPath,
		res: &Result{
			Path:     relPath,
			Language: l.Name,
			Aliases:  make(map[string]string),
		},
		usedIDs: make(map[string]int),
	}

	// File entity first; its token count is fixed up after the walk.
	w.res.Entities = append(w.res.Entities, model.Entity{
		ID:     relPath,
		Name:   filepath.Base(relPath),
		Kind:   model.File,
		Path:   relPath,
		Span:   spanOf(root),
		Source: string(source),
		Seq:    0,
	})

	w.walk(root, 0, "")

	// The File entity counts only top-level residue so that module totals
	// never count the same bytes twice.
	defBytes := 0
	for i := 1; i < len(w.res.Entities); i++ {
		e := &w.res.Entities[i]
		e.Tokens = token.Estimate(int(e.Span.EndByte - e.Span.StartByte))
		defBytes += int(e.Span.EndByte - e.Span.StartByte)
	}
	residue := len(source) - defBytes
	if residue < 0 {
		residue = 0
	}
	w.res.Entities[0].Tokens = token.Estimate(residue)

	return w.res, nil
}

type walker struct {
	lang    *lang.Language
	source  []byte
	relPath string
	res     *Result
	usedIDs map[string]int
}

// walk visits n with the given owning entity (index into res.Entities) and
// the qualified-name prefix accumulated from enclosing definitions.
func (w *walker) walk(n *sitter.Node, owner int, qual string) {
	typ := n.Type()

	if _, ok := w.lang.ClassNodes[typ]; ok && w.isClassDefinition(n) {
		if name := lang.DeclName(n, w.source); name != "" {
			w.definition(n, owner, qual, name, model.Class)
			return
		}
	} else if _, ok := w.lang.FunctionNodes[typ]; ok {
		if name := lang.DeclName(n, w.source); name != "" {
			kind := model.Function
			if owner == 0 && w.lang.MethodReceiver != nil {
				if recv := w.lang.MethodReceiver(n, w.source); recv != "" {
					name = recv + "." + name
					kind = model.Method
				}
			}
			w.definition(n, owner, qual, name, kind)
			return
		}
	} else if _, ok := w.lang.CallNodes[typ]; ok {
		if target := w.lang.CallTarget(n, w.source); target != "" {
			w.ref(owner, target, model.Call)
		}
		// Keep walking: arguments may contain further calls or definitions.
	} else if _, ok := w.lang.ImportNodes[typ]; ok {
		if path := w.lang.ImportPath(n, w.source); path != "" {
			w.ref(owner, path, model.Import)
		}
		return
	} else if _, ok := w.lang.ReferenceNodes[typ]; ok {
		if target := lang.RightmostIdentifier(n, w.source); target != "" {
			w.ref(owner, target, model.Reference)
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i), owner, qual)
	}
}

// definition handles a named class/function node: a new top-level entity
// when owned by the file, otherwise an alias of the enclosing entity.
func (w *walker) definition(n *sitter.Node, owner int, qual, name string, kind model.EntityKind) {
	fullName := name
	if qual != "" {
		fullName = qual + "." + name
	}

	if owner == 0 {
		idx := w.addEntity(n, fullName, kind)
		w.emitInherits(n, idx)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			w.walk(n.NamedChild(i), idx, fullName)
		}
		return
	}

	// Folded member: its name resolves to the enclosing top-level entity.
	w.res.Aliases[fullName] = w.res.Entities[owner].ID
	w.emitInherits(n, owner)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i), owner, fullName)
	}
}

func (w *walker) addEntity(n *sitter.Node, name string, kind model.EntityKind) int {
	id := w.res.Path + ":" + name
	// Overloads and redeclarations share a name; keep IDs collision-free.
	if count := w.usedIDs[id]; count > 0 {
		w.usedIDs[id] = count + 1
		id = fmt.Sprintf("%s#%d", id, count+1)
	} else {
		w.usedIDs[id] = 1
	}

	e := model.Entity{
		ID:     id,
		Name:   name,
		Kind:   kind,
		Path:   w.res.Path,
		Span:   spanOf(n),
		Source: lang.NodeText(n, w.source),
		Seq:    len(w.res.Entities),
	}
	if kind != model.Class {
		e.Params = params(n, w.source)
	}

	w.res.Entities = append(w.res.Entities, e)
	if _, exists := w.res.Aliases[name]; !exists {
		w.res.Aliases[name] = id
	}
	return len(w.res.Entities) - 1
}

func (w *walker) emitInherits(n *sitter.Node, owner int) {
	if w.lang.InheritTargets == nil {
		return
	}
	if _, ok := w.lang.ClassNodes[n.Type()]; !ok {
		return
	}
	for _, base := range w.lang.InheritTargets(n, w.source) {
		w.ref(owner, base, model.Inherit)
	}
}

func (w *walker) ref(owner int, name string, kind model.RelationKind) {
	w.res.Refs = append(w.res.Refs, Ref{
		From: w.res.Entities[owner].ID,
		Name: name,
		Kind: kind,
	})
}

func (w *walker) isClassDefinition(n *sitter.Node) bool {
	if !w.lang.ClassNeedsBody {
		return true
	}
	return n.ChildByFieldName("body") != nil
}

func spanOf(n *sitter.Node) model.Span {
	return model.Span{
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
	}
}

func params(defNode *sitter.Node, src []byte) []string {
	p := lang.ParamsNode(defNode)
	if p == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(p.NamedChildCount()); i++ {
		if text := lang.CollapseWhitespace(lang.NodeText(p.NamedChild(i), src)); text != "" {
			out = append(out, text)
		}
	}
	return out
}
