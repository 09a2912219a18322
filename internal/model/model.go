// Package model defines the core data structures shared across the
// analysis pipeline: entities, relations, the dependency graph, condensed
// groups, and the module tree artifact.
package model

// EntityKind indicates the syntactic kind of a code entity.
type EntityKind string

const (
	File     EntityKind = "file"
	Class    EntityKind = "class"
	Function EntityKind = "function"
	Method   EntityKind = "method"
)

// RelationKind indicates the kind of a directed dependency edge.
type RelationKind string

const (
	Import    RelationKind = "import"
	Call      RelationKind = "call"
	Inherit   RelationKind = "inherit"
	Reference RelationKind = "reference"
)

// Span locates an entity within its source file.
type Span struct {
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Entity is an atomic unit of code tracked in the dependency graph:
// a file, a top-level class, or a top-level function/method. Entities are
// immutable once created. Nested definitions fold into their enclosing
// top-level entity and exist only as resolution aliases.
//
// IDs are stable across runs: the repo-relative path for File entities,
// "path:QualifiedName" for everything else.
type Entity struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Kind   EntityKind `json:"kind"`
	Path   string     `json:"path"`
	Span   Span       `json:"span"`
	Params []string   `json:"params,omitempty"`
	Source string     `json:"source,omitempty"`

	// Tokens is the estimated token count of the entity's own code. For
	// File entities it covers only top-level residue (code outside
	// extracted definitions) so module totals never double-count.
	Tokens int `json:"tokens"`

	// Seq is the declaration order within the file; the File entity is 0.
	Seq int `json:"seq"`
}

// Relation is a directed edge between two entities, referencing them by
// identifier rather than by pointer so the graph stays acyclic in terms of
// ownership and serializes trivially.
type Relation struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Kind RelationKind `json:"kind"`
}

// DependencyGraph is the full set of entities and relations for one
// repository. Every relation's endpoints resolve to entities present in
// the graph; unresolvable references are dropped during construction.
type DependencyGraph struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`

	index map[string]int
}

// NewDependencyGraph builds a graph over the given entities and relations
// and indexes entities by ID. Entity order is preserved.
func NewDependencyGraph(entities []Entity, relations []Relation) *DependencyGraph {
	g := &DependencyGraph{
		Entities:  entities,
		Relations: relations,
		index:     make(map[string]int, len(entities)),
	}
	for i := range entities {
		g.index[entities[i].ID] = i
	}
	return g
}

// Entity returns the entity with the given ID, or nil if absent.
func (g *DependencyGraph) Entity(id string) *Entity {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return &g.Entities[i]
}

// IndexOf returns the positional index of an entity ID, or -1 if absent.
func (g *DependencyGraph) IndexOf(id string) int {
	i, ok := g.index[id]
	if !ok {
		return -1
	}
	return i
}

// Group is a strongly-connected component of the dependency graph,
// condensed to a single node. Singleton SCCs pass through as ordinary
// single-entity groups. EntityIDs keep (file path, declaration) order.
type Group struct {
	ID        string   `json:"id"`
	EntityIDs []string `json:"entity_ids"`
	Tokens    int      `json:"tokens"`
}

// Module is a node in the output partition tree. Leaf modules own entities
// directly; non-leaf modules own them through their children. Modules are
// immutable once the tree is assembled.
type Module struct {
	ID        string    `json:"module_id"`
	Name      string    `json:"name"`
	Leaf      bool      `json:"leaf"`
	Oversized bool      `json:"oversized,omitempty"`
	Tokens    int       `json:"token_count"`
	Depth     int       `json:"depth"`
	EntityIDs []string  `json:"entity_ids"`
	Children  []*Module `json:"children"`
}

// ModuleTree is the rooted tree of modules produced by clustering. The set
// of leaf modules forms an exact partition of all entities.
type ModuleTree struct {
	Root *Module `json:"module_tree"`
}

// Leaves returns the leaf modules in pre-order.
func (t *ModuleTree) Leaves() []*Module {
	var leaves []*Module
	var walk func(m *Module)
	walk = func(m *Module) {
		if m.Leaf {
			leaves = append(leaves, m)
			return
		}
		for _, c := range m.Children {
			walk(c)
		}
	}
	if t.Root != nil {
		walk(t.Root)
	}
	return leaves
}
