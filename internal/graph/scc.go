package graph

import (
	"sort"

	"github.com/modmap/modmap/internal/model"
)

// Condensed is the dependency graph after collapsing every strongly-
// connected component into a single group node. The condensation is
// acyclic by construction. Groups are in canonical order: sorted by their
// minimum member position, which is (file path, declaration order).
type Condensed struct {
	Groups []model.Group
	// Edges is the group adjacency, indexed by group position, each list
	// sorted ascending. Intra-group edges are elided.
	Edges [][]int

	groupOf map[string]int
}

// GroupOf returns the group position owning the given entity ID, or -1.
func (c *Condensed) GroupOf(entityID string) int {
	i, ok := c.groupOf[entityID]
	if !ok {
		return -1
	}
	return i
}

// Condense computes the strongly-connected components of g with Tarjan's
// algorithm and collapses each into one group. SCC decomposition always
// terminates and always yields an acyclic condensation; there is no error
// path here.
func Condense(g *model.DependencyGraph) *Condensed {
	n := len(g.Entities)
	adj := adjacency(g)
	comps := tarjan(n, adj)

	// Canonical order: members ascending, components by minimum member.
	for _, comp := range comps {
		sort.Ints(comp)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })

	c := &Condensed{
		Groups:  make([]model.Group, len(comps)),
		Edges:   make([][]int, len(comps)),
		groupOf: make(map[string]int, n),
	}

	compOf := make([]int, n)
	for gi, comp := range comps {
		ids := make([]string, len(comp))
		tokens := 0
		for k, ei := range comp {
			ids[k] = g.Entities[ei].ID
			tokens += g.Entities[ei].Tokens
			compOf[ei] = gi
			c.groupOf[g.Entities[ei].ID] = gi
		}
		id := ids[0]
		if len(comp) > 1 {
			id = "group:" + ids[0]
		}
		c.Groups[gi] = model.Group{ID: id, EntityIDs: ids, Tokens: tokens}
	}

	edgeSet := make(map[[2]int]struct{})
	for u := 0; u < n; u++ {
		for _, v := range adj[u] {
			gu, gv := compOf[u], compOf[v]
			if gu == gv {
				continue
			}
			key := [2]int{gu, gv}
			if _, dup := edgeSet[key]; dup {
				continue
			}
			edgeSet[key] = struct{}{}
			c.Edges[gu] = append(c.Edges[gu], gv)
		}
	}
	for gi := range c.Edges {
		sort.Ints(c.Edges[gi])
	}

	return c
}

// adjacency builds sorted, deduplicated successor lists over entity
// positions.
func adjacency(g *model.DependencyGraph) [][]int {
	adj := make([][]int, len(g.Entities))
	seen := make(map[[2]int]struct{}, len(g.Relations))
	for _, rel := range g.Relations {
		u, v := g.IndexOf(rel.From), g.IndexOf(rel.To)
		if u < 0 || v < 0 || u == v {
			continue
		}
		key := [2]int{u, v}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		adj[u] = append(adj[u], v)
	}
	for u := range adj {
		sort.Ints(adj[u])
	}
	return adj
}

// tarjan runs an iterative Tarjan SCC over n nodes. Components come out in
// reverse topological order; callers re-sort them canonically.
func tarjan(n int, adj [][]int) [][]int {
	const unvisited = -1

	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}

	var (
		comps   [][]int
		stack   []int
		counter int
	)

	type frame struct {
		v, child int
	}

	for v0 := 0; v0 < n; v0++ {
		if index[v0] != unvisited {
			continue
		}

		frames := []frame{{v: v0}}
		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			v := f.v

			if f.child == 0 {
				index[v] = counter
				low[v] = counter
				counter++
				stack = append(stack, v)
				onStack[v] = true
			}

			descended := false
			for f.child < len(adj[v]) {
				w := adj[v][f.child]
				f.child++
				if index[w] == unvisited {
					frames = append(frames, frame{v: w})
					descended = true
					break
				}
				if onStack[w] && index[w] < low[v] {
					low[v] = index[w]
				}
			}
			if descended {
				continue
			}

			if low[v] == index[v] {
				var comp []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				comps = append(comps, comp)
			}

			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := frames[len(frames)-1].v
				if low[v] < low[parent] {
					low[parent] = low[v]
				}
			}
		}
	}

	return comps
}
