package cluster

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/modmap/modmap/internal/model"
)

// assemble finalizes the tree produced by clustering: module IDs, depth,
// leaf flags, names derived from the entities' common directory, and
// cumulative token totals. After assembly the tree is immutable.
func assemble(t *model.ModuleTree, repoName string) {
	var walk func(m *model.Module, id string, depth int) int
	walk = func(m *model.Module, id string, depth int) int {
		m.ID = id
		m.Depth = depth
		m.Leaf = len(m.Children) == 0

		if m.Leaf {
			m.Name = moduleName(m.EntityIDs)
			return m.Tokens
		}

		m.EntityIDs = []string{}
		total := 0
		for i, child := range m.Children {
			total += walk(child, id+"/"+strconv.Itoa(i), depth+1)
		}
		m.Tokens = total
		m.Name = moduleName(descendantIDs(m))
		return total
	}

	walk(t.Root, "root", 0)
	t.Root.Name = repoName
}

// descendantIDs collects entity IDs owned by all leaves under m.
func descendantIDs(m *model.Module) []string {
	if m.Leaf {
		return m.EntityIDs
	}
	var ids []string
	for _, c := range m.Children {
		ids = append(ids, descendantIDs(c)...)
	}
	return ids
}

// moduleName derives a deterministic human name from the entities' file
// paths: the longest common directory, falling back to the first file's
// stem when the entities share no directory.
func moduleName(entityIDs []string) string {
	if len(entityIDs) == 0 {
		return "empty"
	}

	common := entityDir(entityIDs[0])
	for _, id := range entityIDs[1:] {
		common = commonDir(common, entityDir(id))
		if common == "" {
			break
		}
	}
	if common != "" && common != "." {
		return path.Base(common)
	}

	first := entityFile(entityIDs[0])
	return strings.TrimSuffix(path.Base(first), path.Ext(first))
}

// entityFile returns the file path part of an entity ID.
func entityFile(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return id
}

func entityDir(id string) string {
	d := path.Dir(entityFile(id))
	if d == "." {
		return ""
	}
	return d
}

func commonDir(a, b string) string {
	if a == b {
		return a
	}
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	var shared []string
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			break
		}
		shared = append(shared, as[i])
	}
	return strings.Join(shared, "/")
}

// validate checks the structural invariants before the tree is released:
// the leaf modules partition the full entity set exactly, no group is
// split across leaves, and no module exceeds the depth bound. A failure
// here is a defect in clustering, not an input condition, so it aborts
// the run.
func validate(t *model.ModuleTree, groups []model.Group, cfg Config) error {
	leafOf := make(map[string]string)
	for _, m := range t.Leaves() {
		for _, id := range m.EntityIDs {
			if prev, dup := leafOf[id]; dup {
				return fmt.Errorf("%w: entity %s assigned to leaf modules %s and %s",
					model.ErrInvariant, id, prev, m.ID)
			}
			leafOf[id] = m.ID
		}
	}

	expected := 0
	for _, g := range groups {
		expected += len(g.EntityIDs)
		home := ""
		for _, id := range g.EntityIDs {
			leafID, ok := leafOf[id]
			if !ok {
				return fmt.Errorf("%w: entity %s missing from every leaf module",
					model.ErrInvariant, id)
			}
			if home == "" {
				home = leafID
			} else if leafID != home {
				return fmt.Errorf("%w: group %s split across leaf modules %s and %s",
					model.ErrInvariant, g.ID, home, leafID)
			}
		}
	}
	if len(leafOf) != expected {
		return fmt.Errorf("%w: leaf modules own %d entities, expected %d",
			model.ErrInvariant, len(leafOf), expected)
	}

	var depthCheck func(m *model.Module) error
	depthCheck = func(m *model.Module) error {
		if m.Depth > cfg.MaxDepth {
			return fmt.Errorf("%w: module %s at depth %d exceeds max depth %d",
				model.ErrInvariant, m.ID, m.Depth, cfg.MaxDepth)
		}
		for _, c := range m.Children {
			if err := depthCheck(c); err != nil {
				return err
			}
		}
		return nil
	}
	return depthCheck(t.Root)
}
