// Package graph merges per-file extraction results into one repository
// dependency graph, condenses strongly-connected components into groups,
// and produces the deterministic topological ordering consumed by the
// clustering engine.
package graph

import (
	"path"
	"sort"
	"strings"

	"github.com/modmap/modmap/internal/extract"
	"github.com/modmap/modmap/internal/lang"
	"github.com/modmap/modmap/internal/model"
)

// Build merges per-file results into one dependency graph, resolving
// symbolic reference targets against the full entity namespace. Targets
// that resolve nowhere (external libraries, dynamic dispatch) are dropped;
// the second return value counts them. Given the same results, Build is
// fully deterministic.
func Build(results []*extract.Result) (*model.DependencyGraph, int) {
	sorted := make([]*extract.Result, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	r := newResolver(sorted)

	var entities []model.Entity
	for _, res := range sorted {
		entities = append(entities, res.Entities...)
	}

	seen := make(map[model.Relation]struct{})
	var relations []model.Relation
	dropped := 0

	for _, res := range sorted {
		for _, ref := range res.Refs {
			to := r.resolve(res.Path, ref)
			if to == "" || to == ref.From {
				dropped++
				continue
			}
			rel := model.Relation{From: ref.From, To: to, Kind: ref.Kind}
			if _, dup := seen[rel]; dup {
				continue
			}
			seen[rel] = struct{}{}
			relations = append(relations, rel)
		}
	}

	sort.Slice(relations, func(i, j int) bool {
		a, b := relations[i], relations[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})

	return model.NewDependencyGraph(entities, relations), dropped
}

// resolver indexes the full namespace for symbol and import matching.
type resolver struct {
	byName     map[string][]string // qualified name → entity IDs, sorted
	bySuffix   map[string][]string // last name segment → entity IDs, sorted
	byPathStem map[string][]string // path without extension → file entity IDs
	byBase     map[string][]string // file stem → file entity IDs
	stems      []string            // sorted keys of byPathStem
	fileOf     map[string]string   // entity ID → file path
}

func newResolver(sorted []*extract.Result) *resolver {
	r := &resolver{
		byName:     make(map[string][]string),
		bySuffix:   make(map[string][]string),
		byPathStem: make(map[string][]string),
		byBase:     make(map[string][]string),
		fileOf:     make(map[string]string),
	}

	for _, res := range sorted {
		for i := range res.Entities {
			r.fileOf[res.Entities[i].ID] = res.Path
		}

		names := make([]string, 0, len(res.Aliases))
		for name := range res.Aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			id := res.Aliases[name]
			r.byName[name] = appendUnique(r.byName[name], id)
			if i := strings.LastIndexByte(name, '.'); i >= 0 {
				r.bySuffix[name[i+1:]] = appendUnique(r.bySuffix[name[i+1:]], id)
			}
		}

		stem := trimExt(res.Path)
		r.byPathStem[stem] = appendUnique(r.byPathStem[stem], res.Path)
		r.byBase[path.Base(stem)] = appendUnique(r.byBase[path.Base(stem)], res.Path)
	}

	r.stems = make([]string, 0, len(r.byPathStem))
	for stem := range r.byPathStem {
		r.stems = append(r.stems, stem)
	}
	sort.Strings(r.stems)

	return r
}

func (r *resolver) resolve(fromPath string, ref extract.Ref) string {
	if ref.Kind == model.Import {
		return r.resolveImport(fromPath, ref.Name)
	}

	candidates := r.byName[ref.Name]
	if len(candidates) == 0 && !strings.Contains(ref.Name, ".") {
		candidates = r.bySuffix[ref.Name]
	}
	return pick(candidates, fromPath, r.fileOf, ref.From)
}

// resolveImport matches an import path against known file entities:
// exact path first, then path-suffix, then bare file stem.
func (r *resolver) resolveImport(fromPath, imp string) string {
	key := importKey(fromPath, imp)
	if key == "" {
		return ""
	}

	if ids := r.byPathStem[key]; len(ids) > 0 {
		return pick(ids, fromPath, r.fileOf, fromPath)
	}

	suffix := "/" + key
	var candidates []string
	for _, stem := range r.stems {
		if strings.HasSuffix(stem, suffix) {
			candidates = append(candidates, r.byPathStem[stem]...)
		}
	}
	if len(candidates) == 0 {
		candidates = r.byBase[path.Base(key)]
	}
	return pick(candidates, fromPath, r.fileOf, fromPath)
}

// importKey normalizes an import string into slash-separated, extensionless
// form. Relative imports are resolved against the importing file.
func importKey(fromPath, imp string) string {
	imp = strings.TrimSpace(imp)
	if imp == "" || imp == "." {
		return ""
	}

	if strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../") {
		imp = path.Join(path.Dir(fromPath), imp)
	}

	if strings.ContainsRune(imp, '/') {
		return trimKnownExt(path.Clean(imp))
	}
	if lang.ForExtension(path.Ext(imp)) != "" {
		// Bare include like "util.h".
		return trimExt(imp)
	}
	// Dotted module path (python, java, C# namespaces).
	return strings.ReplaceAll(imp, ".", "/")
}

// pick chooses one candidate deterministically: same file as the referrer
// first, then same directory, then lexicographically first. The referrer
// itself is never chosen.
func pick(candidates []string, fromPath string, fileOf map[string]string, self string) string {
	var eligible []string
	for _, c := range candidates {
		if c != self {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return ""
	}
	sort.Strings(eligible)

	for _, c := range eligible {
		if fileOf[c] == fromPath {
			return c
		}
	}
	fromDir := path.Dir(fromPath)
	for _, c := range eligible {
		if path.Dir(fileOf[c]) == fromDir {
			return c
		}
	}
	return eligible[0]
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func trimExt(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}

// trimKnownExt removes the extension only when it belongs to a supported
// language, so "foo/bar.h" and "foo/bar" normalize identically.
func trimKnownExt(p string) string {
	if lang.ForExtension(path.Ext(p)) != "" {
		return trimExt(p)
	}
	return p
}
