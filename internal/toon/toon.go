// Package toon implements TOON (Token-Oriented Object Notation) encoding
// of the module tree for LLM consumption.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/modmap/modmap/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a module tree and its backing graph into TOON format.
// Modules are listed in pre-order, entities in graph order.
func Encode(repoName string, tree *model.ModuleTree, g *model.DependencyGraph, groups []model.Group) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("repo: %s", encodeValue(repoName)))

	var moduleRows [][]string
	var walk func(m *model.Module)
	walk = func(m *model.Module) {
		moduleRows = append(moduleRows, []string{
			m.ID,
			m.Name,
			fmt.Sprintf("%d", m.Depth),
			boolCell(m.Leaf),
			boolCell(m.Oversized),
			fmt.Sprintf("%d", m.Tokens),
			fmt.Sprintf("%d", len(m.EntityIDs)),
		})
		for _, c := range m.Children {
			walk(c)
		}
	}
	walk(tree.Root)
	parts = append(parts, formatTabular("modules",
		[]string{"id", "name", "depth", "leaf", "oversized", "tokens", "entities"}, moduleRows))

	memberOf := make(map[string]string)
	for _, leaf := range tree.Leaves() {
		for _, id := range leaf.EntityIDs {
			memberOf[id] = leaf.ID
		}
	}

	var entityRows [][]string
	for i := range g.Entities {
		e := &g.Entities[i]
		entityRows = append(entityRows, []string{
			e.ID,
			string(e.Kind),
			e.Path,
			fmt.Sprintf("%d", e.Span.StartLine),
			fmt.Sprintf("%d", e.Tokens),
			memberOf[e.ID],
		})
	}
	parts = append(parts, formatTabular("entities",
		[]string{"id", "kind", "path", "line", "tokens", "module"}, entityRows))

	var cycleRows [][]string
	for i := range groups {
		gr := &groups[i]
		if len(gr.EntityIDs) < 2 {
			continue
		}
		cycleRows = append(cycleRows, []string{
			gr.ID,
			fmt.Sprintf("%d", len(gr.EntityIDs)),
			strings.Join(gr.EntityIDs, " "),
		})
	}
	if len(cycleRows) > 0 {
		parts = append(parts, formatTabular("cycles",
			[]string{"group", "size", "members"}, cycleRows))
	}

	var relRows [][]string
	for i := range g.Relations {
		r := &g.Relations[i]
		relRows = append(relRows, []string{r.From, r.To, string(r.Kind)})
	}
	parts = append(parts, formatTabular("relations",
		[]string{"from", "to", "kind"}, relRows))

	return strings.Join(parts, "\n")
}

func boolCell(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return value
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
