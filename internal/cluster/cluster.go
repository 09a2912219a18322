// Package cluster recursively partitions the condensed, topologically
// ordered dependency graph into a token-budgeted module tree.
package cluster

import (
	"fmt"
	"sync"

	"github.com/modmap/modmap/internal/model"
)

// Config holds the clustering thresholds. All values must be positive and
// MaxDepth at least 1; Validate runs before any work begins.
type Config struct {
	MaxTokenPerModule     int
	MaxTokenPerLeafModule int
	MaxDepth              int
}

// Validate rejects non-positive budgets and depths below 1.
func (c Config) Validate() error {
	if c.MaxTokenPerModule <= 0 {
		return fmt.Errorf("%w: max_token_per_module must be positive, got %d",
			model.ErrConfig, c.MaxTokenPerModule)
	}
	if c.MaxTokenPerLeafModule <= 0 {
		return fmt.Errorf("%w: max_token_per_leaf_module must be positive, got %d",
			model.ErrConfig, c.MaxTokenPerLeafModule)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("%w: max_depth must be at least 1, got %d",
			model.ErrConfig, c.MaxDepth)
	}
	return nil
}

// Build partitions groups (in topological order) into a module tree rooted
// at a module named after the repository. It returns the assembled tree
// and any oversized-leaf warnings. Identical input always yields an
// identical tree.
func Build(groups []model.Group, cfg Config, repoName string) (*model.ModuleTree, []model.Warning, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	root, warnings := clusterSet(groups, 0, cfg)
	tree := &model.ModuleTree{Root: root}
	assemble(tree, repoName)
	if err := validate(tree, groups, cfg); err != nil {
		return nil, nil, err
	}
	return tree, warnings, nil
}

// clusterSet applies the recursive partitioning of one entity set at the
// given depth. The set arrives in topological order and stays so within
// every bucket.
func clusterSet(groups []model.Group, depth int, cfg Config) (*model.Module, []model.Warning) {
	total := 0
	for _, g := range groups {
		total += g.Tokens
	}

	// A single group is atomic: an entity cannot be split, and an SCC is
	// never divided across modules. At max depth everything left becomes
	// one leaf even when over budget.
	if len(groups) <= 1 || total <= cfg.MaxTokenPerLeafModule || depth == cfg.MaxDepth {
		return leaf(groups, total, cfg)
	}

	budget := cfg.MaxTokenPerModule
	if depth+1 == cfg.MaxDepth {
		budget = cfg.MaxTokenPerLeafModule
	}

	buckets := partition(groups, budget)
	if len(buckets) == 1 && budget != cfg.MaxTokenPerLeafModule {
		// The set fits one module-budget bucket but exceeds the leaf
		// budget; split under the leaf budget so leaves stay in budget.
		buckets = partition(groups, cfg.MaxTokenPerLeafModule)
	}
	if len(buckets) == 1 {
		return leaf(groups, total, cfg)
	}

	// Sibling buckets own disjoint sets, so they cluster concurrently;
	// assembly by bucket index keeps the result deterministic.
	children := make([]*model.Module, len(buckets))
	childWarnings := make([][]model.Warning, len(buckets))
	var wg sync.WaitGroup
	for i := range buckets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			children[i], childWarnings[i] = clusterSet(buckets[i], depth+1, cfg)
		}(i)
	}
	wg.Wait()

	var warnings []model.Warning
	for _, w := range childWarnings {
		warnings = append(warnings, w...)
	}

	return &model.Module{Tokens: total, Children: children}, warnings
}

// partition walks the topological order, greedily accumulating adjacent
// groups into a bucket until the next group would exceed the budget. A
// group larger than the budget by itself forms its own bucket; it is never
// split.
func partition(groups []model.Group, budget int) [][]model.Group {
	var buckets [][]model.Group
	var current []model.Group
	tokens := 0

	for _, g := range groups {
		if len(current) > 0 && tokens+g.Tokens > budget {
			buckets = append(buckets, current)
			current = nil
			tokens = 0
		}
		current = append(current, g)
		tokens += g.Tokens
	}
	if len(current) > 0 {
		buckets = append(buckets, current)
	}
	return buckets
}

func leaf(groups []model.Group, total int, cfg Config) (*model.Module, []model.Warning) {
	var ids []string
	for _, g := range groups {
		ids = append(ids, g.EntityIDs...)
	}

	m := &model.Module{
		Leaf:      true,
		Tokens:    total,
		EntityIDs: ids,
	}

	var warnings []model.Warning
	if total > cfg.MaxTokenPerLeafModule {
		m.Oversized = true
		w := model.Warning{
			Kind: model.WarnOversizedModule,
			Message: fmt.Sprintf("leaf module of %d tokens (%d entities) exceeds leaf budget %d and cannot be split further",
				total, len(ids), cfg.MaxTokenPerLeafModule),
		}
		if len(ids) > 0 {
			w.EntityID = ids[0]
		}
		if len(ids) == 1 {
			w.Kind = model.WarnOversizedEntity
			w.Message = fmt.Sprintf("entity of %d tokens exceeds leaf budget %d",
				total, cfg.MaxTokenPerLeafModule)
		}
		warnings = append(warnings, w)
	}
	return m, warnings
}
