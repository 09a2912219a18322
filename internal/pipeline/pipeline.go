// Package pipeline wires the analysis stages together: discovery, parallel
// per-file extraction, graph construction, cycle condensation, topological
// sequencing, and hierarchical clustering.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/modmap/modmap/internal/cluster"
	"github.com/modmap/modmap/internal/discover"
	"github.com/modmap/modmap/internal/extract"
	"github.com/modmap/modmap/internal/graph"
	"github.com/modmap/modmap/internal/lang"
	"github.com/modmap/modmap/internal/model"
)

// Options configures one analysis run.
type Options struct {
	Root        string
	Include     []string
	Exclude     []string
	Languages   []string
	MaxFileSize int64
	Workers     int
	Cluster     cluster.Config
	Logger      *slog.Logger
}

// Report is the result of one run: the module tree artifact plus the
// intermediate structures downstream consumers read entities from.
type Report struct {
	RepoName string
	Tree     *model.ModuleTree
	Graph    *model.DependencyGraph
	// Groups holds the condensed groups in topological order.
	Groups   []model.Group
	Warnings []model.Warning

	FilesDiscovered int
	FilesParsed     int
	DroppedRefs     int
}

// Run executes the full pipeline over the repository at opts.Root.
// Configuration errors surface before any file is read; per-file parse
// failures are recorded as warnings and skipped.
func Run(ctx context.Context, opts Options) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := opts.Cluster.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	files, err := discover.Files(root, discover.Options{
		Include:     opts.Include,
		Exclude:     opts.Exclude,
		Languages:   opts.Languages,
		MaxFileSize: opts.MaxFileSize,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no parseable files found under %s", root)
	}
	log.Debug("discovered files", "count", len(files))

	results, warnings := extractAll(ctx, root, files, opts.Workers, log)
	if len(results) == 0 {
		return nil, fmt.Errorf("no files could be parsed under %s", root)
	}

	// Barrier: symbol resolution needs the complete namespace, so the
	// merge runs only after every per-file result is collected.
	g, dropped := graph.Build(results)
	log.Debug("graph built",
		"entities", len(g.Entities), "relations", len(g.Relations), "dropped_refs", dropped)

	condensed := graph.Condense(g)
	order, err := graph.Sequence(condensed)
	if err != nil {
		return nil, err
	}
	groups := graph.OrderedGroups(condensed, order)

	repoName := filepath.Base(root)
	tree, clusterWarnings, err := cluster.Build(groups, opts.Cluster, repoName)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, clusterWarnings...)

	for _, w := range warnings {
		switch w.Kind {
		case model.WarnParseFailure:
			log.Warn("parse failure", "path", w.Path, "detail", w.Message)
		case model.WarnOversizedEntity:
			log.Warn("oversized entity", "entity", w.EntityID, "detail", w.Message)
		case model.WarnOversizedModule:
			log.Warn("oversized module", "entity", w.EntityID, "detail", w.Message)
		}
	}

	return &Report{
		RepoName:        repoName,
		Tree:            tree,
		Graph:           g,
		Groups:          groups,
		Warnings:        warnings,
		FilesDiscovered: len(files),
		FilesParsed:     len(results),
		DroppedRefs:     dropped,
	}, nil
}

// extractAll parses files concurrently. Each worker owns its parsers, so
// no state is shared across files; results are collected back into input
// order before the merge.
func extractAll(ctx context.Context, root string, files []discover.FileEntry, workers int, log *slog.Logger) ([]*extract.Result, []model.Warning) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(files) {
		workers = len(files)
	}

	type slot struct {
		res  *extract.Result
		warn *model.Warning
	}

	slots := make([]slot, len(files))
	work := make(chan int, len(files))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			parsers := make(map[string]*sitter.Parser)

			for idx := range work {
				f := files[idx]
				l := lang.Languages[f.Language]
				parser, ok := parsers[f.Language]
				if !ok {
					parser = l.NewParser()
					parsers[f.Language] = parser
				}

				source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
				if err != nil {
					slots[idx].warn = &model.Warning{
						Kind: model.WarnParseFailure, Path: f.Path, Message: err.Error(),
					}
					continue
				}

				res, err := extract.File(ctx, l, parser, source, f.Path)
				if err != nil {
					slots[idx].warn = &model.Warning{
						Kind: model.WarnParseFailure, Path: f.Path, Message: err.Error(),
					}
					continue
				}
				slots[idx].res = res
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)
	wg.Wait()

	var results []*extract.Result
	var warnings []model.Warning
	for i := range slots {
		if slots[i].res != nil {
			results = append(results, slots[i].res)
		}
		if slots[i].warn != nil {
			warnings = append(warnings, *slots[i].warn)
		}
	}

	log.Debug("extraction finished", "parsed", len(results), "failed", len(warnings))
	return results, warnings
}
