package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modmap/modmap/internal/cluster"
	"github.com/modmap/modmap/internal/model"
	"github.com/modmap/modmap/internal/pipeline"
	"github.com/modmap/modmap/internal/toon"
)

var rootCmd = &cobra.Command{
	Use:   "modmap [path]",
	Short: "Partition a repository into a token-budgeted module tree",
	Long: `modmap analyzes a source repository, extracts code entities and their
dependencies with tree-sitter, and clusters them into a hierarchy of
modules whose token totals respect configurable budgets. The resulting
module tree is emitted as JSON or TOON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

// Execute runs the CLI. Errors are printed by cobra; the caller only
// decides the exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.Flags()
	f.StringSliceP("include", "i", nil, "glob patterns files must match (repeatable)")
	f.StringSliceP("exclude", "e", nil, "glob patterns to skip (repeatable)")
	f.StringSliceP("langs", "l", nil, "restrict analysis to these languages")
	f.Int("max-token-per-module", 36000, "token budget for internal modules")
	f.Int("max-token-per-leaf-module", 16000, "token budget for leaf modules")
	f.Int("max-depth", 3, "maximum module tree depth")
	f.Int64("max-file-size", 1<<20, "skip files larger than this many bytes")
	f.Int("workers", 0, "parser goroutines (0 = GOMAXPROCS)")
	f.String("format", "json", "output format: json or toon")
	f.StringP("out", "o", "", "write output to file instead of stdout")
	f.Bool("entities", false, "include per-entity detail in JSON output")
	f.BoolP("verbose", "v", false, "enable debug logging")

	for _, name := range []string{
		"include", "exclude", "langs",
		"max-token-per-module", "max-token-per-leaf-module", "max-depth",
		"max-file-size", "workers", "format", "entities",
	} {
		cobra.CheckErr(viper.BindPFlag(name, f.Lookup(name)))
	}

	viper.SetEnvPrefix("MODMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(".modmap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	report, err := pipeline.Run(cmd.Context(), pipeline.Options{
		Root:        root,
		Include:     viper.GetStringSlice("include"),
		Exclude:     viper.GetStringSlice("exclude"),
		Languages:   viper.GetStringSlice("langs"),
		MaxFileSize: viper.GetInt64("max-file-size"),
		Workers:     viper.GetInt("workers"),
		Cluster: cluster.Config{
			MaxTokenPerModule:     viper.GetInt("max-token-per-module"),
			MaxTokenPerLeafModule: viper.GetInt("max-token-per-leaf-module"),
			MaxDepth:              viper.GetInt("max-depth"),
		},
		Logger: log,
	})
	if err != nil {
		return err
	}

	var out string
	switch format := viper.GetString("format"); format {
	case "toon":
		out = toon.Encode(report.RepoName, report.Tree, report.Graph, report.Groups)
	case "json":
		out, err = encodeJSON(report, viper.GetBool("entities"))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (want json or toon)", format)
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	return os.WriteFile(path, []byte(out+"\n"), 0o644)
}

type jsonEntity struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Kind   string     `json:"kind"`
	Path   string     `json:"path"`
	Span   model.Span `json:"span"`
	Tokens int        `json:"tokens"`
	Source string     `json:"source,omitempty"`
}

type jsonReport struct {
	Repo     string       `json:"repo"`
	Tree     any          `json:"module_tree"`
	Entities []jsonEntity `json:"entities,omitempty"`
}

func encodeJSON(report *pipeline.Report, withEntities bool) (string, error) {
	doc := jsonReport{Repo: report.RepoName, Tree: report.Tree.Root}
	if withEntities {
		for i := range report.Graph.Entities {
			e := &report.Graph.Entities[i]
			doc.Entities = append(doc.Entities, jsonEntity{
				ID:     e.ID,
				Name:   e.Name,
				Kind:   string(e.Kind),
				Path:   e.Path,
				Span:   e.Span,
				Tokens: e.Tokens,
				Source: e.Source,
			})
		}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding output: %w", err)
	}
	return string(b), nil
}
