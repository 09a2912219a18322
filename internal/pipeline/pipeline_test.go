package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modmap/modmap/internal/cluster"
	"github.com/modmap/modmap/internal/model"
)

var defaultCluster = cluster.Config{
	MaxTokenPerModule:     36000,
	MaxTokenPerLeafModule: 16000,
	MaxDepth:              3,
}

func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestRunSmallRepo(t *testing.T) {
	t.Parallel()

	root := writeRepo(t, map[string]string{
		"app/helpers.py": "def helper(name):\n    return \"hi \" + name\n",
		"app/main.py":    "from app import helpers\n\ndef main():\n    return helpers.helper(\"x\")\n",
		"README.md":      "not source\n",
	})

	report, err := Run(context.Background(), Options{
		Root:    root,
		Workers: 2,
		Cluster: defaultCluster,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(root), report.RepoName)
	assert.Equal(t, 2, report.FilesDiscovered)
	assert.Equal(t, 2, report.FilesParsed)
	assert.Empty(t, report.Warnings)

	// Four entities: two File entities plus helper and main.
	require.Len(t, report.Graph.Entities, 4)
	assert.NotNil(t, report.Graph.Entity("app/helpers.py:helper"))
	assert.NotNil(t, report.Graph.Entity("app/main.py:main"))

	// Everything fits one leaf under the default budgets.
	root0 := report.Tree.Root
	assert.True(t, root0.Leaf)
	assert.Len(t, root0.EntityIDs, 4)
	assert.Equal(t, report.RepoName, root0.Name)
}

func TestRunResolvesCrossFileDependency(t *testing.T) {
	t.Parallel()

	root := writeRepo(t, map[string]string{
		"util.py": "def helper():\n    return 1\n",
		"main.py": "import util\n\ndef main():\n    return util.helper()\n",
	})

	report, err := Run(context.Background(), Options{
		Root:    root,
		Cluster: defaultCluster,
	})
	require.NoError(t, err)

	var foundImport, foundCall bool
	for _, rel := range report.Graph.Relations {
		if rel.From == "main.py" && rel.To == "util.py" && rel.Kind == model.Import {
			foundImport = true
		}
		if rel.From == "main.py:main" && rel.To == "util.py:helper" && rel.Kind == model.Call {
			foundCall = true
		}
	}
	assert.True(t, foundImport, "import edge main.py -> util.py")
	assert.True(t, foundCall, "call edge main -> helper")
}

func TestRunDeterministic(t *testing.T) {
	t.Parallel()

	files := map[string]string{}
	for _, name := range []string{"alpha", "beta", "gamma", "delta"} {
		files["pkg/"+name+".py"] = "def " + name + "():\n    return \"" + name + "\"\n"
	}
	files["pkg/main.py"] = "from pkg import alpha\n\ndef main():\n    return alpha.alpha()\n"
	root := writeRepo(t, files)

	run := func(workers int) []byte {
		report, err := Run(context.Background(), Options{
			Root:    root,
			Workers: workers,
			Cluster: defaultCluster,
		})
		require.NoError(t, err)
		b, err := json.Marshal(report.Tree)
		require.NoError(t, err)
		return b
	}

	first := run(1)
	for _, workers := range []int{1, 2, 4, 8} {
		assert.Equal(t, first, run(workers))
	}
}

func TestRunLeafPartition(t *testing.T) {
	t.Parallel()

	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files[name+".py"] = "def fn_" + name + "():\n    return \"" + name + name + name + "\"\n"
	}
	root := writeRepo(t, files)

	report, err := Run(context.Background(), Options{
		Root: root,
		// Tight budgets force real splits.
		Cluster: cluster.Config{MaxTokenPerModule: 40, MaxTokenPerLeafModule: 20, MaxDepth: 3},
	})
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, leaf := range report.Tree.Leaves() {
		for _, id := range leaf.EntityIDs {
			seen[id]++
		}
	}
	assert.Len(t, seen, len(report.Graph.Entities))
	for id, n := range seen {
		assert.Equal(t, 1, n, "entity %s", id)
	}
}

func TestRunReportsUnreadableFile(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}

	root := writeRepo(t, map[string]string{
		"good.py": "def f():\n    return 1\n",
		"bad.py":  "def g():\n    return 2\n",
	})
	require.NoError(t, os.Chmod(filepath.Join(root, "bad.py"), 0o000))

	report, err := Run(context.Background(), Options{Root: root, Cluster: defaultCluster})
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilesDiscovered)
	assert.Equal(t, 1, report.FilesParsed)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, model.WarnParseFailure, report.Warnings[0].Kind)
	assert.Equal(t, "bad.py", report.Warnings[0].Path)

	// The unreadable file contributes no entities; the rest still analyze.
	assert.Nil(t, report.Graph.Entity("bad.py"))
	assert.NotNil(t, report.Graph.Entity("good.py:f"))
}

func TestRunRejectsBadConfig(t *testing.T) {
	t.Parallel()

	root := writeRepo(t, map[string]string{"a.py": "x = 1\n"})

	_, err := Run(context.Background(), Options{Root: root, Cluster: cluster.Config{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfig)

	_, err = Run(context.Background(), Options{
		Root:    root,
		Include: []string{"[bad"},
		Cluster: defaultCluster,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestRunEmptyRepo(t *testing.T) {
	t.Parallel()

	root := writeRepo(t, map[string]string{"notes.txt": "nothing here\n"})

	_, err := Run(context.Background(), Options{Root: root, Cluster: defaultCluster})
	require.Error(t, err)
}

func TestRunMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), Options{
		Root:    filepath.Join(t.TempDir(), "absent"),
		Cluster: defaultCluster,
	})
	require.Error(t, err)
}

func TestRunLanguageFilter(t *testing.T) {
	t.Parallel()

	root := writeRepo(t, map[string]string{
		"a.py": "def f():\n    return 1\n",
		"b.js": "export function g() { return 2; }\n",
	})

	report, err := Run(context.Background(), Options{
		Root:      root,
		Languages: []string{"python"},
		Cluster:   defaultCluster,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesDiscovered)
	assert.NotNil(t, report.Graph.Entity("a.py"))
	assert.Nil(t, report.Graph.Entity("b.js"))
}
