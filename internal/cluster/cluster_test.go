package cluster

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modmap/modmap/internal/model"
)

func singleton(id string, tokens int) model.Group {
	return model.Group{ID: id, EntityIDs: []string{id}, Tokens: tokens}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{MaxTokenPerModule: 36000, MaxTokenPerLeafModule: 16000, MaxDepth: 3}
	assert.NoError(t, valid.Validate())

	for _, cfg := range []Config{
		{MaxTokenPerModule: 0, MaxTokenPerLeafModule: 16000, MaxDepth: 3},
		{MaxTokenPerModule: 36000, MaxTokenPerLeafModule: -1, MaxDepth: 3},
		{MaxTokenPerModule: 36000, MaxTokenPerLeafModule: 16000, MaxDepth: 0},
	} {
		err := cfg.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrConfig)
	}
}

func TestBuildGreedySplit(t *testing.T) {
	t.Parallel()

	groups := []model.Group{
		singleton("pkg/a.py", 1000),
		singleton("pkg/b.py", 1000),
		singleton("pkg/c.py", 1000),
	}
	cfg := Config{MaxTokenPerModule: 10000, MaxTokenPerLeafModule: 2500, MaxDepth: 1}

	tree, warnings, err := Build(groups, cfg, "demo")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	root := tree.Root
	assert.Equal(t, "root", root.ID)
	assert.Equal(t, "demo", root.Name)
	assert.False(t, root.Leaf)
	assert.Equal(t, 3000, root.Tokens)

	require.Len(t, root.Children, 2)
	first, second := root.Children[0], root.Children[1]
	assert.Equal(t, []string{"pkg/a.py", "pkg/b.py"}, first.EntityIDs)
	assert.Equal(t, 2000, first.Tokens)
	assert.Equal(t, []string{"pkg/c.py"}, second.EntityIDs)
	assert.Equal(t, 1000, second.Tokens)
	assert.True(t, first.Leaf)
	assert.True(t, second.Leaf)
	assert.Equal(t, "root/0", first.ID)
	assert.Equal(t, "root/1", second.ID)
}

func TestBuildEverythingFitsOneLeaf(t *testing.T) {
	t.Parallel()

	groups := []model.Group{
		singleton("a.py", 100),
		singleton("b.py", 100),
	}
	cfg := Config{MaxTokenPerModule: 36000, MaxTokenPerLeafModule: 16000, MaxDepth: 3}

	tree, warnings, err := Build(groups, cfg, "tiny")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	root := tree.Root
	assert.True(t, root.Leaf)
	assert.Equal(t, []string{"a.py", "b.py"}, root.EntityIDs)
	assert.Equal(t, 200, root.Tokens)
	assert.Equal(t, "tiny", root.Name)
}

func TestBuildSplitsWhenOverLeafBudget(t *testing.T) {
	t.Parallel()

	// A set over the leaf budget but within the module budget must still
	// split into compliant leaves, not collapse to one oversized leaf.
	var groups []model.Group
	for i := 0; i < 10; i++ {
		groups = append(groups, singleton(fmt.Sprintf("src/f%02d.py", i), 2000))
	}
	cfg := Config{MaxTokenPerModule: 36000, MaxTokenPerLeafModule: 16000, MaxDepth: 3}

	tree, warnings, err := Build(groups, cfg, "repo")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	root := tree.Root
	assert.False(t, root.Leaf)
	assert.Equal(t, 20000, root.Tokens)
	require.Len(t, root.Children, 2)
	assert.Equal(t, 16000, root.Children[0].Tokens)
	assert.Equal(t, 4000, root.Children[1].Tokens)
	for _, leaf := range tree.Leaves() {
		assert.LessOrEqual(t, leaf.Tokens, cfg.MaxTokenPerLeafModule, "leaf %s", leaf.ID)
		assert.False(t, leaf.Oversized, "leaf %s", leaf.ID)
	}
}

func TestBuildGroupNeverSplit(t *testing.T) {
	t.Parallel()

	// A cycle group larger than the leaf budget stays whole.
	groups := []model.Group{
		{ID: "group:a.py:f", EntityIDs: []string{"a.py:f", "b.py:g", "c.py:h"}, Tokens: 5000},
		singleton("d.py", 1000),
	}
	cfg := Config{MaxTokenPerModule: 10000, MaxTokenPerLeafModule: 2500, MaxDepth: 2}

	tree, warnings, err := Build(groups, cfg, "demo")
	require.NoError(t, err)

	var home *model.Module
	for _, leaf := range tree.Leaves() {
		owned := make(map[string]bool, len(leaf.EntityIDs))
		for _, id := range leaf.EntityIDs {
			owned[id] = true
		}
		if owned["a.py:f"] {
			home = leaf
			assert.True(t, owned["b.py:g"])
			assert.True(t, owned["c.py:h"])
		}
	}
	require.NotNil(t, home)
	assert.True(t, home.Oversized)
	assert.Equal(t, 5000, home.Tokens)
	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnOversizedModule, warnings[0].Kind)
	assert.Equal(t, "a.py:f", warnings[0].EntityID)
}

func TestBuildOversizedSingleton(t *testing.T) {
	t.Parallel()

	groups := []model.Group{singleton("big.py:blob", 50000)}
	cfg := Config{MaxTokenPerModule: 36000, MaxTokenPerLeafModule: 16000, MaxDepth: 3}

	tree, warnings, err := Build(groups, cfg, "demo")
	require.NoError(t, err)

	root := tree.Root
	assert.True(t, root.Leaf)
	assert.True(t, root.Oversized)
	assert.Equal(t, 50000, root.Tokens)

	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnOversizedEntity, warnings[0].Kind)
	assert.Equal(t, "big.py:blob", warnings[0].EntityID)
}

func TestBuildDepthBound(t *testing.T) {
	t.Parallel()

	var groups []model.Group
	for i := 0; i < 64; i++ {
		groups = append(groups, singleton(fmt.Sprintf("f%02d.py", i), 900))
	}
	cfg := Config{MaxTokenPerModule: 8000, MaxTokenPerLeafModule: 2000, MaxDepth: 2}

	tree, _, err := Build(groups, cfg, "deep")
	require.NoError(t, err)

	var walk func(m *model.Module)
	walk = func(m *model.Module) {
		assert.LessOrEqual(t, m.Depth, cfg.MaxDepth)
		if m.Leaf {
			assert.NotEmpty(t, m.EntityIDs)
		} else {
			assert.Empty(t, m.EntityIDs)
			assert.NotEmpty(t, m.Children)
		}
		for _, c := range m.Children {
			walk(c)
		}
	}
	walk(tree.Root)
}

func TestBuildPartitionProperty(t *testing.T) {
	t.Parallel()

	var groups []model.Group
	for i := 0; i < 40; i++ {
		groups = append(groups, singleton(fmt.Sprintf("src/m%02d.py", i), 700+i*13))
	}
	cfg := Config{MaxTokenPerModule: 6000, MaxTokenPerLeafModule: 3000, MaxDepth: 3}

	tree, _, err := Build(groups, cfg, "repo")
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, leaf := range tree.Leaves() {
		for _, id := range leaf.EntityIDs {
			seen[id]++
		}
	}
	assert.Len(t, seen, len(groups))
	for id, n := range seen {
		assert.Equal(t, 1, n, "entity %s", id)
	}

	// Leaves in pre-order preserve the input topological order.
	var got []string
	for _, leaf := range tree.Leaves() {
		got = append(got, leaf.EntityIDs...)
	}
	var want []string
	for _, g := range groups {
		want = append(want, g.EntityIDs...)
	}
	assert.Equal(t, want, got)
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	var groups []model.Group
	for i := 0; i < 120; i++ {
		groups = append(groups, singleton(fmt.Sprintf("pkg%d/f%03d.py", i%7, i), 500+i*31))
	}
	cfg := Config{MaxTokenPerModule: 9000, MaxTokenPerLeafModule: 4000, MaxDepth: 3}

	first, _, err := Build(groups, cfg, "repo")
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		tree, _, err := Build(groups, cfg, "repo")
		require.NoError(t, err)
		treeJSON, err := json.Marshal(tree)
		require.NoError(t, err)
		assert.Equal(t, firstJSON, treeJSON)
	}
}

func TestModuleNameFromCommonDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http", moduleName([]string{
		"net/http/server.py:Server",
		"net/http/client.py",
	}))
	assert.Equal(t, "server", moduleName([]string{
		"net/server.py:Server",
		"lib/util.py:helper",
	}))
	assert.Equal(t, "util", moduleName([]string{"util.py"}))
	assert.Equal(t, "empty", moduleName(nil))
}

func TestBuildRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, _, err := Build(nil, Config{}, "repo")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfig)
}
