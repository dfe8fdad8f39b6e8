package category

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTablesValid(t *testing.T) {
	require.NoError(t, DefaultTables().Validate())
}

func TestLoadTablesEmptyPathReturnsDefaults(t *testing.T) {
	tables, err := LoadTables("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTables(), tables)
}

func TestLoadTablesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 2
overrides:
  - priority: 50
    patterns: ["beanie baby"]
    category: toys
lexicon:
  diecast: toys
keywords:
  toys: ["toy", "plush"]
aliases:
  plushies: toys
`), 0o644))

	tables, err := LoadTables(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tables.Version)
	require.Len(t, tables.Overrides, 1)
	assert.Equal(t, "toys", tables.Overrides[0].Category)
	assert.Equal(t, "toys", tables.Aliases["plushies"])
}

func TestLoadTablesMissingFile(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadTables(t *testing.T) {
	tests := []struct {
		name   string
		tables Tables
	}{
		{
			name: "override without patterns",
			tables: Tables{
				Overrides: []OverrideEntry{{Priority: 1, Category: "toys"}},
				Keywords:  map[string][]string{"toys": {"toy"}},
			},
		},
		{
			name: "override targets unknown category",
			tables: Tables{
				Overrides: []OverrideEntry{{Priority: 1, Patterns: []string{"x"}, Category: "widgets"}},
				Keywords:  map[string][]string{"toys": {"toy"}},
			},
		},
		{
			name: "lexicon targets unknown category",
			tables: Tables{
				Lexicon:  map[string]string{"doohickey": "widgets"},
				Keywords: map[string][]string{"toys": {"toy"}},
			},
		},
		{
			name: "alias targets unknown category",
			tables: Tables{
				Keywords: map[string][]string{"toys": {"toy"}},
				Aliases:  map[string]string{"stuff": "widgets"},
			},
		},
		{
			name: "alias target itself aliased",
			tables: Tables{
				Keywords: map[string][]string{"toys": {"toy"}, "art": {"painting"}},
				Aliases:  map[string]string{"figures": "toys", "toys": "art"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.tables.Validate())
		})
	}
}

func TestCategoriesIncludesGeneral(t *testing.T) {
	cats := DefaultTables().Categories()
	assert.Contains(t, cats, "general")
	assert.Contains(t, cats, "vinyl_records")
	assert.IsIncreasing(t, cats)
}
