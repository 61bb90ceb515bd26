package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newshub/internal/adapter/provider"
	"newshub/internal/cache"
	"newshub/internal/domain"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  providers:
    - kind: mock
      name: first
    - kind: mock
      name: second
cache:
  driver: sqlite
  path: ` + filepath.Join(dir, "cache.db") + `
database:
  driver: memory
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHeadlinesCmd(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, "headlines", "--config", path)

	require.NoError(t, err)
	var articles []domain.Article
	require.NoError(t, json.Unmarshal([]byte(out), &articles))
	assert.Len(t, articles, 2*len(provider.DefaultMockArticles()))
}

func TestSearchCmd(t *testing.T) {
	path := writeConfig(t)

	out, err := run(t, "search", "election", "--config", path)
	require.NoError(t, err)
	var articles []domain.Article
	require.NoError(t, json.Unmarshal([]byte(out), &articles))
	assert.NotEmpty(t, articles)

	_, err = run(t, "search", "--config", path)
	assert.Error(t, err)
}

func TestCacheCmds(t *testing.T) {
	path := writeConfig(t)
	_, err := run(t, "search", "--pref", "tech", "--pref", "science", "--config", path)
	require.NoError(t, err)

	out, err := run(t, "cache", "stats", "--config", path)
	require.NoError(t, err)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.Entries)

	_, err = run(t, "cache", "clear", "--config", path)
	require.NoError(t, err)
	out, err = run(t, "cache", "stats", "--config", path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 0, stats.Entries)
}

func TestMigrateRequiresPostgres(t *testing.T) {
	_, err := run(t, "migrate", "--config", writeConfig(t))

	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "newshub dev")
}
