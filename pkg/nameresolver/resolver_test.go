package nameresolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name  string
	names map[string]string
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Lookup(ctx context.Context, code string) (string, error) {
	if n, ok := s.names[code]; ok {
		return n, nil
	}
	return "", errors.New("not found")
}

func TestGetNamePrefersRealtimeName(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "names.json"), nil)
	name := r.GetName(context.Background(), "600519", "贵州茅台")
	assert.Equal(t, "贵州茅台", name)
}

func TestGetNameFallsBackToMemoryCache(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "names.json"), nil)
	r.GetName(context.Background(), "600519", "贵州茅台")

	name := r.GetName(context.Background(), "600519", "")
	assert.Equal(t, "贵州茅台", name)
}

func TestGetNameFallsBackToSources(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "names.json"), []Source{
		&stubSource{name: "a", names: map[string]string{"000001": "平安银行"}},
	})
	name := r.GetName(context.Background(), "000001", "")
	assert.Equal(t, "平安银行", name)
}

func TestGetNameReturnsPlaceholderWhenAllSourcesMiss(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "names.json"), []Source{
		&stubSource{name: "a", names: map[string]string{}},
	})
	name := r.GetName(context.Background(), "999999", "")
	assert.Equal(t, "股票999999", name)
}

func TestGetNameIgnoresPlaceholderRealtimeName(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "names.json"), nil)
	name := r.GetName(context.Background(), "600519", "股票600519")
	assert.Equal(t, "股票600519", name)
}

func TestPreloadFromDirectoryPopulatesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.json")
	r := New(path, nil)
	r.PreloadFromDirectory(map[string]string{"600519": "贵州茅台", "000001": "平安银行"})

	stats := r.Stats()
	assert.Equal(t, 2, stats.CachedCount)
	assert.True(t, stats.CacheFileExists)

	reloaded := New(path, nil)
	assert.Equal(t, "贵州茅台", reloaded.GetName(context.Background(), "600519", ""))
}

func TestBatchGetNames(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "names.json"), nil)
	result := r.BatchGetNames(context.Background(), []string{"600519", "000001"}, map[string]string{"600519": "贵州茅台"})
	require.Len(t, result, 2)
	assert.Equal(t, "贵州茅台", result["600519"])
	assert.Equal(t, "股票000001", result["000001"])
}

func TestClearCache(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "names.json"), nil)
	r.GetName(context.Background(), "600519", "贵州茅台")
	r.ClearCache()
	assert.Equal(t, 0, r.Stats().CachedCount)
}
