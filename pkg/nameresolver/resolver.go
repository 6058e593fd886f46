// 文件: pkg/nameresolver/resolver.go
// 股票名称解析器 - 多级缓存 + 多数据源回退
//
// 移植自 stock_name_resolver.py 的 StockNameResolver：解析优先级为
// 实时行情名 -> 内存缓存 -> JSON 持久化缓存 -> 外部数据源列表 ->
// 占位符 "股票{code}"。原始实现是进程内单例；这里按 DESIGN NOTES
// 把单例改造为显式依赖注入的 Resolver 值，由调用方在入口处构造一次。

package nameresolver

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Source is one external lookup tried in order when both cache tiers miss.
type Source interface {
	Name() string
	Lookup(ctx context.Context, code string) (string, error)
}

// Resolver resolves stock codes to display names with an in-memory map
// backed by a JSON file on disk, falling back to a configured chain of
// external sources.
type Resolver struct {
	mu        sync.RWMutex
	cache     map[string]string
	cacheFile string
	sources   []Source
	addCount  int
	logger    *log.Logger
}

// New creates a Resolver, loading any existing persisted cache from
// cacheFile (missing file is not an error — starts empty).
func New(cacheFile string, sources []Source) *Resolver {
	r := &Resolver{
		cache:     make(map[string]string),
		cacheFile: cacheFile,
		sources:   sources,
		logger:    log.Default(),
	}
	r.loadPersistent()
	return r
}

func (r *Resolver) loadPersistent() {
	data, err := os.ReadFile(r.cacheFile)
	if err != nil {
		return
	}
	var loaded map[string]string
	if err := json.Unmarshal(data, &loaded); err != nil {
		r.logger.Printf("[NameResolver] failed to parse cache file: %v", err)
		return
	}
	r.mu.Lock()
	for k, v := range loaded {
		r.cache[k] = v
	}
	r.mu.Unlock()
	r.logger.Printf("[NameResolver] loaded %d cached names from %s", len(loaded), r.cacheFile)
}

func (r *Resolver) savePersistent() {
	if err := os.MkdirAll(filepath.Dir(r.cacheFile), 0o755); err != nil {
		r.logger.Printf("[NameResolver] failed to create cache dir: %v", err)
		return
	}
	r.mu.RLock()
	data, err := json.MarshalIndent(r.cache, "", "  ")
	r.mu.RUnlock()
	if err != nil {
		r.logger.Printf("[NameResolver] failed to marshal cache: %v", err)
		return
	}
	if err := os.WriteFile(r.cacheFile, data, 0o644); err != nil {
		r.logger.Printf("[NameResolver] failed to write cache file: %v", err)
	}
}

func placeholder(code string) string { return "股票" + code }

func isPlaceholder(name string) bool { return strings.HasPrefix(name, "股票") }

// GetName resolves a stock code to its display name, preferring a
// caller-supplied realtime name when it looks genuine (non-empty and not
// already a placeholder).
func (r *Resolver) GetName(ctx context.Context, code string, realtimeName string) string {
	if trimmed := strings.TrimSpace(realtimeName); trimmed != "" && !isPlaceholder(trimmed) {
		r.addToCache(code, trimmed)
		return trimmed
	}

	r.mu.RLock()
	cached, ok := r.cache[code]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	for _, src := range r.sources {
		name, err := src.Lookup(ctx, code)
		if err != nil || name == "" {
			continue
		}
		r.addToCache(code, name)
		return name
	}

	r.logger.Printf("[NameResolver] could not resolve %s, using placeholder", code)
	return placeholder(code)
}

func (r *Resolver) addToCache(code, name string) {
	r.mu.Lock()
	r.cache[code] = name
	r.addCount++
	shouldSave := r.addCount%100 == 0
	r.mu.Unlock()

	if shouldSave {
		r.savePersistent()
	}
}

// BatchGetNames resolves a list of codes in one call, optionally seeded
// with realtime names keyed by code.
func (r *Resolver) BatchGetNames(ctx context.Context, codes []string, realtimeNames map[string]string) map[string]string {
	result := make(map[string]string, len(codes))
	for _, code := range codes {
		result[code] = r.GetName(ctx, code, realtimeNames[code])
	}
	return result
}

// PreloadFromDirectory bulk-populates the in-memory map from a full
// symbol->name directory in one call and forces an immediate persisted
// rewrite (spec's "optional bulk preload... in one call").
func (r *Resolver) PreloadFromDirectory(entries map[string]string) {
	r.mu.Lock()
	for code, name := range entries {
		if code == "" || name == "" {
			continue
		}
		r.cache[code] = name
	}
	r.mu.Unlock()
	r.savePersistent()
	r.logger.Printf("[NameResolver] preloaded %d names", len(entries))
}

// ClearCache empties the in-memory map; the persisted file is untouched
// until the next save.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string]string)
	r.mu.Unlock()
}

// Stats reports cache size and whether the persisted file currently exists.
type Stats struct {
	CachedCount     int
	CacheFileExists bool
}

// Stats returns a snapshot of the resolver's cache state.
func (r *Resolver) Stats() Stats {
	r.mu.RLock()
	count := len(r.cache)
	r.mu.RUnlock()

	_, err := os.Stat(r.cacheFile)
	return Stats{CachedCount: count, CacheFileExists: err == nil}
}
