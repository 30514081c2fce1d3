// Package discovery finds route modules on disk and pairs each with the
// cache key the pipeline uses for it: the root-relative path.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Module is a discovered route module.
type Module struct {
	// CacheKey is the root-relative slash-separated path.
	CacheKey string
	// Path is the file path as walked: root joined with the relative
	// path, absolute only when root is.
	Path string
	// Source is the file's content.
	Source string
}

// DiscoverRoutes walks root and returns the modules whose root-relative
// path matches any include glob and no exclude glob. node_modules and
// hidden directories are skipped.
func DiscoverRoutes(root string, include, exclude []string) ([]Module, error) {
	var modules []Module

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(include, rel) || matchesAny(exclude, rel) {
			return nil
		}

		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read route module %s: %w", path, err)
		}
		modules = append(modules, Module{
			CacheKey: rel,
			Path:     path,
			Source:   string(source),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return modules, nil
}

func matchesAny(globs []string, rel string) bool {
	for _, glob := range globs {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}
	return false
}
