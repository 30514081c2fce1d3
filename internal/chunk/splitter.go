// Package chunk decides whether named exports of a route module can be
// split into independent output chunks, and emits the rewritten source for
// each chunk as well as the remaining main module.
package chunk

import (
	"context"
	"log/slog"
	"strings"

	"routechunks/internal/analyzer"
	"routechunks/internal/astjs"
	"routechunks/internal/memo"
	"routechunks/internal/slogutil"
	"routechunks/internal/xerrors"
)

// MainChunkName names the residual module chunk.
const MainChunkName = "main"

// DefaultChunkNames is the closed list of chunkable route export names.
var DefaultChunkNames = []string{"clientAction", "clientLoader"}

// Operation names composed into cache keys.
const (
	opExportDependencies = "exportDependencies"
	opGetChunkedExport   = "getChunkedExport"
	opOmitChunkedExports = "omitChunkedExports"
)

// Splitter is the route-chunking facade: it fixes the recognized chunk
// names and dispatches analysis and emission, memoizing every step under
// the caller's cache key with the source text as fingerprint.
type Splitter struct {
	cache      *memo.Cache
	chunkNames []string
	logger     *slog.Logger
}

// NewSplitter creates a splitter. A nil cache gets an in-memory one; empty
// chunk names fall back to DefaultChunkNames.
func NewSplitter(cache *memo.Cache, chunkNames []string, logger *slog.Logger) *Splitter {
	if cache == nil {
		cache = memo.New(nil, logger)
	}
	if len(chunkNames) == 0 {
		chunkNames = DefaultChunkNames
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	names := make([]string, len(chunkNames))
	copy(names, chunkNames)
	return &Splitter{cache: cache, chunkNames: names, logger: logger}
}

// ChunkNames returns the configured chunkable export names.
func (s *Splitter) ChunkNames() []string {
	names := make([]string, len(s.chunkNames))
	copy(names, s.chunkNames)
	return names
}

// IsKnownChunkName reports whether name is "main" or a configured chunkable
// export name.
func (s *Splitter) IsKnownChunkName(name string) bool {
	if name == MainChunkName {
		return true
	}
	for _, n := range s.chunkNames {
		if n == name {
			return true
		}
	}
	return false
}

// Dependencies returns the memoized export-dependency analysis for source.
// The returned structure is shared with other callers and must not be
// mutated.
func (s *Splitter) Dependencies(ctx context.Context, cacheKey, source string) (analyzer.ExportDependencies, error) {
	key := memo.Key(cacheKey, opExportDependencies)
	return memo.GetOrSet(s.cache, key, source, func() (analyzer.ExportDependencies, error) {
		s.logger.Debug("analyzing export dependencies", "cacheKey", cacheKey)
		return analyzer.Analyze(ctx, []byte(source), astjs.DetectLanguage(cacheKey))
	})
}

// IsChunkable reports whether the named export can be extracted as an
// independent chunk: its non-module top-level statements and its imported
// identifiers are disjoint from every other export's.
func (s *Splitter) IsChunkable(ctx context.Context, cacheKey, source, exportName string) (bool, error) {
	deps, err := s.Dependencies(ctx, cacheKey, source)
	if err != nil {
		return false, err
	}
	return isChunkable(deps, exportName), nil
}

func isChunkable(deps analyzer.ExportDependencies, exportName string) bool {
	d, ok := deps[exportName]
	if !ok {
		return false
	}
	nonModule := spanSet(d.NonModule)
	imports := stringSet(d.ImportedNames)
	for other, od := range deps {
		if other == exportName {
			continue
		}
		if spansIntersect(nonModule, spanSet(od.NonModule)) {
			return false
		}
		if len(imports) > 0 && stringsIntersect(imports, stringSet(od.ImportedNames)) {
			return false
		}
	}
	return true
}

// Detection reports which configured exports of a module are chunkable.
type Detection struct {
	Chunkable map[string]bool `json:"chunkable"`
	HasAny    bool            `json:"hasAny"`
}

// DetectChunks evaluates chunkability for every configured chunk name.
func (s *Splitter) DetectChunks(ctx context.Context, cacheKey, source string) (Detection, error) {
	det := Detection{Chunkable: make(map[string]bool, len(s.chunkNames))}
	for _, name := range s.chunkNames {
		ok, err := s.IsChunkable(ctx, cacheKey, source, name)
		if err != nil {
			return Detection{}, err
		}
		det.Chunkable[name] = ok
		det.HasAny = det.HasAny || ok
	}
	return det, nil
}

// GetChunk returns the serialized source for a named chunk: the main module
// with every chunkable export omitted, or a single chunkable export with
// its dependencies. Returns nil for a non-chunkable export and for an empty
// main module.
func (s *Splitter) GetChunk(ctx context.Context, cacheKey, source, chunkName string, opts astjs.PrintOptions) (*astjs.Output, error) {
	if !s.IsKnownChunkName(chunkName) {
		return nil, xerrors.Newf(xerrors.Internal,
			"unknown chunk name %q (known: %s, %s)",
			chunkName, MainChunkName, strings.Join(s.chunkNames, ", "))
	}
	if chunkName == MainChunkName {
		return s.EmitMain(ctx, cacheKey, source, s.chunkNames, opts)
	}
	return s.EmitChunk(ctx, cacheKey, source, chunkName, opts)
}
