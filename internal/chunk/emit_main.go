package chunk

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"routechunks/internal/analyzer"
	"routechunks/internal/astjs"
	"routechunks/internal/memo"
	"routechunks/internal/xerrors"
)

// EmitMain produces the module with the listed chunkable exports and their
// exclusive dependencies removed. A listed export that is not chunkable
// stays in the output. Returns nil when nothing remains.
func (s *Splitter) EmitMain(ctx context.Context, cacheKey, source string, omitExportNames []string, opts astjs.PrintOptions) (*astjs.Output, error) {
	key := memo.Key(cacheKey, opOmitChunkedExports,
		strings.Join(omitExportNames, ","), astjs.CanonicalOptions(opts))
	return memo.GetOrSet(s.cache, key, source, func() (*astjs.Output, error) {
		return s.emitMain(ctx, cacheKey, source, omitExportNames, opts)
	})
}

func (s *Splitter) emitMain(ctx context.Context, cacheKey, source string, omitExportNames []string, opts astjs.PrintOptions) (*astjs.Output, error) {
	deps, err := s.Dependencies(ctx, cacheKey, source)
	if err != nil {
		return nil, err
	}

	// Only exports that are both listed and chunkable are actually omitted.
	omitted := make(map[string]struct{})
	omittedSpans := make(map[astjs.Span]struct{})
	omittedImports := make(map[string]struct{})
	for _, name := range omitExportNames {
		d, ok := deps[name]
		if !ok || !isChunkable(deps, name) {
			continue
		}
		omitted[name] = struct{}{}
		for _, span := range d.NonModule {
			omittedSpans[span] = struct{}{}
		}
		for _, local := range d.ImportedNames {
			omittedImports[local] = struct{}{}
		}
	}

	f, err := astjs.Parse(ctx, []byte(source), astjs.DetectLanguage(cacheKey))
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, stmt := range f.Statements() {
		if _, drop := omittedSpans[astjs.NodeSpan(stmt)]; drop {
			continue
		}

		switch {
		case f.IsImport(stmt):
			specs := f.ImportSpecifiers(stmt)
			if len(specs) == 0 {
				// Side-effect import: always kept, unchanged.
				parts = append(parts, f.StatementText(stmt, opts))
				continue
			}
			text, kept := renderImport(f, stmt, func(local string) bool {
				_, taken := omittedImports[local]
				return !taken
			})
			if kept == 0 {
				continue
			}
			if kept == len(specs) {
				parts = append(parts, f.StatementText(stmt, opts))
			} else {
				parts = append(parts, text)
			}

		case f.IsExport(stmt):
			text, keep, err := pruneExport(f, stmt, omitted, opts)
			if err != nil {
				return nil, err
			}
			if keep {
				parts = append(parts, text)
			}

		default:
			parts = append(parts, f.StatementText(stmt, opts))
		}
	}

	if len(parts) == 0 {
		return nil, nil
	}
	out := astjs.Render(parts, opts)
	return &out, nil
}

// pruneExport drops the actually-omitted exports from an export
// declaration. Returns the statement text and whether anything survives.
func pruneExport(f *astjs.File, stmt *sitter.Node, omitted map[string]struct{}, opts astjs.PrintOptions) (string, bool, error) {
	isOmitted := func(name string) bool {
		_, ok := omitted[name]
		return ok
	}

	switch f.ExportFormOf(stmt) {
	case astjs.ExportAll:
		// Passthroughs cannot be attributed to a single export.
		return f.StatementText(stmt, opts), true, nil

	case astjs.ExportDefault:
		if isOmitted(analyzer.DefaultExportName) {
			return "", false, nil
		}
		return f.StatementText(stmt, opts), true, nil

	case astjs.ExportDeclaration:
		decl := f.ExportedDeclaration(stmt)
		switch decl.Type() {
		case "lexical_declaration", "variable_declaration":
			declarators := f.VariableDeclarators(decl)
			var kept []*sitter.Node
			for _, dtor := range declarators {
				name := dtor.ChildByFieldName("name")
				if name == nil || name.Type() != "identifier" {
					kind := "missing"
					if name != nil {
						kind = name.Type()
					}
					return "", false, xerrors.Newf(xerrors.InvalidNode,
						"unsupported export declarator pattern of kind %s", kind)
				}
				if !isOmitted(f.Text(name)) {
					kept = append(kept, dtor)
				}
			}
			if len(kept) == 0 {
				return "", false, nil
			}
			if len(kept) == len(declarators) {
				return f.StatementText(stmt, opts), true, nil
			}
			return renderExportDeclarators(f, decl, kept), true, nil

		case "function_declaration", "generator_function_declaration", "class_declaration":
			name := f.DeclarationName(decl)
			if name == nil {
				return "", false, xerrors.Newf(xerrors.InvalidNode,
					"anonymous exported %s", decl.Type())
			}
			if isOmitted(f.Text(name)) {
				return "", false, nil
			}
			return f.StatementText(stmt, opts), true, nil

		default:
			return "", false, xerrors.Newf(xerrors.InvalidNode,
				"unknown exported declaration of kind %s", decl.Type())
		}

	case astjs.ExportClause:
		specs := f.ExportClauseSpecifiers(stmt)
		if len(specs) == 0 {
			// `export {}` stays as written.
			return f.StatementText(stmt, opts), true, nil
		}
		var kept []astjs.ExportSpec
		for _, spec := range specs {
			if !isOmitted(spec.Exported) {
				kept = append(kept, spec)
			}
		}
		if len(kept) == 0 {
			return "", false, nil
		}
		if len(kept) == len(specs) {
			return f.StatementText(stmt, opts), true, nil
		}
		return renderExportClause(f, stmt, kept), true, nil

	default:
		return "", false, xerrors.Newf(xerrors.InvalidNode,
			"unknown export sub-kind at byte %d", stmt.StartByte())
	}
}
