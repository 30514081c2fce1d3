package chunk

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"routechunks/internal/analyzer"
	"routechunks/internal/astjs"
	"routechunks/internal/memo"
	"routechunks/internal/xerrors"
)

// EmitChunk produces a self-contained module containing only the named
// export and its transitive top-level dependencies. Returns nil when the
// export is not chunkable.
func (s *Splitter) EmitChunk(ctx context.Context, cacheKey, source, exportName string, opts astjs.PrintOptions) (*astjs.Output, error) {
	key := memo.Key(cacheKey, opGetChunkedExport, exportName, astjs.CanonicalOptions(opts))
	return memo.GetOrSet(s.cache, key, source, func() (*astjs.Output, error) {
		return s.emitChunk(ctx, cacheKey, source, exportName, opts)
	})
}

func (s *Splitter) emitChunk(ctx context.Context, cacheKey, source, exportName string, opts astjs.PrintOptions) (*astjs.Output, error) {
	deps, err := s.Dependencies(ctx, cacheKey, source)
	if err != nil {
		return nil, err
	}
	if !isChunkable(deps, exportName) {
		return nil, nil
	}
	d := deps[exportName]
	topLevel := spanSet(d.TopLevel)
	imported := stringSet(d.ImportedNames)

	// Emitters never touch the analyzer's tree: they work on an
	// independent parse of the same fingerprinted source and locate the
	// analyzer's statements by span.
	f, err := astjs.Parse(ctx, []byte(source), astjs.DetectLanguage(cacheKey))
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, stmt := range f.Statements() {
		if _, ok := topLevel[astjs.NodeSpan(stmt)]; !ok {
			continue
		}

		switch {
		case f.IsImport(stmt):
			// An export without imported identifier dependencies carries no
			// imports at all; side-effect imports stay with the main module.
			if len(imported) == 0 {
				continue
			}
			text, kept := renderImport(f, stmt, func(local string) bool {
				_, ok := imported[local]
				return ok
			})
			if kept == 0 {
				return nil, xerrors.Newf(xerrors.Inconsistent,
					"import at byte %d retained for export %q but no specifier survives",
					stmt.StartByte(), exportName)
			}
			if kept == len(f.ImportSpecifiers(stmt)) {
				parts = append(parts, f.StatementText(stmt, opts))
			} else {
				parts = append(parts, text)
			}

		case f.IsExport(stmt):
			text, keep, err := restrictExport(f, stmt, exportName, opts)
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

	out := astjs.Render(parts, opts)
	return &out, nil
}

// restrictExport narrows an export declaration to the single named export.
// Returns the statement text and whether anything survives.
func restrictExport(f *astjs.File, stmt *sitter.Node, exportName string, opts astjs.PrintOptions) (string, bool, error) {
	switch f.ExportFormOf(stmt) {
	case astjs.ExportAll:
		return "", false, nil

	case astjs.ExportDefault:
		if exportName != analyzer.DefaultExportName {
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
				if f.Text(name) == exportName {
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
			if f.Text(name) != exportName {
				return "", false, nil
			}
			return f.StatementText(stmt, opts), true, nil

		default:
			return "", false, xerrors.Newf(xerrors.InvalidNode,
				"unknown exported declaration of kind %s", decl.Type())
		}

	case astjs.ExportClause:
		specs := f.ExportClauseSpecifiers(stmt)
		var kept []astjs.ExportSpec
		for _, spec := range specs {
			if spec.Exported == exportName {
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
