// Package analyzer computes, per exported name of a module, the top-level
// statements and imported identifiers the export transitively depends on.
// The walk is binding-exact: identifier uses resolve through the lexical
// scope model, so shadowed names never leak dependencies.
package analyzer

import (
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"routechunks/internal/astjs"
	"routechunks/internal/xerrors"
)

// DefaultExportName keys the default export's descriptor.
const DefaultExportName = "default"

// Descriptor captures one export's dependency footprint. Statement sets are
// byte spans into the analyzed source; names are the local bindings of
// import specifiers the export references. Slices are sorted, so equal
// analyses are structurally equal.
type Descriptor struct {
	TopLevel      []astjs.Span `json:"topLevelStatements"`
	NonModule     []astjs.Span `json:"topLevelNonModuleStatements"`
	ImportedNames []string     `json:"importedIdentifierNames"`
}

// ExportDependencies maps exported names to their descriptors. Re-export
// passthroughs (`export * from …`) are never present.
type ExportDependencies map[string]Descriptor

// Analyze parses source and computes its export dependencies.
func Analyze(ctx context.Context, source []byte, lang astjs.Language) (ExportDependencies, error) {
	f, err := astjs.Parse(ctx, source, lang)
	if err != nil {
		return nil, err
	}
	return AnalyzeFile(f)
}

// AnalyzeFile computes export dependencies over an already-parsed module.
func AnalyzeFile(f *astjs.File) (ExportDependencies, error) {
	deps := make(ExportDependencies)

	for _, stmt := range f.Statements() {
		switch f.ExportFormOf(stmt) {
		case astjs.ExportNone, astjs.ExportAll:
			// Re-export passthroughs are not chunkable units.
			continue

		case astjs.ExportDefault:
			d, err := describe(f, stmt, stmt)
			if err != nil {
				return nil, err
			}
			deps[DefaultExportName] = d

		case astjs.ExportDeclaration:
			decl := f.ExportedDeclaration(stmt)
			switch decl.Type() {
			case "lexical_declaration", "variable_declaration":
				for _, dtor := range f.VariableDeclarators(decl) {
					name := dtor.ChildByFieldName("name")
					if name == nil || name.Type() != "identifier" {
						kind := "missing"
						if name != nil {
							kind = name.Type()
						}
						return nil, xerrors.Newf(xerrors.InvalidNode,
							"unsupported export declarator pattern of kind %s", kind)
					}
					d, err := describe(f, stmt, stmt)
					if err != nil {
						return nil, err
					}
					deps[f.Text(name)] = d
				}
			case "function_declaration", "generator_function_declaration", "class_declaration":
				name := f.DeclarationName(decl)
				if name == nil {
					return nil, xerrors.Newf(xerrors.InvalidNode,
						"anonymous exported %s", decl.Type())
				}
				d, err := describe(f, stmt, stmt)
				if err != nil {
					return nil, err
				}
				deps[f.Text(name)] = d
			default:
				return nil, xerrors.Newf(xerrors.InvalidNode,
					"unknown exported declaration of kind %s", decl.Type())
			}

		case astjs.ExportClause:
			// The specifier subpath, not the enclosing statement, seeds
			// identifier collection.
			for _, spec := range f.ExportClauseSpecifiers(stmt) {
				d, err := describe(f, stmt, spec.Node)
				if err != nil {
					return nil, err
				}
				deps[spec.Exported] = d
			}

		case astjs.ExportOther:
			return nil, xerrors.Newf(xerrors.InvalidNode,
				"unknown export sub-kind at byte %d", stmt.StartByte())
		}
	}

	return deps, nil
}

// describe builds the descriptor for one export rooted at start.
func describe(f *astjs.File, exportStmt, start *sitter.Node) (Descriptor, error) {
	idents := collect(f, start)

	topLevel := map[astjs.Span]*sitter.Node{
		astjs.NodeSpan(exportStmt): exportStmt,
	}
	imported := make(map[string]struct{})

	for _, id := range idents {
		top := f.TopLevelAncestor(id)
		if top == nil {
			return Descriptor{}, xerrors.Newf(xerrors.Internal,
				"identifier %q at byte %d has no top-level statement", f.Text(id), id.StartByte())
		}
		topLevel[astjs.NodeSpan(top)] = top

		if b := f.ResolveBinding(id); b != nil && f.IsImportBinding(b) {
			imported[f.Text(id)] = struct{}{}
		}
	}

	d := Descriptor{
		TopLevel:      make([]astjs.Span, 0, len(topLevel)),
		NonModule:     make([]astjs.Span, 0, len(topLevel)),
		ImportedNames: make([]string, 0, len(imported)),
	}
	for span, stmt := range topLevel {
		d.TopLevel = append(d.TopLevel, span)
		if !f.IsModuleStatement(stmt) {
			d.NonModule = append(d.NonModule, span)
		}
	}
	for name := range imported {
		d.ImportedNames = append(d.ImportedNames, name)
	}
	sortSpans(d.TopLevel)
	sortSpans(d.NonModule)
	sort.Strings(d.ImportedNames)
	return d, nil
}

// collect gathers every identifier occurrence reachable from start by
// recursive scope-following. visited is keyed by binding-node span, so the
// finite binding graph terminates the recursion.
func collect(f *astjs.File, start *sitter.Node) []*sitter.Node {
	visited := make(map[astjs.Span]struct{})
	var idents []*sitter.Node

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		f.WalkIdentifiers(n, func(id *sitter.Node) {
			idents = append(idents, id)
			b := f.ResolveBinding(id)
			if b == nil {
				return
			}
			key := astjs.NodeSpan(b)
			if _, seen := visited[key]; seen {
				return
			}
			visited[key] = struct{}{}
			visit(b)
		})
	}
	visit(start)
	return idents
}

func sortSpans(spans []astjs.Span) {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
}
