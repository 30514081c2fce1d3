package chunk

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"routechunks/internal/astjs"
)

// Emitters rewrite module statements at specifier granularity. Rather than
// mutating the tree, surviving specifiers are re-assembled into fresh
// statement text; untouched statements keep their original text.

// renderImport rebuilds an import declaration keeping only the specifiers
// whose local name satisfies keep. Returns the rebuilt text and the number
// of surviving specifiers.
func renderImport(f *astjs.File, stmt *sitter.Node, keep func(local string) bool) (string, int) {
	var clauseParts []string
	var named []string
	kept := 0

	for _, spec := range f.ImportSpecifiers(stmt) {
		if !keep(spec.Local) {
			continue
		}
		kept++
		switch spec.Kind {
		case astjs.ImportNamed:
			named = append(named, f.Text(spec.Node))
		default:
			clauseParts = append(clauseParts, f.Text(spec.Node))
		}
	}
	if named != nil {
		clauseParts = append(clauseParts, "{ "+strings.Join(named, ", ")+" }")
	}
	if kept == 0 {
		return "", 0
	}

	source := f.ImportSource(stmt)
	return "import " + strings.Join(clauseParts, ", ") + " from " + f.Text(source) + ";", kept
}

// renderExportClause rebuilds an `export { … }` statement keeping only the
// given specifiers, preserving a re-export source when present.
func renderExportClause(f *astjs.File, stmt *sitter.Node, specs []astjs.ExportSpec) string {
	texts := make([]string, len(specs))
	for i, spec := range specs {
		texts[i] = f.Text(spec.Node)
	}
	text := "export { " + strings.Join(texts, ", ") + " }"
	if source := f.ImportSource(stmt); source != nil {
		text += " from " + f.Text(source)
	}
	return text + ";"
}

// renderExportDeclarators rebuilds an exported variable declaration keeping
// only the given declarators.
func renderExportDeclarators(f *astjs.File, decl *sitter.Node, declarators []*sitter.Node) string {
	texts := make([]string, len(declarators))
	for i, d := range declarators {
		texts[i] = f.Text(d)
	}
	return "export " + f.DeclKeyword(decl) + " " + strings.Join(texts, ", ") + ";"
}
