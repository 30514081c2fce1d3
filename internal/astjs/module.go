package astjs

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ExportForm discriminates the sub-kinds of an export statement.
type ExportForm int

const (
	// ExportNone marks a statement that is not an export declaration.
	ExportNone ExportForm = iota
	// ExportAll is `export * from "m"` (including `export * as ns from "m"`).
	ExportAll
	// ExportDefault is `export default …`.
	ExportDefault
	// ExportDeclaration is `export const/let/var/function/class …`.
	ExportDeclaration
	// ExportClause is `export { … }`, optionally with a source.
	ExportClause
	// ExportOther is an export sub-kind the analyzer does not classify.
	ExportOther
)

// ExportFormOf classifies an export statement. Non-export statements yield
// ExportNone.
func (f *File) ExportFormOf(stmt *sitter.Node) ExportForm {
	if stmt.Type() != "export_statement" {
		return ExportNone
	}
	var hasClause bool
	for i := uint32(0); i < stmt.ChildCount(); i++ {
		child := stmt.Child(int(i))
		if child == nil {
			continue
		}
		switch child.Type() {
		case "*", "namespace_export":
			return ExportAll
		case "default":
			return ExportDefault
		case "export_clause":
			hasClause = true
		}
	}
	if stmt.ChildByFieldName("declaration") != nil {
		return ExportDeclaration
	}
	if hasClause {
		return ExportClause
	}
	return ExportOther
}

// ExportedDeclaration returns the declaration node of an
// ExportDeclaration-form statement.
func (f *File) ExportedDeclaration(stmt *sitter.Node) *sitter.Node {
	return stmt.ChildByFieldName("declaration")
}

// ImportSpecKind discriminates import specifier forms.
type ImportSpecKind int

const (
	// ImportDefault is the `d` in `import d from "m"`.
	ImportDefault ImportSpecKind = iota
	// ImportNamespace is the `* as ns` in `import * as ns from "m"`.
	ImportNamespace
	// ImportNamed is a `{ a }` or `{ a as b }` specifier.
	ImportNamed
)

// ImportSpec is one specifier of an import declaration. Local is the name
// the specifier binds in module scope; Node is the specifier node (the
// binding site the scope model resolves to).
type ImportSpec struct {
	Kind  ImportSpecKind
	Local string
	Node  *sitter.Node
}

// ImportSpecifiers returns the specifiers of an import statement in source
// order. A side-effect import (`import "m"`) has none.
func (f *File) ImportSpecifiers(stmt *sitter.Node) []ImportSpec {
	var specs []ImportSpec
	var clause *sitter.Node
	for i := uint32(0); i < stmt.NamedChildCount(); i++ {
		child := stmt.NamedChild(int(i))
		if child != nil && child.Type() == "import_clause" {
			clause = child
			break
		}
	}
	if clause == nil {
		return nil
	}
	for i := uint32(0); i < clause.NamedChildCount(); i++ {
		child := clause.NamedChild(int(i))
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier":
			specs = append(specs, ImportSpec{Kind: ImportDefault, Local: f.Text(child), Node: child})
		case "namespace_import":
			local := ""
			for j := uint32(0); j < child.NamedChildCount(); j++ {
				if id := child.NamedChild(int(j)); id != nil && id.Type() == "identifier" {
					local = f.Text(id)
					break
				}
			}
			specs = append(specs, ImportSpec{Kind: ImportNamespace, Local: local, Node: child})
		case "named_imports":
			for j := uint32(0); j < child.NamedChildCount(); j++ {
				spec := child.NamedChild(int(j))
				if spec == nil || spec.Type() != "import_specifier" {
					continue
				}
				local := ""
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = f.Text(alias)
				} else if name := spec.ChildByFieldName("name"); name != nil {
					local = f.Text(name)
				}
				specs = append(specs, ImportSpec{Kind: ImportNamed, Local: local, Node: spec})
			}
		}
	}
	return specs
}

// ImportSource returns the module-source string node of an import or
// re-export statement, or nil.
func (f *File) ImportSource(stmt *sitter.Node) *sitter.Node {
	return stmt.ChildByFieldName("source")
}

// ExportSpec is one specifier of an `export { … }` clause. Exported is the
// post-`as` name; for string-literal aliases it is the string's value.
type ExportSpec struct {
	Exported string
	Node     *sitter.Node
}

// ExportClause returns the export_clause node of a clause-form export, or
// nil.
func (f *File) ExportClause(stmt *sitter.Node) *sitter.Node {
	for i := uint32(0); i < stmt.NamedChildCount(); i++ {
		child := stmt.NamedChild(int(i))
		if child != nil && child.Type() == "export_clause" {
			return child
		}
	}
	return nil
}

// ExportClauseSpecifiers returns the specifiers of a clause-form export in
// source order.
func (f *File) ExportClauseSpecifiers(stmt *sitter.Node) []ExportSpec {
	clause := f.ExportClause(stmt)
	if clause == nil {
		return nil
	}
	var specs []ExportSpec
	for i := uint32(0); i < clause.NamedChildCount(); i++ {
		spec := clause.NamedChild(int(i))
		if spec == nil || spec.Type() != "export_specifier" {
			continue
		}
		exported := spec.ChildByFieldName("alias")
		if exported == nil {
			exported = spec.ChildByFieldName("name")
		}
		if exported == nil {
			continue
		}
		specs = append(specs, ExportSpec{Exported: f.nameOf(exported), Node: spec})
	}
	return specs
}

// nameOf reads an identifier's text, or a string literal's value.
func (f *File) nameOf(n *sitter.Node) string {
	if n.Type() != "string" {
		return f.Text(n)
	}
	value := ""
	for i := uint32(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(int(i))
		if child == nil {
			continue
		}
		switch child.Type() {
		case "string_fragment", "escape_sequence":
			value += f.Text(child)
		}
	}
	return value
}

// VariableDeclarators returns the declarator nodes of a variable or lexical
// declaration in source order.
func (f *File) VariableDeclarators(decl *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := uint32(0); i < decl.NamedChildCount(); i++ {
		child := decl.NamedChild(int(i))
		if child != nil && child.Type() == "variable_declarator" {
			out = append(out, child)
		}
	}
	return out
}

// DeclKeyword returns the introducing keyword of a variable or lexical
// declaration: "var", "let" or "const".
func (f *File) DeclKeyword(decl *sitter.Node) string {
	if kw := decl.Child(0); kw != nil {
		return f.Text(kw)
	}
	return ""
}

// DeclarationName returns the name identifier of a function or class
// declaration, or nil for anonymous declarations.
func (f *File) DeclarationName(decl *sitter.Node) *sitter.Node {
	return decl.ChildByFieldName("name")
}
