package astjs

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// The scope model is a full lexical binding tree, not textual matching: a
// local shadowing an imported name resolves to the local. Bindings map a
// name to its declaration-site node — the variable_declarator, the
// function/class declaration, the import specifier, or the parameter
// pattern — so that following a binding pulls in the whole declaration.

type scopeKind int

const (
	scopeFunction scopeKind = iota // program and function bodies; var hoist target
	scopeBlock                     // blocks, for heads, catch clauses
)

type scope struct {
	parent   *scope
	kind     scopeKind
	bindings map[string]*sitter.Node
}

func (s *scope) bind(name string, decl *sitter.Node) {
	if name == "" {
		return
	}
	if _, exists := s.bindings[name]; exists {
		// First declaration wins; redeclaration is the source's problem.
		return
	}
	s.bindings[name] = decl
}

// nodeKey identifies a node across lookups by span and kind.
type nodeKey struct {
	span Span
	typ  string
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{span: NodeSpan(n), typ: n.Type()}
}

func scopeKindOf(nodeType string) (scopeKind, bool) {
	switch nodeType {
	case "program":
		return scopeFunction, true
	case "function_declaration", "generator_function_declaration",
		"function_expression", "function", "generator_function",
		"arrow_function", "method_definition", "class_static_block":
		return scopeFunction, true
	case "statement_block", "for_statement", "for_in_statement", "catch_clause":
		return scopeBlock, true
	default:
		return 0, false
	}
}

func (f *File) buildScopes() {
	f.scopes = make(map[nodeKey]*scope)

	var walk func(n *sitter.Node, cur *scope)
	walk = func(n *sitter.Node, cur *scope) {
		switch n.Type() {
		case "variable_declaration":
			f.bindDeclarators(n, hoistTarget(cur))
		case "lexical_declaration":
			f.bindDeclarators(n, cur)
		case "function_declaration", "generator_function_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				cur.bind(f.Text(name), n)
			}
		case "class_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				cur.bind(f.Text(name), n)
			}
		case "import_statement":
			for _, spec := range f.ImportSpecifiers(n) {
				cur.bind(spec.Local, spec.Node)
			}
		}

		next := cur
		if kind, owns := scopeKindOf(n.Type()); owns {
			next = &scope{parent: cur, kind: kind, bindings: make(map[string]*sitter.Node)}
			f.scopes[keyOf(n)] = next
			f.bindParams(n, next)
		}

		for i := uint32(0); i < n.ChildCount(); i++ {
			if child := n.Child(int(i)); child != nil {
				walk(child, next)
			}
		}
	}
	walk(f.root, nil)
}

func hoistTarget(s *scope) *scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.kind == scopeFunction {
			return cur
		}
	}
	return s
}

// bindDeclarators binds every name of every declarator to its declarator
// node, so that resolving a name leads to the initializer as well.
func (f *File) bindDeclarators(decl *sitter.Node, target *scope) {
	if target == nil {
		return
	}
	for _, d := range f.VariableDeclarators(decl) {
		f.bindPattern(d.ChildByFieldName("name"), d, target)
	}
}

// bindPattern binds all identifiers introduced by a binding pattern.
func (f *File) bindPattern(pat, decl *sitter.Node, target *scope) {
	if pat == nil {
		return
	}
	switch pat.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		target.bind(f.Text(pat), decl)
	case "object_pattern":
		for i := uint32(0); i < pat.NamedChildCount(); i++ {
			child := pat.NamedChild(int(i))
			if child == nil {
				continue
			}
			switch child.Type() {
			case "shorthand_property_identifier_pattern":
				target.bind(f.Text(child), decl)
			case "pair_pattern":
				f.bindPattern(child.ChildByFieldName("value"), decl, target)
			case "object_assignment_pattern":
				f.bindPattern(child.ChildByFieldName("left"), decl, target)
			case "rest_pattern":
				f.bindPattern(firstNamedChild(child), decl, target)
			}
		}
	case "array_pattern":
		for i := uint32(0); i < pat.NamedChildCount(); i++ {
			f.bindPattern(pat.NamedChild(int(i)), decl, target)
		}
	case "assignment_pattern":
		f.bindPattern(pat.ChildByFieldName("left"), decl, target)
	case "rest_pattern":
		f.bindPattern(firstNamedChild(pat), decl, target)
	}
}

// bindParams binds the names a scope owner itself introduces: function
// parameters, catch parameters, and declaring for-in/of heads.
func (f *File) bindParams(fn *sitter.Node, sc *scope) {
	switch fn.Type() {
	case "catch_clause":
		f.bindPattern(fn.ChildByFieldName("parameter"), fn.ChildByFieldName("parameter"), sc)
		return
	case "for_in_statement":
		// `for (const x of xs)` binds x in the loop scope; a bare
		// `for (x of xs)` assigns to an outer binding instead.
		if hasDeclarationKind(fn) {
			left := fn.ChildByFieldName("left")
			f.bindPattern(left, left, sc)
		}
		return
	}
	if single := fn.ChildByFieldName("parameter"); single != nil {
		f.bindPattern(single, single, sc)
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	for i := uint32(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(int(i))
		if p == nil {
			continue
		}
		switch p.Type() {
		case "required_parameter", "optional_parameter":
			f.bindPattern(p.ChildByFieldName("pattern"), p, sc)
		default:
			f.bindPattern(p, p, sc)
		}
	}
}

// hasDeclarationKind reports whether a for-in/of head carries var, let or
// const.
func hasDeclarationKind(n *sitter.Node) bool {
	for i := uint32(0); i < n.ChildCount(); i++ {
		child := n.Child(int(i))
		if child == nil {
			continue
		}
		switch child.Type() {
		case "var", "let", "const":
			return true
		}
	}
	return false
}

func firstNamedChild(n *sitter.Node) *sitter.Node {
	if n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}

// IsReference reports whether a node is a value reference the binding model
// resolves. Property names, object keys, labels and TypeScript type
// identifiers are distinct node kinds and therefore excluded.
func (f *File) IsReference(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		return true
	default:
		return false
	}
}

// ResolveBinding resolves an identifier use to its declaration-site node at
// its defining scope, or nil for globals and unresolved names.
func (f *File) ResolveBinding(id *sitter.Node) *sitter.Node {
	name := f.Text(id)
	for s := f.enclosingScope(id); s != nil; s = s.parent {
		if decl, ok := s.bindings[name]; ok {
			return decl
		}
	}
	return nil
}

func (f *File) enclosingScope(n *sitter.Node) *scope {
	for p := n; p != nil; p = p.Parent() {
		if sc, ok := f.scopes[keyOf(p)]; ok {
			return sc
		}
	}
	return nil
}

// IsImportBinding reports whether a binding node was introduced by an import
// declaration.
func (f *File) IsImportBinding(decl *sitter.Node) bool {
	for p := decl; p != nil; p = p.Parent() {
		switch p.Type() {
		case "import_statement":
			return true
		case "program":
			return false
		}
	}
	return false
}

// WalkIdentifiers visits every value-reference identifier under n in
// pre-order, including n itself.
func (f *File) WalkIdentifiers(n *sitter.Node, fn func(id *sitter.Node)) {
	Walk(n, func(cur *sitter.Node) bool {
		if cur.Type() == "comment" {
			return false
		}
		if f.IsReference(cur) {
			fn(cur)
		}
		return true
	})
}
