package astjs

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// StructuralEquals reports deep equivalence of two nodes, ignoring source
// positions, comments and surrounding whitespace. Two statements with the
// same shape and the same token text are equal regardless of where they sit
// in their files.
func StructuralEquals(a *File, an *sitter.Node, b *File, bn *sitter.Node) bool {
	if an == nil || bn == nil {
		return an == bn
	}
	if an.Type() != bn.Type() {
		return false
	}

	ac := semanticChildren(an)
	bc := semanticChildren(bn)
	if len(ac) != len(bc) {
		return false
	}
	if len(ac) == 0 {
		return a.Text(an) == b.Text(bn)
	}
	for i := range ac {
		if !StructuralEquals(a, ac[i], b, bc[i]) {
			return false
		}
	}
	return true
}

// semanticChildren returns a node's children minus comments.
func semanticChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := uint32(0); i < n.ChildCount(); i++ {
		child := n.Child(int(i))
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}
