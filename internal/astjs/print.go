package astjs

import (
	"encoding/json"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// PrintOptions controls re-serialization. The record is opaque to the rest
// of the pipeline and participates in emitter cache keys via
// CanonicalOptions.
type PrintOptions struct {
	// LeadingComments carries comments immediately preceding a statement
	// that is kept unchanged into the output. Statements the emitters
	// rebuild from a subset of their specifiers or declarators are
	// printed without those comments.
	LeadingComments bool `json:"leadingComments"`
	// Separator joins statements; empty means a single newline.
	Separator string `json:"separator,omitempty"`
}

// CanonicalOptions serializes printer options deterministically so that
// structurally equal option records compose identical cache keys.
func CanonicalOptions(o PrintOptions) string {
	data, err := json.Marshal(o)
	if err != nil {
		// PrintOptions is a plain struct; Marshal cannot fail on it.
		return "{}"
	}
	return string(data)
}

// Output is a serialized module.
type Output struct {
	Code string `json:"code"`
}

// Render joins rendered statement texts into module source.
func Render(parts []string, o PrintOptions) Output {
	sep := o.Separator
	if sep == "" {
		sep = "\n"
	}
	code := strings.Join(parts, sep)
	if code != "" {
		code += "\n"
	}
	return Output{Code: code}
}

// StatementText returns a statement's source text. With LeadingComments set,
// comment siblings immediately above the statement are included.
func (f *File) StatementText(n *sitter.Node, o PrintOptions) string {
	start := n.StartByte()
	if o.LeadingComments {
		for prev := n.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
			if prev.Type() != "comment" {
				break
			}
			if !blankBetween(f.source, prev.EndByte(), start) {
				break
			}
			start = prev.StartByte()
		}
	}
	return string(f.source[start:n.EndByte()])
}

// blankBetween reports whether the bytes in [from, to) are all whitespace.
func blankBetween(src []byte, from, to uint32) bool {
	for i := from; i < to; i++ {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
