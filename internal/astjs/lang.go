// Package astjs is the AST gateway for JavaScript and TypeScript route
// modules. It wraps tree-sitter parsing, exposes a statement-level view of a
// module, resolves identifier bindings through a lexical scope model, and
// re-serializes rewritten statement lists back to source text.
package astjs

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language identifies the grammar used to parse a module.
type Language string

const (
	// LangJavaScript covers .js, .jsx, .mjs and .cjs modules (the grammar
	// accepts JSX).
	LangJavaScript Language = "javascript"
	// LangTypeScript covers .ts, .mts and .cts modules.
	LangTypeScript Language = "typescript"
	// LangTSX covers .tsx modules.
	LangTSX Language = "tsx"
)

// DetectLanguage picks a grammar from a file path. Unknown extensions fall
// back to TSX, which accepts the widest slice of route-module syntax.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	default:
		return LangTSX
	}
}

// grammar returns the tree-sitter grammar for a language identifier.
func grammar(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}
