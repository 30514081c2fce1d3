package chunk

import (
	"context"
	"errors"
	"testing"

	"routechunks/internal/astjs"
	"routechunks/internal/memo"
	"routechunks/internal/slogutil"
	"routechunks/internal/storage"
	"routechunks/internal/xerrors"
)

func newTestSplitter(t *testing.T, chunkNames ...string) *Splitter {
	t.Helper()
	cache := memo.New(storage.NewMemory(), slogutil.NewDiscardLogger())
	return NewSplitter(cache, chunkNames, slogutil.NewDiscardLogger())
}

func chunkable(t *testing.T, s *Splitter, key, source, name string) bool {
	t.Helper()
	ok, err := s.IsChunkable(context.Background(), key, source, name)
	if err != nil {
		t.Fatalf("IsChunkable(%q) failed: %v", name, err)
	}
	return ok
}

func mustEmitChunk(t *testing.T, s *Splitter, key, source, name string) *astjs.Output {
	t.Helper()
	out, err := s.EmitChunk(context.Background(), key, source, name, astjs.PrintOptions{})
	if err != nil {
		t.Fatalf("EmitChunk(%q) failed: %v", name, err)
	}
	return out
}

func mustEmitMain(t *testing.T, s *Splitter, key, source string, omit []string) *astjs.Output {
	t.Helper()
	out, err := s.EmitMain(context.Background(), key, source, omit, astjs.PrintOptions{})
	if err != nil {
		t.Fatalf("EmitMain(%v) failed: %v", omit, err)
	}
	return out
}

func TestIndependentExports(t *testing.T) {
	source := `import { a } from "a"; import { b } from "b";
export const x = a();
export const y = b();
`
	s := newTestSplitter(t, "x", "y")

	if !chunkable(t, s, "route.js", source, "x") {
		t.Errorf("x should be chunkable")
	}
	if !chunkable(t, s, "route.js", source, "y") {
		t.Errorf("y should be chunkable")
	}

	x := mustEmitChunk(t, s, "route.js", source, "x")
	wantX := "import { a } from \"a\";\nexport const x = a();\n"
	if x == nil || x.Code != wantX {
		t.Errorf("chunk x = %#v, want %q", x, wantX)
	}

	y := mustEmitChunk(t, s, "route.js", source, "y")
	wantY := "import { b } from \"b\";\nexport const y = b();\n"
	if y == nil || y.Code != wantY {
		t.Errorf("chunk y = %#v, want %q", y, wantY)
	}

	if main := mustEmitMain(t, s, "route.js", source, []string{"x", "y"}); main != nil {
		t.Errorf("main with both exports omitted should be empty, got %q", main.Code)
	}
}

func TestSharedHelperNotChunkable(t *testing.T) {
	source := `function h() {}
export const x = h();
export const y = h();
`
	s := newTestSplitter(t, "x", "y")

	if chunkable(t, s, "route.js", source, "x") {
		t.Errorf("x shares h with y and must not be chunkable")
	}
	if chunkable(t, s, "route.js", source, "y") {
		t.Errorf("y shares h with x and must not be chunkable")
	}

	if out := mustEmitChunk(t, s, "route.js", source, "x"); out != nil {
		t.Errorf("chunk for non-chunkable export should be nil, got %q", out.Code)
	}

	main := mustEmitMain(t, s, "route.js", source, []string{"x", "y"})
	if main == nil || main.Code != source {
		t.Errorf("main with nothing actually omitted should equal the input, got %#v", main)
	}
}

func TestSharedImportSpecifierNotChunkable(t *testing.T) {
	source := `import { k } from "k"; export const x = k; export const y = k;`
	s := newTestSplitter(t, "x", "y")

	if chunkable(t, s, "route.js", source, "x") || chunkable(t, s, "route.js", source, "y") {
		t.Errorf("exports sharing an import specifier must not be chunkable")
	}
}

func TestDefaultExportChunking(t *testing.T) {
	source := `import d from "d"; export default d; export const x = 1;`
	s := newTestSplitter(t, "default")

	if !chunkable(t, s, "route.js", source, "default") {
		t.Fatalf("default export should be chunkable")
	}

	chunk := mustEmitChunk(t, s, "route.js", source, "default")
	want := "import d from \"d\";\nexport default d;\n"
	if chunk == nil || chunk.Code != want {
		t.Errorf("default chunk = %#v, want %q", chunk, want)
	}

	main := mustEmitMain(t, s, "route.js", source, []string{"default"})
	wantMain := "export const x = 1;\n"
	if main == nil || main.Code != wantMain {
		t.Errorf("main = %#v, want %q", main, wantMain)
	}
}

func TestSideEffectImportPreserved(t *testing.T) {
	source := `import "side"; export const x = 1; export const y = 2;`
	s := newTestSplitter(t, "x", "y")

	main := mustEmitMain(t, s, "route.js", source, []string{"x"})
	want := "import \"side\";\nexport const y = 2;\n"
	if main == nil || main.Code != want {
		t.Errorf("main = %#v, want %q", main, want)
	}

	// The chunk never carries the side-effect import.
	chunk := mustEmitChunk(t, s, "route.js", source, "x")
	wantChunk := "export const x = 1;\n"
	if chunk == nil || chunk.Code != wantChunk {
		t.Errorf("chunk x = %#v, want %q", chunk, wantChunk)
	}
}

func TestExportAllPassthrough(t *testing.T) {
	source := `export * from "a"; export const x = 1;`
	s := newTestSplitter(t, "x")

	if !chunkable(t, s, "route.js", source, "x") {
		t.Fatalf("x should be chunkable next to a passthrough")
	}

	chunk := mustEmitChunk(t, s, "route.js", source, "x")
	wantChunk := "export const x = 1;\n"
	if chunk == nil || chunk.Code != wantChunk {
		t.Errorf("chunk x = %#v, want %q", chunk, wantChunk)
	}

	main := mustEmitMain(t, s, "route.js", source, []string{"x"})
	wantMain := "export * from \"a\";\n"
	if main == nil || main.Code != wantMain {
		t.Errorf("main = %#v, want %q", main, wantMain)
	}
}

func TestImportSpecifierPartition(t *testing.T) {
	source := `import { a, shared } from "lib";
export const x = a();
export const rest = shared();
`
	s := newTestSplitter(t, "x")

	if !chunkable(t, s, "route.js", source, "x") {
		t.Fatalf("x should be chunkable: it owns specifier a exclusively")
	}

	chunk := mustEmitChunk(t, s, "route.js", source, "x")
	wantChunk := "import { a } from \"lib\";\nexport const x = a();\n"
	if chunk == nil || chunk.Code != wantChunk {
		t.Errorf("chunk x = %#v, want %q", chunk, wantChunk)
	}

	main := mustEmitMain(t, s, "route.js", source, []string{"x"})
	wantMain := "import { shared } from \"lib\";\nexport const rest = shared();\n"
	if main == nil || main.Code != wantMain {
		t.Errorf("main = %#v, want %q", main, wantMain)
	}
}

func TestAbsentExportIsSilent(t *testing.T) {
	source := `export const x = 1;`
	s := newTestSplitter(t, "missing")

	if chunkable(t, s, "route.js", source, "missing") {
		t.Errorf("absent export must not be chunkable")
	}
	if out := mustEmitChunk(t, s, "route.js", source, "missing"); out != nil {
		t.Errorf("absent export chunk should be nil, got %q", out.Code)
	}
}

func TestNonChunkableListedExportStaysInMain(t *testing.T) {
	source := `function h() {}
export const x = h();
export const y = h();
export const z = 1;
`
	s := newTestSplitter(t, "x", "z")

	// x is listed but not chunkable; z is both.
	main := mustEmitMain(t, s, "route.js", source, []string{"x", "z"})
	want := "function h() {}\nexport const x = h();\nexport const y = h();\n"
	if main == nil || main.Code != want {
		t.Errorf("main = %#v, want %q", main, want)
	}
}

func TestMultiDeclaratorExportRestriction(t *testing.T) {
	source := `export const x = 1, y = 2;`
	s := newTestSplitter(t, "x", "y")

	// Both declarators share the export statement, but that statement is a
	// module statement, so neither conflicts on non-module code.
	if !chunkable(t, s, "route.js", source, "x") {
		t.Fatalf("x should be chunkable")
	}

	chunk := mustEmitChunk(t, s, "route.js", source, "x")
	want := "export const x = 1;\n"
	if chunk == nil || chunk.Code != want {
		t.Errorf("chunk x = %#v, want %q", chunk, want)
	}

	main := mustEmitMain(t, s, "route.js", source, []string{"x"})
	wantMain := "export const y = 2;\n"
	if main == nil || main.Code != wantMain {
		t.Errorf("main = %#v, want %q", main, wantMain)
	}
}

func TestExportClauseRestriction(t *testing.T) {
	source := `import { a } from "a"; import { b } from "b";
const first = a();
const second = b();
export { first, second };
`
	s := newTestSplitter(t, "first")

	chunk := mustEmitChunk(t, s, "route.js", source, "first")
	want := "import { a } from \"a\";\nconst first = a();\nexport { first };\n"
	if chunk == nil || chunk.Code != want {
		t.Errorf("chunk first = %#v, want %q", chunk, want)
	}

	main := mustEmitMain(t, s, "route.js", source, []string{"first"})
	wantMain := "import { b } from \"b\";\nconst second = b();\nexport { second };\n"
	if main == nil || main.Code != wantMain {
		t.Errorf("main = %#v, want %q", main, wantMain)
	}
}

func TestReexportClauseChunking(t *testing.T) {
	source := `export { a, b } from "m";
export const x = 1;
`
	s := newTestSplitter(t, "a", "x")

	// A named re-export owns no local code, so it is chunkable; the source
	// clause travels with the restricted specifier.
	chunk := mustEmitChunk(t, s, "route.js", source, "a")
	want := "export { a } from \"m\";\n"
	if chunk == nil || chunk.Code != want {
		t.Errorf("chunk a = %#v, want %q", chunk, want)
	}

	main := mustEmitMain(t, s, "route.js", source, []string{"a", "x"})
	wantMain := "export { b } from \"m\";\n"
	if main == nil || main.Code != wantMain {
		t.Errorf("main = %#v, want %q", main, wantMain)
	}
}

func TestEmptyExportClausePreserved(t *testing.T) {
	source := `export {};
export const x = 1;
`
	s := newTestSplitter(t, "x")

	main := mustEmitMain(t, s, "route.js", source, []string{"x"})
	want := "export {};\n"
	if main == nil || main.Code != want {
		t.Errorf("main = %#v, want %q", main, want)
	}
}

func TestDetectChunks(t *testing.T) {
	source := `import { a } from "a";
function shared() {}
export const clientAction = a();
export const clientLoader = shared();
export default shared;
`
	s := newTestSplitter(t)

	det, err := s.DetectChunks(context.Background(), "route.js", source)
	if err != nil {
		t.Fatalf("DetectChunks failed: %v", err)
	}
	if !det.Chunkable["clientAction"] {
		t.Errorf("clientAction should be chunkable")
	}
	if det.Chunkable["clientLoader"] {
		t.Errorf("clientLoader shares code with the default export")
	}
	if !det.HasAny {
		t.Errorf("HasAny should be true")
	}
}

func TestFacadeGetChunk(t *testing.T) {
	source := `import { act } from "lib";
export const clientAction = act;
export default function Route() { return null; }
`
	s := newTestSplitter(t)
	ctx := context.Background()

	if !s.IsKnownChunkName("main") || !s.IsKnownChunkName("clientAction") {
		t.Fatalf("facade must recognize main and configured names")
	}
	if s.IsKnownChunkName("loader") {
		t.Errorf("unknown names must not be recognized")
	}

	chunk, err := s.GetChunk(ctx, "route.js", source, "clientAction", astjs.PrintOptions{})
	if err != nil {
		t.Fatalf("GetChunk(clientAction) failed: %v", err)
	}
	wantChunk := "import { act } from \"lib\";\nexport const clientAction = act;\n"
	if chunk == nil || chunk.Code != wantChunk {
		t.Errorf("clientAction chunk = %#v, want %q", chunk, wantChunk)
	}

	main, err := s.GetChunk(ctx, "route.js", source, "main", astjs.PrintOptions{})
	if err != nil {
		t.Fatalf("GetChunk(main) failed: %v", err)
	}
	wantMain := "export default function Route() { return null; }\n"
	if main == nil || main.Code != wantMain {
		t.Errorf("main chunk = %#v, want %q", main, wantMain)
	}

	if _, err := s.GetChunk(ctx, "route.js", source, "bogus", astjs.PrintOptions{}); err == nil {
		t.Errorf("unknown chunk name must error")
	}
}

func TestDestructuredExportRaises(t *testing.T) {
	source := `export const { x } = load();`
	s := newTestSplitter(t, "x")

	_, err := s.IsChunkable(context.Background(), "route.js", source, "x")
	if err == nil {
		t.Fatalf("destructured export must raise")
	}
	var coded *xerrors.Error
	if !errors.As(err, &coded) || coded.Code != xerrors.InvalidNode {
		t.Errorf("error = %v, want code %s", err, xerrors.InvalidNode)
	}
}

func TestCacheDeterminismAndInvalidation(t *testing.T) {
	store := storage.NewMemory()
	cache := memo.New(store, slogutil.NewDiscardLogger())
	s := NewSplitter(cache, []string{"x"}, slogutil.NewDiscardLogger())
	ctx := context.Background()

	v1 := `import { a } from "a"; export const x = a(); export const y = 1;`
	first, err := s.EmitChunk(ctx, "route.js", v1, "x", astjs.PrintOptions{})
	if err != nil {
		t.Fatalf("first emit failed: %v", err)
	}
	second, err := s.EmitChunk(ctx, "route.js", v1, "x", astjs.PrintOptions{})
	if err != nil {
		t.Fatalf("second emit failed: %v", err)
	}
	if first == nil || second == nil || first.Code != second.Code {
		t.Errorf("repeated emission differs: %#v vs %#v", first, second)
	}
	if store.Len() == 0 {
		t.Errorf("emission should populate the cache")
	}

	// Mutating the returned value must not poison the cache.
	second.Code = "clobbered"
	third, err := s.EmitChunk(ctx, "route.js", v1, "x", astjs.PrintOptions{})
	if err != nil {
		t.Fatalf("third emit failed: %v", err)
	}
	if third.Code != first.Code {
		t.Errorf("cached value was mutated by a caller: %q", third.Code)
	}

	// A source change under the same cache key invalidates derived entries.
	v2 := `import { b } from "b"; export const x = b();`
	fresh, err := s.EmitChunk(ctx, "route.js", v2, "x", astjs.PrintOptions{})
	if err != nil {
		t.Fatalf("emit after change failed: %v", err)
	}
	want := "import { b } from \"b\";\nexport const x = b();\n"
	if fresh == nil || fresh.Code != want {
		t.Errorf("stale cache entry served after source change: %#v", fresh)
	}
}

func TestPrinterOptionsPartOfEmitterCacheKey(t *testing.T) {
	source := `// docs for x
export const x = 1;
export const y = 2;
`
	s := newTestSplitter(t, "x")
	ctx := context.Background()

	plain, err := s.EmitChunk(ctx, "route.js", source, "x", astjs.PrintOptions{})
	if err != nil {
		t.Fatalf("plain emit failed: %v", err)
	}
	commented, err := s.EmitChunk(ctx, "route.js", source, "x", astjs.PrintOptions{LeadingComments: true})
	if err != nil {
		t.Fatalf("commented emit failed: %v", err)
	}
	if plain.Code == commented.Code {
		t.Errorf("different printer options must not collide in the cache")
	}
	if commented.Code != "// docs for x\nexport const x = 1;\n" {
		t.Errorf("commented chunk = %q", commented.Code)
	}
}
