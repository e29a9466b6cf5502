package header

import (
	"strings"
	"testing"

	"github.com/xyproto/dnload/internal/symtab"
)

func testSymbols(t *testing.T) []*symtab.Symbol {
	t.Helper()
	c := symtab.NewCatalog()
	syms, err := c.FindAll([]string{"malloc", "glClear", "SDL_Init"})
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	symtab.SortSymbols(syms)
	return syms
}

func TestParseModeRoundTrip(t *testing.T) {
	for _, s := range []string{"vanilla", "dlfcn", "hash"} {
		m, err := ParseMode(s)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", s, err)
		}
		if m.String() != s {
			t.Errorf("ParseMode(%q).String() = %q", s, m.String())
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestVanillaTabledFallsBackToDirect(t *testing.T) {
	syms := testSymbols(t)
	e := New(Vanilla, "USE_LD", "dnload_")
	out := e.GenerateSymbolDefinitions(syms)

	// In vanilla mode both branches must be textually identical aside
	// from the guard, so the only direct-macro pattern appears twice.
	if got := strings.Count(out, "#define dnload_malloc malloc"); got != 2 {
		t.Errorf("expected direct rename to appear in both branches, got %d occurrences in:\n%s", got, out)
	}
	if strings.Contains(out, "g_symbol_table") {
		t.Errorf("vanilla mode must never reference g_symbol_table, got:\n%s", out)
	}
}

func TestTabledModeReferencesSymbolTable(t *testing.T) {
	syms := testSymbols(t)
	e := New(Hash, "USE_LD", "dnload_")
	out := e.GenerateSymbolDefinitions(syms)
	if !strings.Contains(out, "#define dnload_malloc g_symbol_table.malloc") {
		t.Errorf("expected tabled rename macro, got:\n%s", out)
	}
}

func TestVanillaHasNoSymbolStruct(t *testing.T) {
	syms := testSymbols(t)
	e := New(Vanilla, "USE_LD", "dnload_")
	if out := e.GenerateSymbolStruct(syms); out != "" {
		t.Errorf("expected empty symbol struct in vanilla mode, got:\n%s", out)
	}
}

func TestHashModeStructInitializedWithHashes(t *testing.T) {
	syms := testSymbols(t)
	e := New(Hash, "USE_LD", "dnload_")
	out := e.GenerateSymbolStruct(syms)
	if !strings.Contains(out, "g_symbol_table =") {
		t.Errorf("expected initialized struct, got:\n%s", out)
	}
	if !strings.Contains(out, "malloc") {
		t.Errorf("expected malloc prototype in struct body, got:\n%s", out)
	}
}

func TestDlfcnModeStructHasNoInitializer(t *testing.T) {
	syms := testSymbols(t)
	e := New(Dlfcn, "USE_LD", "dnload_")
	out := e.GenerateSymbolStruct(syms)
	if strings.Contains(out, "=\n{") {
		t.Errorf("dlfcn mode struct must have no initializer, got:\n%s", out)
	}
}

func TestLoaderVanillaIsNoop(t *testing.T) {
	syms := testSymbols(t)
	e := New(Vanilla, "USE_LD", "dnload_")
	out := e.GenerateLoader(syms)
	if strings.Count(out, "#define dnload()") != 2 {
		t.Errorf("expected dnload() defined as no-op in both branches, got:\n%s", out)
	}
}

func TestLoaderHashUsesSymbolCount(t *testing.T) {
	syms := testSymbols(t)
	e := New(Hash, "USE_LD", "dnload_")
	out := e.GenerateLoader(syms)
	if !strings.Contains(out, "(3 > ii)") {
		t.Errorf("expected loop bound to equal symbol count 3, got:\n%s", out)
	}
}

func TestLoaderHashEmitsResolver(t *testing.T) {
	syms := testSymbols(t)
	e := New(Hash, "USE_LD", "dnload_")
	out := e.GenerateLoader(syms)
	for _, want := range []string{
		"dnload_find_symbol",
		"elf_get_link_map",
		"DT_DEBUG",
		"65599 * current_hash",
		"ELF_BASE_ADDRESS 0x400000",
		"ELF_BASE_ADDRESS 0x2000000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("hash loader missing %q", want)
		}
	}
}

func TestLoaderDlfcnGroupsByLibrary(t *testing.T) {
	syms := testSymbols(t)
	e := New(Dlfcn, "USE_LD", "dnload_")
	out := e.GenerateLoader(syms)
	if !strings.Contains(out, "dlopen") || !strings.Contains(out, "dlsym") {
		t.Errorf("expected dlopen/dlsym loader body, got:\n%s", out)
	}
	if !strings.Contains(out, "libc.so.6") {
		t.Errorf("expected libc.so.6 in packed dynstr table, got:\n%s", out)
	}
}

func TestGenerateConcatenatesAllThreeSections(t *testing.T) {
	syms := testSymbols(t)
	e := New(Hash, "USE_LD", "dnload_")
	out := e.Generate(syms)
	if !strings.Contains(out, "#define dnload_malloc") {
		t.Error("missing rename macros in Generate output")
	}
	if !strings.Contains(out, "SymbolTableStruct") {
		t.Error("missing symbol struct in Generate output")
	}
	if !strings.Contains(out, "static void dnload(void)") {
		t.Error("missing loader body in Generate output")
	}
	if !strings.Contains(out, "#ifndef DNLOAD_H") || !strings.Contains(out, "#define DNLOAD_H") {
		t.Error("missing include guard in Generate output")
	}
	if !strings.Contains(out, "#define DNLOADAPIENTRY") {
		t.Error("missing DNLOADAPIENTRY definition in Generate output")
	}
}
