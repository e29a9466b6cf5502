package elfcompose

import (
	"strings"
	"testing"

	"github.com/xyproto/dnload/internal/asmsyntax"
	"github.com/xyproto/dnload/internal/platform"
)

func newLinuxComposer(t *testing.T) *Composer {
	t.Helper()
	p, err := platform.New(platform.OSLinux, platform.ArchAMD64)
	if err != nil {
		t.Fatalf("platform.New: %v", err)
	}
	return New(p)
}

func TestPhdrCountThreeWithoutDoubleLoad(t *testing.T) {
	c := newLinuxComposer(t)
	c.Libraries = []string{"libc.so.6"}
	segments, doubleLoad := c.Compose(0)
	if doubleLoad {
		t.Fatalf("expected single PT_LOAD for small .bss")
	}
	if got := c.Profile.PhdrCount(); got != 3 {
		t.Fatalf("PhdrCount() = %d, want 3", got)
	}
	if len(segments) == 0 {
		t.Fatalf("expected non-empty segment list")
	}
}

func TestPhdrCountFourWithDoubleLoad(t *testing.T) {
	c := newLinuxComposer(t)
	c.Libraries = []string{"libc.so.6"}
	_, doubleLoad := c.Compose(200 * 1024 * 1024)
	if !doubleLoad {
		t.Fatalf("expected double PT_LOAD for large .bss")
	}
	if got := c.Profile.PhdrCount(); got != 4 {
		t.Fatalf("PhdrCount() = %d, want 4", got)
	}
}

func TestDynamicAlwaysHasSymtabNeverHashWithoutUnd(t *testing.T) {
	c := newLinuxComposer(t)
	c.Libraries = []string{"libc.so.6"}
	seg := c.dynamic(false)

	syn := asmsyntax.New(asmsyntax.GNUAS)
	src := seg.GenerateSource(syn)

	if !strings.Contains(src, "DT_SYMTAB") {
		t.Fatalf("expected DT_SYMTAB always present, got:\n%s", src)
	}
	if strings.Contains(src, "DT_HASH") {
		t.Fatalf("expected no DT_HASH without UND symbols, got:\n%s", src)
	}
}

func TestDynamicHasHashAndSymtabWithUnd(t *testing.T) {
	c := newLinuxComposer(t)
	c.Libraries = []string{"libc.so.6"}
	c.UndSymbols = []string{"environ", "__progname"}
	seg := c.dynamic(true)

	syn := asmsyntax.New(asmsyntax.GNUAS)
	src := seg.GenerateSource(syn)

	if !strings.Contains(src, "DT_SYMTAB") {
		t.Fatalf("expected DT_SYMTAB present, got:\n%s", src)
	}
	if !strings.Contains(src, "DT_HASH") {
		t.Fatalf("expected DT_HASH present with UND symbols, got:\n%s", src)
	}
}

func TestDynamicNeededAscendingOrder(t *testing.T) {
	c := newLinuxComposer(t)
	c.Libraries = []string{"libc.so.6", "libm.so.6", "libSDL.so"}
	seg := c.dynamic(false)

	syn := asmsyntax.New(asmsyntax.GNUAS)
	src := seg.GenerateSource(syn)

	iLibc := strings.Index(src, "strtab_libc_so_6")
	iLibm := strings.Index(src, "strtab_libm_so_6")
	iSDL := strings.Index(src, "strtab_libSDL_so")
	if iLibc < 0 || iLibm < 0 || iSDL < 0 {
		t.Fatalf("expected all three DT_NEEDED symbolic refs present, got:\n%s", src)
	}
	if !(iLibc < iLibm && iLibm < iSDL) {
		t.Fatalf("expected ascending DT_NEEDED order libc < libm < SDL, got indices %d %d %d", iLibc, iLibm, iSDL)
	}
}

func TestDynamicNeededValueIsStrtabOffset(t *testing.T) {
	c := newLinuxComposer(t)
	c.Libraries = []string{"libc.so.6"}
	seg := c.dynamic(false)

	syn := asmsyntax.New(asmsyntax.GNUAS)
	src := seg.GenerateSource(syn)

	if !strings.Contains(src, "strtab_libc_so_6 - strtab") {
		t.Fatalf("expected DT_NEEDED value as strtab offset expression, got:\n%s", src)
	}
}

func TestStrtabReverseLibraryOrder(t *testing.T) {
	c := newLinuxComposer(t)
	c.Libraries = []string{"libc.so.6", "libm.so.6"}
	seg := c.strtab()

	syn := asmsyntax.New(asmsyntax.GNUAS)
	src := seg.GenerateSource(syn)

	iLibm := strings.Index(src, "libm.so.6")
	iLibc := strings.Index(src, "libc.so.6")
	if iLibm < 0 || iLibc < 0 {
		t.Fatalf("expected both library name strings present, got:\n%s", src)
	}
	if !(iLibm < iLibc) {
		t.Fatalf("expected libm before libc (reverse of DT_NEEDED order), got indices %d %d", iLibm, iLibc)
	}
}

func TestHashTableSingleBucket(t *testing.T) {
	c := newLinuxComposer(t)
	c.UndSymbols = []string{"environ", "__progname"}
	seg := c.hash()

	syn := asmsyntax.New(asmsyntax.GNUAS)
	src := seg.GenerateSource(syn)

	if !strings.Contains(src, ".long 1\n") {
		t.Fatalf("expected nbucket = 1, got:\n%s", src)
	}
	if !strings.Contains(src, ".long 3\n") {
		t.Fatalf("expected nchain = n+1 = 3, got:\n%s", src)
	}
}

func TestEhdrClassAndMachineDiffer32v64(t *testing.T) {
	p32, err := platform.New(platform.OSLinux, platform.ArchIA32)
	if err != nil {
		t.Fatalf("platform.New: %v", err)
	}
	c32 := New(p32)
	seg32 := c32.ehdr()

	p64, err := platform.New(platform.OSLinux, platform.ArchAMD64)
	if err != nil {
		t.Fatalf("platform.New: %v", err)
	}
	c64 := New(p64)
	seg64 := c64.ehdr()

	syn := asmsyntax.New(asmsyntax.GNUAS)
	src32 := seg32.GenerateSource(syn)
	src64 := seg64.GenerateSource(syn)

	if src32 == src64 {
		t.Fatalf("expected 32-bit and 64-bit ehdr sources to differ")
	}
	if !strings.Contains(src32, ".byte 1\n") {
		t.Fatalf("expected ELFCLASS32 = 1 in 32-bit ehdr, got:\n%s", src32)
	}
	if !strings.Contains(src64, ".byte 2\n") {
		t.Fatalf("expected ELFCLASS64 = 2 in 64-bit ehdr, got:\n%s", src64)
	}
}

func TestComposeProducesNonEmptyMergedSegments(t *testing.T) {
	c := newLinuxComposer(t)
	c.Libraries = []string{"libc.so.6"}
	c.UndSymbols = nil
	segments, _ := c.Compose(0)

	names := map[string]bool{}
	for _, s := range segments {
		names[s.Name] = true
	}
	for _, want := range []string{"ehdr", "phdr_load", "phdr_dynamic", "phdr_interp", "dynamic", "interp", "strtab"} {
		if !names[want] {
			t.Errorf("expected segment %q in composed list, got segments: %v", want, names)
		}
	}
	if names["hash"] {
		t.Errorf("did not expect hash segment without UND symbols")
	}
	if names["symtab"] {
		t.Errorf("did not expect symtab segment without UND symbols")
	}
}

func TestComposeIncludesHashAndSymtabWhenUndPresent(t *testing.T) {
	c := newLinuxComposer(t)
	c.Libraries = []string{"libc.so.6"}
	c.UndSymbols = []string{"environ", "__progname"}
	segments, _ := c.Compose(0)

	names := map[string]bool{}
	for _, s := range segments {
		names[s.Name] = true
	}
	if !names["hash"] {
		t.Errorf("expected hash segment when UND symbols present")
	}
	if !names["symtab"] {
		t.Errorf("expected symtab segment when UND symbols present")
	}
}
