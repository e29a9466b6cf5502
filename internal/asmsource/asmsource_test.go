package asmsource

import (
	"strings"
	"testing"

	"github.com/xyproto/dnload/internal/asmsyntax"
)

func TestPushOffsetRewrite(t *testing.T) {
	src := "_start:\n pushq %rbx\n pushq %rbp\n pushq %r12\n subq $40, %rsp\n"
	f := Parse(src)
	f.Crunch("amd64")
	got := f.String()
	want := "_start:\n subq $64, %rsp\n"
	if got != want {
		t.Fatalf("excisePrologue: got %q want %q", got, want)
	}
}

func TestExciseEpilogueAmd64(t *testing.T) {
	src := "_start:\n movl $1, %eax\n syscall\n nop\n nop\nother_label:\n ret\n"
	f := Parse(src)
	f.Crunch("amd64")
	got := f.String()
	if !strings.Contains(got, "syscall\nother_label:\n") {
		t.Fatalf("exciseEpilogue did not collapse to next label, got %q", got)
	}
	if strings.Contains(got, "nop") {
		t.Fatalf("exciseEpilogue left dead code: %q", got)
	}
}

func TestSingleByteBSS(t *testing.T) {
	src := ".globl foo\n.type foo,@object\nfoo:\n.zero 17\n"
	f := Parse(src)
	syn := asmsyntax.New(asmsyntax.GNUAS)
	bss, entries, total, double := GenerateFakeBSS(f.Sections, syn, 4096)
	if double {
		t.Fatalf("expected single PT_LOAD for a 17-byte bss")
	}
	if total != 20 {
		t.Fatalf("total = %d, want 20 (17 rounded up to a multiple of 4)", total)
	}
	if len(entries) != 1 || entries[0].Name != "foo" || entries[0].Offset != 0 || entries[0].Size != 17 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	got := strings.Join(bss.Line, "")
	for _, want := range []string{
		"end:\n",
		"  .balign 8\n",
		"aligned_end:\n",
		".equ bss_start, aligned_end + 0x0\n",
		".equ foo, bss_start + 0\n",
		".equ bss_end, bss_start + 20\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("fake .bss missing %q in:\n%s", want, got)
		}
	}
}

func TestCommObjectExtraction(t *testing.T) {
	src := ".local bar\n.comm bar,8,8\nret\n"
	f := Parse(src)
	syn := asmsyntax.New(asmsyntax.GNUAS)
	_, entries, total, _ := GenerateFakeBSS(f.Sections, syn, 4096)
	if len(entries) != 1 || entries[0].Name != "bar" || entries[0].Size != 8 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if total != 8 {
		t.Fatalf("total = %d, want 8", total)
	}
	if strings.Contains(f.Sections[0].Line[0], ".comm") {
		t.Fatalf("comm line not erased: %v", f.Sections[0].Line)
	}
}

func TestTwoPTLoadTrigger(t *testing.T) {
	var lines []string
	lines = append(lines, ".globl huge\n", ".type huge,@object\n", "huge:\n", ".zero 136314880\n") // 130 MiB
	f := &File{Sections: []*Section{{Name: "bss", Line: lines}}}
	syn := asmsyntax.New(asmsyntax.GNUAS)
	_, _, total, double := GenerateFakeBSS(f.Sections, syn, 4096)
	if !double {
		t.Fatalf("expected double PT_LOAD trigger for %d bytes", total)
	}
}

func TestFakeBSSBeforeCrunchKeepsExtraction(t *testing.T) {
	src := "_start:\n movl $1, %eax\n\t.section\t.bss\n.globl counter\n.type counter,@object\ncounter:\n.zero 4\n"
	f := Parse(src)
	syn := asmsyntax.New(asmsyntax.GNUAS)
	_, entries, total, _ := GenerateFakeBSS(f.Sections, syn, 4096)
	f.Crunch("amd64")
	if len(entries) != 1 || entries[0].Name != "counter" {
		t.Fatalf("expected counter extracted before crunch, got %+v", entries)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	out := f.String()
	if strings.Contains(out, ".globl") || strings.Contains(out, ".section") {
		t.Fatalf("crunch left directives behind:\n%s", out)
	}
}

func TestRemoveRodataMergesIntoPrecedingText(t *testing.T) {
	f := &File{Sections: []*Section{
		{Name: "text", Line: []string{"movl $1, %eax\n"}},
		{Name: "rodata", Line: []string{".ascii \"hi\"\n"}},
		{Name: "data", Line: []string{"x:\n"}},
	}}
	f.RemoveRodata()
	if len(f.Sections) != 2 {
		t.Fatalf("expected rodata section dropped, got %d sections", len(f.Sections))
	}
	if f.Sections[0].Name != "text" || !strings.Contains(strings.Join(f.Sections[0].Line, ""), "hi") {
		t.Fatalf("rodata not merged into text: %+v", f.Sections[0])
	}
}

func TestRemoveRodataBeforeFirstText(t *testing.T) {
	f := &File{Sections: []*Section{
		{Name: "rodata", Line: []string{".ascii \"early\"\n"}},
		{Name: "text", Line: []string{"movl $1, %eax\n"}},
	}}
	f.RemoveRodata()
	if len(f.Sections) != 1 || f.Sections[0].Name != "text" {
		t.Fatalf("expected single text section, got %+v", f.Sections)
	}
	if !strings.Contains(strings.Join(f.Sections[0].Line, ""), "early") {
		t.Fatalf("leading rodata not appended to last text section: %+v", f.Sections[0])
	}
}

func TestParseSectionSplit(t *testing.T) {
	src := "movl $1, %eax\n\t.section\t.rodata\n.ascii \"x\"\n\t.section\t.bss\n.zero 4\n"
	f := Parse(src)
	if len(f.Sections) != 3 {
		t.Fatalf("got %d sections, want 3: %+v", len(f.Sections), f.Sections)
	}
	if f.Sections[0].Name != "text" || f.Sections[1].Name != "rodata" || f.Sections[2].Name != "bss" {
		t.Fatalf("unexpected section names: %s %s %s", f.Sections[0].Name, f.Sections[1].Name, f.Sections[2].Name)
	}
}

func TestRoundTripWithoutCrunch(t *testing.T) {
	src := "movl $1, %eax\n\t.section\t.rodata\n.ascii \"x\"\n"
	f := Parse(src)
	if f.String() != src {
		t.Fatalf("round trip mismatch:\ngot:  %q\nwant: %q", f.String(), src)
	}
}
