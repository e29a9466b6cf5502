package asmsyntax

import "testing"

func TestDialectForAssembler(t *testing.T) {
	if DialectForAssembler("nasm") != NASM {
		t.Error("expected NASM for basename 'nasm'")
	}
	if DialectForAssembler("/usr/local/bin/as") != GNUAS {
		t.Error("expected GNUAS for basename '/usr/local/bin/as'")
	}
	if DialectForAssembler("as") != GNUAS {
		t.Error("expected GNUAS for basename 'as'")
	}
}

func TestFormatIntData(t *testing.T) {
	s := New(GNUAS)
	got := s.FormatIntData(4, 42, "  ")
	want := "  .long 42\n"
	if got != want {
		t.Errorf("FormatIntData = %q, want %q", got, want)
	}
}

func TestFormatEqu(t *testing.T) {
	s := New(GNUAS)
	got := s.FormatEqu("bss_end", "bss_start + 20")
	want := ".equ bss_end, bss_start + 20\n"
	if got != want {
		t.Errorf("FormatEqu = %q, want %q", got, want)
	}
}

func TestBalign(t *testing.T) {
	s := New(GNUAS)
	if got, want := s.Balign(4), "  .balign 4\n"; got != want {
		t.Errorf("Balign(4) = %q, want %q", got, want)
	}
}

func TestNASMTokens(t *testing.T) {
	s := New(NASM)
	got := s.FormatIntData(1, 7, "")
	want := "db 7\n"
	if got != want {
		t.Errorf("NASM FormatIntData = %q, want %q", got, want)
	}
}
