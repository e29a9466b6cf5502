package platform

import "testing"

func TestParseArchAliases(t *testing.T) {
	for _, s := range []string{"ia32", "i386", "i686", "x86"} {
		a, err := ParseArch(s)
		if err != nil || a != ArchIA32 {
			t.Errorf("ParseArch(%q) = %v, %v, want ArchIA32", s, a, err)
		}
	}
	for _, s := range []string{"amd64", "x86_64", "x86-64"} {
		a, err := ParseArch(s)
		if err != nil || a != ArchAMD64 {
			t.Errorf("ParseArch(%q) = %v, %v, want ArchAMD64", s, a, err)
		}
	}
	if _, err := ParseArch("sparc"); err == nil {
		t.Error("ParseArch(sparc) expected error")
	}
}

func TestNewLinuxAmd64(t *testing.T) {
	p, err := New(OSLinux, ArchAMD64)
	if err != nil {
		t.Fatal(err)
	}
	if p.AddressSize != AddressSize64 {
		t.Errorf("AddressSize = %d, want 8", p.AddressSize)
	}
	if p.Entry != 0x00400000 {
		t.Errorf("Entry = %#x, want 0x400000", p.Entry)
	}
	if p.PhdrCount() != 3 {
		t.Errorf("PhdrCount() = %d, want 3", p.PhdrCount())
	}
	if p.NeedsUndSymbols() {
		t.Error("Linux should not need UND symbols")
	}
}

func TestNewFreeBSDIA32(t *testing.T) {
	p, err := New(OSFreeBSD, ArchIA32)
	if err != nil {
		t.Fatal(err)
	}
	if p.Entry != 0x02000000 {
		t.Errorf("Entry = %#x, want 0x02000000", p.Entry)
	}
	if p.Interp != "/libexec/ld-elf.so.1" {
		t.Errorf("Interp = %q", p.Interp)
	}
	if !p.NeedsUndSymbols() {
		t.Error("FreeBSD should need UND symbols")
	}
}

func TestSetDoubleLoad(t *testing.T) {
	p, _ := New(OSLinux, ArchAMD64)
	p.SetDoubleLoad()
	if p.PhdrCount() != 4 {
		t.Errorf("PhdrCount() after SetDoubleLoad = %d, want 4", p.PhdrCount())
	}
}
