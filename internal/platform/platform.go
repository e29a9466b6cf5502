// Package platform resolves platform-dependent constants (address size,
// entry virtual address, memory page, ELF machine/ABI codes, dynamic
// linker path) from an (OS, Arch) pair.
package platform

import (
	"fmt"
	"strings"

	"github.com/xyproto/dnload/internal/dnerr"
)

// Arch identifies a target instruction set. Only the two architectures
// the ELF composer supports are represented; anything else is a
// configuration error.
type Arch int

const (
	ArchUnknown Arch = iota
	ArchIA32
	ArchAMD64
)

func (a Arch) String() string {
	switch a {
	case ArchIA32:
		return "ia32"
	case ArchAMD64:
		return "amd64"
	default:
		return "unknown"
	}
}

// ParseArch accepts the common spellings a user or compiler target
// triple might use; "i386", "i686", and "x86" all normalize to ia32.
func ParseArch(s string) (Arch, error) {
	switch s {
	case "ia32", "i386", "i686", "x86":
		return ArchIA32, nil
	case "amd64", "x86_64", "x86-64":
		return ArchAMD64, nil
	default:
		return ArchUnknown, fmt.Errorf("platform: unknown architecture %q", s)
	}
}

// OS identifies a target operating system.
type OS int

const (
	OSUnknown OS = iota
	OSLinux
	OSFreeBSD
)

func (o OS) String() string {
	switch o {
	case OSLinux:
		return "Linux"
	case OSFreeBSD:
		return "FreeBSD"
	default:
		return "unknown"
	}
}

// ParseOS accepts case-insensitive OS names.
func ParseOS(s string) (OS, error) {
	switch strings.ToLower(s) {
	case "linux":
		return OSLinux, nil
	case "freebsd":
		return OSFreeBSD, nil
	default:
		return OSUnknown, fmt.Errorf("platform: unknown operating system %q", s)
	}
}

// AddressSize is the width, in bytes, of a pointer/address on the target.
type AddressSize int

const (
	AddressSize32 AddressSize = 4
	AddressSize64 AddressSize = 8
)

// Profile is a fully resolved set of platform constants for one (OS, Arch)
// pair. The phdrCount field is the only mutable slot: ElfComposer bumps it
// from 3 to 4 when a second PT_LOAD is required for a large fake-.bss.
type Profile struct {
	OS          OS
	Arch        Arch
	AddressSize AddressSize
	PageSize    uint64
	Entry       uint64
	EMachine    uint16
	EIOSABI     uint8
	Interp      string

	phdrCount int
}

// New resolves a Profile for the given OS/Arch pair. With only two
// architectures and two operating systems in scope, the lookup chain
// collapses into the two switches below; the arch switch carries the
// per-architecture defaults and the OS switch the per-OS overrides.
func New(os OS, arch Arch) (*Profile, error) {
	if os == OSUnknown {
		return nil, dnerr.New(dnerr.Config, "platform: unknown operating system")
	}
	if arch == ArchUnknown {
		return nil, dnerr.New(dnerr.Config, "platform: unknown architecture")
	}

	p := &Profile{
		OS:        os,
		Arch:      arch,
		PageSize:  4096,
		phdrCount: 3,
	}

	switch arch {
	case ArchIA32:
		p.AddressSize = AddressSize32
		p.Entry = 0x02000000
		p.EMachine = 3 // EM_386
	case ArchAMD64:
		p.AddressSize = AddressSize64
		p.Entry = 0x00400000
		p.EMachine = 0x3e // EM_X86_64
	}

	switch os {
	case OSLinux:
		p.EIOSABI = 3 // ELFOSABI_LINUX
		if arch == ArchIA32 {
			p.Interp = "/lib/ld-linux.so.2"
		} else {
			p.Interp = "/lib64/ld-linux-x86-64.so.2"
		}
	case OSFreeBSD:
		p.EIOSABI = 9 // ELFOSABI_FREEBSD
		p.Interp = "/libexec/ld-elf.so.1"
	}

	return p, nil
}

// PhdrCount returns the current program-header count (3 or 4).
func (p *Profile) PhdrCount() int { return p.phdrCount }

// SetDoubleLoad bumps the program-header count to 4, recording that a
// second PT_LOAD segment is required because the fake-.bss exceeds the
// 128 MiB single-PT_LOAD threshold.
func (p *Profile) SetDoubleLoad() { p.phdrCount = 4 }

// NeedsUndSymbols reports whether the platform requires UND symbol table
// entries (environ, __progname) to satisfy libc startup expectations.
// Only FreeBSD does; Linux's libc does not need them resolved this way.
func (p *Profile) NeedsUndSymbols() bool {
	return p.OS == OSFreeBSD
}

// EHMachine is the raw e_machine value as it would appear in an ELF
// header, already computed in New but exposed for callers that only
// have an Arch value.
func EHMachine(arch Arch) uint16 {
	switch arch {
	case ArchIA32:
		return 3
	case ArchAMD64:
		return 0x3e
	default:
		return 0
	}
}
