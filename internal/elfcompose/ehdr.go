package elfcompose

import "github.com/xyproto/dnload/internal/asmvar"

// ehdr builds the ELF header segment for both 32- and 64-bit layouts
// (the 64-bit Elf64_Ehdr widens e_entry/e_phoff/e_shoff to 8 bytes and
// keeps every other field the same width as the 32-bit layout - the two
// formats agree on everything else).
func (c *Composer) ehdr() *asmvar.Segment {
	addr := c.addrSize()
	data := []*asmvar.Variable{
		asmvar.New([]string{"e_ident[EI_MAG0], magic value 0x7F"}, 1, asmvar.Int(0x7F), ""),
		asmvar.New([]string{"e_ident[EI_MAG1] to e_ident[EI_MAG3], magic value \"ELF\""}, 1, asmvar.Quoted("ELF"), ""),
		asmvar.New([]string{"e_ident[EI_CLASS]"}, 1, asmvar.Int(classForAddr(addr)), ""),
		asmvar.New([]string{"e_ident[EI_DATA], ELFDATA2LSB = 1"}, 1, asmvar.Int(1), ""),
		asmvar.New([]string{"e_ident[EI_VERSION], EV_CURRENT = 1"}, 1, asmvar.Int(1), ""),
		asmvar.New([]string{"e_ident[EI_OSABI]"}, 1, asmvar.Int(uint64(c.Profile.EIOSABI)), ""),
		asmvar.New([]string{"e_ident padding, unused"}, 1, asmvar.List(
			asmvar.Int(0), asmvar.Int(0), asmvar.Int(0), asmvar.Int(0),
			asmvar.Int(0), asmvar.Int(0), asmvar.Int(0), asmvar.Int(0)), ""),
		asmvar.New([]string{"e_type, ET_EXEC = 2"}, 2, asmvar.Int(2), ""),
		asmvar.New([]string{"e_machine"}, 2, asmvar.Int(uint64(c.Profile.EMachine)), ""),
		asmvar.New([]string{"e_version, EV_CURRENT = 1"}, 4, asmvar.Int(1), ""),
		asmvar.New([]string{"e_entry, execution starting point"}, addr, asmvar.Sym("_start"), ""),
		asmvar.New([]string{"e_phoff, offset from start to program headers"}, addr, asmvar.Sym("ehdr_end - ehdr"), ""),
		asmvar.New([]string{"e_shoff, start of section headers"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"e_flags, unused"}, 4, asmvar.Int(0), ""),
		asmvar.New([]string{"e_ehsize, header size"}, 2, asmvar.Sym("ehdr_end - ehdr"), ""),
		asmvar.New([]string{"e_phentsize, program header entry size"}, 2, asmvar.Sym("phdr_load_end - phdr_load"), ""),
		asmvar.New([]string{"e_phnum, program header count"}, 2, asmvar.Int(uint64(c.Profile.PhdrCount())), ""),
		asmvar.New([]string{"e_shentsize, section header entry size"}, 2, asmvar.Int(0), ""),
		asmvar.New([]string{"e_shnum, section header count"}, 2, asmvar.Int(0), ""),
		asmvar.New([]string{"e_shstrndx, section header string table index"}, 2, asmvar.Int(0), ""),
	}
	return asmvar.NewSegment("ehdr", data)
}

func classForAddr(addr int) uint64 {
	if addr == 8 {
		return 2 // ELFCLASS64
	}
	return 1 // ELFCLASS32
}
