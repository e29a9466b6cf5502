package elfcompose

import (
	"fmt"

	"github.com/xyproto/dnload/internal/asmvar"
)

// phdrLoadSingle builds the single PT_LOAD program header that covers
// the whole image (code, data, and fake-.bss all fit in one RWX
// mapping).
func (c *Composer) phdrLoadSingle() *asmvar.Segment {
	addr := c.addrSize()
	data := []*asmvar.Variable{
		asmvar.New([]string{"p_type, PT_LOAD = 1"}, 4, asmvar.Int(1), ""),
		asmvar.New([]string{"p_offset, offset of program start"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"p_vaddr, program virtual address"}, addr, asmvar.Int(c.Profile.Entry), ""),
		asmvar.New([]string{"p_paddr, unused"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"p_filesz, program size on disk"}, addr, asmvar.Sym("end - ehdr"), ""),
		asmvar.New([]string{"p_memsz, program size in memory"}, addr, asmvar.Sym("bss_end - ehdr"), ""),
		asmvar.New([]string{"p_flags, rwx = 7"}, 4, asmvar.Int(7), ""),
		asmvar.New([]string{"p_align"}, addr, asmvar.Int(c.Profile.PageSize), ""),
	}
	return asmvar.NewSegment("phdr_load", data)
}

// phdrLoadDouble is the code-only first PT_LOAD used when the fake-.bss
// exceeds 128 MiB: memsz equals filesz, since the .bss now lives in a
// second PT_LOAD entirely outside the file image.
func (c *Composer) phdrLoadDouble() *asmvar.Segment {
	addr := c.addrSize()
	data := []*asmvar.Variable{
		asmvar.New([]string{"p_type, PT_LOAD = 1"}, 4, asmvar.Int(1), ""),
		asmvar.New([]string{"p_offset, offset of program start"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"p_vaddr, program virtual address"}, addr, asmvar.Int(c.Profile.Entry), ""),
		asmvar.New([]string{"p_paddr, unused"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"p_filesz, program size on disk"}, addr, asmvar.Sym("end - ehdr"), ""),
		asmvar.New([]string{"p_memsz, program headers size in memory"}, addr, asmvar.Sym("end - ehdr"), ""),
		asmvar.New([]string{"p_flags, rwx = 7"}, 4, asmvar.Int(7), ""),
		asmvar.New([]string{"p_align"}, addr, asmvar.Int(c.Profile.PageSize), ""),
	}
	return asmvar.NewSegment("phdr_load", data)
}

// phdrLoadBSS is the second PT_LOAD, placed one memory page above the
// image end, covering only the fake-.bss's memsz (it has no file bytes).
func (c *Composer) phdrLoadBSS() *asmvar.Segment {
	addr := c.addrSize()
	data := []*asmvar.Variable{
		asmvar.New([]string{"p_type, PT_LOAD = 1"}, 4, asmvar.Int(1), ""),
		asmvar.New([]string{"p_offset, offset of fake .bss segment"}, addr, asmvar.Sym("end - ehdr"), ""),
		asmvar.New([]string{"p_vaddr, program virtual address"}, addr, asmvar.Sym(fmt.Sprintf("end + 0x%x", c.Profile.PageSize)), ""),
		asmvar.New([]string{"p_paddr, unused"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"p_filesz, .bss size on disk"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"p_memsz, .bss size in memory"}, addr, asmvar.Sym("bss_end - end"), ""),
		asmvar.New([]string{"p_flags, rw = 6"}, 4, asmvar.Int(6), ""),
		asmvar.New([]string{"p_align"}, addr, asmvar.Int(c.Profile.PageSize), ""),
	}
	return asmvar.NewSegment("phdr_load_bss", data)
}

// phdrDynamic points at the PT_DYNAMIC block.
func (c *Composer) phdrDynamic() *asmvar.Segment {
	addr := c.addrSize()
	data := []*asmvar.Variable{
		asmvar.New([]string{"p_type, PT_DYNAMIC = 2"}, 4, asmvar.Int(2), ""),
		asmvar.New([]string{"p_offset, offset of block"}, addr, asmvar.Sym("dynamic - ehdr"), ""),
		asmvar.New([]string{"p_vaddr, address of block"}, addr, asmvar.Sym("dynamic"), ""),
		asmvar.New([]string{"p_paddr, unused"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"p_filesz, block size on disk"}, addr, asmvar.Sym("dynamic_end - dynamic"), ""),
		asmvar.New([]string{"p_memsz, block size in memory"}, addr, asmvar.Sym("dynamic_end - dynamic"), ""),
		asmvar.New([]string{"p_flags, ignored"}, 4, asmvar.Int(0), ""),
		asmvar.New([]string{"p_align"}, addr, asmvar.Int(4), ""),
	}
	return asmvar.NewSegment("phdr_dynamic", data)
}

// phdrInterp points at the dynamic linker's interpreter path string.
func (c *Composer) phdrInterp() *asmvar.Segment {
	addr := c.addrSize()
	data := []*asmvar.Variable{
		asmvar.New([]string{"p_type, PT_INTERP = 3"}, 4, asmvar.Int(3), ""),
		asmvar.New([]string{"p_offset, offset of block"}, addr, asmvar.Sym("interp - ehdr"), ""),
		asmvar.New([]string{"p_vaddr, address of block"}, addr, asmvar.Sym("interp"), ""),
		asmvar.New([]string{"p_paddr, unused"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"p_filesz, block size on disk"}, addr, asmvar.Sym("interp_end - interp"), ""),
		asmvar.New([]string{"p_memsz, block size in memory"}, addr, asmvar.Sym("interp_end - interp"), ""),
		asmvar.New([]string{"p_flags, ignored"}, 4, asmvar.Int(0), ""),
		asmvar.New([]string{"p_align, 1 for strtab"}, addr, asmvar.Int(1), ""),
	}
	return asmvar.NewSegment("phdr_interp", data)
}
