package elfcompose

import (
	"fmt"
	"strings"

	"github.com/xyproto/dnload/internal/asmvar"
)

// symtab builds the symbol table: an all-zero null entry, followed by
// one UND entry per required libc symbol (FreeBSD's environ and
// __progname; Linux needs none). Field order and width differ between
// the 32- and 64-bit Elf_Sym layouts.
func (c *Composer) symtab() *asmvar.Segment {
	addr := c.addrSize()

	nullSize := 16
	if addr == 8 {
		nullSize = 24
	}
	zeros := make([]asmvar.Value, nullSize/addr)
	for i := range zeros {
		zeros[i] = asmvar.Int(0)
	}
	data := []*asmvar.Variable{
		asmvar.New([]string{"null symbol table entry"}, addr, asmvar.List(zeros...), ""),
	}

	for _, sym := range c.UndSymbols {
		label := strings.TrimLeft(sym, "_")
		nameExpr := asmvar.Sym(fmt.Sprintf("strtab_%s - strtab", label))
		valueExpr := asmvar.Sym(sym)

		if addr == 4 {
			data = append(data,
				asmvar.New([]string{"st_name"}, 4, nameExpr, ""),
				asmvar.New([]string{"st_value"}, 4, valueExpr, ""),
				asmvar.New([]string{"st_size"}, 4, asmvar.Int(uint64(addr)), ""),
				asmvar.New([]string{"st_info, STB_GLOBAL | STT_OBJECT"}, 1, asmvar.Int(0x11), ""),
				asmvar.New([]string{"st_other"}, 1, asmvar.Int(0), ""),
				asmvar.New([]string{"st_shndx"}, 2, asmvar.Int(1), ""),
			)
		} else {
			data = append(data,
				asmvar.New([]string{"st_name"}, 4, nameExpr, ""),
				asmvar.New([]string{"st_info, STB_GLOBAL | STT_OBJECT"}, 1, asmvar.Int(0x11), ""),
				asmvar.New([]string{"st_other"}, 1, asmvar.Int(0), ""),
				asmvar.New([]string{"st_shndx"}, 2, asmvar.Int(1), ""),
				asmvar.New([]string{"st_value"}, 8, valueExpr, ""),
				asmvar.New([]string{"st_size"}, 8, asmvar.Int(uint64(addr)), ""),
			)
		}
	}
	return asmvar.NewSegment("symtab", data)
}
