package elfcompose

import "github.com/xyproto/dnload/internal/asmvar"

// strtab builds the string table: a leading zero byte, then one
// null-terminated library name per DT_NEEDED entry in reverse order,
// then one null-terminated UND symbol name per entry.
func (c *Composer) strtab() *asmvar.Segment {
	seg := asmvar.NewSegment("strtab", []*asmvar.Variable{
		asmvar.New([]string{"initial zero"}, 1, asmvar.Int(0), ""),
	})
	for i := len(c.Libraries) - 1; i >= 0; i-- {
		seg.AddLibraryName(c.Libraries[i])
	}
	for _, sym := range c.UndSymbols {
		seg.AddSymbolName(sym)
	}
	return seg
}
