package elfcompose

import "github.com/xyproto/dnload/internal/asmvar"

// dynamic builds the PT_DYNAMIC block: DT_STRTAB, DT_SYMTAB, DT_DEBUG,
// DT_NULL, prepended with one DT_NEEDED pair per linked library and,
// when UND symbols require runtime symbol resolution, a leading DT_HASH
// entry. DT_SYMTAB is always present - its value is 0 when there are no
// UND symbols to resolve and the real symtab address otherwise.
func (c *Composer) dynamic(hasUnd bool) *asmvar.Segment {
	addr := c.addrSize()

	symtabValue := asmvar.Int(0)
	if hasUnd {
		symtabValue = asmvar.Sym("symtab")
	}

	base := []*asmvar.Variable{
		asmvar.New([]string{"d_tag, DT_STRTAB = 5"}, addr, asmvar.Int(5), ""),
		asmvar.New([]string{"d_un"}, addr, asmvar.Sym("strtab"), ""),
		asmvar.New([]string{"d_tag, DT_SYMTAB = 6"}, addr, asmvar.Int(6), ""),
		asmvar.New([]string{"d_un"}, addr, symtabValue, ""),
		asmvar.New([]string{"d_tag, DT_DEBUG = 21"}, addr, asmvar.Int(21), ""),
		asmvar.New([]string{"d_un"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"d_tag, DT_NULL = 0"}, addr, asmvar.Int(0), ""),
		asmvar.New([]string{"d_un"}, addr, asmvar.Int(0), ""),
	}
	seg := asmvar.NewSegment("dynamic", base)

	if hasUnd {
		seg.AddDTHash("hash", addr)
	}
	// AddDTNeeded always prepends, so processing libraries from last to
	// first leaves the final DT_NEEDED order ascending (matching the
	// order they were added in).
	for i := len(c.Libraries) - 1; i >= 0; i-- {
		seg.AddDTNeeded("strtab_"+asmvar.FriendlyName(c.Libraries[i])+" - strtab", addr)
	}
	return seg
}
