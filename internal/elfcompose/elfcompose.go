// Package elfcompose implements ElfComposer: the fixed segment templates
// for a hand-assembled ELF image (ehdr, phdr variants, dynamic, hash,
// symtab, interp, strtab) and the final segment-list assembly.
package elfcompose

import (
	"github.com/xyproto/dnload/internal/asmvar"
	"github.com/xyproto/dnload/internal/merge"
	"github.com/xyproto/dnload/internal/platform"
)

// Composer holds everything needed to assemble the segment list: the
// resolved platform profile, the ordered DT_NEEDED library list, and the
// UND symbol names the platform's libc requires (only FreeBSD's
// environ/__progname).
type Composer struct {
	Profile    *platform.Profile
	Libraries  []string
	UndSymbols []string
}

// New builds a Composer for the given profile. Libraries and UndSymbols
// are populated by the caller (the pipeline) before calling Compose.
func New(p *platform.Profile) *Composer {
	return &Composer{Profile: p}
}

// addrSize is shorthand for the profile's address width in bytes (4 or 8).
func (c *Composer) addrSize() int { return int(c.Profile.AddressSize) }

// Compose builds the full segment list in the fixed assembly order
// ([ehdr, load..., phdr_dynamic, phdr_interp, hash?, dynamic, symtab?,
// interp, strtab]), runs the segment merger across it, and returns the
// merged list along with whether a double PT_LOAD was required.
//
// bssTotalSize is the combined size of every fake-.bss entry (from
// asmsource.GenerateFakeBSS); when it exceeds the 128 MiB threshold the
// composer emits the two-PT_LOAD layout and bumps the profile's
// phdr_count to 4.
func (c *Composer) Compose(bssTotalSize uint64) ([]*asmvar.Segment, bool) {
	doubleLoad := bssTotalSize > 128*1024*1024
	if doubleLoad {
		c.Profile.SetDoubleLoad()
	}

	segments := []*asmvar.Segment{c.ehdr()}
	if doubleLoad {
		segments = append(segments, c.phdrLoadDouble(), c.phdrLoadBSS())
	} else {
		segments = append(segments, c.phdrLoadSingle())
	}
	segments = append(segments, c.phdrDynamic(), c.phdrInterp())

	hasUnd := len(c.UndSymbols) > 0
	if hasUnd {
		segments = append(segments, c.hash())
	}
	segments = append(segments, c.dynamic(hasUnd))
	if hasUnd {
		segments = append(segments, c.symtab())
	}
	segments = append(segments, c.interp(), c.strtab())

	return merge.List(segments), doubleLoad
}
