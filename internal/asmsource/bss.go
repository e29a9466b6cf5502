package asmsource

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/xyproto/dnload/internal/asmsyntax"
)

// BSSEntry is one zero-initialized global object extracted from a
// section and folded into the fake .bss section.
type BSSEntry struct {
	Name   string
	Offset uint64
	Size   uint64
}

// largeBSSThreshold is the fake-.bss size above which a second PT_LOAD
// segment is required.
const largeBSSThreshold = 128 * 1024 * 1024

func wantLine(lines []string, re *regexp.Regexp, start int) (idx int, group string, ok bool) {
	for i := start; i < len(lines); i++ {
		m := re.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		g := ""
		if len(m) > 1 {
			g = m[1]
		}
		return i, g, true
	}
	return 0, "", false
}

var globlNameRe = regexp.MustCompile(`^\s*\.globl\s+(\S+)`)
var zeroSizeRe = regexp.MustCompile(`^\s*\.zero\s+(\d+)`)
var localNameRe = regexp.MustCompile(`^\s*\.local\s+(\S+)`)

// extractGloblObject finds and erases one ".globl NAME" / ".type
// NAME,@object" / "NAME:" / ".zero SIZE" run, returning the extracted
// (name, size). It returns ok=false once no more such runs exist.
func (s *Section) extractGloblObject() (name string, size uint64, ok bool) {
	idx := 0
	for {
		gi, nm, found := wantLine(s.Line, globlNameRe, idx)
		if !found {
			return "", 0, false
		}
		idx = gi + 1

		typeRe := regexp.MustCompile(`^\s*\.type\s+` + regexp.QuoteMeta(nm) + `\s*,\s*@object`)
		ti, _, found2 := wantLine(s.Line, typeRe, idx)
		if !found2 {
			continue
		}

		labelRe := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(nm) + `:`)
		li, _, found3 := wantLine(s.Line, labelRe, ti+1)
		if !found3 {
			continue
		}

		zi, zs, found4 := wantLine(s.Line, zeroSizeRe, li+1)
		if !found4 {
			continue
		}

		sz, err := strconv.ParseUint(zs, 10, 64)
		if err != nil {
			continue
		}
		s.Line = append(s.Line[:gi], s.Line[zi+1:]...)
		return nm, sz, true
	}
}

// extractCommObject finds and erases one ".local NAME" / ".comm
// NAME, SIZE[, ALIGN]" pair, returning the extracted (name, size).
func (s *Section) extractCommObject() (name string, size uint64, ok bool) {
	idx := 0
	for {
		li, nm, found := wantLine(s.Line, localNameRe, idx)
		if !found {
			return "", 0, false
		}
		idx = li + 1

		commRe := regexp.MustCompile(`^\s*\.comm\s+` + regexp.QuoteMeta(nm) + `\s*,\s*(\d+)`)
		ci, sz, found2 := wantLine(s.Line, commRe, idx)
		if !found2 {
			continue
		}

		n, err := strconv.ParseUint(sz, 10, 64)
		if err != nil {
			continue
		}
		s.Line = append(s.Line[:li], s.Line[ci+1:]...)
		return nm, n, true
	}
}

// extractBSSObject tries a .globl-style object first, then a .comm-style
// object, returning ok=false when the section has no more to extract.
func (s *Section) extractBSSObject() (name string, size uint64, ok bool) {
	if name, size, ok = s.extractGloblObject(); ok {
		return
	}
	return s.extractCommObject()
}

// GenerateFakeBSS scans every section for zero-initialized global
// objects, erases them, and returns a synthetic ".bss" section binding
// each extracted name to an `.equ` address expression relative to
// `bss_start`, plus the entries and the total size. memoryPage is used
// as the bss_offset when the total size exceeds the 128 MiB
// single-PT_LOAD threshold (the double-PT_LOAD case places the fake .bss
// one page above the image end).
func GenerateFakeBSS(sections []*Section, syn *asmsyntax.Syntax, memoryPage uint64) (bss *Section, entries []BSSEntry, totalSize uint64, doubleLoad bool) {
	var offset uint64
	for _, sec := range sections {
		for {
			name, size, ok := sec.extractBSSObject()
			if !ok {
				break
			}
			entries = append(entries, BSSEntry{Name: name, Offset: offset, Size: size})
			offset += size
			if r := offset % 4; r != 0 {
				offset += 4 - r
			}
		}
	}
	totalSize = offset
	doubleLoad = totalSize > largeBSSThreshold

	var bssOffset uint64
	if doubleLoad {
		bssOffset = memoryPage
	}

	lines := []string{"end:\n", "  .balign 8\n", "aligned_end:\n"}
	lines = append(lines, syn.FormatEqu("bss_start", fmt.Sprintf("aligned_end + 0x%x", bssOffset)))
	for _, e := range entries {
		lines = append(lines, syn.FormatEqu(e.Name, fmt.Sprintf("bss_start + %d", e.Offset)))
	}
	lines = append(lines, syn.FormatEqu("bss_end", fmt.Sprintf("bss_start + %d", totalSize)))

	return &Section{Name: "bss", Line: lines}, entries, totalSize, doubleLoad
}
