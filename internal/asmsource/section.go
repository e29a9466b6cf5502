// Package asmsource parses a compiler-emitted .s file into named
// sections and performs the "crunching" pass that strips
// linking-irrelevant directives, excises the entry prologue/exit
// epilogue, normalizes alignment, builds a synthetic fake-.bss section,
// and merges .rodata into .text.
package asmsource

import (
	"regexp"
)

// Section is one part of a parsed assembler file: a name ("text",
// "rodata", "bss", "data", or another section name verbatim), the raw
// ".section ..." directive line that introduced it (empty for the
// synthetic leading "text" section), and its ordered source lines.
type Section struct {
	Name string
	Tag  string
	Line []string
}

// Empty always reports false, even for a section with no lines, so its
// result does not follow the name's literal meaning. No code in this
// module calls it; Parse keeps every section without consulting it.
func (s *Section) Empty() bool {
	return false
}

var directiveStripRe = []*regexp.Regexp{
	regexp.MustCompile(`^\s*\.file\b`),
	regexp.MustCompile(`^\s*\.globl\b`),
	regexp.MustCompile(`^\s*\.ident\b`),
	regexp.MustCompile(`^\s*\.section\b`),
	regexp.MustCompile(`^\s*\.type\b`),
	regexp.MustCompile(`^\s*\.size\b`),
	regexp.MustCompile(`^\s*\.bss\b`),
	regexp.MustCompile(`^\s*\.data\b`),
	regexp.MustCompile(`^\s*\.text\b`),
}

// stripDirectives removes every line matching one of the leading-noise
// directive patterns: .file, .globl, .ident, .section, .type, .size,
// .bss, .data, .text.
func (s *Section) stripDirectives() {
	out := s.Line[:0:0]
	for _, line := range s.Line {
		strip := false
		for _, re := range directiveStripRe {
			if re.MatchString(line) {
				strip = true
				break
			}
		}
		if !strip {
			out = append(out, line)
		}
	}
	s.Line = out
}

var alignRe = regexp.MustCompile(`^(\s*)\.align\s+\d+\s*$`)

// normalizeAlignment rewrites every ".align N" line to ".balign K" where
// K is the platform's preferred code alignment (1 on x86). Upstream
// alignment assumptions waste bytes once dnload controls image layout
// itself, so this pass always runs.
func (s *Section) normalizeAlignment(balign int) {
	for i, line := range s.Line {
		if alignRe.MatchString(line) {
			s.Line[i] = "  .balign " + itoa(balign) + "\n"
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Crunch strips directive noise then runs the architecture-specific
// passes: entry-prologue excision, exit-epilogue excision, alignment
// normalization. The original ".section ..." tag line is dropped too -
// in the linking-free image every section flows into one byte stream.
func (s *Section) Crunch(arch string) {
	s.stripDirectives()
	excisePrologue(s, arch)
	exciseEpilogue(s, arch)
	s.normalizeAlignment(1)
	s.Tag = ""
}
