package asmsource

import (
	"regexp"
	"strings"
)

// File is a compiler-emitted .s file parsed into named sections. Lines
// preceding the first ".section" directive form a synthetic leading
// "text" section.
type File struct {
	Sections []*Section
}

var sectionSplitRe = regexp.MustCompile(`^\s+\.section\s+"?\.([A-Za-z0-9_]+)[.\s]`)

// Parse splits raw assembler source text into a File of named sections.
func Parse(text string) *File {
	lines := splitLinesKeepEnds(text)
	f := &File{}
	current := &Section{Name: "text"}
	for _, line := range lines {
		if m := sectionSplitRe.FindStringSubmatch(line); m != nil {
			f.Sections = append(f.Sections, current)
			current = &Section{Name: m[1], Tag: line}
			continue
		}
		current.Line = append(current.Line, line)
	}
	// The trailing section is always kept, even when it has no lines.
	f.Sections = append(f.Sections, current)
	return f
}

// splitLinesKeepEnds splits text into lines, each retaining its trailing
// newline (to match round-trip rewriting expectations), dropping a final
// empty trailing element produced by a terminal newline.
func splitLinesKeepEnds(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.SplitAfter(text, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// String reassembles the file's sections back into assembler source text,
// writing each section's tag line (if any) followed by its content lines.
func (f *File) String() string {
	var b strings.Builder
	for _, s := range f.Sections {
		if s.Tag != "" {
			b.WriteString(s.Tag)
		}
		for _, l := range s.Line {
			b.WriteString(l)
		}
	}
	return b.String()
}

// RemoveRodata merges every "rodata" section's lines into the preceding
// "text" section, dropping the rodata section from the list. A rodata
// section appearing before any text section is held and appended to the
// last text section once the whole file has been scanned. With a single
// RWX PT_LOAD there is no distinct place for .rodata; folding it into
// .text keeps relative addressing simple.
func (f *File) RemoveRodata() {
	var out []*Section
	var textSection *Section
	var pending []*Section
	for _, s := range f.Sections {
		switch s.Name {
		case "text":
			textSection = s
			out = append(out, s)
		case "rodata":
			if textSection != nil {
				textSection.Line = append(textSection.Line, s.Line...)
			} else {
				pending = append(pending, s)
			}
		default:
			out = append(out, s)
		}
	}
	for _, s := range pending {
		if textSection != nil {
			textSection.Line = append(textSection.Line, s.Line...)
		}
	}
	f.Sections = out
}

// Crunch runs Section.Crunch on every section in the file.
func (f *File) Crunch(arch string) {
	for _, s := range f.Sections {
		s.Crunch(arch)
	}
}
