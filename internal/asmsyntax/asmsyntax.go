// Package asmsyntax formats assembler directives in either GNU-AS or
// NASM dialect, dispatching on the backend assembler executable's
// basename (a "nasm"-prefixed basename selects NASM; everything else is
// treated as GNU-AS).
package asmsyntax

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects which directive tokens Format uses.
type Dialect int

const (
	GNUAS Dialect = iota
	NASM
)

// DialectForAssembler inspects an assembler executable's basename (e.g.
// "as" or "nasm") and returns the dialect to emit. The argument is
// matched as given; a path is not reduced to its basename here.
func DialectForAssembler(basename string) Dialect {
	if strings.HasPrefix(basename, "nasm") {
		return NASM
	}
	return GNUAS
}

// Syntax holds the directive tokens for one dialect.
type Syntax struct {
	dialect Dialect
	comment string
	byteTok string
	shortTok string
	longTok  string
	quadTok  string
	stringTok string
}

// New returns the token set for the given dialect.
func New(d Dialect) *Syntax {
	if d == NASM {
		return &Syntax{
			dialect: NASM, comment: ";",
			byteTok: "db", shortTok: "dw", longTok: "dd", quadTok: "dq",
			stringTok: "db",
		}
	}
	return &Syntax{
		dialect: GNUAS, comment: "#",
		byteTok: ".byte", shortTok: ".short", longTok: ".long", quadTok: ".quad",
		stringTok: ".ascii",
	}
}

// tokenForSize returns the directive keyword for a given byte width.
func (s *Syntax) tokenForSize(size int) string {
	switch size {
	case 1:
		return s.byteTok
	case 2:
		return s.shortTok
	case 4:
		return s.longTok
	case 8:
		return s.quadTok
	default:
		return s.byteTok
	}
}

// FormatComment renders op as comment lines at the given indent, one
// comment line per element of op.
func (s *Syntax) FormatComment(op []string, indent string) string {
	var b strings.Builder
	for _, line := range op {
		fmt.Fprintf(&b, "%s%s %s\n", indent, s.comment, line)
	}
	return b.String()
}

// FormatBlockComment renders a decorative block comment of the given
// total line length.
func (s *Syntax) FormatBlockComment(desc string, length int) string {
	if length < len(desc)+4 {
		length = len(desc) + 4
	}
	border := strings.Repeat(s.comment, length)
	var b strings.Builder
	b.WriteString(border + "\n")
	fmt.Fprintf(&b, "%s %s\n", s.comment, desc)
	b.WriteString(border + "\n")
	return b.String()
}

// FormatLabel renders one or more labels, one per line, each terminated
// by a colon.
func (s *Syntax) FormatLabel(names []string) string {
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "%s:\n", n)
	}
	return b.String()
}

// FormatEqu renders a ".equ name, value" assignment.
func (s *Syntax) FormatEqu(name, value string) string {
	return fmt.Sprintf(".equ %s, %s\n", name, value)
}

// FormatIntData renders an integer datum of the given byte size.
func (s *Syntax) FormatIntData(size int, value uint64, indent string) string {
	return fmt.Sprintf("%s%s %s\n", indent, s.tokenForSize(size), strconv.FormatUint(value, 10))
}

// FormatListData renders a list of same-size integer values on one line.
func (s *Syntax) FormatListData(size int, values []uint64, indent string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return fmt.Sprintf("%s%s %s\n", indent, s.tokenForSize(size), strings.Join(parts, ", "))
}

// FormatStringData renders a quoted string literal datum. Byte-wide
// quoted strings use the string/ascii token rather than individual byte
// directives.
func (s *Syntax) FormatStringData(size int, value string, indent string) string {
	if size == 1 {
		return fmt.Sprintf("%s%s %q\n", indent, s.stringTok, value)
	}
	return fmt.Sprintf("%s%s %q\n", indent, s.tokenForSize(size), value)
}

// FormatSymbolData renders a symbolic-expression datum (e.g.
// "ehdr_end - ehdr") verbatim, using the directive for the given size.
func (s *Syntax) FormatSymbolData(size int, expr string, indent string) string {
	return fmt.Sprintf("%s%s %s\n", indent, s.tokenForSize(size), expr)
}

// Balign renders a balign directive (GNU-AS ".balign N"; NASM's
// corresponding construct is "align N", the tool prefers GNU-AS by
// default so NASM support here is best-effort).
func (s *Syntax) Balign(n int) string {
	if s.dialect == NASM {
		return fmt.Sprintf("align %d\n", n)
	}
	return fmt.Sprintf("  .balign %d\n", n)
}
