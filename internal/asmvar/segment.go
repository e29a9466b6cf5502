package asmvar

import (
	"fmt"
	"strings"

	"github.com/xyproto/dnload/internal/asmsyntax"
)

// FriendlyName converts a library or symbol name into a form usable as
// part of an assembler label, replacing "." with "_" (so "libGL.so.1"
// can back a label like "strtab_libGL_so_1").
func FriendlyName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// Segment is an ordered list of Variables with a name and a trailing
// "<name>_end" label. Invariant: the first variable carries a pre-label
// equal to the segment name; the last variable carries a post-label
// equal to "<name>_end". Insertions at the head or tail refresh these.
type Segment struct {
	Name        string
	Description []string
	Data        []*Variable
}

// NewSegment builds a segment from an initial variable list, enforcing
// the name/end-label invariant. It panics if data is empty - a segment
// with no data cannot carry its own name label.
func NewSegment(name string, data []*Variable) *Segment {
	if len(data) == 0 {
		panic(fmt.Sprintf("asmvar: segment %q constructed with no data", name))
	}
	s := &Segment{Name: name, Data: data}
	s.refreshNameLabel()
	s.refreshEndLabel()
	return s
}

func (s *Segment) refreshNameLabel() {
	if len(s.Data) > 0 {
		s.Data[0].AddLabelPre(s.Name)
	}
}

func (s *Segment) refreshEndLabel() {
	if len(s.Data) > 0 {
		s.Data[len(s.Data)-1].AddLabelPost(s.Name + "_end")
	}
}

// Empty reports whether the segment's data list is empty.
func (s *Segment) Empty() bool {
	return len(s.Data) == 0
}

// AddData appends a variable, refreshing the trailing end-label.
func (s *Segment) AddData(v *Variable) {
	if len(s.Data) > 0 {
		s.Data[len(s.Data)-1].RemoveLabelPost(s.Name + "_end")
	}
	s.Data = append(s.Data, v)
	s.refreshNameLabel()
	s.refreshEndLabel()
}

// prependTagValue prepends one d_tag/d_un pair to the segment's data,
// re-establishing the name label on the new first element. Every
// conditional DT_* entry (DT_NEEDED, DT_SYMTAB, DT_HASH) is built this
// way, one call per entry, so repeated calls accumulate in reverse
// insertion order.
func (s *Segment) prependTagValue(tagDesc string, tag uint64, valDesc string, val Value, addressSize int) {
	if len(s.Data) > 0 {
		s.Data[0].RemoveLabelPre(s.Name)
	}
	tagVar := New([]string{tagDesc}, addressSize, Int(tag), "")
	valVar := New([]string{valDesc}, addressSize, val, "")
	s.Data = append([]*Variable{tagVar, valVar}, s.Data...)
	s.refreshNameLabel()
}

// AddDTNeeded prepends a DT_NEEDED tag/value pair to the segment (used
// by the dynamic segment, once per linked library). The value is the
// library name's offset within the string table, not an address.
func (s *Segment) AddDTNeeded(strtabOffset string, addressSize int) {
	s.prependTagValue("d_tag, DT_NEEDED = 1", 1, "d_un, library name offset in strtab", Sym(strtabOffset), addressSize)
}

// AddDTHash prepends a DT_HASH tag/value pair pointing at the hash table
// (used by the dynamic segment when UND symbols are present).
func (s *Segment) AddDTHash(addr string, addressSize int) {
	s.prependTagValue("d_tag, DT_HASH = 4", 4, "d_un", Sym(addr), addressSize)
}

// AddLibraryName appends a quoted library-name string and a zero
// terminator (used by the strtab segment, once per DT_NEEDED entry),
// refreshing the trailing end-label.
func (s *Segment) AddLibraryName(name string) {
	if len(s.Data) > 0 {
		s.Data[len(s.Data)-1].RemoveLabelPost(s.Name + "_end")
	}
	s.Data = append(s.Data,
		New([]string{"library name string"}, 1, Quoted(name), FriendlyName(name)),
		New([]string{"string terminating zero"}, 1, Int(0), ""),
	)
	s.refreshEndLabel()
}

// AddSymbolName appends a quoted UND symbol name and a zero terminator
// to the strtab segment, labeled with the symbol's name stripped of any
// leading underscores ("__progname" labels as "strtab_progname").
func (s *Segment) AddSymbolName(name string) {
	if len(s.Data) > 0 {
		s.Data[len(s.Data)-1].RemoveLabelPost(s.Name + "_end")
	}
	label := strings.TrimLeft(name, "_")
	s.Data = append(s.Data,
		New([]string{"symbol name"}, 1, Quoted(name), label),
		New([]string{"string terminating zero"}, 1, Int(0), ""),
	)
	s.refreshEndLabel()
}

// GenerateSource renders the segment as assembler text in the given
// dialect: labels, comments, and data directives for every variable in
// order.
func (s *Segment) GenerateSource(syn *asmsyntax.Syntax) string {
	var out string
	if len(s.Description) > 0 {
		out += syn.FormatBlockComment(joinLines(s.Description), 40)
	}
	for _, v := range s.Data {
		out += renderVariable(syn, v, s.Name)
	}
	return out
}

func joinLines(lines []string) string {
	s := ""
	for i, l := range lines {
		if i > 0 {
			s += "; "
		}
		s += l
	}
	return s
}

func renderVariable(syn *asmsyntax.Syntax, v *Variable, segName string) string {
	var out string
	if len(v.LabelPre) > 0 {
		out += syn.FormatLabel(v.LabelPre)
	}
	if v.Value.IsQuoted() && v.Name != "" && segName != "" {
		out += syn.FormatLabel([]string{segName + "_" + v.Name})
	}
	if len(v.Description) > 0 {
		out += syn.FormatComment(v.Description, "  ")
	}
	switch {
	case v.Value.IsInt():
		out += syn.FormatIntData(v.Size, v.Value.Int(), "  ")
	case v.Value.IsQuoted():
		out += syn.FormatStringData(v.Size, v.Value.String(), "  ")
	case v.Value.IsSym():
		out += syn.FormatSymbolData(v.Size, v.Value.String(), "  ")
	case v.Value.IsList():
		vals := make([]uint64, 0, len(v.Value.Items()))
		for _, it := range v.Value.Items() {
			vals = append(vals, it.Int())
		}
		out += syn.FormatListData(v.Size, vals, "  ")
	}
	if len(v.LabelPost) > 0 {
		out += syn.FormatLabel(v.LabelPost)
	}
	return out
}

// TailBytes deconstructs the segment's trailing variables into 1-byte
// fragments until a non-deconstructible variable is reached (or the
// segment is exhausted), returning them in original (forward) order.
// This is the "tail_A" half of the SegmentMerger overlap search.
func (s *Segment) TailBytes() []*Variable {
	var out []*Variable
	for i := len(s.Data) - 1; i >= 0; i-- {
		v := s.Data[i]
		if !v.ByteDeconstructible() {
			break
		}
		out = append(append([]*Variable{}, v.Deconstruct()...), out...)
	}
	return out
}

// HeadBytes deconstructs the segment's leading variables into 1-byte
// fragments until a non-deconstructible variable is reached, returning
// them in forward order. This is the "head_B" half of the overlap
// search.
func (s *Segment) HeadBytes() []*Variable {
	var out []*Variable
	for _, v := range s.Data {
		if !v.ByteDeconstructible() {
			break
		}
		out = append(out, v.Deconstruct()...)
	}
	return out
}
