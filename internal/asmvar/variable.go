package asmvar

import "github.com/xyproto/dnload/internal/bytecodec"

// OriginalSizeNone is the sentinel meaning "not a byte fragment of a
// wider constant" - the normal state of a freshly constructed variable.
const OriginalSizeNone = -1

// Variable is an immutable-shape record describing one ELF data element:
// an optional description, a byte size, a value, an optional symbolic
// name, and the ordered label sets emitted immediately before/after it.
type Variable struct {
	Description  []string
	Size         int
	Value        Value
	Name         string
	OriginalSize int
	LabelPre     []string
	LabelPost    []string
}

// New builds a plain (non-fragment) variable.
func New(desc []string, size int, value Value, name string) *Variable {
	return &Variable{
		Description:  desc,
		Size:         size,
		Value:        value,
		Name:         name,
		OriginalSize: OriginalSizeNone,
	}
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		found := false
		for _, existing := range list {
			if existing == it {
				found = true
				break
			}
		}
		if !found {
			list = append(list, it)
		}
	}
	return list
}

func removeOne(list []string, item string) []string {
	out := list[:0:0]
	for _, it := range list {
		if it != item {
			out = append(out, it)
		}
	}
	return out
}

// AddLabelPre appends labels to the pre-label set, preserving uniqueness.
func (v *Variable) AddLabelPre(labels ...string) { v.LabelPre = appendUnique(v.LabelPre, labels...) }

// AddLabelPost appends labels to the post-label set, preserving uniqueness.
func (v *Variable) AddLabelPost(labels ...string) { v.LabelPost = appendUnique(v.LabelPost, labels...) }

// RemoveLabelPre removes a label from the pre-label set, if present.
func (v *Variable) RemoveLabelPre(label string) { v.LabelPre = removeOne(v.LabelPre, label) }

// RemoveLabelPost removes a label from the post-label set, if present.
func (v *Variable) RemoveLabelPost(label string) { v.LabelPost = removeOne(v.LabelPost, label) }

// valueAllInts reports whether v is a scalar integer or a non-empty
// list made up solely of integers.
func valueAllInts(v Value) bool {
	if v.IsInt() {
		return true
	}
	if !v.IsList() || len(v.Items()) == 0 {
		return false
	}
	for _, it := range v.Items() {
		if !it.IsInt() {
			return false
		}
	}
	return true
}

// ByteDeconstructible reports whether the overlap pass can lower this
// variable to raw bytes: scalar integers and lists of integers qualify.
// Symbolic expressions and quoted strings signal "stop here" to callers
// walking a segment's byte stream.
func (v *Variable) ByteDeconstructible() bool {
	return valueAllInts(v.Value)
}

// Deconstructible reports whether Deconstruct can split this variable
// into more than one 1-byte fragment.
func (v *Variable) Deconstructible() bool {
	return v.ByteDeconstructible() && (v.Size > 1 || v.Value.IsList())
}

// Deconstruct converts an integer-valued variable (scalar or list of
// integers) into individual 1-byte Variables in little-endian order,
// element by element. The first byte inherits description, name, and
// pre-labels; the last byte inherits post-labels; fragments of an
// element wider than one byte record OriginalSize so Reconstruct can
// rebuild the wider datum (a reconstructed list comes back as separate
// same-width variables, preserving the byte stream). If there is
// nothing to split - a 1-byte scalar, a symbolic expression, a quoted
// string - Deconstruct returns the variable unchanged wrapped in a
// single-element slice.
func (v *Variable) Deconstruct() []*Variable {
	if !v.Deconstructible() {
		return []*Variable{v}
	}
	var vals []uint64
	if v.Value.IsInt() {
		vals = []uint64{v.Value.Int()}
	} else {
		for _, it := range v.Value.Items() {
			vals = append(vals, it.Int())
		}
	}
	var out []*Variable
	for _, val := range vals {
		for _, b := range bytecodec.SplitBytes(val, bytecodec.Size(v.Size)) {
			frag := &Variable{
				Size:         1,
				Value:        Int(uint64(b)),
				OriginalSize: v.Size,
			}
			if v.Size == 1 {
				frag.OriginalSize = OriginalSizeNone
			}
			out = append(out, frag)
		}
	}
	first, last := out[0], out[len(out)-1]
	first.Description = v.Description
	first.Name = v.Name
	first.LabelPre = append([]string(nil), v.LabelPre...)
	last.LabelPost = append([]string(nil), v.LabelPost...)
	return out
}

// isPlainFragment reports whether a byte fragment carries no name,
// description, or pre-label of its own (those belong only to the first
// fragment of a wider datum).
func (v *Variable) isPlainFragment() bool {
	return v.Name == "" && len(v.Description) == 0 && len(v.LabelPre) == 0
}

// Reconstruct is the inverse of Deconstruct: given a leading byte
// fragment with OriginalSize = S > 1 followed by S-1 plain byte
// fragments (the last of which may carry a post-label), it rebuilds one
// S-byte Variable. It returns (nil, false) if the input does not form a
// valid fragment run.
func Reconstruct(fragments []*Variable) (*Variable, bool) {
	if len(fragments) == 0 {
		return nil, false
	}
	head := fragments[0]
	size := head.OriginalSize
	if size <= 1 || len(fragments) != size {
		return nil, false
	}
	bytes := make([]byte, size)
	bytes[0] = byte(head.Value.Int())
	for i := 1; i < size; i++ {
		f := fragments[i]
		if f.Size != 1 || f.OriginalSize != size || !f.isPlainFragment() {
			return nil, false
		}
		// Only the final fragment may carry a post-label.
		if i != size-1 && len(f.LabelPost) != 0 {
			return nil, false
		}
		bytes[i] = byte(f.Value.Int())
	}
	rebuilt := &Variable{
		Description:  head.Description,
		Size:         size,
		Value:        Int(bytecodec.JoinBytes(bytes)),
		Name:         head.Name,
		OriginalSize: OriginalSizeNone,
		LabelPre:     head.LabelPre,
		LabelPost:    fragments[size-1].LabelPost,
	}
	return rebuilt, true
}

// Mergable reports whether two 1-byte variables carry the same numeric
// value and can be collapsed into one during the segment overlap pass.
func (v *Variable) Mergable(o *Variable) bool {
	return v.Size == 1 && o.Size == 1 && v.Value.IsInt() && o.Value.IsInt() && v.Value.Equal(o.Value)
}

// listifyUnique combines two string lists: whichever side is non-empty
// wins if the other is empty; if both are non-empty they are unioned
// with duplicates dropped, since label entries must stay unique.
func listifyUnique(lhs, rhs []string) []string {
	if len(lhs) == 0 {
		return rhs
	}
	if len(rhs) == 0 {
		return lhs
	}
	return appendUnique(append([]string(nil), lhs...), rhs...)
}

// Merge combines two mergable 1-byte variables' metadata: descriptions,
// names, and label sets are unioned. The numeric value (already equal,
// per Mergable) is kept.
func (v *Variable) Merge(o *Variable) *Variable {
	return &Variable{
		Description:  listifyUnique(v.Description, o.Description),
		Size:         1,
		Value:        v.Value,
		Name:         mergeName(v.Name, o.Name),
		OriginalSize: v.OriginalSize,
		LabelPre:     listifyUnique(v.LabelPre, o.LabelPre),
		LabelPost:    listifyUnique(v.LabelPost, o.LabelPost),
	}
}

func mergeName(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if a == b {
		return a
	}
	return a + "_" + b
}
