package asmvar

// ReplaceTail removes the trailing int-valued run of variables (the same
// run TailBytes would return, as whole variables rather than byte
// fragments) and appends the given replacement fragments, each
// reconstructed back into as-wide-as-possible variables where possible.
// Used by the merger to write back a segment's tail after an overlap
// merge shortens it.
func (s *Segment) ReplaceTail(fragments []*Variable) {
	cut := 0
	for i := len(s.Data) - 1; i >= 0; i-- {
		if !s.Data[i].ByteDeconstructible() {
			break
		}
		cut++
	}
	kept := s.Data[:len(s.Data)-cut]
	rebuilt := regroup(fragments)
	s.Data = append(kept, rebuilt...)
	if len(s.Data) > 0 {
		s.refreshEndLabel()
	}
}

// ReplaceHead is the mirror of ReplaceTail for a segment's leading run.
func (s *Segment) ReplaceHead(fragments []*Variable) {
	cut := 0
	for _, v := range s.Data {
		if !v.ByteDeconstructible() {
			break
		}
		cut++
	}
	kept := s.Data[cut:]
	rebuilt := regroup(fragments)
	// The segment's name label is not re-established here: when a merge
	// consumed this segment's leading bytes, the label moved onto the
	// previous segment's tail and must stay there, or the assembler
	// would see it defined twice.
	s.Data = append(rebuilt, kept...)
}

// regroup folds a flat byte-fragment stream back into the widest
// variables Reconstruct can build, walking left to right: whenever the
// next OriginalSize-many fragments form a valid run, they collapse to
// one variable; otherwise the single byte fragment is kept as-is.
func regroup(fragments []*Variable) []*Variable {
	var out []*Variable
	i := 0
	for i < len(fragments) {
		f := fragments[i]
		size := f.OriginalSize
		if size > 1 && i+size <= len(fragments) {
			if rebuilt, ok := Reconstruct(fragments[i : i+size]); ok {
				out = append(out, rebuilt)
				i += size
				continue
			}
		}
		plain := &Variable{
			Description: f.Description,
			Size:        1,
			Value:       f.Value,
			Name:        f.Name,
			OriginalSize: OriginalSizeNone,
			LabelPre:    f.LabelPre,
			LabelPost:   f.LabelPost,
		}
		out = append(out, plain)
		i++
	}
	return out
}
