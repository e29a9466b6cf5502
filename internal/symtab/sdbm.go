package symtab

// Hash computes the SDBM hash of an ASCII string modulo 2^32:
// h := 0; for each byte c: h := h*65599 + c (mod 2^32).
func Hash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*65599 + uint32(name[i])
	}
	return h
}
