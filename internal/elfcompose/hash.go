package elfcompose

import "github.com/xyproto/dnload/internal/asmvar"

// hash builds the minimal DT_HASH table: nbucket = 1, nchain = n+1 (n
// being the number of UND symbols), bucket[0] = n, chain[0] = 0, and
// chain[i] = i for i in 1..n - the degenerate single-bucket table, just
// enough for the runtime linker to walk every chain entry.
func (c *Composer) hash() *asmvar.Segment {
	n := len(c.UndSymbols)
	data := []*asmvar.Variable{
		asmvar.New([]string{"nbucket"}, 4, asmvar.Int(1), ""),
		asmvar.New([]string{"nchain"}, 4, asmvar.Int(uint64(n+1)), ""),
		asmvar.New([]string{"bucket[0]"}, 4, asmvar.Int(uint64(n)), ""),
	}
	data = append(data, asmvar.New([]string{"chain[0]"}, 4, asmvar.Int(0), ""))
	for i := 1; i <= n; i++ {
		data = append(data, asmvar.New([]string{"chain[" + itoa(i) + "]"}, 4, asmvar.Int(uint64(i)), ""))
	}
	return asmvar.NewSegment("hash", data)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
