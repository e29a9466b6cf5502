package symtab

import "testing"

func TestHashKnownValues(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"glClear", 0x1fd92088},
		{"", 0x00000000},
		{"malloc", 0x03f31de8},
	}
	for _, c := range cases {
		if got := Hash(c.in); got != c.want {
			t.Errorf("Hash(%q) = %#08x, want %#08x", c.in, got, c.want)
		}
	}
}
