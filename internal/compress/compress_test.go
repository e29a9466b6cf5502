package compress

import "testing"

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"lzma": LZMA, "xz": XZ, "raw": Raw}
	for s, want := range cases {
		got, err := ParseFormat(s)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseFormat("bogus"); err == nil {
		t.Error("ParseFormat(\"bogus\") should have failed")
	}
}

func TestStubText(t *testing.T) {
	cases := []struct {
		format Format
		want   string
	}{
		{LZMA, "i=/tmp/i;tail -n+2 $0|lzcat>$i;chmod +x $i;$i;rm $i;exit"},
		{XZ, "i=/tmp/i;tail -n+2 $0|xzcat>$i;chmod +x $i;$i;rm $i;exit"},
		{Raw, "i=/tmp/i;tail -n+2 $0|xzcat -F raw>$i;chmod +x $i;$i;rm $i;exit"},
	}
	for _, c := range cases {
		if got := c.format.stub(); got != c.want {
			t.Errorf("%v.stub() = %q, want %q", c.format, got, c.want)
		}
	}
}

func TestXZArgsFormat(t *testing.T) {
	for _, f := range []Format{LZMA, XZ, Raw} {
		args := f.xzArgs()
		if len(args) == 0 {
			t.Fatalf("%v.xzArgs() returned no args", f)
		}
		if args[0] != "-9" {
			t.Errorf("%v.xzArgs()[0] = %q, want -9", f, args[0])
		}
	}
}
