package asmvar

import "testing"

func TestDeconstructReconstructRoundTrip(t *testing.T) {
	v := New([]string{"a count"}, 4, Int(0xdeadbeef), "foo")
	v.AddLabelPre("foo")
	v.AddLabelPost("foo_end")

	frags := v.Deconstruct()
	if len(frags) != 4 {
		t.Fatalf("Deconstruct returned %d fragments, want 4", len(frags))
	}
	rebuilt, ok := Reconstruct(frags)
	if !ok {
		t.Fatal("Reconstruct failed")
	}
	if rebuilt.Value.Int() != 0xdeadbeef {
		t.Errorf("rebuilt value = %#x, want 0xdeadbeef", rebuilt.Value.Int())
	}
	if rebuilt.Size != 4 {
		t.Errorf("rebuilt size = %d, want 4", rebuilt.Size)
	}
	if rebuilt.Name != "foo" {
		t.Errorf("rebuilt name = %q, want foo", rebuilt.Name)
	}
	if len(rebuilt.LabelPre) != 1 || rebuilt.LabelPre[0] != "foo" {
		t.Errorf("rebuilt LabelPre = %v", rebuilt.LabelPre)
	}
	if len(rebuilt.LabelPost) != 1 || rebuilt.LabelPost[0] != "foo_end" {
		t.Errorf("rebuilt LabelPost = %v", rebuilt.LabelPost)
	}
}

func TestSymNotDeconstructible(t *testing.T) {
	v := New(nil, 4, Sym("ehdr_end - ehdr"), "")
	if v.Deconstructible() {
		t.Error("symbolic expression should not be deconstructible")
	}
	frags := v.Deconstruct()
	if len(frags) != 1 || frags[0] != v {
		t.Error("Deconstruct on a non-deconstructible variable should return itself unchanged")
	}
}

func TestDeconstructListOfIntegers(t *testing.T) {
	v := New([]string{"padding"}, 1, List(Int(1), Int(2), Int(3)), "pad")
	v.AddLabelPost("pad_end")
	frags := v.Deconstruct()
	if len(frags) != 3 {
		t.Fatalf("Deconstruct returned %d fragments, want 3", len(frags))
	}
	for i, want := range []uint64{1, 2, 3} {
		if frags[i].Value.Int() != want {
			t.Errorf("fragment %d value = %d, want %d", i, frags[i].Value.Int(), want)
		}
	}
	if frags[0].Name != "pad" {
		t.Errorf("first fragment name = %q, want pad", frags[0].Name)
	}
	if len(frags[2].LabelPost) != 1 || frags[2].LabelPost[0] != "pad_end" {
		t.Errorf("last fragment LabelPost = %v", frags[2].LabelPost)
	}
	if frags[1].OriginalSize != OriginalSizeNone {
		t.Errorf("1-byte list element fragment should not record an original size, got %d", frags[1].OriginalSize)
	}
}

func TestMergableAndMerge(t *testing.T) {
	a := &Variable{Size: 1, Value: Int(0)}
	a.AddLabelPost("a_end")
	b := &Variable{Size: 1, Value: Int(0), Name: "b"}
	if !a.Mergable(b) {
		t.Fatal("expected a and b to be mergable (same size, same value)")
	}
	merged := a.Merge(b)
	if merged.Value.Int() != 0 {
		t.Errorf("merged value = %d, want 0", merged.Value.Int())
	}
	if merged.Name != "b" {
		t.Errorf("merged name = %q, want b", merged.Name)
	}
	if len(merged.LabelPost) != 1 || merged.LabelPost[0] != "a_end" {
		t.Errorf("merged LabelPost = %v", merged.LabelPost)
	}
}

func TestMergableRejectsDifferentValues(t *testing.T) {
	a := &Variable{Size: 1, Value: Int(1)}
	b := &Variable{Size: 1, Value: Int(2)}
	if a.Mergable(b) {
		t.Error("variables with different values should not be mergable")
	}
}
