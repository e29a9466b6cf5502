package merge

import (
	"testing"

	"github.com/xyproto/dnload/internal/asmvar"
)

func TestPairMergesTrailingZeroRun(t *testing.T) {
	a := asmvar.NewSegment("a", []*asmvar.Variable{
		asmvar.New(nil, 4, asmvar.Int(0), ""),
	})
	b := asmvar.NewSegment("b", []*asmvar.Variable{
		asmvar.New(nil, 4, asmvar.Int(0), ""),
		asmvar.New(nil, 4, asmvar.Int(42), ""),
	})

	merged := Pair(a, b)
	if !merged {
		t.Fatal("expected a merge to occur between two zero-valued 4-byte runs")
	}
	if b.Empty() {
		t.Fatal("b should still have the non-zero variable left")
	}
}

func TestPairMovesHeadLabelsWithoutDuplicating(t *testing.T) {
	a := asmvar.NewSegment("a", []*asmvar.Variable{
		asmvar.New(nil, 4, asmvar.Int(0), ""),
	})
	b := asmvar.NewSegment("b", []*asmvar.Variable{
		asmvar.New(nil, 4, asmvar.Int(0), ""),
		asmvar.New(nil, 4, asmvar.Int(42), ""),
	})

	if !Pair(a, b) {
		t.Fatal("expected a merge to occur")
	}

	count := 0
	for _, seg := range []*asmvar.Segment{a, b} {
		for _, v := range seg.Data {
			for _, l := range v.LabelPre {
				if l == "b" {
					count++
				}
			}
		}
	}
	if count != 1 {
		t.Fatalf("label b defined %d times across segments, want exactly 1", count)
	}
	if len(a.Data[len(a.Data)-1].LabelPre) == 0 || a.Data[len(a.Data)-1].LabelPre[len(a.Data[len(a.Data)-1].LabelPre)-1] != "b" {
		t.Fatalf("expected label b to attach to a's merged tail, got %v", a.Data[len(a.Data)-1].LabelPre)
	}
}

func TestPairNoOverlapWhenValuesDiffer(t *testing.T) {
	a := asmvar.NewSegment("a", []*asmvar.Variable{asmvar.New(nil, 1, asmvar.Int(1), "")})
	b := asmvar.NewSegment("b", []*asmvar.Variable{asmvar.New(nil, 1, asmvar.Int(2), "")})
	if Pair(a, b) {
		t.Error("expected no merge when byte values differ")
	}
}

func TestListRemovesEmptiedSegment(t *testing.T) {
	a := asmvar.NewSegment("a", []*asmvar.Variable{asmvar.New(nil, 4, asmvar.Int(0), "")})
	b := asmvar.NewSegment("b", []*asmvar.Variable{asmvar.New(nil, 4, asmvar.Int(0), "")})
	c := asmvar.NewSegment("c", []*asmvar.Variable{asmvar.New(nil, 4, asmvar.Int(99), "")})

	out := List([]*asmvar.Segment{a, b, c})
	if len(out) != 2 {
		t.Fatalf("List returned %d segments, want 2 (one fully merged away)", len(out))
	}
}
