package dnerr

import "testing"

func TestErrorFormatting(t *testing.T) {
	err := New(Data, "symbol %q not known", "foo")
	want := `data: symbol "foo" not known`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestToolFailureIncludesStderr(t *testing.T) {
	err := ToolFailure("compiler exited nonzero", "boom.c:1: error")
	if err.(*PipelineError).Category != Tool {
		t.Error("expected Tool category")
	}
	want := "tool: compiler exited nonzero\nboom.c:1: error"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
