package elfcompose

import "github.com/xyproto/dnload/internal/asmvar"

// interp builds the PT_INTERP string: the platform's dynamic linker
// path, null-terminated.
func (c *Composer) interp() *asmvar.Segment {
	data := []*asmvar.Variable{
		asmvar.New([]string{"path to interpreter"}, 1, asmvar.Quoted(c.Profile.Interp), ""),
		asmvar.New([]string{"interpreter terminating zero"}, 1, asmvar.Int(0), ""),
	}
	return asmvar.NewSegment("interp", data)
}
