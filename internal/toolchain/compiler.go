package toolchain

import (
	"os"
	"strings"

	"github.com/xyproto/dnload/internal/dnerr"
)

// Compiler wraps the backend C/C++ compiler binary, embedding a Linker
// for the compile-and-link path.
type Compiler struct {
	*Linker

	CompilerFlags      []string
	ExtraCompilerFlags []string
	Definitions        []string
	IncludeDirs        []string
}

// NewCompiler builds a Compiler bound to the given backend binary path.
func NewCompiler(command string) *Compiler {
	return &Compiler{Linker: NewLinker(command)}
}

// GenerateCompilerFlags resolves the optimization/codegen flag set for
// the bound backend.
func (c *Compiler) GenerateCompilerFlags() error {
	switch {
	case strings.HasPrefix(c.basename, "g++"), strings.HasPrefix(c.basename, "gcc"):
		c.CompilerFlags = []string{
			"-Os", "-ffast-math", "-fno-asynchronous-unwind-tables", "-fno-exceptions",
			"-fno-rtti", "-fno-threadsafe-statics", "-fomit-frame-pointer",
			"-fsingle-precision-constant", "-fwhole-program",
		}
	case strings.HasPrefix(c.basename, "clang"):
		c.CompilerFlags = []string{
			"-Os", "-ffast-math", "-fno-asynchronous-unwind-tables", "-fno-exceptions",
			"-fno-rtti", "-fno-threadsafe-statics", "-fomit-frame-pointer",
		}
	default:
		return dnerr.New(dnerr.Config, "compilation not supported with compiler %q", c.basename)
	}
	return nil
}

// AddExtraCompilerFlags appends flags (e.g. sdl-config --cflags output)
// that aren't already present as an include directory or definition.
func (c *Compiler) AddExtraCompilerFlags(flags []string) {
	for _, f := range flags {
		skip := false
		for _, d := range c.IncludeDirs {
			if d == f {
				skip = true
			}
		}
		for _, d := range c.Definitions {
			if d == f {
				skip = true
			}
		}
		if !skip {
			c.ExtraCompilerFlags = append(c.ExtraCompilerFlags, f)
		}
	}
}

// SetDefinitions records -D flags for the given macro names.
func (c *Compiler) SetDefinitions(names []string) {
	c.Definitions = nil
	for _, n := range names {
		c.Definitions = append(c.Definitions, "-D"+n)
	}
}

// SetIncludeDirs records -I flags for directories that exist.
func (c *Compiler) SetIncludeDirs(dirs []string) {
	c.IncludeDirs = nil
	for _, d := range dirs {
		if pathIsDir(d) {
			c.IncludeDirs = append(c.IncludeDirs, "-I"+d)
		}
	}
}

func pathIsDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// CompileAsm compiles src to assembler text at dst via `-S`.
func (c *Compiler) CompileAsm(src, dst string) error {
	args := []string{c.Command, "-S", src, "-o", dst}
	args = append(args, c.CompilerFlags...)
	args = append(args, c.ExtraCompilerFlags...)
	args = append(args, c.Definitions...)
	args = append(args, c.IncludeDirs...)
	_, _, err := RunCommand(args)
	return err
}

// CompileAndLink compiles and links src to dst directly in one compiler
// invocation; the conventionally linked "vanilla" and "dlfcn" methods
// build through it.
func (c *Compiler) CompileAndLink(src, dst string) error {
	args := []string{c.Command, src, "-o", dst}
	args = append(args, c.CompilerFlags...)
	args = append(args, c.ExtraCompilerFlags...)
	args = append(args, c.Definitions...)
	args = append(args, c.IncludeDirs...)
	args = append(args, c.LinkerFlags...)
	args = append(args, c.GenerateLibraryDirectoryList()...)
	args = append(args, c.GenerateLibraryList()...)
	_, _, err := RunCommand(args)
	return err
}

// Preprocess runs the compiler's preprocessor pass and returns the
// resulting source text, used by symbol analysis.
func (c *Compiler) Preprocess(src string) (string, error) {
	args := []string{c.Command, src}
	args = append(args, c.ExtraCompilerFlags...)
	args = append(args, c.Definitions...)
	args = append(args, c.IncludeDirs...)
	args = append(args, "-E")
	stdout, _, err := RunCommand(args)
	return stdout, err
}

// ProbeSDLConfig looks for sdl-config on the PATH and, if found, runs
// `sdl-config --cflags` and feeds the resulting flags into the compiler
// automatically; SDL detection is opportunistic and has no dedicated
// CLI flag of its own.
func (c *Compiler) ProbeSDLConfig() error {
	sdlConfig := SearchExecutable([]string{"sdl-config"})
	if sdlConfig == "" {
		return nil
	}
	stdout, _, err := RunCommand([]string{sdlConfig, "--cflags"})
	if err != nil {
		return err
	}
	c.AddExtraCompilerFlags(strings.Fields(stdout))
	return nil
}
