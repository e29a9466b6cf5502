package toolchain

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xyproto/dnload/internal/dnerr"
)

// Linker wraps the backend linker binary, tracking the flags and
// library search state a link invocation needs.
type Linker struct {
	Command         string
	basename        string
	LibraryDirs     []string
	Libraries       []string
	LinkerFlags     []string
	LinkerScriptArg []string

	// Interp is the platform's dynamic linker path, needed only when
	// generating raw `ld` invocation flags.
	Interp string
}

// NewLinker builds a Linker bound to the given backend binary path.
func NewLinker(command string) *Linker {
	return &Linker{Command: command, basename: filepath.Base(command)}
}

// GenerateLinkerFlags resolves the flag set for the bound backend,
// dispatching on its basename.
func (l *Linker) GenerateLinkerFlags() error {
	switch {
	case strings.HasPrefix(l.basename, "g++"), strings.HasPrefix(l.basename, "gcc"):
		l.LinkerFlags = []string{"-nostartfiles", "-nostdlib", "-Xlinker", "--strip-all"}
	case strings.HasPrefix(l.basename, "clang"):
		l.LinkerFlags = []string{"-nostdlib", "-Xlinker", "--strip-all"}
	case strings.HasPrefix(l.basename, "ld"):
		interp := l.Interp
		if strings.HasPrefix(interp, "\"") && strings.HasSuffix(interp, "\"") {
			interp = interp[1 : len(interp)-1]
		} else if strings.HasPrefix(interp, "0x") {
			interp = ""
		}
		l.LinkerFlags = []string{"-nostdlib", "--strip-all", "--dynamic-linker=" + interp}
	default:
		return dnerr.New(dnerr.Config, "linking not supported with linker %q", l.Command)
	}
	return nil
}

// GenerateLibraryDirectoryList renders one -L flag per directory, plus a
// combined -rpath-link when the backend is raw `ld`.
func (l *Linker) GenerateLibraryDirectoryList() []string {
	prefix := "-L"
	var out []string
	for _, d := range l.LibraryDirs {
		out = append(out, prefix+d)
	}
	if strings.HasPrefix(l.basename, "ld") && len(l.LibraryDirs) > 0 {
		out = append(out, "-rpath-link", strings.Join(l.LibraryDirs, ":"))
	}
	return out
}

// GenerateLibraryList renders one -l flag per library.
func (l *Linker) GenerateLibraryList() []string {
	out := make([]string, len(l.Libraries))
	for i, lib := range l.Libraries {
		out[i] = "-l" + lib
	}
	return out
}

var groupRe = regexp.MustCompile(`GROUP\s*\(\s*(\S+)\s+`)

// GetLibraryName resolves "lib<name>.so" to the real shared-object
// filename, following one level of linker-script GROUP() indirection if
// the candidate file is a text linker script rather than an ELF binary.
func (l *Linker) GetLibraryName(name string) string {
	libname := "lib" + name + ".so"
	for _, dir := range l.LibraryDirs {
		candidate := filepath.Join(dir, libname)
		data, err := os.ReadFile(candidate)
		if err != nil || !isASCIIText(data) {
			continue
		}
		if m := groupRe.FindSubmatch(data); m != nil {
			return filepath.Base(string(m[1]))
		}
	}
	return libname
}

func isASCIIText(data []byte) bool {
	for _, b := range data {
		if b > 0x7f {
			return false
		}
	}
	return true
}

// SetLibraries records the link library list.
func (l *Linker) SetLibraries(libs []string) { l.Libraries = libs }

// SetLibraryDirectories records only directories that actually exist.
func (l *Linker) SetLibraryDirectories(dirs []string) {
	l.LibraryDirs = nil
	for _, d := range dirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			l.LibraryDirs = append(l.LibraryDirs, d)
		}
	}
}

// SetLinkerScript arranges for a subsequent Link to pass -T <path>.
func (l *Linker) SetLinkerScript(path string) {
	l.LinkerScriptArg = []string{"-T", path}
}

// Link invokes the backend linker, appending any extra arguments (e.g.
// "--verbose" for linker-script extraction) after the regular flag set.
func (l *Linker) Link(src, dst string, extra []string) (string, error) {
	args := []string{l.Command, src, "-o", dst}
	args = append(args, l.LinkerFlags...)
	args = append(args, l.GenerateLibraryDirectoryList()...)
	args = append(args, l.GenerateLibraryList()...)
	args = append(args, extra...)
	args = append(args, l.LinkerScriptArg...)
	stdout, _, err := RunCommand(args)
	return stdout, err
}

// GetLinkerScript runs the link step with --verbose, returning the raw
// output ExtractLinkerScript parses.
func (l *Linker) GetLinkerScript(src, dst string) (string, error) {
	return l.Link(src, dst, []string{"--verbose"})
}

// LinkBinary links a raw, headerless binary with a fixed entry address
// and no other runtime support - the final step before truncation. A
// linker script installed with SetLinkerScript is honored, so the
// linker's own _end/_edata/__bss_start definitions stay commented out.
func (l *Linker) LinkBinary(src, dst, entry string) error {
	args := []string{l.Command, "--oformat=binary", "--entry=" + entry, src, "-o", dst}
	args = append(args, l.LinkerScriptArg...)
	_, _, err := RunCommand(args)
	return err
}
