// Package config parses the CLI flags into a single immutable Config
// value that travels through the pipeline explicitly - no process-wide
// mutable state. It also overlays a handful of environment-variable
// defaults using github.com/xyproto/env/v2.
package config

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/xyproto/env/v2"

	"github.com/xyproto/dnload/internal/compress"
	"github.com/xyproto/dnload/internal/dnerr"
	"github.com/xyproto/dnload/internal/header"
	"github.com/xyproto/dnload/internal/platform"
)

// Method selects the overall build strategy: the three loader flavors
// plus "maximum", which applies every available
// size-reduction technique at once (the hash loader plus the hand-built
// ELF image, specification conformance be damned).
type Method int

const (
	MethodVanilla Method = iota
	MethodDlfcn
	MethodHash
	MethodMaximum
)

// ParseMethod accepts the four values -m/--method takes.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "vanilla":
		return MethodVanilla, nil
	case "dlfcn":
		return MethodDlfcn, nil
	case "hash":
		return MethodHash, nil
	case "maximum":
		return MethodMaximum, nil
	default:
		return MethodVanilla, fmt.Errorf("config: unknown method %q", s)
	}
}

// HeaderMode maps a Method onto the HeaderEmitter loader mode it
// implies. MethodMaximum uses the hash loader - the hand-built image it
// produces has no relocations, so import-by-hash is the only resolver
// that can back it.
func (m Method) HeaderMode() header.Mode {
	switch m {
	case MethodDlfcn:
		return header.Dlfcn
	case MethodHash, MethodMaximum:
		return header.Hash
	default:
		return header.Vanilla
	}
}

// HandBuilt reports whether the method produces the hand-assembled ELF
// image (crunch + segment compose + raw-binary link) rather than a
// conventionally linked binary.
func (m Method) HandBuilt() bool {
	return m == MethodHash || m == MethodMaximum
}

// repeatedFlag accumulates one or more -I/-l/-L/-s occurrences into an
// ordered slice.
type repeatedFlag struct{ values *[]string }

func (r repeatedFlag) String() string { return "" }
func (r repeatedFlag) Set(v string) error {
	*r.values = append(*r.values, v)
	return nil
}

// Config is the fully resolved, immutable configuration for one pipeline
// run: one field per CLI flag (short/long aliases already merged), plus
// the resolved OS/Arch pair and sub-component enums derived from the
// raw strings.
type Config struct {
	Assembler          string
	CreateBinary       bool
	Compiler           string
	GuardMacro         string
	Help               bool
	IncludeDirs        []string
	Linker             string
	Libraries          []string
	LibraryDirs        []string
	Method             Method
	OutputFile         string
	OS                 platform.OS
	Arch               platform.Arch
	Prefix             string
	SearchPaths        []string
	StripBinary        string
	Target             string
	UnpackFormat       compress.Format
	Verbose            bool
	Version            bool
	Sources            []string
}

// defaultArch resolves the host architecture from the Go runtime. Only
// the operating system can be cross-targeted (-O); architecture is
// always inferred from the machine actually running the toolchain.
func defaultArch() platform.Arch {
	switch runtime.GOARCH {
	case "386":
		return platform.ArchIA32
	default:
		return platform.ArchAMD64
	}
}

func defaultOS() platform.OS {
	if runtime.GOOS == "freebsd" {
		return platform.OSFreeBSD
	}
	return platform.OSLinux
}

// Parse builds a Config from argv (excluding the program name). After
// flag parsing, DNLOAD_CC/DNLOAD_AS/DNLOAD_LD/DNLOAD_STRIP fill in any
// tool the flags left empty, so an explicit flag always wins over them.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("dnload", flag.ContinueOnError)

	assembler := fs.String("A", "", "assembler executable")
	fs.StringVar(assembler, "assembler", "", "assembler executable")
	createBinary := fs.Bool("c", false, "derive output filename from input")
	fs.BoolVar(createBinary, "create-binary", false, "derive output filename from input")
	compiler := fs.String("C", "", "compiler executable")
	fs.StringVar(compiler, "compiler", "", "compiler executable")
	guard := fs.String("d", "USE_LD", "preprocessor guard for safe mode")
	fs.StringVar(guard, "define", "USE_LD", "preprocessor guard for safe mode")
	help := fs.Bool("h", false, "print help and exit")
	fs.BoolVar(help, "help", false, "print help and exit")
	linker := fs.String("k", "", "linker executable")
	fs.StringVar(linker, "linker", "", "linker executable")
	method := fs.String("m", "vanilla", "one of vanilla, dlfcn, hash, maximum")
	fs.StringVar(method, "method", "vanilla", "one of vanilla, dlfcn, hash, maximum")
	output := fs.String("o", "", "output filename")
	fs.StringVar(output, "output-file", "", "output filename")
	osName := fs.String("O", "", "cross-target OS name")
	fs.StringVar(osName, "operating-system", "", "cross-target OS name")
	prefix := fs.String("P", "dnload_", "symbol rename prefix")
	fs.StringVar(prefix, "call-prefix", "dnload_", "symbol rename prefix")
	strip := fs.String("S", "", "strip executable")
	fs.StringVar(strip, "strip-binary", "", "strip executable")
	target := fs.String("t", "dnload.h", "header filename")
	fs.StringVar(target, "target", "dnload.h", "header filename")
	unpack := fs.String("u", "lzma", "lzma, xz, or raw")
	fs.StringVar(unpack, "unpack-header", "lzma", "lzma, xz, or raw")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.BoolVar(verbose, "verbose", false, "verbose logging")
	version := fs.Bool("V", false, "print version and exit")
	fs.BoolVar(version, "version", false, "print version and exit")

	var includeDirs, libraries, libraryDirs, searchPaths []string
	fs.Var(repeatedFlag{&includeDirs}, "I", "add to preprocess include path")
	fs.Var(repeatedFlag{&includeDirs}, "include-directory", "add to preprocess include path")
	fs.Var(repeatedFlag{&libraries}, "l", "library to link")
	fs.Var(repeatedFlag{&libraries}, "library", "library to link")
	fs.Var(repeatedFlag{&libraryDirs}, "L", "library search path")
	fs.Var(repeatedFlag{&libraryDirs}, "library-directory", "library search path")
	fs.Var(repeatedFlag{&searchPaths}, "s", "header search path")
	fs.Var(repeatedFlag{&searchPaths}, "search-path", "header search path")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Assembler:    firstNonEmpty(*assembler, env.Str("DNLOAD_AS", "")),
		CreateBinary: *createBinary,
		Compiler:     firstNonEmpty(*compiler, env.Str("DNLOAD_CC", "")),
		GuardMacro:   *guard,
		Help:         *help,
		IncludeDirs:  includeDirs,
		Linker:       firstNonEmpty(*linker, env.Str("DNLOAD_LD", "")),
		Libraries:    libraries,
		LibraryDirs:  libraryDirs,
		OutputFile:   *output,
		Prefix:       *prefix,
		SearchPaths:  searchPaths,
		StripBinary:  firstNonEmpty(*strip, env.Str("DNLOAD_STRIP", "")),
		Target:       *target,
		Verbose:      *verbose,
		Version:      *version,
		Sources:      fs.Args(),
		Arch:         defaultArch(),
		OS:           defaultOS(),
	}

	if cfg.Help || cfg.Version {
		return cfg, nil
	}

	m, err := ParseMethod(*method)
	if err != nil {
		return nil, dnerr.New(dnerr.Config, "%v", err)
	}
	cfg.Method = m

	if *osName != "" {
		o, err := platform.ParseOS(*osName)
		if err != nil {
			return nil, dnerr.New(dnerr.Config, "%v", err)
		}
		cfg.OS = o
	}

	uf, err := compress.ParseFormat(*unpack)
	if err != nil {
		return nil, dnerr.New(dnerr.Config, "%v", err)
	}
	cfg.UnpackFormat = uf

	return cfg, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Usage writes the flag-table help text to w.
func Usage(w *os.File) {
	fmt.Fprintln(w, "usage: dnload [flags] source.c")
	fmt.Fprintln(w, "  -A, --assembler <path>          assembler executable")
	fmt.Fprintln(w, "  -c, --create-binary             derive output filename from input")
	fmt.Fprintln(w, "  -C, --compiler <path>           compiler executable")
	fmt.Fprintln(w, "  -d, --define <macro>            preprocessor guard for safe mode (default USE_LD)")
	fmt.Fprintln(w, "  -h, --help                      print help, exit 0")
	fmt.Fprintln(w, "  -I, --include-directory <dir>   add to preprocess include path (repeatable)")
	fmt.Fprintln(w, "  -k, --linker <path>             linker executable")
	fmt.Fprintln(w, "  -l, --library <name>            library to link (repeatable)")
	fmt.Fprintln(w, "  -L, --library-directory <dir>   library search path (repeatable)")
	fmt.Fprintln(w, "  -m, --method <name>             vanilla, dlfcn, hash, or maximum")
	fmt.Fprintln(w, "  -o, --output-file <path>        output filename")
	fmt.Fprintln(w, "  -O, --operating-system <name>   cross-target OS name")
	fmt.Fprintln(w, "  -P, --call-prefix <prefix>      rename prefix (default dnload_)")
	fmt.Fprintln(w, "  -s, --search-path <dir>         header search path (repeatable)")
	fmt.Fprintln(w, "  -S, --strip-binary <path>       strip executable")
	fmt.Fprintln(w, "  -t, --target <path>             header filename (default dnload.h)")
	fmt.Fprintln(w, "  -u, --unpack-header <format>    lzma, xz, or raw")
	fmt.Fprintln(w, "  -v, --verbose                   verbose logging")
	fmt.Fprintln(w, "  -V, --version                   print version, exit 0")
}
