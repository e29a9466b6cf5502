// Package pipeline implements Driver, the orchestrator: preprocess,
// resolve symbols, emit dnload.h, and - when an output binary is
// requested - run either the conventional compile-and-link path
// (vanilla/dlfcn) or the hand-built ELF compose path (hash/maximum)
// through to a compressed, self-extracting final file.
package pipeline

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xyproto/dnload/internal/asmsource"
	"github.com/xyproto/dnload/internal/asmsyntax"
	"github.com/xyproto/dnload/internal/compress"
	"github.com/xyproto/dnload/internal/config"
	"github.com/xyproto/dnload/internal/diag"
	"github.com/xyproto/dnload/internal/dnerr"
	"github.com/xyproto/dnload/internal/elfcompose"
	"github.com/xyproto/dnload/internal/header"
	"github.com/xyproto/dnload/internal/platform"
	"github.com/xyproto/dnload/internal/symtab"
	"github.com/xyproto/dnload/internal/toolchain"
)

// Driver runs one pipeline invocation end to end. Catalog is injected so
// tests can substitute a small fixture catalog instead of the built-in
// one.
type Driver struct {
	Catalog *symtab.Catalog
	Log     *diag.Logger
}

// New builds a Driver with the standard built-in catalog.
func New(verbose bool) *Driver {
	return &Driver{Catalog: symtab.NewCatalog(), Log: diag.New(verbose)}
}

// Run executes the full pipeline for cfg: header generation always runs;
// the binary build runs only when an output path is requested (either
// -o or -c was given).
func (d *Driver) Run(cfg *config.Config) error {
	if len(cfg.Sources) == 0 {
		return dnerr.New(dnerr.Config, "no source files given")
	}

	compiler, err := d.resolveCompiler(cfg)
	if err != nil {
		return err
	}
	if err := compiler.ProbeSDLConfig(); err != nil {
		return err
	}

	// The header include is guarded out during analysis so that the
	// preprocessor never chokes on a dnload.h that does not exist yet.
	compiler.SetDefinitions([]string{"DNLOAD_H"})
	names, err := d.discoverSymbols(compiler, cfg)
	if err != nil {
		return err
	}
	compiler.SetDefinitions(nil)

	symbols, err := d.Catalog.FindAll(names)
	if err != nil {
		return err
	}
	symtab.SortSymbols(symbols)

	emitter := header.New(cfg.Method.HeaderMode(), cfg.GuardMacro, cfg.Prefix)
	headerText := emitter.Generate(symbols)
	target := resolveTargetHeader(cfg)
	if err := os.WriteFile(target, []byte(headerText), 0o644); err != nil {
		return dnerr.New(dnerr.Tool, "writing %s: %v", target, err)
	}
	d.Log.Verbosef("wrote header %s (%d symbols, %s mode)", target, len(symbols), emitter.Mode)

	outFile := outputPath(cfg)
	if outFile == "" {
		return nil
	}

	if cfg.Method.HandBuilt() {
		profile, err := platform.New(cfg.OS, cfg.Arch)
		if err != nil {
			return err
		}
		return d.buildHandAssembled(cfg, compiler, profile, symbols, outFile)
	}
	return d.buildConventional(cfg, compiler, outFile)
}

// resolveTargetHeader locates the header file to (re)write: an explicit
// path is used verbatim; a bare filename is looked up in the -s search
// paths so regeneration lands on the existing copy, falling back to the
// working directory when no copy exists yet.
func resolveTargetHeader(cfg *config.Config) string {
	if filepath.Dir(cfg.Target) != "." {
		return cfg.Target
	}
	for _, dir := range cfg.SearchPaths {
		candidate := filepath.Join(dir, cfg.Target)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return cfg.Target
}

// outputPath resolves the final output filename: -o wins; otherwise -c
// derives it from the first source file's basename with its extension
// stripped.
func outputPath(cfg *config.Config) string {
	if cfg.OutputFile != "" {
		return cfg.OutputFile
	}
	if cfg.CreateBinary {
		base := filepath.Base(cfg.Sources[0])
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return ""
}

func (d *Driver) resolveCompiler(cfg *config.Config) (*toolchain.Compiler, error) {
	candidates := toolchain.DefaultCompilers
	if cfg.Compiler != "" {
		candidates = append([]string{cfg.Compiler}, toolchain.DefaultCompilers...)
	}
	path := toolchain.SearchExecutable(candidates)
	if path == "" {
		return nil, dnerr.New(dnerr.Config, "no usable compiler found")
	}
	c := toolchain.NewCompiler(path)
	if err := c.GenerateCompilerFlags(); err != nil {
		return nil, err
	}
	c.SetIncludeDirs(cfg.IncludeDirs)
	return c, nil
}

var symbolNameRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// discoverSymbols preprocesses every source file and scans the resulting
// text for identifiers beginning with cfg.Prefix, stripping the prefix
// to recover the catalog-facing name.
func (d *Driver) discoverSymbols(compiler *toolchain.Compiler, cfg *config.Config) ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, src := range cfg.Sources {
		text, err := compiler.Preprocess(src)
		if err != nil {
			return nil, err
		}
		for _, name := range extractPrefixedNames(text, cfg.Prefix) {
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// extractPrefixedNames scans text for identifiers beginning with prefix
// and returns each one with the prefix stripped, in first-seen order
// with duplicates kept (discoverSymbols does the cross-file dedup). Kept
// as a pure function so the regex-scanning rule can be tested without
// spawning a preprocessor.
func extractPrefixedNames(text, prefix string) []string {
	var out []string
	for _, tok := range symbolNameRe.FindAllString(text, -1) {
		if !strings.HasPrefix(tok, prefix) {
			continue
		}
		name := strings.TrimPrefix(tok, prefix)
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	return out
}

// buildConventional implements the vanilla and dlfcn methods: compile
// and link normally with the backend compiler, strip the result, and
// wrap it in the self-extracting compression stub. These two loaders
// lean on the OS dynamic linker (directly, or through dlopen/dlsym), so
// the binary must be a conforming ELF with real relocations - the
// hand-built image cannot back them.
func (d *Driver) buildConventional(cfg *config.Config, compiler *toolchain.Compiler, outFile string) error {
	unprocessedPath := outFile + ".unprocessed"
	strippedPath := outFile + ".stripped"

	if err := compiler.GenerateLinkerFlags(); err != nil {
		return err
	}
	compiler.SetLibraryDirectories(cfg.LibraryDirs)
	compiler.SetLibraries(cfg.Libraries)
	if err := compiler.CompileAndLink(cfg.Sources[0], unprocessedPath); err != nil {
		return err
	}
	d.Log.Verbosef("compiled and linked %s", unprocessedPath)

	if err := copyFile(unprocessedPath, strippedPath); err != nil {
		return err
	}
	stripBinary := cfg.StripBinary
	if stripBinary == "" {
		stripBinary = toolchain.SearchExecutable(toolchain.DefaultStrip)
	}
	if stripBinary == "" {
		return dnerr.New(dnerr.Config, "no usable strip binary found")
	}
	if err := toolchain.Strip(stripBinary, strippedPath); err != nil {
		return err
	}

	return d.compressFinal(cfg, strippedPath, outFile)
}

// buildHandAssembled implements the hash and maximum methods: compile to
// assembler text, build the fake .bss, crunch, compose the ELF segment
// templates, merge adjacent segments, glue everything into one assembler
// file, assemble, link as a raw binary with a patched linker script,
// truncate to the real PT_LOAD size, and compress. The raw-binary
// output starts with the hand-built ELF header, so readelf parses our
// own program headers when extracting the truncation size.
func (d *Driver) buildHandAssembled(cfg *config.Config, compiler *toolchain.Compiler, profile *platform.Profile, symbols []*symtab.Symbol, outFile string) error {
	asmPath := outFile + ".s"
	finalPath := outFile + ".final.S"
	objPath := outFile + ".o"
	ldPath := outFile + ".ld"
	rawPath := outFile + ".unprocessed"

	if err := compiler.CompileAsm(cfg.Sources[0], asmPath); err != nil {
		return err
	}
	d.Log.Verbosef("compiled %s to %s", cfg.Sources[0], asmPath)

	rawText, err := os.ReadFile(asmPath)
	if err != nil {
		return dnerr.New(dnerr.Tool, "reading %s: %v", asmPath, err)
	}

	assembler := resolveAssembler(cfg)
	if assembler == "" {
		return dnerr.New(dnerr.Config, "no usable assembler found")
	}
	syn := asmsyntax.New(asmsyntax.DialectForAssembler(filepath.Base(assembler)))

	// Fake-.bss extraction must run before the crunch: the crunch
	// strips the very .globl/.type lines the extraction matches on.
	file := asmsource.Parse(string(rawText))
	file.RemoveRodata()
	bssSection, _, totalBSS, _ := asmsource.GenerateFakeBSS(file.Sections, syn, profile.PageSize)
	file.Crunch(profile.Arch.String())

	linker, err := d.resolveLinker(cfg)
	if err != nil {
		return err
	}
	linker.SetLibraryDirectories(cfg.LibraryDirs)

	composer := elfcompose.New(profile)
	composer.Libraries = dtNeededLibraries(cfg, linker, symbols)
	if profile.NeedsUndSymbols() {
		composer.UndSymbols = []string{"environ", "__progname"}
	}
	segments, doubleLoad := composer.Compose(totalBSS)
	if doubleLoad {
		d.Log.Verbosef("fake .bss of %d bytes needs a second PT_LOAD", totalBSS)
	}

	var final strings.Builder
	for _, seg := range segments {
		final.WriteString(seg.GenerateSource(syn))
	}
	final.WriteString(file.String())
	for _, l := range bssSection.Line {
		final.WriteString(l)
	}

	if err := os.WriteFile(finalPath, []byte(final.String()), 0o644); err != nil {
		return dnerr.New(dnerr.Tool, "writing %s: %v", finalPath, err)
	}

	if err := toolchain.Assemble(assembler, finalPath, objPath); err != nil {
		return err
	}

	verboseOut, err := linker.GetLinkerScript(objPath, rawPath)
	if err != nil {
		return err
	}
	script, err := toolchain.ExtractLinkerScript(verboseOut)
	if err != nil {
		return err
	}
	if err := os.WriteFile(ldPath, []byte(script), 0o644); err != nil {
		return dnerr.New(dnerr.Tool, "writing %s: %v", ldPath, err)
	}
	linker.SetLinkerScript(ldPath)

	entry := "0x" + strconv.FormatUint(profile.Entry, 16)
	if err := linker.LinkBinary(objPath, rawPath, entry); err != nil {
		return err
	}

	size, err := toolchain.ReadELFLoadFileSize(rawPath)
	if err != nil {
		return err
	}
	if err := os.Truncate(rawPath, int64(size)); err != nil {
		return dnerr.New(dnerr.Tool, "truncating %s: %v", rawPath, err)
	}
	d.Log.Verbosef("linked and truncated %s to %d bytes", rawPath, size)

	return d.compressFinal(cfg, rawPath, outFile)
}

// compressFinal wraps an intermediate binary in the self-extracting
// shell stub, producing the final executable.
func (d *Driver) compressFinal(cfg *config.Config, src, outFile string) error {
	xzBinary := toolchain.SearchExecutable([]string{"xz"})
	if xzBinary == "" {
		return dnerr.New(dnerr.Config, "no usable xz binary found")
	}
	if err := compress.File(xzBinary, src, outFile, cfg.UnpackFormat); err != nil {
		return err
	}
	d.Log.Verbosef("compressed final binary to %s", outFile)
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return dnerr.New(dnerr.Tool, "reading %s: %v", src, err)
	}
	if err := os.WriteFile(dst, data, 0o755); err != nil {
		return dnerr.New(dnerr.Tool, "writing %s: %v", dst, err)
	}
	return nil
}

func resolveAssembler(cfg *config.Config) string {
	if cfg.Assembler != "" {
		return cfg.Assembler
	}
	return toolchain.SearchExecutable(toolchain.DefaultAssemblers)
}

// resolveLinker finds the backend linker binary. The raw-binary link
// step takes no library flags of its own - the hand-built PT_INTERP and
// PT_DYNAMIC segments already carry everything the kernel and dynamic
// linker need - but the library search directories still matter for
// resolving "lib<name>.so" indirections into real DT_NEEDED names.
func (d *Driver) resolveLinker(cfg *config.Config) (*toolchain.Linker, error) {
	path := cfg.Linker
	if path == "" {
		path = toolchain.SearchExecutable(toolchain.DefaultLinkers)
	}
	if path == "" {
		return nil, dnerr.New(dnerr.Config, "no usable linker found")
	}
	return toolchain.NewLinker(path), nil
}

// dtNeededLibraries resolves the alphabetized DT_NEEDED list: explicit
// -l flags win, each run through the linker-script GROUP() indirection
// to find the real shared-object filename; with no -l flags the list
// falls back to the shared objects backing the resolved symbols.
func dtNeededLibraries(cfg *config.Config, linker *toolchain.Linker, symbols []*symtab.Symbol) []string {
	if len(cfg.Libraries) > 0 {
		out := make([]string, 0, len(cfg.Libraries))
		for _, lib := range cfg.Libraries {
			out = append(out, linker.GetLibraryName(lib))
		}
		sort.Strings(out)
		return out
	}
	return librariesFor(symbols)
}

// librariesFor collects the alphabetized, deduplicated set of shared-
// object filenames backing the resolved symbols, the DT_NEEDED list the
// composer's dynamic/strtab segments iterate over.
func librariesFor(symbols []*symtab.Symbol) []string {
	seen := make(map[string]bool)
	var libs []string
	for _, s := range symbols {
		if s.Library == nil || seen[s.Library.SOFile] {
			continue
		}
		seen[s.Library.SOFile] = true
		libs = append(libs, s.Library.SOFile)
	}
	sort.Strings(libs)
	return libs
}
