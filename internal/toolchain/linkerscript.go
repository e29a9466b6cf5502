package toolchain

import (
	"regexp"

	"github.com/xyproto/dnload/internal/dnerr"
)

var (
	linkerScriptRe = regexp.MustCompile(`(?s).*linker script\S+\s*\n=+\s+(.*)\s+=+\s*\n.*`)
	bssSymbolRe    = regexp.MustCompile(`(?m)\n([^\n]+)(_end|_edata|__bss_start)(\s*=[^\n]+)\n`)
)

// ExtractLinkerScript pulls the embedded default linker script out of
// `ld --verbose` output and comments out the _end/_edata/__bss_start
// symbol definitions, so the hand-built image's own fake addresses for
// those names win over the linker's. A verbose output without the
// script marker is fatal.
func ExtractLinkerScript(verboseOutput string) (string, error) {
	m := linkerScriptRe.FindStringSubmatch(verboseOutput)
	if m == nil {
		return "", dnerr.New(dnerr.Parse, "could not extract linker script from linker output")
	}
	script := bssSymbolRe.ReplaceAllString(m[1], "\n$1/*$2$3*/\n")
	return script, nil
}
