package toolchain

import (
	"regexp"
	"strconv"

	"github.com/xyproto/dnload/internal/dnerr"
)

// loadSizeRe matches a LOAD program header line in `readelf -l` output
// and captures its FileSiz field, e.g.
// "  LOAD           0x000000 0x0000000000400000 0x0000000000400000 0x00142e 0x00142e RWE 0x1000".
var loadSizeRe = regexp.MustCompile(`(?m)^\s*LOAD\s+\S+\s+\S+\s+\S+\s+0x([0-9a-fA-F]+)`)

// ReadELFLoadFileSize runs `readelf -l` against path and extracts the
// first PT_LOAD segment's file size, used to truncate the raw-binary
// linker output down to its real content (the linker otherwise pads the
// file to its own alignment, wasting bytes on an image that is supposed
// to be as small as possible). A readelf output with no parsable LOAD
// line is fatal.
func ReadELFLoadFileSize(path string) (uint64, error) {
	stdout, _, err := RunCommand([]string{"readelf", "-l", path})
	if err != nil {
		return 0, err
	}
	m := loadSizeRe.FindStringSubmatch(stdout)
	if m == nil {
		return 0, dnerr.New(dnerr.Parse, "could not extract PT_LOAD file size from readelf output for %s", path)
	}
	size, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return 0, dnerr.New(dnerr.Parse, "malformed PT_LOAD file size in readelf output for %s: %v", path, err)
	}
	return size, nil
}
